// dispatch.go — Serve Dispatcher (C6): turns a host-shaped inbound request
// into a webapi.Request, invokes the guest's registered serve({fetch})
// handler, and hands the resulting Response back with its body still
// streamable in both directions.
package dispatch

import (
	"context"
	"io"

	"github.com/dev-console/fetchbridge/internal/guest"
	"github.com/dev-console/fetchbridge/internal/streams"
	"github.com/dev-console/fetchbridge/internal/webapi"
)

// ErrNoServeHandler mirrors guest.ErrNoServeHandler, returned when
// DispatchRequest is called before the guest script has called serve(...).
var ErrNoServeHandler = guest.ErrNoServeHandler

// HeaderPair is one (name, value) entry from the host's inbound request.
type HeaderPair struct {
	Name  string
	Value string
}

// RequestIn is the host-side shape of one inbound request, already decoded
// from whatever real transport (net/http, a test harness) produced it.
type RequestIn struct {
	Method  string
	URL     string
	Headers []HeaderPair
	// Body streams an inbound request body. A nil Body means no body (the
	// constructed Request is bodyless for GET/HEAD, empty otherwise).
	Body io.Reader
}

// Dispatcher owns the guest Runtime and stream Registry needed to turn
// RequestIn values into guest fetch() calls.
type Dispatcher struct {
	runtime  *guest.Runtime
	registry *streams.Registry
}

// New returns a Dispatcher over an already-constructed Runtime/Registry
// pair (both owned by the enclosing fetchbridge.Context).
func New(rt *guest.Runtime, reg *streams.Registry) *Dispatcher {
	return &Dispatcher{runtime: rt, registry: reg}
}

// HasServeHandler reports whether the guest script has registered a fetch
// handler via serve({fetch}).
func (d *Dispatcher) HasServeHandler() bool {
	return d.runtime.HasServeHandler()
}

// DispatchRequest builds a Request from in, calls the guest's serve({fetch})
// handler, and returns its Response. A streamed request body is pumped into
// the Registry concurrently so the guest can begin consuming it before the
// host has finished reading it off the wire. ctx cancellation aborts the
// constructed Request's signal, which a guest handler observing req.signal
// (or awaiting req.body) sees as an AbortError.
func (d *Dispatcher) DispatchRequest(ctx context.Context, in RequestIn) (*webapi.Response, error) {
	if !d.HasServeHandler() {
		return nil, ErrNoServeHandler
	}

	headers := webapi.NewHeaders()
	for _, h := range in.Headers {
		headers.Append(h.Name, h.Value)
	}

	var body *webapi.Body
	if in.Body != nil {
		id := d.registry.Create()
		go streams.Pump(ctx, d.registry, id, in.Body)
		body = webapi.NewStreamBody(d.registry, id)
	}

	ctrl := webapi.NewAbortController()
	go func() {
		<-ctx.Done()
		if err := ctx.Err(); err != nil {
			ctrl.Abort(webapi.NewAbortError(err.Error()))
		}
	}()

	req, err := webapi.NewRequest(in.URL, webapi.RequestInit{
		Method:  in.Method,
		Headers: headers,
		Body:    body,
		Signal:  ctrl.Signal(),
	})
	if err != nil {
		return nil, err
	}

	return d.runtime.DispatchFetch(req)
}
