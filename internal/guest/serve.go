// serve.go — serve({fetch, websocket?}) registration (C6 guest side): the
// dispatch entry point internal/dispatch calls into for each inbound
// request and WebSocket event.
package guest

import (
	"errors"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

// ErrNoServeHandler is returned by DispatchFetch/DispatchWebSocket* when the
// guest script never called serve(...).
var ErrNoServeHandler = errors.New("no serve handler registered")

type serveHandlers struct {
	fetch     goja.Callable
	onOpen    goja.Callable
	onMessage goja.Callable
	onClose   goja.Callable
	onError   goja.Callable
}

// pendingUpgrade records a server.upgrade(request, init) call made during
// the in-flight DispatchFetch, consumed by DispatchFetch once the handler's
// return value has settled and promoted into lastUpgrade for the host to
// read via GetUpgradeRequest.
type pendingUpgrade struct {
	connID WSConnID
}

func (r *Runtime) installServe() {
	vm := r.vm
	_ = vm.Set("serve", func(call goja.FunctionCall) goja.Value {
		opts, ok := call.Argument(0).(*goja.Object)
		if !ok {
			throwType(vm, "serve requires a {fetch, websocket?} object")
		}
		h := &serveHandlers{}
		if fn, ok := goja.AssertFunction(opts.Get("fetch")); ok {
			h.fetch = fn
		} else {
			throwType(vm, "serve requires a fetch handler")
		}
		if ws, ok := opts.Get("websocket").(*goja.Object); ok {
			h.onOpen, _ = goja.AssertFunction(ws.Get("open"))
			h.onMessage, _ = goja.AssertFunction(ws.Get("message"))
			h.onClose, _ = goja.AssertFunction(ws.Get("close"))
			h.onError, _ = goja.AssertFunction(ws.Get("error"))
		}
		r.server = h
		return goja.Undefined()
	})
}

// newServerObject builds the `server` value passed as a fetch handler's
// second argument, exposing only upgrade(request, init?) per spec.
func (r *Runtime) newServerObject() *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	method(obj, "upgrade", func(call goja.FunctionCall) goja.Value {
		req, ok := requestFromValue(r, call.Argument(0))
		if !ok || !isWebSocketUpgradeRequest(req) {
			return vm.ToValue(false)
		}
		var data goja.Value = goja.Undefined()
		if init, ok := call.Argument(1).(*goja.Object); ok {
			if d := init.Get("data"); d != nil {
				data = d
			}
		}
		id := r.newUpgradeConnection(data)
		r.pendingUpgrade = &pendingUpgrade{connID: id}
		return vm.ToValue(true)
	})
	return obj
}

// isWebSocketUpgradeRequest reports whether req carries the Upgrade:
// websocket / Connection: Upgrade header pair server.upgrade requires
// before it will allocate a connection.
func isWebSocketUpgradeRequest(req *webapi.Request) bool {
	upgrade, _ := req.Headers().Get("upgrade")
	conn, _ := req.Headers().Get("connection")
	return strings.EqualFold(strings.TrimSpace(upgrade), "websocket") &&
		strings.Contains(strings.ToLower(conn), "upgrade")
}

// GetUpgradeRequest reports whether the most recently completed
// DispatchFetch triggered server.upgrade, returning (and clearing) the
// connection id it allocated.
func (r *Runtime) GetUpgradeRequest() (WSConnID, bool) {
	if r.lastUpgrade == nil {
		return 0, false
	}
	id := r.lastUpgrade.connID
	r.lastUpgrade = nil
	return id, true
}

// HasServeHandler reports whether serve(...) has registered a fetch
// handler yet.
func (r *Runtime) HasServeHandler() bool {
	return r.server != nil && r.server.fetch != nil
}

// DispatchFetch invokes the registered fetch handler with req, awaiting a
// Promise return value if the handler is async, and unwraps the resulting
// guest Response back to its host value.
func (r *Runtime) DispatchFetch(req *webapi.Request) (*webapi.Response, error) {
	if !r.HasServeHandler() {
		return nil, ErrNoServeHandler
	}
	reqObj := newRequestObject(r, req)

	r.pendingUpgrade = nil
	var result goja.Value
	var callErr error
	r.Enqueue(func() {
		result, callErr = r.server.fetch(goja.Undefined(), reqObj, r.serverObj)
	})
	r.Drain()
	if callErr != nil {
		return nil, callErr
	}

	settled, err := r.awaitValue(result)
	if err != nil {
		return nil, err
	}

	if r.pendingUpgrade != nil {
		r.lastUpgrade = r.pendingUpgrade
		r.pendingUpgrade = nil
		return webapi.NewUpgradeResponse(), nil
	}

	resp, ok := responseFromValue(r, settled)
	if !ok {
		return nil, errPlain("fetch handler did not return a Response")
	}
	return resp, nil
}

// awaitValue drains the job queue until v (if a Promise) settles, returning
// its fulfilled value or its rejection as a Go error. Every async operation
// in this module resolves from in-memory state or a registered callback, so
// a bounded poll loop — rather than genuine thread parking — is sufficient.
func (r *Runtime) awaitValue(v goja.Value) (goja.Value, error) {
	p, ok := v.(*goja.Promise)
	if !ok {
		return v, nil
	}
	deadline := time.Now().Add(30 * time.Second)
	for {
		r.Drain()
		switch p.State() {
		case goja.PromiseStateFulfilled:
			return p.Result(), nil
		case goja.PromiseStateRejected:
			return nil, valueToError(r, p.Result())
		}
		if time.Now().After(deadline) {
			return nil, errPlain("timed out waiting for promise to settle")
		}
		time.Sleep(time.Millisecond)
	}
}

func valueToError(r *Runtime, v goja.Value) error {
	if obj, ok := v.(*goja.Object); ok {
		name := obj.Get("name")
		message := obj.Get("message")
		if name != nil && !goja.IsUndefined(name) {
			return &webapi.DOMException{DOMName: name.String(), Message: message.String()}
		}
	}
	return errPlain(v.String())
}

func responseFromValue(r *Runtime, v goja.Value) (*webapi.Response, bool) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	idVal := obj.Get("__instanceId")
	if idVal == nil || goja.IsUndefined(idVal) {
		return nil, false
	}
	id, err := webapi.ParseInstanceID(idVal.String())
	if err != nil {
		return nil, false
	}
	host, ok := r.marshaller.LookupGuestToHost(id)
	if !ok {
		return nil, false
	}
	resp, ok := host.(*webapi.Response)
	return resp, ok
}
