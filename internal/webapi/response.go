// response.go — Response: status/statusText/headers/body plus the
// internal upgrade sentinel a `server.upgrade` handler call leaves behind
// for the host dispatcher to observe.
package webapi

import (
	"encoding/json"
	"strconv"

	"github.com/dev-console/fetchbridge/internal/streams"
)

// upgradeStatus is the sentinel status a WebSocket-upgrading Response
// carries internally; native Response construction forbids exposing 101
// directly, so it is normalized away from the externally visible Status
// and kept only in originalStatus, mirroring spec.md's non-enumerable
// `_originalStatus` note.
const upgradeStatus = 101

// Response carries everything a guest fetch handler returns, plus the
// internal upgrade bit the host dispatcher inspects via IsUpgrade.
type Response struct {
	id             InstanceID
	status         int
	statusText     string
	header         *Headers
	body           *Body
	respType       string
	redirected     bool
	url            string
	originalStatus int
}

// ResponseInit mirrors the optional second argument to `new Response(body,
// init)`.
type ResponseInit struct {
	Status     int
	StatusText string
	Headers    *Headers
}

// NewResponse constructs a normal ("basic" type) Response.
func NewResponse(body *Body, init ResponseInit) *Response {
	status := init.Status
	if status == 0 {
		status = 200
	}
	headers := init.Headers
	if headers == nil {
		headers = NewHeaders()
	}
	if body == nil {
		body = NewEmptyBody()
	}
	return &Response{
		id:             NewInstanceID(),
		status:         status,
		statusText:     init.StatusText,
		header:         headers,
		body:           body,
		respType:       "default",
		originalStatus: status,
	}
}

// NewUpgradeResponse constructs the internal Response value returned from a
// handler after it calls server.upgrade(request, init): externally visible
// Status is normalized to 200 (the dispatcher never lets this escape as a
// real HTTP response anyway; 101 is retained only via OriginalStatus for
// IsUpgrade to observe), matching the side-channel design spec.md calls for.
func NewUpgradeResponse() *Response {
	r := NewResponse(nil, ResponseInit{Status: 200})
	r.originalStatus = upgradeStatus
	return r
}

// ID returns the stable cross-boundary identity of this Response.
func (r *Response) ID() InstanceID { return r.id }

// Status returns the externally observable status code.
func (r *Response) Status() int { return r.status }

// StatusText returns the status line reason phrase.
func (r *Response) StatusText() string { return r.statusText }

// OK reports status in [200, 300).
func (r *Response) OK() bool { return r.status >= 200 && r.status < 300 }

// Headers returns the same Headers object on every call.
func (r *Response) Headers() *Headers { return r.header }

// Body returns the Body (never nil; a bodyless Response still carries a
// zero-length Body so bodyUsed/consumption methods behave consistently).
func (r *Response) Body() *Body { return r.body }

// BodyUsed reports whether the body has been disturbed.
func (r *Response) BodyUsed() bool { return r.body.Used() }

// Type returns the response type ("default", "error", or "basic").
func (r *Response) Type() string { return r.respType }

// Redirected reports whether this Response resulted from a redirect.
func (r *Response) Redirected() bool { return r.redirected }

// URL returns the final URL after any redirects, or "" if not applicable.
func (r *Response) URL() string { return r.url }

// IsUpgrade reports whether this Response carries the internal 101 upgrade
// sentinel, i.e. it resulted from a server.upgrade() call.
func (r *Response) IsUpgrade() bool { return r.originalStatus == upgradeStatus }

// OriginalStatus returns the internal, pre-normalization status — the
// side channel the host dispatcher reads to detect an upgrade without the
// externally visible Status ever being 101.
func (r *Response) OriginalStatus() int { return r.originalStatus }

// Clone splits the Response's body (per Body.Clone) and returns an
// independent Response sharing every other field's current value.
func (r *Response) Clone(tee func(streams.ID) (streams.ID, streams.ID)) (*Response, *Response, error) {
	a, b, err := r.body.Clone(tee)
	if err != nil {
		return nil, nil, err
	}
	ra := *r
	ra.id = NewInstanceID()
	ra.body = a
	rb := *r
	rb.id = NewInstanceID()
	rb.body = b
	return &ra, &rb, nil
}

// ResponseJSON implements the Response.json(value, init?) static: serializes
// value and sets Content-Type: application/json;charset=UTF-8 unless init's
// Headers already specify one.
func ResponseJSON(value any, init ResponseInit) (*Response, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	headers := init.Headers
	if headers == nil {
		headers = NewHeaders()
	}
	if _, ok := headers.Get("content-type"); !ok {
		headers.Set("Content-Type", "application/json;charset=UTF-8")
	}
	init.Headers = headers
	return NewResponse(NewBytesBody(data), init), nil
}

// ResponseRedirect implements the Response.redirect(url, status?) static.
// status defaults to 302 and must be one of the valid redirect codes.
func ResponseRedirect(url string, status int) (*Response, error) {
	if status == 0 {
		status = 302
	}
	switch status {
	case 301, 302, 303, 307, 308:
	default:
		return nil, &TypeErrorValue{Message: "Invalid redirect status code " + strconv.Itoa(status)}
	}
	headers := NewHeaders()
	headers.Set("Location", url)
	r := NewResponse(nil, ResponseInit{Status: status, Headers: headers})
	r.respType = "default"
	return r, nil
}

// ResponseError implements the Response.error() static: a network-error
// sentinel response, type "error", status 0, empty headers.
func ResponseError() *Response {
	r := NewResponse(nil, ResponseInit{Status: 0})
	// NewResponse defaults a zero status to 200; an error response keeps 0.
	r.status = 0
	r.originalStatus = 0
	r.respType = "error"
	return r
}
