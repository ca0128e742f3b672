// request.go — Request: method/url/headers/body plus the defaulted
// metadata fields the Fetch spec pins to fixed values in this module
// (mode/credentials/cache/redirect/referrer/integrity are accepted and
// stored, never interpreted — there is no real network stack underneath).
package webapi

import (
	"strings"

	"github.com/dev-console/fetchbridge/internal/streams"
)

// Request carries everything a guest fetch handler observes about an
// inbound or outbound HTTP-shaped request.
type Request struct {
	id     InstanceID
	method string
	url    *URL
	header *Headers
	body   *Body
	signal *AbortSignal

	mode        string
	credentials string
	cache       string
	redirect    string
	referrer    string
	integrity   string
}

// RequestInit mirrors the optional second argument to `new Request(input,
// init)`; zero values mean "not supplied" and fall back to defaults (or to
// the copied source Request's values, for the Request(request, init) form).
type RequestInit struct {
	Method      string
	Headers     *Headers
	Body        *Body
	Mode        string
	Credentials string
	Cache       string
	Redirect    string
	Referrer    string
	Integrity   string
	Signal      *AbortSignal
}

// bodylessMethods rejects a body on GET/HEAD, case-insensitively before
// normalization.
func bodylessMethods(method string) bool {
	m := strings.ToUpper(method)
	return m == "GET" || m == "HEAD"
}

// normalizeMethod upper-cases method per the Fetch spec's normalization
// list, leaving any other token untouched but upper-cased per the common
// case (custom methods are rare and not special-cased here).
func normalizeMethod(method string) string {
	if method == "" {
		return "GET"
	}
	return strings.ToUpper(method)
}

// NewRequest constructs a Request from an absolute URL and init, applying
// the module's fixed defaults for any field init leaves unset.
func NewRequest(rawURL string, init RequestInit) (*Request, error) {
	u, err := ParseURL(rawURL, nil)
	if err != nil {
		return nil, err
	}
	return newRequestFromURL(u, init)
}

// NewRequestFrom implements the Request(request, init?) copy-construction
// form: fields default to source's values rather than the module defaults,
// and init overrides on top of that. source's body is NOT consumed; the
// caller is responsible for cloning it first if source must remain usable
// (mirroring the real Fetch spec, which disturbs source's body here).
func NewRequestFrom(source *Request, init RequestInit) (*Request, error) {
	merged := RequestInit{
		Method:      source.method,
		Headers:     source.header.Clone(),
		Body:        source.body,
		Mode:        source.mode,
		Credentials: source.credentials,
		Cache:       source.cache,
		Redirect:    source.redirect,
		Referrer:    source.referrer,
		Integrity:   source.integrity,
		Signal:      source.signal,
	}
	if init.Method != "" {
		merged.Method = init.Method
	}
	if init.Headers != nil {
		merged.Headers = init.Headers
	}
	if init.Body != nil {
		merged.Body = init.Body
	}
	if init.Mode != "" {
		merged.Mode = init.Mode
	}
	if init.Credentials != "" {
		merged.Credentials = init.Credentials
	}
	if init.Cache != "" {
		merged.Cache = init.Cache
	}
	if init.Redirect != "" {
		merged.Redirect = init.Redirect
	}
	if init.Referrer != "" {
		merged.Referrer = init.Referrer
	}
	if init.Integrity != "" {
		merged.Integrity = init.Integrity
	}
	if init.Signal != nil {
		merged.Signal = init.Signal
	}

	u, err := ParseURL(source.url.Href(), nil)
	if err != nil {
		return nil, err
	}
	return newRequestFromURL(u, merged)
}

func newRequestFromURL(u *URL, init RequestInit) (*Request, error) {
	method := normalizeMethod(init.Method)
	if init.Body != nil && bodylessMethods(method) {
		return nil, ErrProtocol
	}

	headers := init.Headers
	if headers == nil {
		headers = NewHeaders()
	}
	body := init.Body
	if body == nil {
		body = NewEmptyBody()
	}
	signal := init.Signal
	if signal == nil {
		signal = NewAbortSignal()
	}

	r := &Request{
		id:          NewInstanceID(),
		method:      method,
		url:         u,
		header:      headers,
		body:        body,
		signal:      signal,
		mode:        orDefault(init.Mode, "cors"),
		credentials: orDefault(init.Credentials, "same-origin"),
		cache:       orDefault(init.Cache, "default"),
		redirect:    orDefault(init.Redirect, "follow"),
		referrer:    init.Referrer,
		integrity:   init.Integrity,
	}
	return r, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ID returns the stable cross-boundary identity of this Request.
func (r *Request) ID() InstanceID { return r.id }

// Method returns the normalized HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns the absolute, serialized request URL.
func (r *Request) URL() string { return r.url.Href() }

// Headers returns the same Headers object on every call.
func (r *Request) Headers() *Headers { return r.header }

// Body returns the Body, or nil for a GET/HEAD request (per spec.md's
// {streamId?, bytes?} body being entirely absent, not merely empty, for
// bodyless methods).
func (r *Request) Body() *Body {
	if bodylessMethods(r.method) {
		return nil
	}
	return r.body
}

// BodyUsed reports whether the body has been disturbed.
func (r *Request) BodyUsed() bool {
	if r.Body() == nil {
		return false
	}
	return r.body.Used()
}

// Signal returns the associated AbortSignal.
func (r *Request) Signal() *AbortSignal { return r.signal }

func (r *Request) Mode() string        { return r.mode }
func (r *Request) Credentials() string { return r.credentials }
func (r *Request) Cache() string       { return r.cache }
func (r *Request) Redirect() string    { return r.redirect }
func (r *Request) Referrer() string    { return r.referrer }
func (r *Request) Integrity() string   { return r.integrity }

// Clone splits the Request's body (per Body.Clone) and returns an
// independent Request sharing every other field's current value. Fails if
// the body has already been disturbed.
func (r *Request) Clone(tee func(streams.ID) (streams.ID, streams.ID)) (*Request, *Request, error) {
	if r.Body() == nil {
		return r.cloneBodyless(), r.cloneBodyless(), nil
	}
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

func (r *Request) cloneBodyless() *Request {
	c := *r
	c.id = NewInstanceID()
	return &c
}
