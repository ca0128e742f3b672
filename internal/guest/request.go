// request.go — guest-visible Request: method/url/headers/signal plus the
// metadata fields the module stores but never interprets.
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newRequestObject(r *Runtime, req *webapi.Request) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["Request"])
	defineHidden(obj, "__instanceId", vm.ToValue(req.ID().String()))

	defineGetter(vm, obj, "method", func() any { return req.Method() })
	defineGetter(vm, obj, "url", func() any { return req.URL() })
	defineGetter(vm, obj, "mode", func() any { return req.Mode() })
	defineGetter(vm, obj, "credentials", func() any { return req.Credentials() })
	defineGetter(vm, obj, "cache", func() any { return req.Cache() })
	defineGetter(vm, obj, "redirect", func() any { return req.Redirect() })
	defineGetter(vm, obj, "referrer", func() any { return req.Referrer() })
	defineGetter(vm, obj, "integrity", func() any { return req.Integrity() })

	headersObj := newHeadersObject(r, req.Headers())
	defineGetter(vm, obj, "headers", func() any { return headersObj })

	signalObj := newAbortSignalObject(r, req.Signal())
	defineGetter(vm, obj, "signal", func() any { return signalObj })

	bodyOrEmpty := req.Body()
	bodyIsNull := bodyOrEmpty == nil
	if bodyIsNull {
		bodyOrEmpty = webapi.NewEmptyBody()
	}
	installBodyMembers(r, obj, bodyOrEmpty, req.Headers(), bodyIsNull)

	method(obj, "clone", func(call goja.FunctionCall) goja.Value {
		a, b, err := req.Clone(r.teeStream)
		if err != nil {
			throwFromGoError(vm, err)
		}
		r.marshaller.Forget(req.ID())
		r.marshaller.RegisterGuestToHost(req.ID(), a)
		r.marshaller.RegisterHostToGuest(req.ID(), obj)
		return newRequestObject(r, b)
	})

	r.marshaller.RegisterHostToGuest(req.ID(), obj)
	r.marshaller.RegisterGuestToHost(req.ID(), req)
	return obj
}

func (r *Runtime) installRequest() {
	vm := r.vm
	r.newConstructor("Request", func(call goja.ConstructorCall) *goja.Object {
		input := call.Argument(0)
		init := parseRequestInit(r, call.Argument(1))

		if existing, ok := requestFromValue(r, input); ok {
			req, err := webapi.NewRequestFrom(existing, init)
			if err != nil {
				throwFromGoError(vm, err)
			}
			return newRequestObject(r, req)
		}

		req, err := webapi.NewRequest(input.String(), init)
		if err != nil {
			throwFromGoError(vm, err)
		}
		return newRequestObject(r, req)
	})
}

func requestFromValue(r *Runtime, v goja.Value) (*webapi.Request, bool) {
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
	req, ok := host.(*webapi.Request)
	return req, ok
}

func parseRequestInit(r *Runtime, arg goja.Value) webapi.RequestInit {
	init := webapi.RequestInit{}
	obj, ok := arg.(*goja.Object)
	if !ok {
		return init
	}
	if v := obj.Get("method"); v != nil && !goja.IsUndefined(v) {
		init.Method = v.String()
	}
	if v := obj.Get("headers"); v != nil && !goja.IsUndefined(v) {
		h := webapi.NewHeaders()
		applyHeadersInit(r.vm, h, v)
		init.Headers = h
	}
	if v := obj.Get("body"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		init.Body = bodyFromValue(r, v)
	}
	if v := obj.Get("mode"); v != nil && !goja.IsUndefined(v) {
		init.Mode = v.String()
	}
	if v := obj.Get("credentials"); v != nil && !goja.IsUndefined(v) {
		init.Credentials = v.String()
	}
	if v := obj.Get("cache"); v != nil && !goja.IsUndefined(v) {
		init.Cache = v.String()
	}
	if v := obj.Get("redirect"); v != nil && !goja.IsUndefined(v) {
		init.Redirect = v.String()
	}
	if v := obj.Get("referrer"); v != nil && !goja.IsUndefined(v) {
		init.Referrer = v.String()
	}
	if v := obj.Get("integrity"); v != nil && !goja.IsUndefined(v) {
		init.Integrity = v.String()
	}
	if v := obj.Get("signal"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if s, ok := signalFromValue(r, v); ok {
			init.Signal = s
		}
	}
	return init
}

// bodyFromValue coerces a fetch body-init argument (string, Blob, FormData,
// or raw bytes) into a webapi.Body.
func bodyFromValue(r *Runtime, v goja.Value) *webapi.Body {
	if blob, ok := blobFromValue(r, v); ok {
		return webapi.NewBytesBody(blob.Bytes())
	}
	switch exported := v.Export().(type) {
	case string:
		return webapi.NewBytesBody([]byte(exported))
	case []byte:
		return webapi.NewBytesBody(exported)
	default:
		return webapi.NewBytesBody([]byte(v.String()))
	}
}

func signalFromValue(r *Runtime, v goja.Value) (*webapi.AbortSignal, bool) {
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
	signal, ok := host.(*webapi.AbortSignal)
	return signal, ok
}
