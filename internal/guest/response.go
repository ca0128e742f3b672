// response.go — guest-visible Response: status/statusText/ok/headers/body
// plus the json/redirect/error statics and the `server.upgrade` internal
// sentinel (never exposed as status 101 here either).
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newResponseObject(r *Runtime, resp *webapi.Response) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["Response"])
	defineHidden(obj, "__instanceId", vm.ToValue(resp.ID().String()))

	defineGetter(vm, obj, "status", func() any { return resp.Status() })
	defineGetter(vm, obj, "statusText", func() any { return resp.StatusText() })
	defineGetter(vm, obj, "ok", func() any { return resp.OK() })
	defineGetter(vm, obj, "type", func() any { return resp.Type() })
	defineGetter(vm, obj, "redirected", func() any { return resp.Redirected() })
	defineGetter(vm, obj, "url", func() any { return resp.URL() })

	headersObj := newHeadersObject(r, resp.Headers())
	defineGetter(vm, obj, "headers", func() any { return headersObj })

	installBodyMembers(r, obj, resp.Body(), resp.Headers(), false)

	method(obj, "clone", func(call goja.FunctionCall) goja.Value {
		a, b, err := resp.Clone(r.teeStream)
		if err != nil {
			throwFromGoError(vm, err)
		}
		r.marshaller.Forget(resp.ID())
		r.marshaller.RegisterGuestToHost(resp.ID(), a)
		r.marshaller.RegisterHostToGuest(resp.ID(), obj)
		return newResponseObject(r, b)
	})

	r.marshaller.RegisterHostToGuest(resp.ID(), obj)
	r.marshaller.RegisterGuestToHost(resp.ID(), resp)
	return obj
}

func (r *Runtime) installResponse() {
	vm := r.vm
	ctorObj := r.newConstructor("Response", func(call goja.ConstructorCall) *goja.Object {
		var body *webapi.Body
		if b := call.Argument(0); !goja.IsUndefined(b) && !goja.IsNull(b) {
			body = bodyFromValue(r, b)
		}
		init := parseResponseInit(r, call.Argument(1))
		resp := webapi.NewResponse(body, init)
		return newResponseObject(r, resp)
	})

	method(ctorObj, "json", func(call goja.FunctionCall) goja.Value {
		value := call.Argument(0).Export()
		init := parseResponseInit(r, call.Argument(1))
		resp, err := webapi.ResponseJSON(value, init)
		if err != nil {
			throwFromGoError(vm, err)
		}
		return newResponseObject(r, resp)
	})
	method(ctorObj, "redirect", func(call goja.FunctionCall) goja.Value {
		url := call.Argument(0).String()
		status := 0
		if a := call.Argument(1); !goja.IsUndefined(a) {
			status = int(a.ToInteger())
		}
		resp, err := webapi.ResponseRedirect(url, status)
		if err != nil {
			throwFromGoError(vm, err)
		}
		return newResponseObject(r, resp)
	})
	method(ctorObj, "error", func(call goja.FunctionCall) goja.Value {
		return newResponseObject(r, webapi.ResponseError())
	})
}

func parseResponseInit(r *Runtime, arg goja.Value) webapi.ResponseInit {
	init := webapi.ResponseInit{}
	obj, ok := arg.(*goja.Object)
	if !ok {
		return init
	}
	if v := obj.Get("status"); v != nil && !goja.IsUndefined(v) {
		init.Status = int(v.ToInteger())
	}
	if v := obj.Get("statusText"); v != nil && !goja.IsUndefined(v) {
		init.StatusText = v.String()
	}
	if v := obj.Get("headers"); v != nil && !goja.IsUndefined(v) {
		h := webapi.NewHeaders()
		applyHeadersInit(r.vm, h, v)
		init.Headers = h
	}
	return init
}
