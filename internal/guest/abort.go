// abort.go — guest-visible AbortController/AbortSignal: identity-stable
// signal access, throwIfAborted(), "abort" event dispatch, and the
// AbortSignal.abort(reason?)/AbortSignal.timeout(ms) statics.
package guest

import (
	"time"

	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newAbortSignalObject(r *Runtime, s *webapi.AbortSignal) *goja.Object {
	if existing, ok := r.marshaller.LookupHostToGuest(s.ID()); ok {
		if obj, ok := existing.(*goja.Object); ok {
			return obj
		}
	}

	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["AbortSignal"])
	defineHidden(obj, "__instanceId", vm.ToValue(s.ID().String()))
	defineGetter(vm, obj, "aborted", func() any { return s.Aborted() })
	defineGetter(vm, obj, "reason", func() any {
		if reason := s.Reason(); reason != nil {
			return errToJS(vm, reason)
		}
		return goja.Undefined()
	})

	var onabort goja.Value = goja.Undefined()
	defineAccessor(vm, obj, "onabort", func() any { return onabort }, func(v goja.Value) {
		onabort = v
	})

	method(obj, "throwIfAborted", func(call goja.FunctionCall) goja.Value {
		if reason := s.ThrowIfAborted(); reason != nil {
			panic(vm.ToValue(errToJS(vm, reason)))
		}
		return goja.Undefined()
	})
	method(obj, "addEventListener", func(call goja.FunctionCall) goja.Value {
		if call.Argument(0).String() != "abort" {
			return goja.Undefined()
		}
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			return goja.Undefined()
		}
		s.OnAbort(func(reason error) {
			r.Enqueue(func() {
				_, _ = fn(goja.Undefined(), vm.ToValue(errToJS(vm, reason)))
			})
		})
		return goja.Undefined()
	})

	s.OnAbort(func(reason error) {
		r.Enqueue(func() {
			if fn, ok := goja.AssertFunction(onabort); ok {
				_, _ = fn(goja.Undefined(), vm.ToValue(errToJS(vm, reason)))
			}
		})
	})

	r.marshaller.RegisterHostToGuest(s.ID(), obj)
	r.marshaller.RegisterGuestToHost(s.ID(), s)
	return obj
}

func newAbortControllerObject(r *Runtime, c *webapi.AbortController) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["AbortController"])
	defineHidden(obj, "__instanceId", vm.ToValue(c.ID().String()))

	signalObj := newAbortSignalObject(r, c.Signal())
	defineGetter(vm, obj, "signal", func() any { return signalObj })

	method(obj, "abort", func(call goja.FunctionCall) goja.Value {
		var reason error
		if a := call.Argument(0); !goja.IsUndefined(a) {
			reason = &webapi.DOMException{DOMName: "AbortError", Message: a.String()}
		}
		c.Abort(reason)
		return goja.Undefined()
	})

	r.marshaller.RegisterHostToGuest(c.ID(), obj)
	r.marshaller.RegisterGuestToHost(c.ID(), c)
	return obj
}

func (r *Runtime) installAbort() {
	r.newConstructor("AbortController", func(call goja.ConstructorCall) *goja.Object {
		return newAbortControllerObject(r, webapi.NewAbortController())
	})

	signalCtorObj := r.newConstructor("AbortSignal", func(call goja.ConstructorCall) *goja.Object {
		return newAbortSignalObject(r, webapi.NewAbortSignal())
	})
	method(signalCtorObj, "abort", func(call goja.FunctionCall) goja.Value {
		var reason error
		if a := call.Argument(0); !goja.IsUndefined(a) {
			reason = &webapi.DOMException{DOMName: "AbortError", Message: a.String()}
		}
		return newAbortSignalObject(r, webapi.AbortedSignal(reason))
	})
	method(signalCtorObj, "timeout", func(call goja.FunctionCall) goja.Value {
		ms := call.Argument(0).ToInteger()
		ctrl := webapi.NewAbortController()
		obj := newAbortSignalObject(r, ctrl.Signal())
		time.AfterFunc(time.Duration(ms)*time.Millisecond, func() {
			r.Enqueue(func() {
				ctrl.Abort(&webapi.DOMException{DOMName: "TimeoutError", Message: "The operation timed out"})
			})
		})
		return obj
	})
}
