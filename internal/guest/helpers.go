// helpers.go — shared goja object-construction helpers: non-enumerable
// identity markers, accessor properties, promise resolution, and the
// TypeError/DOMException throw shapes every Web global needs.
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

// defineHidden installs a non-enumerable, non-configurable data property —
// used for the InstanceId marker (spec.md §9's "non-enumerable marker
// property") so Object.assign/JSON.stringify never leak it.
func defineHidden(obj *goja.Object, name string, value goja.Value) {
	_ = obj.DefineDataProperty(name, value, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
}

// defineGetter installs a non-enumerable, configurable accessor property
// backed by a Go getter — the mechanism behind every read-only WHATWG
// property (blob.size, response.status, url.hostname, ...).
func defineGetter(vm *goja.Runtime, obj *goja.Object, name string, get func() any) {
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(get())
	})
	_ = obj.DefineAccessorProperty(name, getter, nil, goja.FLAG_TRUE, goja.FLAG_FALSE)
}

// defineAccessor installs a non-enumerable, configurable read/write
// accessor property — used for url.search/url.href style fields whose
// setter re-derives dependent state.
func defineAccessor(vm *goja.Runtime, obj *goja.Object, name string, get func() any, set func(goja.Value)) {
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(get())
	})
	setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		set(call.Argument(0))
		return goja.Undefined()
	})
	_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_FALSE)
}

// newConstructor installs a named global constructor function with its own
// .prototype object and records that prototype on r.protos[name], so every
// object this module builds for name — whether from `new X()` here or an
// internal factory like newBlobObject — ends up on the same prototype
// chain. Per spec.md §9's prototype-preservation requirement, that is what
// makes `instanceof` resolve true for guest-constructed values.
func (r *Runtime) newConstructor(name string, build func(call goja.ConstructorCall) *goja.Object) *goja.Object {
	vm := r.vm
	proto := vm.NewObject()
	ctor := func(call goja.ConstructorCall) *goja.Object {
		obj := build(call)
		setProto(obj, proto)
		return obj
	}
	ctorObj := vm.ToValue(ctor).(*goja.Object)
	_ = ctorObj.Set("prototype", proto)
	_ = proto.Set("constructor", ctorObj)
	_ = vm.Set(name, ctorObj)
	r.protos[name] = proto
	return ctorObj
}

// setProto links obj into proto's prototype chain. proto may be nil (a
// type with no registered constructor, or a test helper building an object
// directly), in which case this is a no-op.
func setProto(obj *goja.Object, proto *goja.Object) {
	if proto != nil {
		_ = obj.SetPrototype(proto)
	}
}

// newArrayIterator builds a synchronous iterator (both the {next()} object
// and its own Symbol.iterator returning itself) over a fixed snapshot of
// items — the shared engine behind Headers/FormData/URLSearchParams
// iteration, all of which iterate a point-in-time entries() snapshot.
func newArrayIterator(vm *goja.Runtime, items []goja.Value) *goja.Object {
	idx := 0
	it := vm.NewObject()
	method(it, "next", func(call goja.FunctionCall) goja.Value {
		out := vm.NewObject()
		if idx >= len(items) {
			_ = out.Set("done", true)
			_ = out.Set("value", goja.Undefined())
			return out
		}
		_ = out.Set("done", false)
		_ = out.Set("value", items[idx])
		idx++
		return out
	})
	_ = it.SetSymbol(goja.SymIterator, vm.ToValue(func(goja.FunctionCall) goja.Value {
		return it
	}))
	return it
}

// installIterable wires obj's Symbol.iterator to entries, matching the
// WHATWG "value iterator" shape Headers/FormData/URLSearchParams all share:
// `for...of` yields the same [name, value] pairs as .entries().
func installIterable(vm *goja.Runtime, obj *goja.Object, entries func() []goja.Value) {
	_ = obj.SetSymbol(goja.SymIterator, vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return newArrayIterator(vm, entries())
	}))
}

// method installs a callable method, converting panics from Go helper
// throw helpers (throwType etc.) into goja exceptions the normal way —
// goja already does this for any panic carrying a *goja.Object or Value
// produced by vm.ToValue/NewTypeError, so method itself stays a thin Set.
func method(obj *goja.Object, name string, fn func(goja.FunctionCall) goja.Value) {
	_ = obj.Set(name, fn)
}

// throwType panics with a goja TypeError carrying message — the standard
// way to signal an error from inside a native function bound into goja;
// goja's call machinery recovers this panic and turns it into a guest-side
// thrown exception.
func throwType(vm *goja.Runtime, message string) {
	panic(vm.NewTypeError(message))
}

// throwError panics with a plain goja Error(message), used for
// non-TypeError failures (StreamDeletedError, NoServeHandlerError).
func throwError(vm *goja.Runtime, message string) {
	panic(vm.NewGoError(&plainError{message}))
}

type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }

// newDOMException builds a plain JS object shaped like a DOMException:
// {name, message}, matching the Go-side webapi.DOMException this module
// never constructs a real ECMAScript DOMException class for (goja has no
// built-in DOM), so guest code recognizes it by `.name`.
func newDOMException(vm *goja.Runtime, name, message string) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("name", name)
	_ = obj.Set("message", message)
	return obj
}

// throwFromGoError maps a Go error from the webapi package to the
// guest-visible shape the error-handling design names it as, and panics
// with it. Unrecognized errors become a plain Error(message).
func throwFromGoError(vm *goja.Runtime, err error) {
	switch e := err.(type) {
	case *webapi.TypeErrorValue:
		throwType(vm, e.Message)
	case *webapi.DOMException:
		panic(vm.ToValue(newDOMException(vm, e.DOMName, e.Message)))
	default:
		switch err {
		case webapi.ErrBodyAlreadyRead, webapi.ErrStreamLocked, webapi.ErrProtocol:
			throwType(vm, err.Error())
		case webapi.ErrAbort:
			panic(vm.ToValue(newDOMException(vm, "AbortError", err.Error())))
		default:
			throwError(vm, err.Error())
		}
	}
}

// resolvedPromise wraps an already-available value in a fulfilled Promise
// — this module's Body/Blob consumption never actually suspends (bytes are
// already in memory or drained synchronously from a Registry), so every
// "async" WHATWG method still returns a real Promise object for guest code
// that `await`s it, without needing a job-queue round trip.
func resolvedPromise(vm *goja.Runtime, value any) goja.Value {
	p, resolve, _ := vm.NewPromise()
	resolve(vm.ToValue(value))
	return vm.ToValue(p)
}

// rejectedPromise wraps err in a rejected Promise, translating it through
// throwFromGoError's shape rules first so guest `.catch` sees the same
// error object a synchronous throw would have produced.
func rejectedPromise(vm *goja.Runtime, err error) goja.Value {
	p, _, reject := vm.NewPromise()
	reject(vm.ToValue(errToJS(vm, err)))
	return vm.ToValue(p)
}

// errToJS converts a Go error into the JS value a guest catch block should
// see, without panicking (used for promise rejection, where a panic would
// escape the wrong call frame).
func errToJS(vm *goja.Runtime, err error) any {
	switch e := err.(type) {
	case *webapi.TypeErrorValue:
		return vm.NewTypeError(e.Message)
	case *webapi.DOMException:
		return newDOMException(vm, e.DOMName, e.Message)
	default:
		if err == webapi.ErrAbort {
			return newDOMException(vm, "AbortError", err.Error())
		}
		return vm.NewGoError(err)
	}
}
