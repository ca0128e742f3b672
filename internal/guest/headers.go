// headers.go — guest-visible Headers: wraps webapi.Headers behind goja
// methods only (no settable fields), so every mutation still goes through
// the case-folding/Set-Cookie rules webapi.Headers enforces.
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newHeadersObject(r *Runtime, h *webapi.Headers) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["Headers"])
	defineHidden(obj, "__instanceId", vm.ToValue(h.ID().String()))

	method(obj, "append", func(call goja.FunctionCall) goja.Value {
		h.Append(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	method(obj, "set", func(call goja.FunctionCall) goja.Value {
		h.Set(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	method(obj, "get", func(call goja.FunctionCall) goja.Value {
		v, ok := h.Get(call.Argument(0).String())
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(v)
	})
	method(obj, "getSetCookie", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(h.GetSetCookie())
	})
	method(obj, "has", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if filterArg := call.Argument(1); !goja.IsUndefined(filterArg) {
			v := filterArg.String()
			return vm.ToValue(h.Has(name, &v))
		}
		return vm.ToValue(h.Has(name, nil))
	})
	method(obj, "delete", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if filterArg := call.Argument(1); !goja.IsUndefined(filterArg) {
			v := filterArg.String()
			h.Delete(name, &v)
		} else {
			h.Delete(name, nil)
		}
		return goja.Undefined()
	})
	method(obj, "forEach", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			throwType(vm, "forEach callback is not a function")
		}
		for _, p := range h.Entries() {
			if _, err := fn(goja.Undefined(), vm.ToValue(p.Value), vm.ToValue(p.Name), obj); err != nil {
				panic(err)
			}
		}
		return goja.Undefined()
	})
	method(obj, "entries", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(entriesAsPairs(vm, h.Entries()))
	})
	method(obj, "keys", func(call goja.FunctionCall) goja.Value {
		var out []string
		for _, p := range h.Entries() {
			out = append(out, p.Name)
		}
		return vm.ToValue(out)
	})
	method(obj, "values", func(call goja.FunctionCall) goja.Value {
		var out []string
		for _, p := range h.Entries() {
			out = append(out, p.Value)
		}
		return vm.ToValue(out)
	})
	installIterable(vm, obj, func() []goja.Value { return entriesAsPairs(vm, h.Entries()) })

	r.marshaller.RegisterHostToGuest(h.ID(), obj)
	r.marshaller.RegisterGuestToHost(h.ID(), h)
	return obj
}

func entriesAsPairs(vm *goja.Runtime, pairs []webapi.HeaderPair) []goja.Value {
	out := make([]goja.Value, len(pairs))
	for i, p := range pairs {
		out[i] = vm.ToValue([]string{p.Name, p.Value})
	}
	return out
}

// installHeaders registers the global Headers constructor, accepting none,
// a record-of-string, an array of pairs, or another guest Headers object
// (read via its public iterator only, never by internal fields).
func (r *Runtime) installHeaders() {
	vm := r.vm
	r.newConstructor("Headers", func(call goja.ConstructorCall) *goja.Object {
		h := webapi.NewHeaders()
		if len(call.Arguments) > 0 {
			arg := call.Arguments[0]
			switch {
			case goja.IsUndefined(arg) || goja.IsNull(arg):
			default:
				if obj, ok := arg.(*goja.Object); ok {
					if idVal := obj.Get("__instanceId"); idVal != nil && !goja.IsUndefined(idVal) {
						if id, err := webapi.ParseInstanceID(idVal.String()); err == nil {
							if src, ok := r.marshaller.LookupGuestToHost(id); ok {
								if other, ok := src.(*webapi.Headers); ok {
									for _, p := range other.Entries() {
										h.Append(p.Name, p.Value)
									}
									break
								}
							}
						}
					}
				}
				applyHeadersInit(vm, h, arg)
			}
		}
		return newHeadersObject(r, h)
	})
}

func applyHeadersInit(vm *goja.Runtime, h *webapi.Headers, arg goja.Value) {
	exported := arg.Export()
	switch v := exported.(type) {
	case [][]string:
		for _, pair := range v {
			if len(pair) == 2 {
				h.Append(pair[0], pair[1])
			}
		}
	case []any:
		for _, item := range v {
			if pair, ok := item.([]any); ok && len(pair) == 2 {
				h.Append(toStr(pair[0]), toStr(pair[1]))
			}
		}
	case map[string]any:
		for k, val := range v {
			h.Append(k, toStr(val))
		}
	case map[string]string:
		for k, val := range v {
			h.Append(k, val)
		}
	default:
		if obj, ok := arg.(*goja.Object); ok {
			for _, key := range obj.Keys() {
				h.Append(key, obj.Get(key).String())
			}
		}
	}
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
