// url.go — guest-visible URL/URLSearchParams, preserving the live-binding
// invariant: url.searchParams is the same object on every access, and its
// mutations are reflected by url.search/url.href immediately.
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newURLSearchParamsObject(r *Runtime, sp *webapi.URLSearchParams) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["URLSearchParams"])
	defineHidden(obj, "__instanceId", vm.ToValue(sp.ID().String()))
	defineGetter(vm, obj, "size", func() any { return sp.Size() })

	method(obj, "append", func(call goja.FunctionCall) goja.Value {
		sp.Append(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	method(obj, "set", func(call goja.FunctionCall) goja.Value {
		sp.Set(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	method(obj, "get", func(call goja.FunctionCall) goja.Value {
		v, ok := sp.Get(call.Argument(0).String())
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(v)
	})
	method(obj, "getAll", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sp.GetAll(call.Argument(0).String()))
	})
	method(obj, "has", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if filterArg := call.Argument(1); !goja.IsUndefined(filterArg) {
			v := filterArg.String()
			return vm.ToValue(sp.Has(name, &v))
		}
		return vm.ToValue(sp.Has(name, nil))
	})
	method(obj, "delete", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if filterArg := call.Argument(1); !goja.IsUndefined(filterArg) {
			v := filterArg.String()
			sp.Delete(name, &v)
		} else {
			sp.Delete(name, nil)
		}
		return goja.Undefined()
	})
	method(obj, "sort", func(call goja.FunctionCall) goja.Value {
		sp.Sort()
		return goja.Undefined()
	})
	method(obj, "toString", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(sp.String())
	})
	method(obj, "entries", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(entriesAsPairs(vm, sp.Entries()))
	})
	method(obj, "keys", func(call goja.FunctionCall) goja.Value {
		var out []string
		for _, p := range sp.Entries() {
			out = append(out, p.Name)
		}
		return vm.ToValue(out)
	})
	method(obj, "values", func(call goja.FunctionCall) goja.Value {
		var out []string
		for _, p := range sp.Entries() {
			out = append(out, p.Value)
		}
		return vm.ToValue(out)
	})
	installIterable(vm, obj, func() []goja.Value { return entriesAsPairs(vm, sp.Entries()) })

	r.marshaller.RegisterHostToGuest(sp.ID(), obj)
	r.marshaller.RegisterGuestToHost(sp.ID(), sp)
	return obj
}

func newURLObject(r *Runtime, u *webapi.URL) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["URL"])
	defineHidden(obj, "__instanceId", vm.ToValue(u.ID().String()))

	searchParamsObj := newURLSearchParamsObject(r, u.SearchParams())

	defineAccessor(vm, obj, "href", func() any { return u.Href() }, func(v goja.Value) {
		if err := u.SetHref(v.String()); err != nil {
			throwFromGoError(vm, err)
		}
	})
	defineAccessor(vm, obj, "search", func() any { return u.Search() }, func(v goja.Value) {
		u.SetSearch(v.String())
	})
	defineGetter(vm, obj, "searchParams", func() any { return searchParamsObj })
	defineGetter(vm, obj, "protocol", func() any { return u.Protocol() })
	defineGetter(vm, obj, "host", func() any { return u.Host() })
	defineGetter(vm, obj, "hostname", func() any { return u.Hostname() })
	defineGetter(vm, obj, "pathname", func() any { return u.Pathname() })
	defineGetter(vm, obj, "hash", func() any { return u.Hash() })
	defineGetter(vm, obj, "port", func() any { return u.Port() })
	defineGetter(vm, obj, "origin", func() any { return u.Origin() })

	method(obj, "toString", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(u.Href())
	})
	method(obj, "toJSON", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(u.Href())
	})

	r.marshaller.RegisterHostToGuest(u.ID(), obj)
	r.marshaller.RegisterGuestToHost(u.ID(), u)
	return obj
}

func (r *Runtime) installURL() {
	vm := r.vm
	urlCtor := r.newConstructor("URL", func(call goja.ConstructorCall) *goja.Object {
		input := call.Argument(0).String()
		var base *string
		if baseArg := call.Argument(1); !goja.IsUndefined(baseArg) {
			b := baseArg.String()
			base = &b
		}
		u, err := webapi.ParseURL(input, base)
		if err != nil {
			throwFromGoError(vm, err)
		}
		return newURLObject(r, u)
	})
	method(urlCtor, "canParse", func(call goja.FunctionCall) goja.Value {
		input := call.Argument(0).String()
		var base *string
		if baseArg := call.Argument(1); !goja.IsUndefined(baseArg) {
			b := baseArg.String()
			base = &b
		}
		return vm.ToValue(webapi.CanParse(input, base))
	})

	r.newConstructor("URLSearchParams", func(call goja.ConstructorCall) *goja.Object {
		var sp *webapi.URLSearchParams
		if len(call.Arguments) == 0 {
			sp = webapi.NewURLSearchParams("")
		} else {
			sp = parseSearchParamsArg(call.Arguments[0])
		}
		return newURLSearchParamsObject(r, sp)
	})
}

func parseSearchParamsArg(arg goja.Value) *webapi.URLSearchParams {
	switch v := arg.Export().(type) {
	case string:
		return webapi.NewURLSearchParams(v)
	case [][]string:
		var pairs []webapi.HeaderPair
		for _, p := range v {
			if len(p) == 2 {
				pairs = append(pairs, webapi.HeaderPair{Name: p[0], Value: p[1]})
			}
		}
		return webapi.NewURLSearchParamsFromPairs(pairs)
	case map[string]any:
		var pairs []webapi.HeaderPair
		for k, val := range v {
			pairs = append(pairs, webapi.HeaderPair{Name: k, Value: toStr(val)})
		}
		return webapi.NewURLSearchParamsFromPairs(pairs)
	default:
		return webapi.NewURLSearchParams("")
	}
}
