// formdata.go — guest-visible FormData: string/File entries, Blob->File
// promotion on append/set, matching webapi.FormData's ordering semantics.
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newFormDataObject(r *Runtime, fd *webapi.FormData) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["FormData"])
	defineHidden(obj, "__instanceId", vm.ToValue(fd.ID().String()))

	toJS := func(v webapi.FormValue) goja.Value {
		if v.IsFile() {
			return newFileObject(r, v.File)
		}
		return vm.ToValue(v.Str)
	}

	method(obj, "append", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		appendFormValue(r, fd, false, name, call)
		return goja.Undefined()
	})
	method(obj, "set", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		appendFormValue(r, fd, true, name, call)
		return goja.Undefined()
	})
	method(obj, "get", func(call goja.FunctionCall) goja.Value {
		v, ok := fd.Get(call.Argument(0).String())
		if !ok {
			return goja.Null()
		}
		return toJS(v)
	})
	method(obj, "getAll", func(call goja.FunctionCall) goja.Value {
		all := fd.GetAll(call.Argument(0).String())
		out := make([]goja.Value, len(all))
		for i, v := range all {
			out[i] = toJS(v)
		}
		return vm.ToValue(out)
	})
	method(obj, "has", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(fd.Has(call.Argument(0).String()))
	})
	method(obj, "delete", func(call goja.FunctionCall) goja.Value {
		fd.Delete(call.Argument(0).String(), nil)
		return goja.Undefined()
	})
	method(obj, "forEach", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			throwType(vm, "forEach callback is not a function")
		}
		for _, e := range fd.Entries() {
			if _, err := fn(goja.Undefined(), toJS(e.Value), vm.ToValue(e.Name), obj); err != nil {
				panic(err)
			}
		}
		return goja.Undefined()
	})
	pairEntries := func() []goja.Value {
		entries := fd.Entries()
		out := make([]goja.Value, len(entries))
		for i, e := range entries {
			out[i] = vm.ToValue([]goja.Value{vm.ToValue(e.Name), toJS(e.Value)})
		}
		return out
	}
	method(obj, "entries", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(pairEntries())
	})
	installIterable(vm, obj, pairEntries)
	method(obj, "keys", func(call goja.FunctionCall) goja.Value {
		var out []string
		for _, e := range fd.Entries() {
			out = append(out, e.Name)
		}
		return vm.ToValue(out)
	})
	method(obj, "values", func(call goja.FunctionCall) goja.Value {
		entries := fd.Entries()
		out := make([]goja.Value, len(entries))
		for i, e := range entries {
			out[i] = toJS(e.Value)
		}
		return vm.ToValue(out)
	})

	r.marshaller.RegisterHostToGuest(fd.ID(), obj)
	r.marshaller.RegisterGuestToHost(fd.ID(), fd)
	return obj
}

// appendFormValue implements the shared append/set dispatch: a string value
// is stored directly, a Blob/File value is promoted via AppendBlob/SetBlob
// with the optional third-argument filename.
func appendFormValue(r *Runtime, fd *webapi.FormData, replace bool, name string, call goja.FunctionCall) {
	value := call.Argument(1)
	blob, ok := blobFromValue(r, value)
	if !ok {
		s := value.String()
		if replace {
			fd.Set(name, s)
		} else {
			fd.Append(name, s)
		}
		return
	}
	filename := ""
	if a := call.Argument(2); !goja.IsUndefined(a) {
		filename = a.String()
	}
	if replace {
		fd.SetBlob(name, blob, filename)
	} else {
		fd.AppendBlob(name, blob, filename)
	}
}

// blobFromValue recovers the webapi.Blob backing a guest Blob/File object,
// via the guest->host identity table rather than reading private fields.
func blobFromValue(r *Runtime, value goja.Value) (*webapi.Blob, bool) {
	obj, ok := value.(*goja.Object)
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
	switch v := host.(type) {
	case *webapi.Blob:
		return v, true
	case *webapi.File:
		return &v.Blob, true
	default:
		return nil, false
	}
}

func (r *Runtime) installFormData() {
	r.newConstructor("FormData", func(call goja.ConstructorCall) *goja.Object {
		return newFormDataObject(r, webapi.NewFormData())
	})
}
