// blob.go — guest-visible Blob/File: size/type properties plus repeatable
// text/arrayBuffer/slice/stream reads (never one-shot, unlike Body).
package guest

import (
	"strconv"

	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func newBlobObject(r *Runtime, b *webapi.Blob) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["Blob"])
	installBlobMembers(r, obj, b)
	r.marshaller.RegisterHostToGuest(b.ID(), obj)
	r.marshaller.RegisterGuestToHost(b.ID(), b)
	return obj
}

func installBlobMembers(r *Runtime, obj *goja.Object, b *webapi.Blob) {
	vm := r.vm
	defineHidden(obj, "__instanceId", vm.ToValue(b.ID().String()))
	defineGetter(vm, obj, "size", func() any { return b.Size() })
	defineGetter(vm, obj, "type", func() any { return b.Type() })

	method(obj, "text", func(call goja.FunctionCall) goja.Value {
		return resolvedPromise(vm, b.Text())
	})
	method(obj, "arrayBuffer", func(call goja.FunctionCall) goja.Value {
		return resolvedPromise(vm, vm.NewArrayBuffer(b.Bytes()))
	})
	method(obj, "slice", func(call goja.FunctionCall) goja.Value {
		start, end := 0, b.Size()
		if a := call.Argument(0); !goja.IsUndefined(a) {
			start = int(a.ToInteger())
		}
		if a := call.Argument(1); !goja.IsUndefined(a) {
			end = int(a.ToInteger())
		}
		contentType := ""
		if a := call.Argument(2); !goja.IsUndefined(a) {
			contentType = a.String()
		}
		sliced := b.Slice(start, end, contentType)
		return newBlobObject(r, sliced)
	})
	method(obj, "stream", func(call goja.FunctionCall) goja.Value {
		id := r.streams.Create()
		chunk := make([]byte, len(b.Bytes()))
		copy(chunk, b.Bytes())
		r.streams.Push(id, chunk)
		r.streams.Close(id)
		return r.newHostBackedReadableStream(id)
	})
}

func newFileObject(r *Runtime, f *webapi.File) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["File"])
	installBlobMembers(r, obj, &f.Blob)
	defineGetter(vm, obj, "name", func() any { return f.Name() })
	defineGetter(vm, obj, "lastModified", func() any { return f.LastModified() })
	defineGetter(vm, obj, "webkitRelativePath", func() any { return f.WebkitRelativePath() })

	r.marshaller.RegisterHostToGuest(f.ID(), obj)
	r.marshaller.RegisterGuestToHost(f.ID(), f)
	return obj
}

func (r *Runtime) installBlob() {
	r.newConstructor("Blob", func(call goja.ConstructorCall) *goja.Object {
		parts := blobPartsFromArg(r, call.Argument(0))
		mime := ""
		if opts := call.Argument(1); !goja.IsUndefined(opts) {
			if obj, ok := opts.(*goja.Object); ok {
				if t := obj.Get("type"); t != nil && !goja.IsUndefined(t) {
					mime = t.String()
				}
			}
		}
		b := webapi.NewBlob(parts, mime)
		return newBlobObject(r, b)
	})

	r.newConstructor("File", func(call goja.ConstructorCall) *goja.Object {
		parts := blobPartsFromArg(r, call.Argument(0))
		name := call.Argument(1).String()
		mime := ""
		var lastModified int64
		if opts := call.Argument(2); !goja.IsUndefined(opts) {
			if obj, ok := opts.(*goja.Object); ok {
				if t := obj.Get("type"); t != nil && !goja.IsUndefined(t) {
					mime = t.String()
				}
				if lm := obj.Get("lastModified"); lm != nil && !goja.IsUndefined(lm) {
					lastModified = lm.ToInteger()
				}
			}
		}
		f := webapi.NewFile(parts, name, mime, lastModified)
		return newFileObject(r, f)
	})

	// File extends Blob: chain File.prototype to Blob.prototype so
	// `file instanceof Blob` holds, matching the real platform hierarchy.
	setProto(r.protos["File"], r.protos["Blob"])
}

func blobPartsFromArg(r *Runtime, arg goja.Value) []webapi.BlobPart {
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return nil
	}
	arr, isObj := arg.(*goja.Object)
	exported := arg.Export()
	items, ok := exported.([]any)
	if !ok || !isObj {
		return nil
	}
	var parts []webapi.BlobPart
	for i, item := range items {
		switch v := item.(type) {
		case string:
			parts = append(parts, webapi.BlobPart{Bytes: []byte(v)})
		case []byte:
			parts = append(parts, webapi.BlobPart{Bytes: v})
		case goja.ArrayBuffer:
			parts = append(parts, webapi.BlobPart{Bytes: v.Bytes()})
		default:
			// Typed-array views export as []byte and ArrayBuffers as
			// goja.ArrayBuffer above; a Blob/File part contributes its own
			// bytes, and anything else is stringified to match the Blob
			// constructor's fallback coercion rule.
			el := arr.Get(strconv.Itoa(i))
			if el == nil {
				el = goja.Undefined()
			}
			if b, ok := blobFromValue(r, el); ok {
				parts = append(parts, webapi.BlobPart{Blob: b})
			} else {
				parts = append(parts, webapi.BlobPart{Bytes: []byte(el.String())})
			}
		}
	}
	return parts
}
