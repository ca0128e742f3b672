// body.go — guest-side Body wiring shared by Request/Response wrappers:
// bodyUsed, the lazy `.body` ReadableStream view, and the consuming
// convenience methods (text/json/arrayBuffer/blob/formData).
package guest

import (
	"context"

	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/multipart"
	"github.com/dev-console/fetchbridge/internal/streams"
	"github.com/dev-console/fetchbridge/internal/webapi"
)

// installBodyMembers adds the Body-derived surface to obj, which already
// represents a Request or Response. headers supplies Content-Type for
// blob()/formData(). nullBody is true for a GET/HEAD Request, where `.body`
// must read as null even though the consuming methods still work against an
// empty Body.
func installBodyMembers(r *Runtime, obj *goja.Object, body *webapi.Body, headers *webapi.Headers, nullBody bool) {
	vm := r.vm

	defineGetter(vm, obj, "bodyUsed", func() any { return body.Used() })

	var bodyStream *goja.Object
	defineGetter(vm, obj, "body", func() any {
		if nullBody {
			return goja.Null()
		}
		if bodyStream == nil {
			bodyStream = newBodyReadableStream(r, body)
		}
		return bodyStream
	})

	method(obj, "text", func(call goja.FunctionCall) goja.Value {
		s, err := body.Text(context.Background())
		if err != nil {
			return rejectedPromise(vm, err)
		}
		return resolvedPromise(vm, s)
	})
	method(obj, "arrayBuffer", func(call goja.FunctionCall) goja.Value {
		b, err := body.Bytes(context.Background())
		if err != nil {
			return rejectedPromise(vm, err)
		}
		return resolvedPromise(vm, vm.NewArrayBuffer(b))
	})
	method(obj, "json", func(call goja.FunctionCall) goja.Value {
		s, err := body.Text(context.Background())
		if err != nil {
			return rejectedPromise(vm, err)
		}
		parsed, parseErr := parseJSON(vm, jsonOrNull(s))
		if parseErr != nil {
			return rejectedPromise(vm, &webapi.TypeErrorValue{Message: "invalid JSON"})
		}
		return resolvedPromise(vm, parsed)
	})
	method(obj, "blob", func(call goja.FunctionCall) goja.Value {
		contentType := ""
		if headers != nil {
			if v, ok := headers.Get("content-type"); ok {
				contentType = v
			}
		}
		b, err := body.AsBlob(context.Background(), contentType)
		if err != nil {
			return rejectedPromise(vm, err)
		}
		return resolvedPromise(vm, newBlobObject(r, b))
	})
	method(obj, "formData", func(call goja.FunctionCall) goja.Value {
		contentType := ""
		if headers != nil {
			if v, ok := headers.Get("content-type"); ok {
				contentType = v
			}
		}
		fd, err := body.AsFormData(context.Background(), contentType, multipart.Parse)
		if err != nil {
			return rejectedPromise(vm, err)
		}
		return resolvedPromise(vm, newFormDataObject(r, fd))
	})
}

// jsonOrNull guards against an empty body, which JSON.parse rejects but
// body.json() on an empty Response should not crash the VM for.
func jsonOrNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

// parseJSON invokes the guest realm's own JSON.parse, so body.json() stays
// real JSON parsing rather than evaluating body text as a JS expression.
func parseJSON(vm *goja.Runtime, s string) (v goja.Value, err error) {
	jsonGlobal := vm.Get("JSON")
	obj, ok := jsonGlobal.(*goja.Object)
	if !ok {
		return nil, errPlain("JSON global unavailable")
	}
	parseFn, ok := goja.AssertFunction(obj.Get("parse"))
	if !ok {
		return nil, errPlain("JSON.parse unavailable")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = errPlain("invalid JSON")
		}
	}()
	return parseFn(goja.Undefined(), vm.ToValue(s))
}

// newBodyReadableStream builds the lazy `.body` view: reading from it is
// what actually disturbs the Body (via Lock, at getReader() time), matching
// this module's bodyUsed-flips-at-lock semantics without flipping merely by
// accessing the getter.
func newBodyReadableStream(r *Runtime, body *webapi.Body) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	locked := false

	defineGetter(vm, obj, "locked", func() any { return locked })

	method(obj, "getReader", func(call goja.FunctionCall) goja.Value {
		if locked {
			throwType(vm, "ReadableStream is already locked")
		}
		if err := body.Lock(); err != nil {
			throwFromGoError(vm, err)
		}
		locked = true
		id := bodyBackingStreamID(r, body)
		return r.newStreamReader(id, &locked, body.MarkConsumedFromLocked)
	})
	method(obj, "cancel", func(call goja.FunctionCall) goja.Value {
		_ = body.Lock()
		body.MarkConsumedFromLocked()
		id := bodyBackingStreamID(r, body)
		r.streams.Cancel(id)
		return resolvedPromise(vm, goja.Undefined())
	})
	method(obj, "tee", func(call goja.FunctionCall) goja.Value {
		if err := body.Lock(); err != nil {
			throwFromGoError(vm, err)
		}
		id := bodyBackingStreamID(r, body)
		idA, idB := r.teeStream(id)
		return vm.ToValue([]goja.Value{
			r.newHostBackedReadableStream(idA),
			r.newHostBackedReadableStream(idB),
		})
	})
	method(obj, "pipeTo", func(call goja.FunctionCall) goja.Value {
		if err := body.Lock(); err != nil {
			return rejectedPromise(vm, err)
		}
		id := bodyBackingStreamID(r, body)
		return r.pipeStreamTo(id, call.Argument(0))
	})

	return obj
}

// bodyBackingStreamID returns a registry id whose contents mirror body's
// data: the body's own stream id if Streamed(), or a freshly created
// one-shot stream preloaded from its materialized bytes otherwise.
func bodyBackingStreamID(r *Runtime, body *webapi.Body) streams.ID {
	if id, ok := body.StreamID(); ok {
		return id
	}
	id := r.streams.Create()
	if b, ok := body.MaterializedBytes(); ok && len(b) > 0 {
		chunk := make([]byte, len(b))
		copy(chunk, b)
		r.streams.Push(id, chunk)
	}
	r.streams.Close(id)
	return id
}
