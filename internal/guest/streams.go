// streams.go — guest-visible ReadableStream backed by the host Registry
// (C2/C7): getReader/cancel/tee/pipeTo/pipeThrough, plus the pure-guest
// WritableStream/TransformStream shims and the encode/decode transform
// streams and queuing strategies that accompany them.
package guest

import (
	"unicode/utf8"

	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/streams"
)

// newHostBackedReadableStream wraps a Registry id as a ReadableStream. The
// stream starts unlocked; getReader() locks it, matching the one-reader-
// at-a-time invariant real Fetch bodies enforce.
func (r *Runtime) newHostBackedReadableStream(id streams.ID) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	setProto(obj, r.protos["ReadableStream"])
	locked := false

	defineGetter(vm, obj, "locked", func() any { return locked })

	method(obj, "getReader", func(call goja.FunctionCall) goja.Value {
		if locked {
			throwType(vm, "ReadableStream is already locked")
		}
		locked = true
		return r.newStreamReader(id, &locked, nil)
	})
	method(obj, "cancel", func(call goja.FunctionCall) goja.Value {
		r.streams.Cancel(id)
		return resolvedPromise(vm, goja.Undefined())
	})
	method(obj, "tee", func(call goja.FunctionCall) goja.Value {
		idA, idB := r.teeStream(id)
		return vm.ToValue([]goja.Value{
			r.newHostBackedReadableStream(idA),
			r.newHostBackedReadableStream(idB),
		})
	})
	method(obj, "pipeTo", func(call goja.FunctionCall) goja.Value {
		dest := call.Argument(0)
		return r.pipeStreamTo(id, dest)
	})
	method(obj, "pipeThrough", func(call goja.FunctionCall) goja.Value {
		pair, ok := call.Argument(0).(*goja.Object)
		if !ok {
			throwType(vm, "pipeThrough requires a {writable, readable} transform")
		}
		writable := pair.Get("writable")
		readable := pair.Get("readable")
		r.pipeStreamTo(id, writable)
		return readable
	})
	_ = obj.SetSymbol(goja.SymAsyncIterator, vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if locked {
			throwType(vm, "ReadableStream is already locked")
		}
		locked = true
		return r.newStreamAsyncIterator(id, &locked)
	}))

	return obj
}

// newStreamAsyncIterator adapts a locked reader into the async iterator
// protocol (`for await (const chunk of stream)`): next() forwards to the
// reader's read(), and return() — called when the loop exits early via
// break/throw — releases the lock so the stream can be read again, per
// spec.md §4.2's asynchronous-iteration lock-release requirement.
func (r *Runtime) newStreamAsyncIterator(id streams.ID, locked *bool) *goja.Object {
	vm := r.vm
	reader := r.newStreamReader(id, locked, nil)
	readFn, _ := goja.AssertFunction(reader.Get("read"))
	releaseFn, _ := goja.AssertFunction(reader.Get("releaseLock"))

	it := vm.NewObject()
	method(it, "next", func(call goja.FunctionCall) goja.Value {
		if readFn == nil {
			return resolvedPromise(vm, undefinedDoneResult(vm))
		}
		v, err := readFn(reader)
		if err != nil {
			return rejectedPromise(vm, err)
		}
		return v
	})
	method(it, "return", func(call goja.FunctionCall) goja.Value {
		if releaseFn != nil {
			_, _ = releaseFn(reader)
		}
		return resolvedPromise(vm, undefinedDoneResult(vm))
	})
	_ = it.SetSymbol(goja.SymAsyncIterator, vm.ToValue(func(goja.FunctionCall) goja.Value {
		return it
	}))
	return it
}

func undefinedDoneResult(vm *goja.Runtime) *goja.Object {
	out := vm.NewObject()
	_ = out.Set("done", true)
	_ = out.Set("value", goja.Undefined())
	return out
}

// newStreamReader builds the getReader() result: read()/releaseLock()/
// cancel(reason), draining Registry chunks one at a time via a background
// goroutine that resolves back onto the runtime's job queue so the VM
// thread is never blocked on a channel receive. onDone, if non-nil, runs
// just before each done:true result is delivered.
func (r *Runtime) newStreamReader(id streams.ID, locked *bool, onDone func()) *goja.Object {
	vm := r.vm
	reader := vm.NewObject()
	released := false

	method(reader, "read", func(call goja.FunctionCall) goja.Value {
		if released {
			return rejectedPromise(vm, errPlain("reader has been released"))
		}
		p, resolve, reject := vm.NewPromise()
		ch := r.streams.Pull(id)
		go func() {
			res := <-ch
			r.Enqueue(func() {
				if res.Err != nil {
					reject(vm.ToValue(errToJS(vm, res.Err)))
					return
				}
				out := vm.NewObject()
				if res.Done {
					if onDone != nil {
						onDone()
					}
					_ = out.Set("value", goja.Undefined())
					_ = out.Set("done", true)
				} else {
					_ = out.Set("value", vm.NewArrayBuffer(res.Value))
					_ = out.Set("done", false)
				}
				resolve(out)
			})
		}()
		return vm.ToValue(p)
	})
	method(reader, "releaseLock", func(call goja.FunctionCall) goja.Value {
		released = true
		*locked = false
		return goja.Undefined()
	})
	method(reader, "cancel", func(call goja.FunctionCall) goja.Value {
		r.streams.Cancel(id)
		return resolvedPromise(vm, goja.Undefined())
	})
	return reader
}

// teeStream forks id's output into two freshly-created streams, fed by one
// draining goroutine — Registry streams are single-consumer, so tee can't
// share the original row between two readers.
func (r *Runtime) teeStream(id streams.ID) (streams.ID, streams.ID) {
	a := r.streams.Create()
	b := r.streams.Create()
	go func() {
		for {
			res := <-r.streams.Pull(id)
			if res.Err != nil {
				r.streams.Error(a, res.Err)
				r.streams.Error(b, res.Err)
				return
			}
			if res.Done {
				r.streams.Close(a)
				r.streams.Close(b)
				return
			}
			r.streams.Push(a, res.Value)
			r.streams.Push(b, res.Value)
		}
	}()
	return a, b
}

// pipeStreamTo drains id into dest's write()/close() methods, returning a
// Promise that settles once piping completes or a chunk write rejects.
func (r *Runtime) pipeStreamTo(id streams.ID, dest goja.Value) goja.Value {
	vm := r.vm
	destObj, ok := dest.(*goja.Object)
	if !ok {
		return rejectedPromise(vm, errPlain("pipeTo destination is not a WritableStream"))
	}
	writeFn, _ := goja.AssertFunction(destObj.Get("write"))
	closeFn, _ := goja.AssertFunction(destObj.Get("close"))

	p, resolve, reject := vm.NewPromise()
	go func() {
		for {
			res := <-r.streams.Pull(id)
			if res.Err != nil {
				r.Enqueue(func() { reject(vm.ToValue(errToJS(vm, res.Err))) })
				return
			}
			if res.Done {
				r.Enqueue(func() {
					if closeFn != nil {
						_, _ = closeFn(destObj)
					}
					resolve(goja.Undefined())
				})
				return
			}
			chunk := res.Value
			done := make(chan struct{})
			r.Enqueue(func() {
				defer close(done)
				if writeFn != nil {
					_, _ = writeFn(destObj, vm.NewArrayBuffer(chunk))
				}
			})
			<-done
		}
	}()
	return vm.ToValue(p)
}

func errPlain(msg string) error { return &plainError{msg: msg} }

// installReadableStream registers the pure-guest ReadableStream constructor:
// a fresh Registry row fed by the underlying source's start/pull callbacks,
// read back out through the same host-backed stream machinery fetch bodies
// use. start() runs synchronously at construction; pull() runs once up
// front as a lazy-producer primer, since this module's single-consumer
// Registry has no per-read pull hook to invoke lazily — most producers push
// everything from start() and leave pull() empty, so this covers both.
func (r *Runtime) installReadableStream() {
	r.newConstructor("ReadableStream", func(call goja.ConstructorCall) *goja.Object {
		return newReadableStreamFromSource(r, call.Argument(0))
	})
}

func newReadableStreamFromSource(r *Runtime, source goja.Value) *goja.Object {
	vm := r.vm
	id := r.streams.Create()

	var startFn, pullFn, cancelFn goja.Callable
	if s, ok := source.(*goja.Object); ok {
		startFn, _ = goja.AssertFunction(s.Get("start"))
		pullFn, _ = goja.AssertFunction(s.Get("pull"))
		cancelFn, _ = goja.AssertFunction(s.Get("cancel"))
	}

	controller := vm.NewObject()
	method(controller, "enqueue", func(call goja.FunctionCall) goja.Value {
		r.streams.Push(id, bytesFromChunk(call.Argument(0)))
		return goja.Undefined()
	})
	method(controller, "close", func(call goja.FunctionCall) goja.Value {
		r.streams.Close(id)
		return goja.Undefined()
	})
	method(controller, "error", func(call goja.FunctionCall) goja.Value {
		r.streams.Error(id, errPlain(call.Argument(0).String()))
		return goja.Undefined()
	})
	defineGetter(vm, controller, "desiredSize", func() any {
		if r.streams.IsQueueFull(id) {
			return 0
		}
		return 1
	})

	if cancelFn != nil {
		r.streams.SetCleanup(id, func() {
			r.Enqueue(func() {
				_, _ = cancelFn(goja.Undefined(), goja.Undefined())
			})
		})
	}

	stream := r.newHostBackedReadableStream(id)

	if startFn != nil {
		_, _ = startFn(goja.Undefined(), controller)
	}
	if pullFn != nil {
		_, _ = pullFn(goja.Undefined(), controller)
	}

	return stream
}

// installStreamShims registers the pure-guest WritableStream/TransformStream
// constructors (no Registry backing — these exist purely so guest code can
// build a sink/transform to pipe a host-backed stream into), the text
// encode/decode transform streams, and the two queuing strategy classes.
func (r *Runtime) installStreamShims() {
	vm := r.vm

	r.installReadableStream()

	r.newConstructor("WritableStream", func(call goja.ConstructorCall) *goja.Object {
		obj := vm.NewObject()
		var sink *goja.Object
		if s, ok := call.Argument(0).(*goja.Object); ok {
			sink = s
		}
		locked := false
		defineGetter(vm, obj, "locked", func() any { return locked })
		method(obj, "getWriter", func(goja.FunctionCall) goja.Value {
			locked = true
			return newWritableWriter(r, obj, sink, &locked)
		})
		installSinkMethods(r, obj, sink)
		return obj
	})

	r.newConstructor("TransformStream", func(call goja.ConstructorCall) *goja.Object {
		return newTransformStreamObject(r, call.Argument(0))
	})

	r.newConstructor("TextEncoderStream", func(call goja.ConstructorCall) *goja.Object {
		return newEncodeTransformStream(r)
	})

	r.newConstructor("TextDecoderStream", func(call goja.ConstructorCall) *goja.Object {
		return newDecodeTransformStream(r)
	})

	byteStrategyCtor := func(call goja.ConstructorCall) *goja.Object {
		obj := vm.NewObject()
		hwm := float64(0)
		if a := call.Argument(0); !goja.IsUndefined(a) {
			if o, ok := a.(*goja.Object); ok {
				if h := o.Get("highWaterMark"); h != nil && !goja.IsUndefined(h) {
					hwm = h.ToFloat()
				}
			}
		}
		_ = obj.Set("highWaterMark", hwm)
		_ = obj.Set("size", func(call goja.FunctionCall) goja.Value {
			chunk := call.Argument(0)
			if o, ok := chunk.(*goja.Object); ok {
				if l := o.Get("byteLength"); l != nil && !goja.IsUndefined(l) {
					return l
				}
			}
			return vm.ToValue(0)
		})
		return obj
	}
	_ = vm.Set("ByteLengthQueuingStrategy", vm.ToValue(byteStrategyCtor))

	countStrategyCtor := func(call goja.ConstructorCall) *goja.Object {
		obj := vm.NewObject()
		hwm := float64(0)
		if a := call.Argument(0); !goja.IsUndefined(a) {
			if o, ok := a.(*goja.Object); ok {
				if h := o.Get("highWaterMark"); h != nil && !goja.IsUndefined(h) {
					hwm = h.ToFloat()
				}
			}
		}
		_ = obj.Set("highWaterMark", hwm)
		_ = obj.Set("size", func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(1)
		})
		return obj
	}
	_ = vm.Set("CountQueuingStrategy", vm.ToValue(countStrategyCtor))
}

func installSinkMethods(r *Runtime, obj *goja.Object, sink *goja.Object) {
	vm := r.vm
	var writeFn, closeFn, abortFn goja.Callable
	if sink != nil {
		writeFn, _ = goja.AssertFunction(sink.Get("write"))
		closeFn, _ = goja.AssertFunction(sink.Get("close"))
		abortFn, _ = goja.AssertFunction(sink.Get("abort"))
	}
	method(obj, "write", func(call goja.FunctionCall) goja.Value {
		if writeFn == nil {
			return resolvedPromise(vm, goja.Undefined())
		}
		v, err := writeFn(goja.Undefined(), call.Argument(0))
		if err != nil {
			return rejectedPromise(vm, err)
		}
		return resolvedPromise(vm, v)
	})
	method(obj, "close", func(call goja.FunctionCall) goja.Value {
		if closeFn != nil {
			_, _ = closeFn(goja.Undefined())
		}
		return resolvedPromise(vm, goja.Undefined())
	})
	method(obj, "abort", func(call goja.FunctionCall) goja.Value {
		if abortFn != nil {
			_, _ = abortFn(goja.Undefined(), call.Argument(0))
		}
		return resolvedPromise(vm, goja.Undefined())
	})
}

func newWritableWriter(r *Runtime, stream *goja.Object, sink *goja.Object, locked *bool) *goja.Object {
	vm := r.vm
	writer := vm.NewObject()
	installSinkMethods(r, writer, sink)
	method(writer, "releaseLock", func(call goja.FunctionCall) goja.Value {
		*locked = false
		return goja.Undefined()
	})
	return writer
}

// newTransformStreamObject builds a {writable, readable} pair bridged by an
// in-process Registry stream: writes to writable push into the stream,
// which readable (host-backed) then drains.
func newTransformStreamObject(r *Runtime, transformer goja.Value) *goja.Object {
	vm := r.vm
	id := r.streams.Create()

	var transformFn, flushFn goja.Callable
	if t, ok := transformer.(*goja.Object); ok {
		transformFn, _ = goja.AssertFunction(t.Get("transform"))
		flushFn, _ = goja.AssertFunction(t.Get("flush"))
	}

	controller := vm.NewObject()
	method(controller, "enqueue", func(call goja.FunctionCall) goja.Value {
		r.streams.Push(id, bytesFromChunk(call.Argument(0)))
		return goja.Undefined()
	})
	method(controller, "terminate", func(call goja.FunctionCall) goja.Value {
		r.streams.Close(id)
		return goja.Undefined()
	})

	sinkObj := vm.NewObject()
	_ = sinkObj.Set("write", func(call goja.FunctionCall) goja.Value {
		chunk := call.Argument(0)
		if transformFn != nil {
			_, _ = transformFn(goja.Undefined(), chunk, controller)
		} else {
			r.streams.Push(id, bytesFromChunk(chunk))
		}
		return goja.Undefined()
	})
	_ = sinkObj.Set("close", func(call goja.FunctionCall) goja.Value {
		if flushFn != nil {
			_, _ = flushFn(goja.Undefined(), controller)
		}
		r.streams.Close(id)
		return goja.Undefined()
	})

	pair := vm.NewObject()
	writableObj := vm.NewObject()
	locked := false
	defineGetter(vm, writableObj, "locked", func() any { return locked })
	method(writableObj, "getWriter", func(goja.FunctionCall) goja.Value {
		locked = true
		return newWritableWriter(r, writableObj, sinkObj, &locked)
	})
	installSinkMethods(r, writableObj, sinkObj)

	_ = pair.Set("writable", writableObj)
	_ = pair.Set("readable", r.newHostBackedReadableStream(id))
	return pair
}

func bytesFromChunk(v goja.Value) []byte {
	switch exported := v.Export().(type) {
	case string:
		return []byte(exported)
	case []byte:
		return exported
	default:
		return []byte(v.String())
	}
}

// newEncodeTransformStream builds TextEncoderStream: UTF-16 JS strings in,
// UTF-8 bytes out.
func newEncodeTransformStream(r *Runtime) *goja.Object {
	return newTransformStreamObject(r, r.vm.ToValue(map[string]any{
		"transform": func(call goja.FunctionCall) goja.Value {
			chunk := call.Argument(0).String()
			controller := call.Argument(1).(*goja.Object)
			enqueue, _ := goja.AssertFunction(controller.Get("enqueue"))
			_, _ = enqueue(goja.Undefined(), r.vm.ToValue([]byte(chunk)))
			return goja.Undefined()
		},
	}))
}

// newDecodeTransformStream builds TextDecoderStream: UTF-8 byte chunks in,
// JS strings out. Chunks are decoded independently; a multi-byte rune split
// across chunk boundaries is replaced with U+FFFD rather than buffered,
// which is an acceptable simplification for the guest-visible streaming
// text API this module provides.
func newDecodeTransformStream(r *Runtime) *goja.Object {
	return newTransformStreamObject(r, r.vm.ToValue(map[string]any{
		"transform": func(call goja.FunctionCall) goja.Value {
			b := bytesFromChunk(call.Argument(0))
			controller := call.Argument(1).(*goja.Object)
			enqueue, _ := goja.AssertFunction(controller.Get("enqueue"))
			s := decodeUTF8Lenient(b)
			_, _ = enqueue(goja.Undefined(), r.vm.ToValue(s))
			return goja.Undefined()
		},
	}))
}

func decodeUTF8Lenient(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return string([]rune(string(b)))
}
