// fetch.go — guest-initiated outbound fetch(input, init?) (C7): builds a
// Request, checks for a pre-aborted signal, and hands off to the Go
// callback the host registered via Runtime.SetOnFetch.
package guest

import (
	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func (r *Runtime) installFetch() {
	vm := r.vm
	_ = vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		input := call.Argument(0)
		init := parseRequestInit(r, call.Argument(1))

		var req *webapi.Request
		var err error
		if existing, ok := requestFromValue(r, input); ok {
			req, err = webapi.NewRequestFrom(existing, init)
		} else {
			req, err = webapi.NewRequest(input.String(), init)
		}
		if err != nil {
			return rejectedPromise(vm, err)
		}

		if reason := req.Signal().Reason(); reason != nil {
			return rejectedPromise(vm, reason)
		}

		if r.onFetch == nil {
			return rejectedPromise(vm, errPlain("fetch: no host handler registered"))
		}

		p, resolve, reject := vm.NewPromise()
		req.Signal().OnAbort(func(reason error) {
			r.Enqueue(func() { reject(vm.ToValue(errToJS(vm, reason))) })
		})
		go func() {
			resp, err := r.onFetch(req)
			r.Enqueue(func() {
				if err != nil {
					logf("outbound fetch %s %s failed: %v", req.Method(), req.URL(), err)
					reject(vm.ToValue(errToJS(vm, err)))
					return
				}
				resolve(newResponseObject(r, resp))
			})
		}()
		return vm.ToValue(p)
	})
}
