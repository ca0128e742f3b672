// runtime.go — Guest Runtime Bootstrap (C10): owns the single goja.Runtime
// for a context, installs every Web global from spec §6, and drives the job
// queue that lets asynchronous Go work (a stream pull settling, a fetch
// response arriving) resolve goja Promises without a foreign goroutine ever
// touching the Runtime directly.
package guest

import (
	"fmt"
	"os"
	"sync"

	"github.com/dop251/goja"

	"github.com/dev-console/fetchbridge/internal/bridge"
	"github.com/dev-console/fetchbridge/internal/streams"
	"github.com/dev-console/fetchbridge/internal/webapi"
)

// Runtime is the single-goroutine-owned guest VM for one context. Every
// method that touches vm must be called from the goroutine that calls
// RunJobs/Drain — this module never calls into goja from a second
// goroutine; instead foreign work is handed off via Enqueue.
type Runtime struct {
	vm         *goja.Runtime
	marshaller *bridge.Marshaller
	streams    *streams.Registry

	mu   sync.Mutex
	jobs []func()

	server    *serveHandlers
	serverObj *goja.Object
	wsManager *websocketManager
	onFetch   OnFetchFunc

	pendingUpgrade *pendingUpgrade
	lastUpgrade    *pendingUpgrade

	// protos holds each guest-visible constructor's .prototype object,
	// keyed by constructor name, so internal factories (newBlobObject,
	// newHeadersObject, ...) that build objects outside of `new` can still
	// link them in, keeping `instanceof` true either way.
	protos map[string]*goja.Object
}

// OnFetchFunc is the host-supplied interceptor for outbound guest fetch()
// calls (Options.OnFetch in the Host API). A nil OnFetchFunc makes guest
// fetch() reject every call.
type OnFetchFunc func(req *webapi.Request) (*webapi.Response, error)

// SetOnFetch installs the host's outbound fetch interceptor.
func (r *Runtime) SetOnFetch(fn OnFetchFunc) { r.onFetch = fn }

// New builds a Runtime, installs every guest-visible global, and returns it
// ready to run guest scripts.
func New(reg *streams.Registry, m *bridge.Marshaller) *Runtime {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	r := &Runtime{
		vm:         vm,
		marshaller: m,
		streams:    reg,
		wsManager:  newWebsocketManager(),
		protos:     make(map[string]*goja.Object),
	}
	r.installGlobals()
	r.serverObj = r.newServerObject()
	return r
}

// VM returns the underlying goja.Runtime, for callers (tests, dispatch)
// that need to run scripts or read globals directly. Still only safe to
// call from the owning goroutine.
func (r *Runtime) VM() *goja.Runtime { return r.vm }

// RunScript evaluates src under name, then drains the job queue once so any
// promise jobs scheduled synchronously during evaluation settle.
func (r *Runtime) RunScript(name, src string) (goja.Value, error) {
	v, err := r.vm.RunScript(name, src)
	r.Drain()
	return v, err
}

// Enqueue schedules fn to run on the owning goroutine at the next Drain —
// the mechanism by which a foreign goroutine (a WebSocket read pump, an
// outbound fetch's HTTP response arriving) hands work back to the single
// goroutine that owns the goja.Runtime, per spec.md §5's single-threaded
// cooperative guest requirement.
func (r *Runtime) Enqueue(fn func()) {
	r.mu.Lock()
	r.jobs = append(r.jobs, fn)
	r.mu.Unlock()
}

// Drain runs every job queued so far (including ones queued by earlier jobs
// in this same Drain call, so promise resolution chains settle fully)
// followed by goja's own job queue (for native Promise reactions). Call
// this after every externally visible entry point: dispatchRequest,
// dispatchWebSocket*, an outbound fetch's resolution, and on every external
// tick.
func (r *Runtime) Drain() {
	for {
		r.mu.Lock()
		if len(r.jobs) == 0 {
			r.mu.Unlock()
			break
		}
		job := r.jobs[0]
		r.jobs = r.jobs[1:]
		r.mu.Unlock()
		job()
	}
	r.vm.RunJobs()
}

// logf writes a non-fatal internal diagnostic, tagged like the teacher's
// own stderr logging convention.
func logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[fetchbridge] "+format+"\n", args...)
}
