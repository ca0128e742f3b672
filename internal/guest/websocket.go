// websocket.go — the guest `ws` object (C8/C12 guest side): readyState
// lifecycle, data bag, send()/close() wired to a host-supplied transport,
// and the connection registry keyed by an opaque connection id so repeated
// events for one connection reuse (and let guest code mutate) the same
// object rather than handing out a fresh one each time.
package guest

import (
	"sync"

	"github.com/dop251/goja"
)

// WebSocket readyState values, matching the browser WebSocket interface.
const (
	wsConnecting = 0
	wsOpen       = 1
	wsClosing    = 2
	wsClosed     = 3
)

// WSConnID identifies one connection across its open/message/close/error
// events. The host (internal/wsconn) owns allocation; this package only
// uses it as a map key.
type WSConnID int64

// WSTransport is how a guest ws.send()/ws.close() call reaches the real
// socket — supplied by the host when the connection opens, so this package
// never depends on a transport library directly.
type WSTransport struct {
	Send  func(data []byte, isText bool) error
	Close func(code int, reason string) error
}

type wsConnState struct {
	obj        *goja.Object
	readyState int
	transport  WSTransport
}

type websocketManager struct {
	mu     sync.Mutex
	conns  map[WSConnID]*wsConnState
	nextID int64
}

func newWebsocketManager() *websocketManager {
	return &websocketManager{conns: make(map[WSConnID]*wsConnState)}
}

// allocateID returns a fresh, never-reused connection id.
func (m *websocketManager) allocateID() WSConnID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return WSConnID(m.nextID)
}

// createPending registers a CONNECTING-state ws object at upgrade time
// (server.upgrade), before any real transport exists — send()/close() throw
// until activate attaches one at DispatchWebSocketOpen.
func (m *websocketManager) createPending(r *Runtime, id WSConnID, data goja.Value) *goja.Object {
	vm := r.vm
	obj := vm.NewObject()
	state := &wsConnState{obj: obj, readyState: wsConnecting}
	installWSMembers(vm, obj, state)
	_ = obj.Set("data", data)

	m.mu.Lock()
	m.conns[id] = state
	m.mu.Unlock()
	return obj
}

func (m *websocketManager) get(id WSConnID) (*goja.Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.conns[id]
	if !ok {
		return nil, false
	}
	return st.obj, true
}

func (m *websocketManager) remove(id WSConnID) {
	m.mu.Lock()
	delete(m.conns, id)
	m.mu.Unlock()
}

// installWSMembers defines the readyState getter and send/close methods
// shared by a pending (upgrade-time) and fully open ws object; both read
// through the same *wsConnState so getOrCreate transparently upgrades a
// pending object in place once a real transport attaches.
func installWSMembers(vm *goja.Runtime, obj *goja.Object, state *wsConnState) {
	defineGetter(vm, obj, "readyState", func() any { return state.readyState })

	method(obj, "send", func(call goja.FunctionCall) goja.Value {
		if state.readyState != wsOpen {
			throwError(vm, "WebSocket is not open")
		}
		data := call.Argument(0)
		isText := true
		var bytes []byte
		switch v := data.Export().(type) {
		case string:
			bytes = []byte(v)
		case []byte:
			bytes = v
			isText = false
		default:
			bytes = []byte(data.String())
		}
		if err := state.transport.Send(bytes, isText); err != nil {
			throwError(vm, err.Error())
		}
		return goja.Undefined()
	})
	method(obj, "close", func(call goja.FunctionCall) goja.Value {
		code := 1000
		reason := ""
		if a := call.Argument(0); !goja.IsUndefined(a) {
			code = int(a.ToInteger())
		}
		if a := call.Argument(1); !goja.IsUndefined(a) {
			reason = a.String()
		}
		state.readyState = wsClosing
		if err := state.transport.Close(code, reason); err != nil {
			throwError(vm, err.Error())
		}
		return goja.Undefined()
	})
}

// getOrCreate returns id's ws object, attaching transport if id has no row
// yet (the case where the host opens a connection without having gone
// through server.upgrade first, e.g. a test harness driving C8 directly).
func (m *websocketManager) getOrCreate(r *Runtime, id WSConnID, transport WSTransport) *goja.Object {
	m.mu.Lock()
	if st, ok := m.conns[id]; ok {
		st.transport = transport
		st.readyState = wsOpen
		m.mu.Unlock()
		return st.obj
	}
	m.mu.Unlock()

	vm := r.vm
	obj := vm.NewObject()
	state := &wsConnState{obj: obj, readyState: wsOpen, transport: transport}
	installWSMembers(vm, obj, state)
	_ = obj.Set("data", goja.Undefined())

	m.mu.Lock()
	m.conns[id] = state
	m.mu.Unlock()
	return obj
}

func (m *websocketManager) markClosed(id WSConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.conns[id]; ok {
		st.readyState = wsClosed
	}
}

// DispatchWebSocketOpen invokes the registered websocket.open handler for a
// newly established connection, creating its guest-visible ws object.
func (r *Runtime) DispatchWebSocketOpen(id WSConnID, transport WSTransport) error {
	obj := r.wsManager.getOrCreate(r, id, transport)
	if r.server == nil || r.server.onOpen == nil {
		return nil
	}
	r.Enqueue(func() { _, _ = r.server.onOpen(goja.Undefined(), obj) })
	r.Drain()
	return nil
}

// DispatchWebSocketMessage invokes the registered websocket.message handler
// with the same ws object returned from DispatchWebSocketOpen.
func (r *Runtime) DispatchWebSocketMessage(id WSConnID, data []byte, isText bool) error {
	obj, ok := r.wsManager.get(id)
	if !ok {
		return nil
	}
	if r.server == nil || r.server.onMessage == nil {
		return nil
	}
	vm := r.vm
	var payload goja.Value
	if isText {
		payload = vm.ToValue(string(data))
	} else {
		payload = vm.ToValue(vm.NewArrayBuffer(data))
	}
	r.Enqueue(func() { _, _ = r.server.onMessage(goja.Undefined(), obj, payload) })
	r.Drain()
	return nil
}

// DispatchWebSocketClose invokes the registered websocket.close handler and
// then forgets the connection — no further dispatch is possible for id.
func (r *Runtime) DispatchWebSocketClose(id WSConnID, code int, reason string) error {
	obj, ok := r.wsManager.get(id)
	if !ok {
		return nil
	}
	r.wsManager.markClosed(id)
	if r.server != nil && r.server.onClose != nil {
		vm := r.vm
		r.Enqueue(func() {
			_, _ = r.server.onClose(goja.Undefined(), obj, vm.ToValue(code), vm.ToValue(reason))
		})
		r.Drain()
	}
	r.wsManager.remove(id)
	return nil
}

// DispatchWebSocketError invokes the registered websocket.error handler,
// without closing the connection (a subsequent close event still fires).
func (r *Runtime) DispatchWebSocketError(id WSConnID, connErr error) error {
	obj, ok := r.wsManager.get(id)
	if !ok {
		return nil
	}
	if r.server == nil || r.server.onError == nil {
		return nil
	}
	vm := r.vm
	r.Enqueue(func() {
		_, _ = r.server.onError(goja.Undefined(), obj, vm.ToValue(errToJS(vm, connErr)))
	})
	r.Drain()
	return nil
}

// HasActiveConnections reports whether any connection is currently tracked.
func (r *Runtime) HasActiveConnections() bool {
	r.wsManager.mu.Lock()
	defer r.wsManager.mu.Unlock()
	return len(r.wsManager.conns) > 0
}

// newUpgradeConnection allocates a fresh connection id and registers its
// CONNECTING-state ws object ahead of any real transport, for
// server.upgrade(request, init) (serve.go) to call during fetch dispatch.
func (r *Runtime) newUpgradeConnection(data goja.Value) WSConnID {
	id := r.wsManager.allocateID()
	r.wsManager.createPending(r, id, data)
	return id
}
