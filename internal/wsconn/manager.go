// manager.go — WebSocket Manager (C8 host side, C11 host API): owns the
// registered host listener for guest-initiated ws.send()/ws.close() commands
// and forwards real connection lifecycle events into the guest Runtime's
// dispatchWebSocket* entry points. internal/wsconn/transport.go is the
// default gorilla/websocket-backed consumer of this package; an embedder
// that already owns its own socket plumbing can drive a Manager directly
// instead.
package wsconn

import (
	"sync"

	"github.com/dev-console/fetchbridge/internal/guest"
)

// CommandType is the kind of outbound instruction a guest ws.send() or
// ws.close() call produces, matching spec.md §6's onWebSocketCommand
// payload shape ({type:"message"|"close", connectionId, data?, code?,
// reason?}).
type CommandType string

const (
	CommandMessage CommandType = "message"
	CommandClose   CommandType = "close"
)

// Command is one outbound instruction emitted by guest code on an open
// connection, delivered to whatever callback Manager.OnWebSocketCommand
// registered.
type Command struct {
	Type         CommandType
	ConnectionID guest.WSConnID
	Data         []byte
	IsText       bool
	Code         int
	Reason       string
}

// Manager is the host-side half of C8/C12: it wraps a guest.Runtime's
// WebSocket dispatch entry points and turns every open connection's
// ws.send()/ws.close() calls into Commands delivered through a single
// registered listener, so a transport (internal/wsconn.Upgrader, or a
// host's own socket layer) never has to reach into the guest Runtime
// itself.
type Manager struct {
	rt *guest.Runtime

	mu        sync.Mutex
	onCommand func(Command)
	active    map[guest.WSConnID]struct{}
}

// NewManager returns a Manager driving rt's WebSocket dispatch.
func NewManager(rt *guest.Runtime) *Manager {
	return &Manager{rt: rt, active: make(map[guest.WSConnID]struct{})}
}

// OnWebSocketCommand registers the listener invoked for every Command a
// connection opened through this Manager emits. Replaces any previously
// registered listener; spec.md §6 names this as a single host-installed
// callback, not a per-connection one.
func (m *Manager) OnWebSocketCommand(cb func(Command)) {
	m.mu.Lock()
	m.onCommand = cb
	m.mu.Unlock()
}

func (m *Manager) emit(cmd Command) {
	m.mu.Lock()
	cb := m.onCommand
	m.mu.Unlock()
	if cb != nil {
		cb(cmd)
	}
}

// HasActiveConnections reports whether any connection opened through this
// Manager has not yet been closed; a pending upgrade that was never opened
// does not count.
func (m *Manager) HasActiveConnections() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active) > 0
}

// GetUpgradeRequest reports (and clears) the connection id allocated by the
// most recently completed DispatchRequest's server.upgrade call, if any.
func (m *Manager) GetUpgradeRequest() (guest.WSConnID, bool) {
	return m.rt.GetUpgradeRequest()
}

// DispatchWebSocketOpen transitions id CONNECTING->OPEN, builds the
// WSTransport whose Send/Close calls become emitted Commands, and invokes
// the guest websocket.open handler.
func (m *Manager) DispatchWebSocketOpen(id guest.WSConnID) error {
	transport := guest.WSTransport{
		Send: func(data []byte, isText bool) error {
			m.emit(Command{Type: CommandMessage, ConnectionID: id, Data: data, IsText: isText})
			return nil
		},
		Close: func(code int, reason string) error {
			m.emit(Command{Type: CommandClose, ConnectionID: id, Code: code, Reason: reason})
			return nil
		},
	}
	m.mu.Lock()
	m.active[id] = struct{}{}
	m.mu.Unlock()
	return m.rt.DispatchWebSocketOpen(id, transport)
}

// DispatchWebSocketMessage forwards an inbound frame to the guest
// websocket.message handler.
func (m *Manager) DispatchWebSocketMessage(id guest.WSConnID, data []byte, isText bool) error {
	return m.rt.DispatchWebSocketMessage(id, data, isText)
}

// DispatchWebSocketClose forwards a connection's closure to the guest
// websocket.close handler and releases its slot; a subsequent message to
// id is ignored, matching spec.md §6.
func (m *Manager) DispatchWebSocketClose(id guest.WSConnID, code int, reason string) error {
	err := m.rt.DispatchWebSocketClose(id, code, reason)
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
	return err
}

// DispatchWebSocketError forwards a transport-level error to the guest
// websocket.error handler, without closing the connection.
func (m *Manager) DispatchWebSocketError(id guest.WSConnID, connErr error) error {
	return m.rt.DispatchWebSocketError(id, connErr)
}
