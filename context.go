// context.go — Host API Surface (C11): fetchbridge.Context wraps one guest
// Runtime, its stream Registry, marshaller, serve Dispatcher, and WebSocket
// Manager, and exposes exactly the operations spec.md §6 names for an
// embedding host: dispatchRequest, hasServeHandler, hasActiveConnections,
// getUpgradeRequest, the dispatchWebSocket* family, onWebSocketCommand, and
// dispose.
package fetchbridge

import (
	"context"
	"sync"

	"github.com/dev-console/fetchbridge/internal/bridge"
	"github.com/dev-console/fetchbridge/internal/dispatch"
	"github.com/dev-console/fetchbridge/internal/guest"
	"github.com/dev-console/fetchbridge/internal/streams"
	"github.com/dev-console/fetchbridge/internal/webapi"
	"github.com/dev-console/fetchbridge/internal/wsconn"
)

// Options configures a Context at construction.
type Options struct {
	// OnFetch intercepts outbound guest fetch() calls. A nil OnFetch makes
	// guest fetch() reject every call, per spec.md §4.9's default.
	OnFetch guest.OnFetchFunc
}

// Context is the Host API Surface: one guest Runtime plus the host-facing
// operations an embedder drives it with. Not safe for concurrent use by
// multiple goroutines except where a method doc says otherwise — the
// embedder serializes calls the same way the guest VM itself is
// single-threaded (spec.md §5).
type Context struct {
	registry   *streams.Registry
	marshaller *bridge.Marshaller
	runtime    *guest.Runtime
	dispatcher *dispatch.Dispatcher
	wsManager  *wsconn.Manager

	mu       sync.Mutex
	disposed bool
}

// New constructs a Context with a fresh guest Runtime, ready to load a
// serve({...}) registration script via RunScript.
func New(opts Options) (*Context, error) {
	reg := streams.NewRegistry()
	m := bridge.NewMarshaller()
	rt := guest.New(reg, m)
	if opts.OnFetch != nil {
		rt.SetOnFetch(opts.OnFetch)
	}

	return &Context{
		registry:   reg,
		marshaller: m,
		runtime:    rt,
		dispatcher: dispatch.New(rt, reg),
		wsManager:  wsconn.NewManager(rt),
	}, nil
}

// RunScript evaluates src under name — typically the guest's
// serve({fetch, websocket?}) registration script — before any
// DispatchRequest call.
func (c *Context) RunScript(name, src string) error {
	_, err := c.runtime.RunScript(name, src)
	return err
}

// Runtime returns the underlying guest Runtime, for callers (the CLI demo,
// tests) that need direct VM access beyond this Context's Host API.
func (c *Context) Runtime() *guest.Runtime { return c.runtime }

// DispatchRequest turns in into a guest Request, invokes serve({fetch}),
// and returns its Response. Mirrors spec.md §6's dispatchRequest.
func (c *Context) DispatchRequest(ctx context.Context, in dispatch.RequestIn) (*webapi.Response, error) {
	return c.dispatcher.DispatchRequest(ctx, in)
}

// HasServeHandler reports whether serve(...) has registered a fetch
// handler yet.
func (c *Context) HasServeHandler() bool { return c.dispatcher.HasServeHandler() }

// HasActiveConnections reports whether any WebSocket connection is
// currently tracked.
func (c *Context) HasActiveConnections() bool { return c.wsManager.HasActiveConnections() }

// GetUpgradeRequest reports (and clears) the connection id allocated by the
// most recently completed DispatchRequest's server.upgrade call, if any.
func (c *Context) GetUpgradeRequest() (guest.WSConnID, bool) {
	return c.wsManager.GetUpgradeRequest()
}

// DispatchWebSocketOpen transitions id CONNECTING->OPEN and invokes the
// guest websocket.open handler.
func (c *Context) DispatchWebSocketOpen(id guest.WSConnID) error {
	return c.wsManager.DispatchWebSocketOpen(id)
}

// DispatchWebSocketMessage invokes the guest websocket.message handler.
func (c *Context) DispatchWebSocketMessage(id guest.WSConnID, data []byte, isText bool) error {
	return c.wsManager.DispatchWebSocketMessage(id, data, isText)
}

// DispatchWebSocketClose invokes the guest websocket.close handler and
// releases id's slot; a subsequent message to id is ignored.
func (c *Context) DispatchWebSocketClose(id guest.WSConnID, code int, reason string) error {
	return c.wsManager.DispatchWebSocketClose(id, code, reason)
}

// DispatchWebSocketError invokes the guest websocket.error handler without
// closing the connection.
func (c *Context) DispatchWebSocketError(id guest.WSConnID, connErr error) error {
	return c.wsManager.DispatchWebSocketError(id, connErr)
}

// OnWebSocketCommand registers the host listener for guest-initiated
// ws.send()/ws.close() commands (spec.md §6's onWebSocketCommand). Calling
// it again replaces the previous listener.
func (c *Context) OnWebSocketCommand(cb func(wsconn.Command)) {
	c.wsManager.OnWebSocketCommand(cb)
}

// WebSocketUpgrader returns the module's default gorilla/websocket-backed
// transport (C12) bound to this Context's Manager, for a host that wants
// the built-in HTTP upgrade handling rather than driving the Manager with
// its own socket layer.
func (c *Context) WebSocketUpgrader() *wsconn.Upgrader {
	return wsconn.NewUpgrader(c.wsManager)
}

// Dispose tears down the registry and marshaller (clearAllInstanceState),
// idempotently, per spec.md §5's resource policy.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.registry.Clear()
	c.marshaller.Clear()
}
