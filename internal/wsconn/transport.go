// transport.go — Host-side WebSocket Transport (C12): the module's default
// gorilla/websocket-backed implementation of the connection a Manager
// dispatches into. One read pump goroutine and one write pump goroutine per
// connection, grounded on the read/write-pump-plus-ping-ticker shape common
// to gorilla/websocket servers: the read pump feeds
// Manager.DispatchWebSocketMessage/DispatchWebSocketClose, the write pump
// drains the per-connection queue that Manager.OnWebSocketCommand routes
// into, interleaved with a keepalive ping.
//
// This is "only its contract" territory per spec.md §1 — the embedding HTTP
// upgrade itself is external — but the module ships this default so the CLI
// demo (C13) runs end-to-end without a caller supplying its own transport.
package wsconn

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dev-console/fetchbridge/internal/guest"
)

const (
	// pongWait bounds how long a connection may stay silent before its read
	// deadline expires; reset on every pong.
	pongWait = 60 * time.Second
	// pingPeriod is inside pongWait so each ping's pong can reset the read
	// deadline before it expires; a single unanswered ping lets it lapse.
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second

	outboundBuffer = 64
)

// Upgrader completes real HTTP upgrades with gorilla/websocket and pumps
// bytes between the socket and a Manager. One Upgrader can serve any number
// of connections for the Manager it was built from.
type Upgrader struct {
	manager *Manager
	ws      websocket.Upgrader

	mu     sync.Mutex
	queues map[guest.WSConnID]chan Command
}

// NewUpgrader builds an Upgrader bound to m, registering itself as m's
// single outbound command listener so each connection's write pump only
// ever sees the commands addressed to it.
func NewUpgrader(m *Manager) *Upgrader {
	u := &Upgrader{
		manager: m,
		ws: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin checking is the embedder's responsibility (spec.md §1
			// scopes the HTTP layer itself out); this default accepts any.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		queues: make(map[guest.WSConnID]chan Command),
	}
	m.OnWebSocketCommand(u.route)
	return u
}

func (u *Upgrader) route(cmd Command) {
	u.mu.Lock()
	q, ok := u.queues[cmd.ConnectionID]
	u.mu.Unlock()
	if !ok {
		return
	}
	select {
	case q <- cmd:
	default:
		// Queue saturated: drop rather than block the single goroutine
		// that owns the guest Runtime (ws.send() called from there).
	}
}

// Upgrade completes the HTTP upgrade for id — the connection id
// server.upgrade allocated during the DispatchRequest that just returned —
// and starts its read/write pumps in their own goroutines, returning once
// the handshake itself succeeds.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request, id guest.WSConnID) error {
	conn, err := u.ws.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	queue := make(chan Command, outboundBuffer)
	u.mu.Lock()
	u.queues[id] = queue
	u.mu.Unlock()

	if err := u.manager.DispatchWebSocketOpen(id); err != nil {
		u.mu.Lock()
		delete(u.queues, id)
		u.mu.Unlock()
		conn.Close()
		return err
	}

	go u.writePump(conn, queue)
	go u.readPump(conn, id, queue)
	return nil
}

// readPump reads frames until the connection errors or the peer closes,
// forwarding each to the Manager, then dispatches the close event and tears
// down id's queue.
func (u *Upgrader) readPump(conn *websocket.Conn, id guest.WSConnID, queue chan Command) {
	defer func() {
		u.mu.Lock()
		delete(u.queues, id)
		u.mu.Unlock()
		close(queue)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			code := websocket.CloseNormalClosure
			reason := ""
			if ce, ok := err.(*websocket.CloseError); ok {
				code, reason = ce.Code, ce.Text
			} else {
				_ = u.manager.DispatchWebSocketError(id, err)
			}
			_ = u.manager.DispatchWebSocketClose(id, code, reason)
			return
		}
		_ = u.manager.DispatchWebSocketMessage(id, data, msgType == websocket.TextMessage)
	}
}

// writePump drains queue (commands emitted by guest ws.send()/ws.close())
// and interleaves a keepalive ping, exiting once queue is closed by
// readPump or a write fails.
func (u *Upgrader) writePump(conn *websocket.Conn, queue <-chan Command) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case cmd, ok := <-queue:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			switch cmd.Type {
			case CommandMessage:
				mt := websocket.BinaryMessage
				if cmd.IsText {
					mt = websocket.TextMessage
				}
				if err := conn.WriteMessage(mt, cmd.Data); err != nil {
					return
				}
			case CommandClose:
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(cmd.Code, cmd.Reason))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
