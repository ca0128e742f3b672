package fetchbridge

import (
	"context"
	"testing"

	"github.com/dev-console/fetchbridge/internal/dispatch"
	"github.com/dev-console/fetchbridge/internal/wsconn"
)

func TestContext_DispatchRequest_EchoMethodAndURL(t *testing.T) {
	ctx, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Dispose()

	if err := ctx.RunScript("guest.js", `
		serve({
			fetch(req) {
				return new Response(req.method + " " + req.url, {status: 200});
			}
		});
	`); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if !ctx.HasServeHandler() {
		t.Fatal("expected HasServeHandler true after serve()")
	}

	resp, err := ctx.DispatchRequest(context.Background(), dispatch.RequestIn{
		Method: "GET",
		URL:    "http://example.test/path",
	})
	if err != nil {
		t.Fatalf("DispatchRequest: %v", err)
	}
	text, err := resp.Body().Text(context.Background())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "GET http://example.test/path" {
		t.Fatalf("body = %q", text)
	}
}

func TestContext_Dispose_Idempotent(t *testing.T) {
	ctx, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx.Dispose()
	ctx.Dispose()
}

func TestContext_WebSocketUpgradeRoundTrip(t *testing.T) {
	ctx, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Dispose()

	if err := ctx.RunScript("guest.js", `
		serve({
			fetch(req, server) {
				server.upgrade(req, {data: {room: "lobby"}});
				return new Response(null, {status: 200});
			},
			websocket: {
				open(ws) {
					ws.send("welcome to " + ws.data.room);
				},
				message(ws, data) {
					ws.send("echo:" + data);
				},
				close(ws, code, reason) {},
			}
		});
	`); err != nil {
		t.Fatalf("RunScript: %v", err)
	}

	resp, err := ctx.DispatchRequest(context.Background(), dispatch.RequestIn{
		Method: "GET",
		URL:    "http://example.test/ws",
		Headers: []dispatch.HeaderPair{
			{Name: "Upgrade", Value: "websocket"},
			{Name: "Connection", Value: "Upgrade"},
		},
	})
	if err != nil {
		t.Fatalf("DispatchRequest: %v", err)
	}
	if !resp.IsUpgrade() {
		t.Fatal("expected IsUpgrade() true for a server.upgrade() response")
	}

	id, ok := ctx.GetUpgradeRequest()
	if !ok {
		t.Fatal("expected GetUpgradeRequest to report the pending upgrade")
	}

	var got []wsconn.Command
	ctx.OnWebSocketCommand(func(cmd wsconn.Command) {
		got = append(got, cmd)
	})

	if err := ctx.DispatchWebSocketOpen(id); err != nil {
		t.Fatalf("DispatchWebSocketOpen: %v", err)
	}
	if !ctx.HasActiveConnections() {
		t.Fatal("expected HasActiveConnections true after open")
	}
	if err := ctx.DispatchWebSocketMessage(id, []byte("ping"), true); err != nil {
		t.Fatalf("DispatchWebSocketMessage: %v", err)
	}
	if err := ctx.DispatchWebSocketClose(id, 1000, ""); err != nil {
		t.Fatalf("DispatchWebSocketClose: %v", err)
	}
	if ctx.HasActiveConnections() {
		t.Fatal("expected HasActiveConnections false after close")
	}

	if len(got) != 2 {
		t.Fatalf("got %d commands, want 2: %+v", len(got), got)
	}
	if got[0].Type != wsconn.CommandMessage || string(got[0].Data) != "welcome to lobby" {
		t.Fatalf("first command = %+v", got[0])
	}
	if got[1].Type != wsconn.CommandMessage || string(got[1].Data) != "echo:ping" {
		t.Fatalf("second command = %+v", got[1])
	}
}
