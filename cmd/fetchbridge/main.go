// main.go — CLI / demo host (C13): loads a guest serve({...}) registration
// script, boots a fetchbridge.Context, and runs a real net/http.Server whose
// handler dispatches every inbound request through Context.DispatchRequest
// and completes the WebSocket upgrade when GetUpgradeRequest reports one.
//
// Usage: fetchbridge --script path/to/worker.js [--port 8787]
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/dev-console/fetchbridge"
	"github.com/dev-console/fetchbridge/internal/dispatch"
	"github.com/dev-console/fetchbridge/internal/wsconn"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the entry point, separated from main for testability.
func run(args []string) int {
	fs := flag.NewFlagSet("fetchbridge", flag.ContinueOnError)
	port := fs.Int("port", 8787, "Port to listen on")
	script := fs.String("script", "", "Path to the guest serve({...}) registration script")
	showVersion := fs.Bool("version", false, "Show version")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("fetchbridge %s\n", version)
		return 0
	}

	if *script == "" {
		fmt.Fprintln(os.Stderr, "Error: --script is required")
		return 2
	}

	src, err := os.ReadFile(*script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading script: %v\n", err)
		return 1
	}

	ctx, err := fetchbridge.New(fetchbridge.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating context: %v\n", err)
		return 1
	}
	defer ctx.Dispose()

	if err := ctx.RunScript(*script, string(src)); err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating script: %v\n", err)
		return 1
	}
	if !ctx.HasServeHandler() {
		fmt.Fprintln(os.Stderr, "Error: script did not call serve({fetch, ...})")
		return 1
	}

	upgrader := ctx.WebSocketUpgrader()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handleRequest(ctx, upgrader, w, r)
	})

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	fmt.Printf("fetchbridge listening on http://%s (script: %s)\n", addr, *script)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		return 1
	}
	return 0
}

// handleRequest dispatches one inbound HTTP request through the guest
// serve({fetch}) handler, writing back a normal response or completing the
// WebSocket upgrade server.upgrade() requested.
func handleRequest(ctx *fetchbridge.Context, upgrader *wsconn.Upgrader, w http.ResponseWriter, r *http.Request) {
	in := dispatch.RequestIn{
		Method: r.Method,
		URL:    "http://" + r.Host + r.URL.RequestURI(),
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Body != nil {
		in.Body = r.Body
	}
	for name, values := range r.Header {
		for _, v := range values {
			in.Headers = append(in.Headers, dispatch.HeaderPair{Name: name, Value: v})
		}
	}

	resp, err := ctx.DispatchRequest(r.Context(), in)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if resp.IsUpgrade() {
		id, ok := ctx.GetUpgradeRequest()
		if !ok {
			http.Error(w, "upgrade response with no pending connection", http.StatusInternalServerError)
			return
		}
		if err := upgrader.Upgrade(w, r, id); err != nil {
			fmt.Fprintf(os.Stderr, "websocket upgrade failed: %v\n", err)
		}
		return
	}

	resp.Headers().ForEach(func(name, value string) {
		w.Header().Add(name, value)
	})
	w.WriteHeader(resp.Status())

	body, err := resp.Body().Bytes(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading response body: %v\n", err)
		return
	}
	_, _ = w.Write(body)
}
