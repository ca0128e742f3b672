package guest

import "testing"

func TestRequest_ConstructionDefaults(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const req = new Request("https://example.test/a");
		[req.method, req.url, req.bodyUsed, req.body].join("|");
	`)
	if got != "GET|https://example.test/a|false|" {
		t.Fatalf("got %v", got)
	}
}

func TestRequest_GetDisallowsBody(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		let threw = false;
		try {
			new Request("https://example.test/", {method: "GET", body: "x"});
		} catch (e) {
			threw = true;
		}
		threw;
	`)
	if got != true {
		t.Fatalf("got %v, want a GET with a body to throw", got)
	}
}

func TestRequest_TextConsumesBodyOnce(t *testing.T) {
	r := newTestRuntime(t)
	_, err := r.RunScript("test.js", `
		globalThis.__first = null;
		globalThis.__secondFailed = false;
		const req = new Request("https://example.test/", {method: "POST", body: "hello"});
		req.text().then(t => {
			__first = t;
			return req.text();
		}).catch(() => { __secondFailed = true; });
	`)
	if err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	r.Drain()
	if got := mustEval(t, r, `__first`); got != "hello" {
		t.Fatalf("__first = %v", got)
	}
	if got := mustEval(t, r, `__secondFailed`); got != true {
		t.Fatalf("__secondFailed = %v, want a second .text() call on an already-read body to reject", got)
	}
}

func TestRequest_BodyUsedFlipsOnGetReaderNotOnBodyAccess(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const req = new Request("https://example.test/", {method: "POST", body: "hello"});
		const stream = req.body;
		const beforeReader = req.bodyUsed;
		stream.getReader();
		const afterReader = req.bodyUsed;
		[beforeReader, afterReader].join(",");
	`)
	if got != "false,true" {
		t.Fatalf("got %v, want accessing .body not to disturb but getReader() to", got)
	}
}

func TestRequest_CloneProducesIndependentBody(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		globalThis.__results = [];
		const req = new Request("https://example.test/", {method: "POST", body: "hello"});
		const clone = req.clone();
		Promise.all([req.text(), clone.text()]).then(([a, b]) => {
			__results.push(a, b);
		});
	`)
	_ = got
	r.Drain()
	if got := mustEval(t, r, `__results.join(",")`); got != "hello,hello" {
		t.Fatalf("got %v, want both original and clone to read hello", got)
	}
}

func TestRequest_HeadersCarryThroughConstruction(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const req = new Request("https://example.test/", {headers: {"X-Test": "1"}});
		req.headers.get("x-test");
	`)
	if got != "1" {
		t.Fatalf("got %v", got)
	}
}

func TestResponse_JSONStaticSetsContentType(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const resp = Response.json({a: 1});
		resp.headers.get("content-type");
	`)
	if got != "application/json;charset=UTF-8" {
		t.Fatalf("got %v", got)
	}
}

func TestResponse_RedirectSetsLocation(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const resp = Response.redirect("https://example.test/other", 301);
		[resp.status, resp.headers.get("location")].join("|");
	`)
	if got != "301|https://example.test/other" {
		t.Fatalf("got %v", got)
	}
}

func TestResponse_ErrorStaticIsTypeError(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const resp = Response.error();
		[resp.type, resp.status].join("|");
	`)
	if got != "error|0" {
		t.Fatalf("got %v", got)
	}
}

func TestResponse_OkReflectsStatusRange(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		[new Response(null, {status: 204}).ok, new Response(null, {status: 404}).ok].join(",");
	`)
	if got != "true,false" {
		t.Fatalf("got %v", got)
	}
}
