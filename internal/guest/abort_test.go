package guest

import "testing"

func TestAbortController_AbortFiresListener(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const ctrl = new AbortController();
		let fired = false;
		ctrl.signal.addEventListener("abort", () => { fired = true; });
		ctrl.abort("because");
		[ctrl.signal.aborted, fired].join(",");
	`)
	if got != "true,true" {
		t.Fatalf("got %v", got)
	}
}

func TestAbortController_AbortIsIdempotent(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const ctrl = new AbortController();
		let count = 0;
		ctrl.signal.addEventListener("abort", () => { count++; });
		ctrl.abort();
		ctrl.abort();
		count;
	`)
	if got != int64(1) {
		t.Fatalf("got %v, want exactly one abort dispatch", got)
	}
}

func TestAbortSignal_ThrowIfAbortedThrowsAfterAbort(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const ctrl = new AbortController();
		ctrl.abort();
		let threw = false;
		try {
			ctrl.signal.throwIfAborted();
		} catch (e) {
			threw = true;
		}
		threw;
	`)
	if got != true {
		t.Fatalf("got %v, want throwIfAborted to throw once aborted", got)
	}
}

func TestAbortSignal_StaticAbortReturnsAlreadyAbortedSignal(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `AbortSignal.abort("nope").aborted;`)
	if got != true {
		t.Fatalf("got %v, want AbortSignal.abort() to return an aborted signal", got)
	}
}
