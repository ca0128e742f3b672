package guest

import "testing"

func TestHeaders_AppendJoinsCommaSeparated(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const h = new Headers();
		h.append("X-Thing", "a");
		h.append("X-Thing", "b");
		h.get("X-Thing");
	`)
	if got != "a, b" {
		t.Fatalf("got %v, want %q", got, "a, b")
	}
}

func TestHeaders_CaseInsensitiveNames(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const h = new Headers({"Content-Type": "text/plain"});
		h.has("content-type");
	`)
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestHeaders_SetCookieSurfacedIndividually(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const h = new Headers();
		h.append("Set-Cookie", "a=1");
		h.append("Set-Cookie", "b=2");
		h.getSetCookie().length;
	`)
	if got != int64(2) {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestHeaders_EntriesSortedAscending(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const h = new Headers();
		h.append("Zeta", "1");
		h.append("Alpha", "2");
		h.entries().map(e => e[0]).join(",");
	`)
	if got != "alpha,zeta" {
		t.Fatalf("got %v", got)
	}
}

func TestHeaders_DeleteRemovesName(t *testing.T) {
	r := newTestRuntime(t)
	got := mustEval(t, r, `
		const h = new Headers();
		h.set("X", "1");
		h.delete("X");
		h.has("X");
	`)
	if got != false {
		t.Fatalf("got %v, want false", got)
	}
}
