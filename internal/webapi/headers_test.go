// headers_test.go — Unit tests for Headers: case-insensitivity, ordered
// iteration, Set-Cookie handling, and non-leaking copy construction.
package webapi

import "testing"

func TestHeaders_CaseInsensitiveGet(t *testing.T) {
	t.Parallel()
	h := NewHeadersFromPairs([]HeaderPair{{"Content-Type", "application/json"}})

	if v, ok := h.Get("content-type"); !ok || v != "application/json" {
		t.Fatalf("Get(content-type) = %q, %v", v, ok)
	}
	if v, ok := h.Get("CONTENT-TYPE"); !ok || v != "application/json" {
		t.Fatalf("Get(CONTENT-TYPE) = %q, %v", v, ok)
	}
}

func TestHeaders_AppendJoinsWithComma(t *testing.T) {
	t.Parallel()
	h := NewHeaders()
	h.Append("X-Custom", "a")
	h.Append("x-custom", "b")
	v, _ := h.Get("X-Custom")
	if v != "a, b" {
		t.Fatalf("joined value = %q, want %q", v, "a, b")
	}
}

func TestHeaders_EntriesAscendingOrder(t *testing.T) {
	t.Parallel()
	h := NewHeadersFromPairs([]HeaderPair{
		{"Zebra", "1"},
		{"Apple", "2"},
		{"Mango", "3"},
	})
	entries := h.Entries()
	want := []string{"apple", "mango", "zebra"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Name != w {
			t.Fatalf("entries[%d].Name = %q, want %q", i, entries[i].Name, w)
		}
	}
}

func TestHeaders_SetCookieIndividualEntries(t *testing.T) {
	t.Parallel()
	h := NewHeaders()
	h.Append("Set-Cookie", "a=1")
	h.Append("Set-Cookie", "b=2")

	got := h.GetSetCookie()
	if len(got) != 2 || got[0] != "a=1" || got[1] != "b=2" {
		t.Fatalf("GetSetCookie() = %v", got)
	}

	entries := h.Entries()
	count := 0
	for _, e := range entries {
		if e.Name == "set-cookie" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 set-cookie entries in Entries(), got %d", count)
	}
}

func TestHeaders_HasAndDeleteWithValueFilter(t *testing.T) {
	t.Parallel()
	h := NewHeaders()
	h.Append("Accept", "text/html")
	h.Append("accept", "application/json")

	v := "text/html"
	if !h.Has("Accept", &v) {
		t.Fatal("Has(Accept, text/html) should be true")
	}
	other := "text/plain"
	if h.Has("Accept", &other) {
		t.Fatal("Has(Accept, text/plain) should be false")
	}

	h.Delete("Accept", &v)
	got, _ := h.Get("Accept")
	if got != "application/json" {
		t.Fatalf("after delete, Get(Accept) = %q", got)
	}
}

func TestHeaders_CopyConstructDoesNotLeakInternals(t *testing.T) {
	t.Parallel()
	src := NewHeadersFromPairs([]HeaderPair{{"Content-Type", "text/plain"}})
	// Copy-construction must traverse src.Entries(), never reflect over the
	// struct, so nothing but public (name, value) pairs ever crosses.
	copied := NewHeadersFromPairs(src.Entries())
	if copied.ID() == src.ID() {
		t.Fatal("copy must have a distinct identity from the source")
	}
	v, ok := copied.Get("Content-Type")
	if !ok || v != "text/plain" {
		t.Fatalf("copied headers missing Content-Type: %q, %v", v, ok)
	}
}

func TestHeaders_DeleteWithoutFilterRemovesAll(t *testing.T) {
	t.Parallel()
	h := NewHeaders()
	h.Append("X-A", "1")
	h.Delete("x-a", nil)
	if h.Has("X-A", nil) {
		t.Fatal("expected X-A removed entirely")
	}
}

func TestHeaders_Clone(t *testing.T) {
	t.Parallel()
	h := NewHeadersFromPairs([]HeaderPair{{"A", "1"}})
	clone := h.Clone()
	clone.Set("A", "2")
	v, _ := h.Get("A")
	if v != "1" {
		t.Fatalf("clone must be independent; original changed to %q", v)
	}
}
