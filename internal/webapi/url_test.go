// url_test.go — Unit tests for URL/URLSearchParams: href round-trip and
// live binding between url.searchParams and url.search.
package webapi

import "testing"

func TestURL_HrefRoundTrip(t *testing.T) {
	t.Parallel()
	u, err := ParseURL("https://example.com/path?x=1", nil)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	again, err := ParseURL(u.Href(), nil)
	if err != nil {
		t.Fatalf("ParseURL(href): %v", err)
	}
	if again.Href() != u.Href() {
		t.Fatalf("href round-trip mismatch: %q vs %q", again.Href(), u.Href())
	}
}

func TestURL_SearchParamsIdentityStable(t *testing.T) {
	t.Parallel()
	u, _ := ParseURL("https://example.com/?a=1", nil)
	first := u.SearchParams()
	second := u.SearchParams()
	if first != second {
		t.Fatal("url.searchParams must return the same object on repeated access")
	}
}

func TestURL_MutatingSearchParamsUpdatesSearch(t *testing.T) {
	t.Parallel()
	u, _ := ParseURL("https://example.com/", nil)
	u.SearchParams().Append("a", "1")
	if u.Search() != "?a=1" {
		t.Fatalf("u.Search() = %q, want ?a=1", u.Search())
	}
}

func TestURL_AssigningSearchReflectsInExistingSearchParams(t *testing.T) {
	t.Parallel()
	u, _ := ParseURL("https://example.com/?a=1", nil)
	sp := u.SearchParams()
	u.SetSearch("?b=2")
	if v, ok := sp.Get("b"); !ok || v != "2" {
		t.Fatalf("existing searchParams reference did not see new query: %q, %v", v, ok)
	}
	if _, ok := sp.Get("a"); ok {
		t.Fatal("old entry should be gone after SetSearch")
	}
}

func TestURL_CanParse(t *testing.T) {
	t.Parallel()
	if !CanParse("https://example.com", nil) {
		t.Fatal("expected valid absolute URL to parse")
	}
	if CanParse("not a url", nil) {
		t.Fatal("expected invalid URL to fail CanParse")
	}
}

func TestURLSearchParams_ToStringEncodesSpaceAsPlus(t *testing.T) {
	t.Parallel()
	sp := NewURLSearchParams("")
	sp.Append("q", "hello world")
	if sp.String() != "q=hello+world" {
		t.Fatalf("String() = %q, want q=hello+world", sp.String())
	}
}

func TestURLSearchParams_PlusDecodesToSpace(t *testing.T) {
	t.Parallel()
	sp := NewURLSearchParams("q=a+b")
	v, _ := sp.Get("q")
	if v != "a b" {
		t.Fatalf("Get(q) = %q, want %q", v, "a b")
	}
}

func TestURLSearchParams_Size(t *testing.T) {
	t.Parallel()
	sp := NewURLSearchParams("a=1&b=2&a=3")
	if sp.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", sp.Size())
	}
}

func TestURLSearchParams_CopyConstructFromOther(t *testing.T) {
	t.Parallel()
	src := NewURLSearchParams("a=1")
	copied := NewURLSearchParamsFrom(src)
	copied.Append("b", "2")
	if src.Size() != 1 {
		t.Fatalf("copy-construct must not alias the source; src.Size() = %d", src.Size())
	}
}

func TestURLSearchParams_DeleteWithValueFilter(t *testing.T) {
	t.Parallel()
	sp := NewURLSearchParams("a=1&a=2")
	v := "1"
	sp.Delete("a", &v)
	got := sp.GetAll("a")
	if len(got) != 1 || got[0] != "2" {
		t.Fatalf("GetAll(a) = %v, want [2]", got)
	}
}
