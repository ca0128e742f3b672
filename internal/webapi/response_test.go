// response_test.go — Unit tests for Response construction, the JSON/redirect/
// error statics, and the internal upgrade status side channel.
package webapi

import (
	"context"
	"testing"
)

func TestResponse_DefaultsApplied(t *testing.T) {
	t.Parallel()
	r := NewResponse(nil, ResponseInit{})
	if r.Status() != 200 || !r.OK() {
		t.Fatalf("Status = %d, OK = %v, want 200/true", r.Status(), r.OK())
	}
	if r.StatusText() != "" {
		t.Fatalf("StatusText = %q, want empty", r.StatusText())
	}
}

func TestResponse_OKRangeBoundaries(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		ok     bool
	}{
		{199, false}, {200, true}, {299, true}, {300, false}, {404, false},
	}
	for _, c := range cases {
		r := NewResponse(nil, ResponseInit{Status: c.status})
		if r.OK() != c.ok {
			t.Fatalf("status %d: OK() = %v, want %v", c.status, r.OK(), c.ok)
		}
	}
}

func TestResponseJSON_SetsContentType(t *testing.T) {
	t.Parallel()
	r, err := ResponseJSON(map[string]int{"a": 1}, ResponseInit{})
	if err != nil {
		t.Fatalf("ResponseJSON: %v", err)
	}
	ct, ok := r.Headers().Get("content-type")
	if !ok || ct != "application/json;charset=UTF-8" {
		t.Fatalf("content-type = %q, ok=%v", ct, ok)
	}
	got, err := r.Body().Text(context.Background())
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != `{"a":1}` {
		t.Fatalf("body = %q", got)
	}
}

func TestResponseJSON_RespectsOverriddenContentType(t *testing.T) {
	t.Parallel()
	h := NewHeaders()
	h.Set("Content-Type", "application/custom+json")
	r, err := ResponseJSON(map[string]int{"a": 1}, ResponseInit{Headers: h})
	if err != nil {
		t.Fatalf("ResponseJSON: %v", err)
	}
	ct, _ := r.Headers().Get("content-type")
	if ct != "application/custom+json" {
		t.Fatalf("content-type = %q, want the caller's override preserved", ct)
	}
}

func TestResponseRedirect_SetsLocationAndDefaultStatus(t *testing.T) {
	t.Parallel()
	r, err := ResponseRedirect("https://example.com/new", 0)
	if err != nil {
		t.Fatalf("ResponseRedirect: %v", err)
	}
	if r.Status() != 302 {
		t.Fatalf("Status = %d, want 302", r.Status())
	}
	loc, ok := r.Headers().Get("location")
	if !ok || loc != "https://example.com/new" {
		t.Fatalf("Location = %q, ok=%v", loc, ok)
	}
}

func TestResponseRedirect_RejectsInvalidStatus(t *testing.T) {
	t.Parallel()
	if _, err := ResponseRedirect("https://example.com", 404); err == nil {
		t.Fatal("expected an error for a non-redirect status")
	}
}

func TestResponseError_IsTypeErrorStatusZero(t *testing.T) {
	t.Parallel()
	r := ResponseError()
	if r.Type() != "error" || r.Status() != 0 {
		t.Fatalf("Type = %q, Status = %d, want error/0", r.Type(), r.Status())
	}
}

func TestResponse_UpgradeSentinelHiddenFromExternalStatus(t *testing.T) {
	t.Parallel()
	r := NewUpgradeResponse()
	if !r.IsUpgrade() {
		t.Fatal("expected IsUpgrade() true")
	}
	if r.OriginalStatus() != 101 {
		t.Fatalf("OriginalStatus() = %d, want 101", r.OriginalStatus())
	}
}

func TestResponse_NonUpgradeResponseNotFlagged(t *testing.T) {
	t.Parallel()
	r := NewResponse(nil, ResponseInit{Status: 200})
	if r.IsUpgrade() {
		t.Fatal("expected IsUpgrade() false for an ordinary response")
	}
}

func TestResponse_CloneIndependentIdentity(t *testing.T) {
	t.Parallel()
	r := NewResponse(NewBytesBody([]byte("abc")), ResponseInit{})
	a, b, err := r.Clone(nil)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if a.ID() == b.ID() || a.ID() == r.ID() {
		t.Fatal("expected three distinct identities")
	}
	ga, _ := a.Body().Text(context.Background())
	gb, _ := b.Body().Text(context.Background())
	if ga != "abc" || gb != "abc" {
		t.Fatalf("clone bodies = %q, %q, want both abc", ga, gb)
	}
}
