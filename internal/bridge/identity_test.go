// identity_test.go — Unit tests for the cross-boundary identity tables:
// round-trip dedup and clear semantics.
package bridge

import (
	"testing"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

func TestMarshaller_ToGuestCachesByID(t *testing.T) {
	t.Parallel()
	m := NewMarshaller()
	id := webapi.NewInstanceID()
	calls := 0
	build := func() any {
		calls++
		return "guest-value"
	}

	a := m.ToGuest(id, "host-value", build)
	b := m.ToGuest(id, "host-value", build)
	if a != b {
		t.Fatalf("got distinct values %v, %v for the same id", a, b)
	}
	if calls != 1 {
		t.Fatalf("build called %d times, want 1", calls)
	}
}

func TestMarshaller_RoundTripReturnsOriginal(t *testing.T) {
	t.Parallel()
	m := NewMarshaller()
	id := webapi.NewInstanceID()

	guestValue := m.ToGuest(id, "host-original", func() any { return "guest-built" })
	hostValue := m.ToHost(id, guestValue, func() any {
		t.Fatal("build should not run: guestValue already registered host-side")
		return nil
	})
	if hostValue != "host-original" {
		t.Fatalf("hostValue = %v, want host-original", hostValue)
	}
}

func TestMarshaller_ForgetRemovesBothDirections(t *testing.T) {
	t.Parallel()
	m := NewMarshaller()
	id := webapi.NewInstanceID()
	m.ToGuest(id, "host-value", func() any { return "guest-value" })

	m.Forget(id)

	if _, ok := m.LookupHostToGuest(id); ok {
		t.Fatal("expected host->guest entry removed")
	}
	if _, ok := m.LookupGuestToHost(id); ok {
		t.Fatal("expected guest->host entry removed")
	}
}

func TestMarshaller_ClearEmptiesBothTables(t *testing.T) {
	t.Parallel()
	m := NewMarshaller()
	idA := webapi.NewInstanceID()
	idB := webapi.NewInstanceID()
	m.ToGuest(idA, "a", func() any { return "ga" })
	m.ToGuest(idB, "b", func() any { return "gb" })

	m.Clear()

	if _, ok := m.LookupHostToGuest(idA); ok {
		t.Fatal("expected idA cleared")
	}
	if _, ok := m.LookupHostToGuest(idB); ok {
		t.Fatal("expected idB cleared")
	}
}

func TestMarshaller_DistinctIDsDoNotCollide(t *testing.T) {
	t.Parallel()
	m := NewMarshaller()
	idA := webapi.NewInstanceID()
	idB := webapi.NewInstanceID()
	m.ToGuest(idA, "host-a", func() any { return "guest-a" })
	m.ToGuest(idB, "host-b", func() any { return "guest-b" })

	ga, _ := m.LookupHostToGuest(idA)
	gb, _ := m.LookupHostToGuest(idB)
	if ga == gb {
		t.Fatal("expected distinct cached values for distinct ids")
	}
}
