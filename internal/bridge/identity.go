// identity.go — the cross-boundary InstanceId tables (C5): two parallel
// maps, host->guest and guest->host, so a round-tripped object resolves to
// the same instance on the far side instead of a fresh copy.
package bridge

import (
	"sync"

	"github.com/dev-console/fetchbridge/internal/webapi"
)

// Marshaller owns one context's identity tables. The values stored are
// opaque (host-side Go pointers on one table, guest-side goja values on the
// other); this package never interprets them, only deduplicates by
// webapi.InstanceID.
type Marshaller struct {
	hostToGuest sync.Map // webapi.InstanceID -> any (guest-side value)
	guestToHost sync.Map // webapi.InstanceID -> any (host-side value)
}

// NewMarshaller returns an empty Marshaller.
func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// LookupHostToGuest returns the guest-side value previously registered for
// id, if any.
func (m *Marshaller) LookupHostToGuest(id webapi.InstanceID) (any, bool) {
	return m.hostToGuest.Load(id)
}

// RegisterHostToGuest records that id's host-side object corresponds to
// guestValue on the guest side.
func (m *Marshaller) RegisterHostToGuest(id webapi.InstanceID, guestValue any) {
	m.hostToGuest.Store(id, guestValue)
}

// LookupGuestToHost returns the host-side value previously registered for
// id, if any.
func (m *Marshaller) LookupGuestToHost(id webapi.InstanceID) (any, bool) {
	return m.guestToHost.Load(id)
}

// RegisterGuestToHost records that id's guest-side object corresponds to
// hostValue on the host side.
func (m *Marshaller) RegisterGuestToHost(id webapi.InstanceID, hostValue any) {
	m.guestToHost.Store(id, hostValue)
}

// Forget removes id from both tables — called when either side's finalizer
// fires, or (in this module, which has no GC finalizer hook into goja) when
// a connection or request's scope ends and its objects cannot be referenced
// again.
func (m *Marshaller) Forget(id webapi.InstanceID) {
	m.hostToGuest.Delete(id)
	m.guestToHost.Delete(id)
}

// Clear empties both tables — clearAllInstanceState(), invoked at context
// teardown (Context.Dispose); a new context starts from its own fresh
// Marshaller, so it never observes a stale identity.
func (m *Marshaller) Clear() {
	m.hostToGuest.Range(func(key, _ any) bool {
		m.hostToGuest.Delete(key)
		return true
	})
	m.guestToHost.Range(func(key, _ any) bool {
		m.guestToHost.Delete(key)
		return true
	})
}
