// marshal.go — the round-trip dedup engine backing C5: "when the host
// passes a value that already originated from the guest, the existing
// guest instance is returned unchanged" (and symmetrically for guest->host).
// Per-type translation (how to actually build a goja representation of a
// Headers/URL/Request/...) is engine-specific and lives in internal/guest,
// which calls these helpers to decide build-vs-reuse.
package bridge

import "github.com/dev-console/fetchbridge/internal/webapi"

// ToGuest returns the cached guest-side value for id if one is already
// registered (the "already originated from the guest" round-trip case);
// otherwise it calls build, registers the result under id in both tables
// so a future guest->host pass resolves back to hostValue, and returns it.
func (m *Marshaller) ToGuest(id webapi.InstanceID, hostValue any, build func() any) any {
	if cached, ok := m.LookupHostToGuest(id); ok {
		return cached
	}
	guestValue := build()
	m.RegisterHostToGuest(id, guestValue)
	m.RegisterGuestToHost(id, hostValue)
	return guestValue
}

// ToHost returns the cached host-side value for id if one is already
// registered; otherwise it calls build, registers the result under id in
// both tables, and returns it.
func (m *Marshaller) ToHost(id webapi.InstanceID, guestValue any, build func() any) any {
	if cached, ok := m.LookupGuestToHost(id); ok {
		return cached
	}
	hostValue := build()
	m.RegisterGuestToHost(id, hostValue)
	m.RegisterHostToGuest(id, guestValue)
	return hostValue
}

// AbortMirror is the one documented exception to shared identity (spec.md
// §9): an AbortSignal crossing the boundary is never looked up or cached
// here, since mirrored signals deliberately do not share an InstanceId.
// This function exists to make that omission explicit at the call site
// rather than leaving it implicit by absence.
func AbortMirror(src *webapi.AbortSignal) *webapi.AbortSignal {
	return webapi.MirrorSignal(src)
}
