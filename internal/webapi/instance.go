// instance.go — InstanceID: the stable, non-enumerable identity every
// WebObject carries so the marshaller (internal/bridge) can deduplicate
// round-trips and preserve instanceof-equality across the boundary.
package webapi

import "github.com/google/uuid"

// InstanceID is an opaque per-object identifier. It is never derived from
// object content, only from construction order, so two structurally equal
// objects still have distinct identities (matching JS reference semantics).
type InstanceID uuid.UUID

// NewInstanceID returns a fresh, globally unique InstanceID.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.New())
}

// String renders the InstanceID in canonical UUID form, useful for logging
// and as a map key when a comparable non-array type is inconvenient.
func (id InstanceID) String() string {
	return uuid.UUID(id).String()
}

// ParseInstanceID parses the canonical form String produces, the reverse
// direction used when recovering an InstanceID from a guest-side marker
// property.
func ParseInstanceID(s string) (InstanceID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return InstanceID{}, err
	}
	return InstanceID(u), nil
}
