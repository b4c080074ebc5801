package rolewatch

// Kind distinguishes role assignments from permission assignments.
type Kind uint8

const (
	KindRole Kind = iota + 1
	KindPermission
)

// String returns "role" or "permission".
func (k Kind) String() string {
	switch k {
	case KindRole:
		return "role"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// itemType is the holder type of the items a kind assigns.
func (k Kind) itemType() HolderType {
	if k == KindRole {
		return HolderRole
	}
	return HolderPermission
}

// Gate is the local, per-holder override of event firing. The zero value
// has firing enabled for both kinds. Whether an event is actually emitted also
// depends on the global switch, see Service.IsEnabled.
type Gate struct {
	roleDisabled       bool
	permissionDisabled bool
}

// Disable turns off firing for the given kinds.
func (g *Gate) Disable(kinds ...Kind) *Gate {
	for _, k := range kinds {
		g.set(k, true)
	}
	return g
}

// Enable turns firing back on for the given kinds.
func (g *Gate) Enable(kinds ...Kind) *Gate {
	for _, k := range kinds {
		g.set(k, false)
	}
	return g
}

// Disabled reports whether firing has been turned off locally for kind.
func (g *Gate) Disabled(kind Kind) bool {
	switch kind {
	case KindRole:
		return g.roleDisabled
	case KindPermission:
		return g.permissionDisabled
	}
	return false
}

// set stores the flag for kind and returns the previous value.
func (g *Gate) set(kind Kind, disabled bool) bool {
	prev := g.Disabled(kind)
	switch kind {
	case KindRole:
		g.roleDisabled = disabled
	case KindPermission:
		g.permissionDisabled = disabled
	}
	return prev
}
