package rolewatch

import "context"

// HolderType identifies the kind of entity carrying an assignment.
type HolderType string

const (
	HolderPrincipal  HolderType = "principal"
	HolderRole       HolderType = "role"
	HolderPermission HolderType = "permission"
)

// DefaultGuard is used for roles and permissions created without a guard.
const DefaultGuard = "web"

// SavedHook is called after each successful save of a holder until it reports
// done. A hook that is not done, or that fails, runs again on the next save.
type SavedHook func(ctx context.Context) (done bool, err error)

// Holder is any entity that can carry roles or permissions.
//
// Principals hold roles and permissions, roles hold permissions and
// permissions can be given roles (the inverse of a role holding them).
type Holder interface {
	HolderType() HolderType
	Key() string
	Exists() bool
	Saved(hook SavedHook)
	Gate() *Gate
}

// Item is a role or permission that can be assigned to a Holder.
type Item interface {
	Holder
	ItemName() string
	GuardName() string
}

// Model carries the lifecycle state shared by every holder: the durable id,
// the per-kind firing gate and the hooks waiting for the next save.
type Model struct {
	id    string
	gate  Gate
	hooks []*savedHook
}

type savedHook struct {
	run  SavedHook
	done bool
}

// Key returns the durable identifier, or an empty string before the first save.
func (m *Model) Key() string {
	return m.id
}

// Exists reports whether the holder has been persisted.
func (m *Model) Exists() bool {
	return m.id != ""
}

// Saved registers a hook that runs after each successful save until it
// reports done.
func (m *Model) Saved(hook SavedHook) {
	m.hooks = append(m.hooks, &savedHook{run: hook})
}

// Gate returns the holder's firing gate.
func (m *Model) Gate() *Gate {
	return &m.gate
}

// Persisted must be called by whatever saved the holder, after the save
// succeeded. The first call assigns the durable id; every call runs the
// pending hooks in registration order and returns the first hook error.
// Hooks that report done are dropped.
//
// Hooks registered while the hooks are running wait for the next save.
func (m *Model) Persisted(ctx context.Context, id string) error {
	if m.id == "" {
		if id == "" {
			return NewError(ErrInvalidHolder, "persisted holder requires an id")
		}
		m.id = id
	}
	defer m.dropDoneHooks()

	hooks := make([]*savedHook, len(m.hooks))
	copy(hooks, m.hooks)
	for _, hook := range hooks {
		if hook.done {
			continue
		}
		done, err := hook.run(ctx)
		if err != nil {
			return err
		}
		hook.done = done
	}
	return nil
}

func (m *Model) dropDoneHooks() {
	pending := m.hooks[:0]
	for _, hook := range m.hooks {
		if !hook.done {
			pending = append(pending, hook)
		}
	}
	for i := len(pending); i < len(m.hooks); i++ {
		m.hooks[i] = nil
	}
	m.hooks = pending
}

// Principal is an entity (user, team, service account...) holding roles and permissions.
type Principal struct {
	Model
	Type string
}

// NewPrincipal creates a principal. Pass an empty id for a principal that has
// not been saved yet.
func NewPrincipal(principalType, id string) *Principal {
	return &Principal{Model: Model{id: id}, Type: principalType}
}

func (p *Principal) HolderType() HolderType { return HolderPrincipal }

// DisableEvents turns off event firing for the given kinds on this principal.
func (p *Principal) DisableEvents(kinds ...Kind) *Principal {
	p.gate.Disable(kinds...)
	return p
}

// EnableEvents turns event firing back on for the given kinds.
func (p *Principal) EnableEvents(kinds ...Kind) *Principal {
	p.gate.Enable(kinds...)
	return p
}

// Role is a named, guard-scoped group of permissions.
type Role struct {
	Model
	Name  string `validate:"required,max=255"`
	Guard string `validate:"required,max=64"`
}

// NewRole creates a role. An empty guard falls back to DefaultGuard.
func NewRole(id, name, guard string) *Role {
	if guard == "" {
		guard = DefaultGuard
	}
	return &Role{Model: Model{id: id}, Name: name, Guard: guard}
}

func (r *Role) HolderType() HolderType { return HolderRole }
func (r *Role) ItemName() string       { return r.Name }
func (r *Role) GuardName() string      { return r.Guard }

// DisableEvents turns off event firing for the given kinds on this role.
func (r *Role) DisableEvents(kinds ...Kind) *Role {
	r.gate.Disable(kinds...)
	return r
}

// EnableEvents turns event firing back on for the given kinds.
func (r *Role) EnableEvents(kinds ...Kind) *Role {
	r.gate.Enable(kinds...)
	return r
}

// Permission is a named, guard-scoped capability.
type Permission struct {
	Model
	Name  string `validate:"required,max=255"`
	Guard string `validate:"required,max=64"`
}

// NewPermission creates a permission. An empty guard falls back to DefaultGuard.
func NewPermission(id, name, guard string) *Permission {
	if guard == "" {
		guard = DefaultGuard
	}
	return &Permission{Model: Model{id: id}, Name: name, Guard: guard}
}

func (p *Permission) HolderType() HolderType { return HolderPermission }
func (p *Permission) ItemName() string       { return p.Name }
func (p *Permission) GuardName() string      { return p.Guard }

// DisableEvents turns off event firing for the given kinds on this permission.
func (p *Permission) DisableEvents(kinds ...Kind) *Permission {
	p.gate.Disable(kinds...)
	return p
}

// EnableEvents turns event firing back on for the given kinds.
func (p *Permission) EnableEvents(kinds ...Kind) *Permission {
	p.gate.Enable(kinds...)
	return p
}

func rolesToItems(roles []*Role) ([]Item, error) {
	items := make([]Item, 0, len(roles))
	for _, r := range roles {
		if r == nil {
			return nil, NewError(ErrInvalidItem, "role cannot be nil")
		}
		items = append(items, r)
	}
	return items, nil
}

func permissionsToItems(perms []*Permission) ([]Item, error) {
	items := make([]Item, 0, len(perms))
	for _, p := range perms {
		if p == nil {
			return nil, NewError(ErrInvalidItem, "permission cannot be nil")
		}
		items = append(items, p)
	}
	return items, nil
}
