package rolewatch

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type holderKey struct {
	typ HolderType
	id  string
}

func keyOf(h Holder) holderKey {
	return holderKey{typ: h.HolderType(), id: h.Key()}
}

// edge is one stored assignment. A role given to a permission is stored as
// the permission held by the role.
type edge struct {
	holder holderKey
	kind   Kind
	item   string
}

func normalize(h Holder, kind Kind, id string) edge {
	if h.HolderType() == HolderPermission && kind == KindRole {
		return edge{holder: holderKey{typ: HolderRole, id: id}, kind: KindPermission, item: h.Key()}
	}
	return edge{holder: keyOf(h), kind: kind, item: id}
}

// MemoryStore is an in-process Store. It keeps the instances it was given, so
// the holders it returns carry the same firing gates as the caller's.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[holderKey]Item
	holders map[holderKey]Holder
	edges   map[edge]uint64
	seq     uint64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   make(map[holderKey]Item),
		holders: make(map[holderKey]Holder),
		edges:   make(map[edge]uint64),
	}
}

// SavePrincipal saves p, assigning an id on first save, and runs its save hooks.
func (m *MemoryStore) SavePrincipal(ctx context.Context, p *Principal) error {
	id := m.register(p, nil)
	return p.Persisted(ctx, id)
}

// SaveRole saves r, assigning an id on first save, and runs its save hooks.
func (m *MemoryStore) SaveRole(ctx context.Context, r *Role) error {
	id := m.register(r, r)
	return r.Persisted(ctx, id)
}

// SavePermission saves p, assigning an id on first save, and runs its save hooks.
func (m *MemoryStore) SavePermission(ctx context.Context, p *Permission) error {
	id := m.register(p, p)
	return p.Persisted(ctx, id)
}

func (m *MemoryStore) register(h Holder, it Item) string {
	id := h.Key()
	if id == "" {
		id = uuid.NewString()
	}
	key := holderKey{typ: h.HolderType(), id: id}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders[key] = h
	if it != nil {
		m.items[key] = it
	}
	return id
}

// Attach implements Store.
func (m *MemoryStore) Attach(_ context.Context, h Holder, kind Kind, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	edges := make([]edge, 0, len(ids))
	for _, id := range ids {
		e := normalize(h, kind, id)
		if _, ok := m.items[holderKey{typ: e.kind.itemType(), id: e.item}]; !ok {
			return NewError(ErrItemNotFound, "unknown "+e.kind.String()+" "+e.item).WithHolder(h)
		}
		if _, ok := m.holders[e.holder]; !ok && e.holder != keyOf(h) {
			if _, ok := m.items[e.holder]; !ok {
				return NewError(ErrItemNotFound, "unknown "+string(e.holder.typ)+" "+e.holder.id).WithHolder(h)
			}
		}
		edges = append(edges, e)
	}

	for _, e := range edges {
		if _, ok := m.holders[e.holder]; !ok {
			if e.holder == keyOf(h) {
				m.holders[e.holder] = h
			} else {
				m.holders[e.holder] = m.items[e.holder]
			}
		}
		if _, exists := m.edges[e]; exists {
			continue
		}
		m.seq++
		m.edges[e] = m.seq
	}
	return nil
}

// Detach implements Store.
func (m *MemoryStore) Detach(_ context.Context, h Holder, kind Kind, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.edges, normalize(h, kind, id))
	}
	return nil
}

// DetachAll implements Store.
func (m *MemoryStore) DetachAll(_ context.Context, h Holder, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for e := range m.edges {
		if m.matches(e, h, kind) {
			delete(m.edges, e)
		}
	}
	return nil
}

// InTransaction implements Transactor. When fn fails, the assignments are put
// back as they were when fn started. Writes made outside fn in the meantime
// are undone too.
func (m *MemoryStore) InTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	m.mu.RLock()
	edges := make(map[edge]uint64, len(m.edges))
	for e, seq := range m.edges {
		edges[e] = seq
	}
	seq := m.seq
	m.mu.RUnlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.edges = edges
		m.seq = seq
		m.mu.Unlock()
		return err
	}
	return nil
}

// Current implements Store. Items come back in assignment order.
func (m *MemoryStore) Current(_ context.Context, h Holder, kind Kind) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inverse := h.HolderType() == HolderPermission && kind == KindRole
	var keys []holderKey
	for _, e := range m.sorted() {
		if !m.matches(e, h, kind) {
			continue
		}
		if inverse {
			keys = append(keys, e.holder)
		} else {
			keys = append(keys, holderKey{typ: kind.itemType(), id: e.item})
		}
	}

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		if it, ok := m.items[k]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// Principals implements Store.
func (m *MemoryStore) Principals(_ context.Context, role Holder) ([]Holder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Holder
	for _, e := range m.sorted() {
		if e.kind != KindRole || e.item != role.Key() || e.holder.typ != HolderPrincipal {
			continue
		}
		if h, ok := m.holders[e.holder]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MemoryStore) matches(e edge, h Holder, kind Kind) bool {
	if h.HolderType() == HolderPermission && kind == KindRole {
		return e.kind == KindPermission && e.item == h.Key() && e.holder.typ == HolderRole
	}
	return e.kind == kind && e.holder == keyOf(h)
}

func (m *MemoryStore) sorted() []edge {
	out := make([]edge, 0, len(m.edges))
	for e := range m.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return m.edges[out[i]] < m.edges[out[j]]
	})
	return out
}
