package rolewatch

import (
	"context"
	"errors"
	"testing"

	"github.com/fernandezvara/dbkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dbFixture saves holders through a DBStore.
type dbFixture struct {
	ctx   context.Context
	store *DBStore
}

func newDBFixture(t *testing.T) *dbFixture {
	t.Helper()
	store, _ := setupTestDBStore(t)
	return &dbFixture{ctx: context.Background(), store: store}
}

func (f *dbFixture) role(t *testing.T) *Role {
	t.Helper()
	r := NewRole("", uniqueName("role"), "")
	require.NoError(t, f.store.SaveRole(f.ctx, r))
	return r
}

func (f *dbFixture) permission(t *testing.T) *Permission {
	t.Helper()
	p := NewPermission("", uniqueName("perm"), "")
	require.NoError(t, f.store.SavePermission(f.ctx, p))
	return p
}

func (f *dbFixture) principal(t *testing.T) *Principal {
	t.Helper()
	p := NewPrincipal("user", "")
	require.NoError(t, f.store.SavePrincipal(f.ctx, p))
	return p
}

// TestDBStoreSave tests inserts and updates
func TestDBStoreSave(t *testing.T) {
	f := newDBFixture(t)

	role := f.role(t)
	assert.True(t, role.Exists())
	id := role.Key()

	role.Name = uniqueName("renamed")
	require.NoError(t, f.store.SaveRole(f.ctx, role))
	assert.Equal(t, id, role.Key())
}

// TestDBStoreAssignments tests attach, detach and ordering
func TestDBStoreAssignments(t *testing.T) {
	f := newDBFixture(t)
	a, b := f.role(t), f.role(t)
	user := f.principal(t)

	require.NoError(t, f.store.Attach(f.ctx, user, KindRole, []string{a.Key()}))
	require.NoError(t, f.store.Attach(f.ctx, user, KindRole, []string{b.Key(), a.Key()}))

	current, err := f.store.Current(f.ctx, user, KindRole)
	require.NoError(t, err)
	assert.Equal(t, []string{a.Name, b.Name}, itemNames(current))

	count, err := f.store.CountAssignments(f.ctx, user, KindRole)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, f.store.HasRole(f.ctx, user, a))

	require.NoError(t, f.store.Detach(f.ctx, user, KindRole, []string{a.Key()}))
	assert.False(t, f.store.HasRole(f.ctx, user, a))

	require.NoError(t, f.store.DetachAll(f.ctx, user, KindRole))
	current, err = f.store.Current(f.ctx, user, KindRole)
	require.NoError(t, err)
	assert.Empty(t, current)
}

// TestDBStoreAttachUnknown tests that a missing item is a database error
func TestDBStoreAttachUnknown(t *testing.T) {
	f := newDBFixture(t)
	user := f.principal(t)

	err := f.store.Attach(f.ctx, user, KindRole, []string{"00000000-0000-0000-0000-000000000000"})
	assert.True(t, IsDatabaseError(err))
}

// TestDBStoreInverseRelation tests roles given to a permission
func TestDBStoreInverseRelation(t *testing.T) {
	f := newDBFixture(t)
	perm := f.permission(t)
	role := f.role(t)
	user := f.principal(t)
	require.NoError(t, f.store.Attach(f.ctx, user, KindRole, []string{role.Key()}))

	require.NoError(t, f.store.Attach(f.ctx, perm, KindRole, []string{role.Key()}))

	fromRole, err := f.store.Current(f.ctx, role, KindPermission)
	require.NoError(t, err)
	assert.Equal(t, []string{perm.Name}, itemNames(fromRole))

	fromPerm, err := f.store.Current(f.ctx, perm, KindRole)
	require.NoError(t, err)
	assert.Equal(t, []string{role.Name}, itemNames(fromPerm))

	holders, err := f.store.Principals(f.ctx, role)
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, user.Key(), holders[0].Key())
}

// TestDBStoreInTransaction tests commit and rollback
func TestDBStoreInTransaction(t *testing.T) {
	f := newDBFixture(t)
	role := f.role(t)
	user := f.principal(t)
	boom := errors.New("boom")

	err := f.store.InTransaction(f.ctx, func(ctx context.Context, tx Store) error {
		if err := tx.Attach(ctx, user, KindRole, []string{role.Key()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, f.store.HasRole(f.ctx, user, role), "rolled back")

	err = f.store.InTransaction(f.ctx, func(ctx context.Context, tx Store) error {
		return tx.(Transactor).InTransaction(ctx, func(ctx context.Context, inner Store) error {
			return inner.Attach(ctx, user, KindRole, []string{role.Key()})
		})
	})
	require.NoError(t, err)
	assert.True(t, f.store.HasRole(f.ctx, user, role), "savepoint committed")
}

// TestDBStoreTransactionWithOptions tests transactions with explicit options
func TestDBStoreTransactionWithOptions(t *testing.T) {
	f := newDBFixture(t)
	role := f.role(t)
	user := f.principal(t)

	err := f.store.TransactionWithOptions(f.ctx, dbkit.SerializableTxOptions(), func(ctx context.Context, tx Store) error {
		return tx.Attach(ctx, user, KindRole, []string{role.Key()})
	})
	require.NoError(t, err)
	assert.True(t, f.store.HasRole(f.ctx, user, role))

	err = f.store.TransactionWithOptions(f.ctx, dbkit.ReadOnlyTxOptions(), func(ctx context.Context, tx Store) error {
		return tx.DetachAll(ctx, user, KindRole)
	})
	assert.True(t, IsDatabaseError(err), "writes are rejected in a read-only transaction")
	assert.True(t, f.store.HasRole(f.ctx, user, role))
}

// TestDBStorePrincipalResolver tests that resolved principals keep their gates
func TestDBStorePrincipalResolver(t *testing.T) {
	f := newDBFixture(t)
	editor := f.role(t)
	publish := f.permission(t)
	muted, listening := f.principal(t), f.principal(t)
	require.NoError(t, f.store.Attach(f.ctx, muted, KindRole, []string{editor.Key()}))
	require.NoError(t, f.store.Attach(f.ctx, listening, KindRole, []string{editor.Key()}))
	muted.DisableEvents(KindPermission)

	live := map[string]*Principal{muted.Key(): muted}
	store := NewDBStore(f.store.DB(), WithPrincipalResolver(func(_ context.Context, _, id string) Holder {
		if p, ok := live[id]; ok {
			return p
		}
		return nil
	}))

	holders, err := store.Principals(f.ctx, editor)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Same(t, muted, holders[0])
	assert.Equal(t, listening.Key(), holders[1].Key())

	require.NoError(t, store.InTransaction(f.ctx, func(ctx context.Context, tx Store) error {
		inTx, err := tx.Principals(ctx, editor)
		require.NoError(t, err)
		assert.Same(t, muted, inTx[0], "resolver kept inside transactions")
		return nil
	}))

	sink := &recordingSink{}
	service := NewService(store, sink)
	require.NoError(t, service.GivePermissions(f.ctx, editor, publish))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, editor.Key(), events[0].Target.Key())
	assert.Equal(t, listening.Key(), events[1].Target.Key())
	assert.True(t, events[1].Propagated)
}

// TestDBStoreHealth tests health helpers
func TestDBStoreHealth(t *testing.T) {
	f := newDBFixture(t)

	assert.NoError(t, f.store.Ping(f.ctx))
	assert.True(t, f.store.IsHealthy(f.ctx))
	assert.True(t, f.store.Health(f.ctx).Healthy)
	assert.NoError(t, f.store.ConfigurePool(DefaultPoolConfig()))
	assert.GreaterOrEqual(t, f.store.PoolStats().MaxOpenConnections, 1)
}

// TestServiceWithDBStore tests the full flow against Postgres
func TestServiceWithDBStore(t *testing.T) {
	f := newDBFixture(t)
	sink := &recordingSink{}
	service := NewService(f.store, sink)

	editor := f.role(t)
	publish := f.permission(t)
	u1 := f.principal(t)
	require.NoError(t, service.AssignRoles(f.ctx, u1, editor))

	require.NoError(t, service.GivePermissions(f.ctx, editor, publish))

	names := sink.Names()
	assert.Equal(t, []string{"RoleAssigned", "PermissionAssigned", "PermissionAssigned"}, names)
	derived := sink.Events()[2]
	assert.True(t, derived.Propagated)
	assert.Equal(t, u1.Key(), derived.Target.Key())

	sink.Reset()
	require.NoError(t, service.SyncRoles(f.ctx, u1))
	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "RoleSynched", events[0].Name())
	assert.Equal(t, []string{editor.Name}, itemNames(events[0].Removed))
	assert.Empty(t, events[0].Current)
}

// TestServiceDeferredWithDBStore tests assignment on an unsaved principal
func TestServiceDeferredWithDBStore(t *testing.T) {
	f := newDBFixture(t)
	sink := &recordingSink{}
	service := NewService(f.store, sink)
	editor := f.role(t)

	user := NewPrincipal("user", "")
	require.NoError(t, service.AssignRoles(f.ctx, user, editor))
	assert.Empty(t, sink.Events())

	require.NoError(t, f.store.SavePrincipal(f.ctx, user))
	assert.Equal(t, []string{"RoleAssigned"}, sink.Names())
	assert.True(t, f.store.HasRole(f.ctx, user, editor))
}
