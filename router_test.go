package rolewatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roleWithHolders builds a role held by n principals and clears the sink.
func roleWithHolders(t *testing.T, f *fixture, n int) (*Role, []*Principal) {
	t.Helper()
	role := f.role(t, "editor")
	users := make([]*Principal, 0, n)
	for i := 0; i < n; i++ {
		u := f.principal(t)
		require.NoError(t, f.service.AssignRoles(f.ctx, u, role))
		users = append(users, u)
	}
	f.sink.Reset()
	f.service.ResetDispatchMetrics()
	return role, users
}

// TestRouterPropagatesRolePermissions tests that a permission given to a role
// reaches every principal holding it
func TestRouterPropagatesRolePermissions(t *testing.T) {
	f := newFixture(t)
	role, users := roleWithHolders(t, f, 2)
	publish := f.permission(t, "publish")

	require.NoError(t, f.service.GivePermissions(f.ctx, role, publish))

	events := f.sink.Events()
	require.Len(t, events, 3)

	assert.Equal(t, "PermissionAssigned", events[0].Name())
	assert.Same(t, role, events[0].Target)
	assert.False(t, events[0].Propagated)

	for i, u := range users {
		e := events[i+1]
		assert.Equal(t, "PermissionAssigned", e.Name())
		assert.Same(t, u, e.Target)
		assert.True(t, e.Propagated)
		assert.Equal(t, []string{"publish"}, itemNames(e.Items))
	}

	m := f.service.DispatchMetrics()
	assert.Equal(t, int64(3), m.DispatchedEvents)
	assert.Equal(t, int64(2), m.PropagatedEvents)
}

// TestRouterPropagatesWhenDownstreamEnabled pins the propagation polarity:
// a derived event reaches holders with events enabled and skips the others
func TestRouterPropagatesWhenDownstreamEnabled(t *testing.T) {
	f := newFixture(t)
	role, users := roleWithHolders(t, f, 2)
	publish := f.permission(t, "publish")

	users[1].DisableEvents(KindPermission)
	require.NoError(t, f.service.GivePermissions(f.ctx, role, publish))

	assert.Len(t, f.sink.For(role), 1)
	assert.Len(t, f.sink.For(users[0]), 1, "enabled holder is notified")
	assert.Empty(t, f.sink.For(users[1]), "disabled holder is skipped")
	assert.Equal(t, int64(1), f.service.DispatchMetrics().SuppressedEvents)
}

// TestRouterSourceGateDoesNotSilenceDownstream tests that disabling the role
// hides its own event but not the derived ones
func TestRouterSourceGateDoesNotSilenceDownstream(t *testing.T) {
	f := newFixture(t)
	role, users := roleWithHolders(t, f, 2)
	publish := f.permission(t, "publish")

	role.DisableEvents(KindPermission)
	require.NoError(t, f.service.SyncPermissions(f.ctx, role, publish))

	assert.Empty(t, f.sink.For(role))
	for _, u := range users {
		events := f.sink.For(u)
		require.Len(t, events, 1)
		assert.Equal(t, "PermissionAssigned", events[0].Name())
	}
	assert.True(t, role.Gate().Disabled(KindPermission), "sync restores the previous state")
}

// TestRouterSyncRemovingPermission tests that principals of a role lose the
// permissions removed from it by a sync
func TestRouterSyncRemovingPermission(t *testing.T) {
	f := newFixture(t)
	role, users := roleWithHolders(t, f, 1)
	user := users[0]
	publish := f.permission(t, "publish")
	require.NoError(t, f.service.GivePermissions(f.ctx, role, publish))
	f.sink.Reset()

	require.NoError(t, f.service.SyncPermissions(f.ctx, role))

	events := f.sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "PermissionSynched", events[0].Name())
	assert.Equal(t, []string{"publish"}, itemNames(events[0].Removed))
	assert.Empty(t, events[0].Current)

	assert.Equal(t, "PermissionRevoked", events[1].Name())
	assert.Same(t, user, events[1].Target)
	assert.Equal(t, []string{"publish"}, itemNames(events[1].Items))
	assert.True(t, events[1].Propagated)
}

// TestRouterSyncPasses tests that a synced event is split into a revoke pass
// followed by an assign pass
func TestRouterSyncPasses(t *testing.T) {
	f := newFixture(t)
	role, users := roleWithHolders(t, f, 2)
	read := f.permission(t, "read")
	publish := f.permission(t, "publish")
	archive := f.permission(t, "archive")
	require.NoError(t, f.service.GivePermissions(f.ctx, role, read, publish))
	f.sink.Reset()

	require.NoError(t, f.service.SyncPermissions(f.ctx, role, read, archive))

	assert.Equal(t, []string{
		"PermissionSynched",
		"PermissionRevoked", "PermissionRevoked",
		"PermissionAssigned", "PermissionAssigned",
	}, f.sink.Names())

	events := f.sink.Events()
	assert.Equal(t, []string{"archive"}, itemNames(events[0].Added))
	assert.Equal(t, []string{"publish"}, itemNames(events[0].Removed))
	assert.Equal(t, []string{"read", "archive"}, itemNames(events[0].Current))

	for _, u := range users {
		derived := f.sink.For(u)
		require.Len(t, derived, 2)
		assert.Equal(t, []string{"publish"}, itemNames(derived[0].Items))
		assert.Equal(t, []string{"archive"}, itemNames(derived[1].Items))
	}
}

// TestRouterRolesGivenToPermission tests the permission side of the relation
func TestRouterRolesGivenToPermission(t *testing.T) {
	f := newFixture(t)
	editor := f.role(t, "editor")
	admin := f.role(t, "admin")
	u1 := f.principal(t)
	u2 := f.principal(t)
	require.NoError(t, f.service.AssignRoles(f.ctx, u1, editor))
	require.NoError(t, f.service.AssignRoles(f.ctx, u2, editor, admin))
	publish := f.permission(t, "publish")
	f.sink.Reset()

	require.NoError(t, f.service.AssignRolesToPermission(f.ctx, publish, editor, admin))

	assert.Empty(t, f.sink.For(publish), "the permission itself is not notified")

	events := f.sink.Events()
	require.Len(t, events, 4)
	targets := []Holder{editor, u1, u2, admin}
	for i, e := range events {
		assert.Equal(t, "PermissionAssigned", e.Name())
		assert.Same(t, targets[i], e.Target)
		assert.Equal(t, []string{"publish"}, itemNames(e.Items))
		assert.True(t, e.Propagated)
	}

	perms, err := f.service.CurrentPermissions(f.ctx, editor)
	require.NoError(t, err)
	assert.Equal(t, []string{"publish"}, itemNames(perms))

	roles, err := f.service.CurrentRoles(f.ctx, publish)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "admin"}, itemNames(roles))
}

// TestRouterPermissionRoleSync tests a sync of the roles holding a permission
func TestRouterPermissionRoleSync(t *testing.T) {
	f := newFixture(t)
	editor := f.role(t, "editor")
	admin := f.role(t, "admin")
	publish := f.permission(t, "publish")
	require.NoError(t, f.service.AssignRolesToPermission(f.ctx, publish, editor))
	f.sink.Reset()

	require.NoError(t, f.service.SyncPermissionRoles(f.ctx, publish, admin))

	events := f.sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "PermissionRevoked", events[0].Name())
	assert.Same(t, editor, events[0].Target)
	assert.Equal(t, "PermissionAssigned", events[1].Name())
	assert.Same(t, admin, events[1].Target)

	require.NoError(t, f.service.RevokeRolesFromPermission(f.ctx, publish, admin))
	events = f.sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "PermissionRevoked", events[2].Name())
	assert.Same(t, admin, events[2].Target)

	roles, err := f.service.CurrentRoles(f.ctx, publish)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

// TestRouterGlobalSwitch tests that the global switch silences everything
func TestRouterGlobalSwitch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventsEnabled = false
	f := newFixture(t, WithConfig(cfg))
	role, _ := roleWithHolders(t, f, 2)
	publish := f.permission(t, "publish")

	require.NoError(t, f.service.GivePermissions(f.ctx, role, publish))

	assert.Empty(t, f.sink.Events())
	perms, err := f.service.CurrentPermissions(f.ctx, role)
	require.NoError(t, err)
	assert.Len(t, perms, 1, "the relation change still happens")
}

// TestRouterSinkPanic tests that a failing delivery is reported and does not
// stop the other holders or fail the mutation
func TestRouterSinkPanic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	role := NewRole("", "editor", "")
	require.NoError(t, store.SaveRole(ctx, role))
	publish := NewPermission("", "publish", "")
	require.NoError(t, store.SavePermission(ctx, publish))

	var users []*Principal
	for i := 0; i < 3; i++ {
		u := NewPrincipal("user", "")
		require.NoError(t, store.SavePrincipal(ctx, u))
		require.NoError(t, store.Attach(ctx, u, KindRole, []string{role.Key()}))
		users = append(users, u)
	}

	sink := &panicSink{panicFor: users[1]}
	service := NewService(store, sink, WithLogger(logger))

	require.NoError(t, service.GivePermissions(ctx, role, publish))

	assert.Len(t, sink.For(role), 1)
	assert.Len(t, sink.For(users[0]), 1)
	assert.Empty(t, sink.For(users[1]))
	assert.Len(t, sink.For(users[2]), 1)

	assert.Equal(t, int64(1), service.DispatchMetrics().FailedDeliveries)
	assert.Contains(t, logs.String(), "rolewatch: event delivery failed")
	assert.Contains(t, logs.String(), "listener exploded")

	perms, err := service.CurrentPermissions(ctx, role)
	require.NoError(t, err)
	assert.Len(t, perms, 1)
}

// TestRouterHolderLookupFailure tests that a failed principal lookup is
// reported without failing the mutation
func TestRouterHolderLookupFailure(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	store := &failingStore{Store: mem, err: errors.New("lookup failed"), failPrincipals: true}
	sink := &recordingSink{}
	var logs bytes.Buffer
	service := NewService(store, sink, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	role := NewRole("", "editor", "")
	require.NoError(t, mem.SaveRole(ctx, role))
	publish := NewPermission("", "publish", "")
	require.NoError(t, mem.SavePermission(ctx, publish))

	require.NoError(t, service.GivePermissions(ctx, role, publish))

	assert.Len(t, sink.Events(), 1)
	assert.Equal(t, int64(1), service.DispatchMetrics().FailedDeliveries)
	assert.Contains(t, logs.String(), "lookup failed")
}

// TestRouterCopiesAuditValues tests that derived events keep the source's
// correlation values
func TestRouterCopiesAuditValues(t *testing.T) {
	f := newFixture(t)
	role, users := roleWithHolders(t, f, 1)
	publish := f.permission(t, "publish")

	ctx := WithAuditContext(f.ctx, AuditContext{ActorID: "admin-1", RequestID: "req-9"})
	require.NoError(t, f.service.GivePermissions(ctx, role, publish))

	source := f.sink.For(role)[0]
	derived := f.sink.For(users[0])[0]
	assert.Equal(t, "admin-1", derived.ActorID)
	assert.Equal(t, "req-9", derived.RequestID)
	assert.Equal(t, source.OccurredAt, derived.OccurredAt)
	assert.NotEqual(t, source.ID, derived.ID)
}

// TestPasses tests how events are split for propagation
func TestPasses(t *testing.T) {
	a, b := NewPermission("1", "a", ""), NewPermission("2", "b", "")

	synced := &Event{Action: ActionSynced, Added: []Item{a}, Removed: []Item{b}}
	ps := passes(synced)
	require.Len(t, ps, 2)
	assert.Equal(t, ActionRevoked, ps[0].action)
	assert.Equal(t, []Item{b}, ps[0].items)
	assert.Equal(t, ActionAssigned, ps[1].action)
	assert.Equal(t, []Item{a}, ps[1].items)

	assigned := &Event{Action: ActionAssigned, Items: []Item{a, b}}
	ps = passes(assigned)
	require.Len(t, ps, 1)
	assert.Equal(t, ActionAssigned, ps[0].action)
}
