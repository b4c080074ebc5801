// Package rolewatch adds change notifications to a role and permission
// assignment store.
//
// Every assign, revoke and sync of roles or permissions on a holder produces
// a typed event describing exactly what changed. Events are delivered to a
// Sink: an in-process Dispatcher with topic subscriptions, a Redis pub/sub
// channel, an asynq task queue, a Postgres event log, or any combination.
//
// # Core Concepts
//
// Holder: anything that can carry roles or permissions. Principals (users,
// API clients) carry both. Roles carry permissions. Permissions carry roles,
// which is the same relation seen from the other side.
//
// Item: a role or a permission, identified by name and guard.
//
// Gate: per-holder switches that silence role or permission events. The
// global switch lives in Config.EventsEnabled.
//
// # Events
//
//	RoleAssigned, RoleRevoked, RoleSynched
//	PermissionAssigned, PermissionRevoked, PermissionSynched
//
// Synched events carry the items added, the items removed and the resulting
// set, computed from the state before and after the sync. A sync that changes
// nothing emits nothing.
//
// # Propagation
//
// Permission changes on a role are re-emitted for every principal currently
// holding that role, with Propagated set. Role changes on a permission are
// re-emitted as permission changes for every role involved
// and for the principals holding those roles. A derived event
// is only suppressed by the gate of the holder it is about.
//
// # Unsaved Holders
//
// Assigning to a holder that has not been saved yet defers both the write and
// the event until the holder's first save:
//
//	user := rolewatch.NewPrincipal("user", "")
//	_ = service.AssignRoles(ctx, user, editor) // nothing written, nothing fired
//	_ = store.SavePrincipal(ctx, user)          // roles attached, RoleAssigned fired once
//
// # Basic Usage
//
//	db, _ := dbkit.New(dbkit.Config{URL: cfg.DatabaseURL})
//	store := rolewatch.NewDBStore(db)
//	_, _ = store.Migrate(ctx)
//
//	dispatcher := rolewatch.NewDispatcher(logger)
//	_ = dispatcher.Subscribe("permission.*", func(ctx context.Context, e rolewatch.Event) error {
//	    return cache.Invalidate(ctx, e.Target.Key())
//	})
//
//	service := rolewatch.NewService(store, rolewatch.MultiSink{
//	    dispatcher,
//	    rolewatch.NewEventLog(db, logger),
//	}, rolewatch.WithLogger(logger))
//
//	_ = service.GivePermissions(ctx, editor, publishArticles)
//
// # Topics
//
// Subscriptions use "<kind>.<action>" topics where either part may be "*":
//
//   - "*" matches every event
//   - "role.*" matches every role event
//   - "*.synced" matches both synced events
package rolewatch
