package rolewatch

import "context"

// ============================================================================
// PERMISSION ASSIGNMENT OPERATIONS
// ============================================================================

// GivePermissions grants permissions to a principal or a role and fires
// PermissionAssigned. When h is a role, every principal holding it receives
// its own PermissionAssigned as well.
//
// Example:
//
//	err := service.GivePermissions(ctx, editor, publishArticles)
func (s *Service) GivePermissions(ctx context.Context, h Holder, perms ...*Permission) error {
	items, err := permissionsToItems(perms)
	if err != nil {
		return err
	}
	return s.assign(ctx, h, KindPermission, items)
}

// RevokePermissions removes permissions from a principal or a role and fires
// PermissionRevoked, propagated like GivePermissions.
func (s *Service) RevokePermissions(ctx context.Context, h Holder, perms ...*Permission) error {
	items, err := permissionsToItems(perms)
	if err != nil {
		return err
	}
	return s.revoke(ctx, h, KindPermission, items)
}

// SyncPermissions replaces every permission of h and fires one
// PermissionSynched. For a role, principals holding it get a PermissionRevoked
// for what was removed, then a PermissionAssigned for what was added.
//
// Example:
//
//	err := service.SyncPermissions(ctx, editor, readArticles, publishArticles)
func (s *Service) SyncPermissions(ctx context.Context, h Holder, perms ...*Permission) error {
	items, err := permissionsToItems(perms)
	if err != nil {
		return err
	}
	return s.sync(ctx, h, KindPermission, items)
}

// CurrentPermissions returns the permissions h holds directly.
func (s *Service) CurrentPermissions(ctx context.Context, h Holder) ([]Item, error) {
	return s.store.Current(ctx, h, KindPermission)
}
