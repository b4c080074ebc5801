package rolewatch

import (
	"context"
)

// ============================================================================
// ROLE ASSIGNMENT OPERATIONS
// ============================================================================

// AssignRoles gives roles to a principal and fires RoleAssigned.
//
// If the principal has not been saved yet the assignment is written, and the
// event fired, after its first save.
//
// Example:
//
//	err := service.AssignRoles(ctx, user, editor, reviewer)
func (s *Service) AssignRoles(ctx context.Context, h Holder, roles ...*Role) error {
	items, err := rolesToItems(roles)
	if err != nil {
		return err
	}
	return s.assign(ctx, h, KindRole, items)
}

// RevokeRoles removes roles from a principal and fires RoleRevoked.
//
// Example:
//
//	err := service.RevokeRoles(ctx, user, editor)
func (s *Service) RevokeRoles(ctx context.Context, h Holder, roles ...*Role) error {
	items, err := rolesToItems(roles)
	if err != nil {
		return err
	}
	return s.revoke(ctx, h, KindRole, items)
}

// SyncRoles replaces every role of a principal with the given ones and fires
// a single RoleSynched carrying what was removed, what was added and the
// resulting set. Nothing fires when the set did not change.
//
// Example:
//
//	err := service.SyncRoles(ctx, user, viewer, editor)
func (s *Service) SyncRoles(ctx context.Context, h Holder, roles ...*Role) error {
	items, err := rolesToItems(roles)
	if err != nil {
		return err
	}
	return s.sync(ctx, h, KindRole, items)
}

// AssignRolesToPermission gives a permission to each role. The router turns
// the change into one PermissionAssigned per role.
//
// Example:
//
//	err := service.AssignRolesToPermission(ctx, publishArticles, editor, admin)
func (s *Service) AssignRolesToPermission(ctx context.Context, perm *Permission, roles ...*Role) error {
	items, err := rolesToItems(roles)
	if err != nil {
		return err
	}
	return s.assign(ctx, permissionHolder(perm), KindRole, items)
}

// RevokeRolesFromPermission takes a permission away from each role.
func (s *Service) RevokeRolesFromPermission(ctx context.Context, perm *Permission, roles ...*Role) error {
	items, err := rolesToItems(roles)
	if err != nil {
		return err
	}
	return s.revoke(ctx, permissionHolder(perm), KindRole, items)
}

// SyncPermissionRoles makes roles the exact set of roles holding perm.
func (s *Service) SyncPermissionRoles(ctx context.Context, perm *Permission, roles ...*Role) error {
	items, err := rolesToItems(roles)
	if err != nil {
		return err
	}
	return s.sync(ctx, permissionHolder(perm), KindRole, items)
}

// CurrentRoles returns the roles h holds right now.
func (s *Service) CurrentRoles(ctx context.Context, h Holder) ([]Item, error) {
	return s.store.Current(ctx, h, KindRole)
}

// permissionHolder keeps a nil *Permission from turning into a non-nil Holder.
func permissionHolder(perm *Permission) Holder {
	if perm == nil {
		return nil
	}
	return perm
}
