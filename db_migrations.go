package rolewatch

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required by DBStore and EventLog.
// Use db.Migrate(ctx, rolewatch.Migrations()) to run them.
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "rolewatch-001",
			Description: "Create holder tables",
			SQL: `
                CREATE TABLE IF NOT EXISTS principals (
                    id UUID PRIMARY KEY,
                    type TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY,
                    name VARCHAR(255) NOT NULL,
                    guard VARCHAR(64) NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (name, guard)
                );
                CREATE TABLE IF NOT EXISTS permissions (
                    id UUID PRIMARY KEY,
                    name VARCHAR(255) NOT NULL,
                    guard VARCHAR(64) NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (name, guard)
                )`,
		},
		{
			ID:          "rolewatch-002",
			Description: "Create assignment tables",
			SQL: `
                CREATE TABLE IF NOT EXISTS holder_roles (
                    holder_type TEXT NOT NULL,
                    holder_id TEXT NOT NULL,
                    role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
                    PRIMARY KEY (holder_type, holder_id, role_id)
                );
                CREATE TABLE IF NOT EXISTS holder_permissions (
                    holder_type TEXT NOT NULL,
                    holder_id TEXT NOT NULL,
                    permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
                    PRIMARY KEY (holder_type, holder_id, permission_id)
                )`,
		},
		{
			ID:          "rolewatch-003",
			Description: "Create assignment_events table",
			SQL: `
                CREATE TABLE IF NOT EXISTS assignment_events (
                    id UUID PRIMARY KEY,
                    name TEXT NOT NULL,
                    kind TEXT NOT NULL,
                    action TEXT NOT NULL,
                    target_type TEXT NOT NULL,
                    target_id TEXT NOT NULL,
                    items JSONB,
                    added JSONB,
                    removed JSONB,
                    current JSONB,
                    propagated BOOLEAN NOT NULL DEFAULT false,
                    actor_id TEXT,
                    request_id TEXT,
                    occurred_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "rolewatch-004",
			Description: "Create performance indexes",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_holder_roles_role ON holder_roles(role_id);
                CREATE INDEX IF NOT EXISTS idx_holder_permissions_permission ON holder_permissions(permission_id);
                CREATE INDEX IF NOT EXISTS idx_assignment_events_target ON assignment_events(target_type, target_id);
                CREATE INDEX IF NOT EXISTS idx_assignment_events_occurred ON assignment_events(occurred_at DESC)`,
		},
	}
}

// Migrate applies Migrations when the store owns a dbkit.DBKit connection.
// It returns the ids of newly applied migrations.
func (s *DBStore) Migrate(ctx context.Context) ([]string, error) {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return nil, NewError(ErrNoTransaction, "migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, Migrations())
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to run migrations").WithCause(err)
	}

	applied := make([]string, 0, len(result.Applied))
	for _, m := range result.Applied {
		applied = append(applied, m.ID)
	}
	return applied, nil
}
