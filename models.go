package rolewatch

import (
	"time"

	"github.com/uptrace/bun"
)

// PrincipalRow is the stored form of a Principal.
type PrincipalRow struct {
	bun.BaseModel `bun:"table:principals,alias:p"`

	ID        string    `bun:"id,pk,type:uuid"`
	Type      string    `bun:"type,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RoleRow is the stored form of a Role.
type RoleRow struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID        string    `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Guard     string    `bun:"guard,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// PermissionRow is the stored form of a Permission.
type PermissionRow struct {
	bun.BaseModel `bun:"table:permissions,alias:pm"`

	ID        string    `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Guard     string    `bun:"guard,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RoleAssignment links a principal to a role it holds.
type RoleAssignment struct {
	bun.BaseModel `bun:"table:holder_roles,alias:hr"`

	HolderType string    `bun:"holder_type,pk"`
	HolderID   string    `bun:"holder_id,pk"`
	RoleID     string    `bun:"role_id,pk,type:uuid"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// PermissionAssignment links a principal or a role to a permission it holds.
type PermissionAssignment struct {
	bun.BaseModel `bun:"table:holder_permissions,alias:hp"`

	HolderType   string    `bun:"holder_type,pk"`
	HolderID     string    `bun:"holder_id,pk"`
	PermissionID string    `bun:"permission_id,pk,type:uuid"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// EventLogEntry records an emitted event for compliance and debugging.
type EventLogEntry struct {
	bun.BaseModel `bun:"table:assignment_events,alias:ae"`

	ID         string       `bun:"id,pk,type:uuid"`
	Name       string       `bun:"name,notnull"`
	Kind       string       `bun:"kind,notnull"`
	Action     string       `bun:"action,notnull"`
	TargetType string       `bun:"target_type,notnull"`
	TargetID   string       `bun:"target_id,notnull"`
	Items      []ItemRecord `bun:"items,type:jsonb"`
	Added      []ItemRecord `bun:"added,type:jsonb"`
	Removed    []ItemRecord `bun:"removed,type:jsonb"`
	Current    []ItemRecord `bun:"current,type:jsonb"`
	Propagated bool         `bun:"propagated,notnull"`
	ActorID    string       `bun:"actor_id"`
	RequestID  string       `bun:"request_id"`
	OccurredAt time.Time    `bun:"occurred_at,notnull,default:current_timestamp"`
}

// newEventLogEntry converts an EventRecord to its stored form.
func newEventLogEntry(rec EventRecord) *EventLogEntry {
	occurred := rec.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return &EventLogEntry{
		ID:         rec.ID,
		Name:       rec.Name,
		Kind:       rec.Kind,
		Action:     rec.Action,
		TargetType: rec.TargetType,
		TargetID:   rec.TargetID,
		Items:      rec.Items,
		Added:      rec.Added,
		Removed:    rec.Removed,
		Current:    rec.Current,
		Propagated: rec.Propagated,
		ActorID:    rec.ActorID,
		RequestID:  rec.RequestID,
		OccurredAt: occurred,
	}
}

// Record converts a stored entry back to an EventRecord.
func (e *EventLogEntry) Record() EventRecord {
	return EventRecord{
		ID:         e.ID,
		Name:       e.Name,
		Topic:      e.Kind + "." + e.Action,
		Kind:       e.Kind,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Items:      e.Items,
		Added:      e.Added,
		Removed:    e.Removed,
		Current:    e.Current,
		Propagated: e.Propagated,
		ActorID:    e.ActorID,
		RequestID:  e.RequestID,
		OccurredAt: e.OccurredAt,
	}
}

func roleFromRow(row RoleRow) *Role {
	return NewRole(row.ID, row.Name, row.Guard)
}

func permissionFromRow(row PermissionRow) *Permission {
	return NewPermission(row.ID, row.Name, row.Guard)
}

func principalFromRow(row PrincipalRow) *Principal {
	return NewPrincipal(row.Type, row.ID)
}
