package rolewatch

import "time"

// Action is the mutation that produced an Event.
type Action string

const (
	ActionAssigned Action = "assigned"
	ActionRevoked  Action = "revoked"
	ActionSynced   Action = "synced"
)

// Event describes the outcome of one assignment mutation on a holder.
//
// Assigned and revoked events carry the affected items in Items. Synced
// events carry Added, Removed and the resulting Current set instead.
// Propagated is set on events derived by the router for a holder other than
// the one that was mutated.
type Event struct {
	ID         string
	Kind       Kind
	Action     Action
	Target     Holder
	Items      []Item
	Added      []Item
	Removed    []Item
	Current    []Item
	Propagated bool
	ActorID    string
	RequestID  string
	OccurredAt time.Time
}

// Name returns the event type name, e.g. "RoleAssigned" or "PermissionSynched".
func (e Event) Name() string {
	subject := "Role"
	if e.Kind == KindPermission {
		subject = "Permission"
	}
	switch e.Action {
	case ActionAssigned:
		return subject + "Assigned"
	case ActionRevoked:
		return subject + "Revoked"
	case ActionSynced:
		return subject + "Synched"
	}
	return subject + "Changed"
}

// Topic returns the dotted subscription topic, e.g. "role.assigned".
func (e Event) Topic() string {
	return e.Kind.String() + "." + string(e.Action)
}

// ItemRecord is the serialisable form of a role or permission.
type ItemRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Guard string `json:"guard"`
}

// EventRecord is the serialisable form of an Event, used by every sink that
// leaves the process.
type EventRecord struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Topic      string       `json:"topic"`
	Kind       string       `json:"kind"`
	Action     string       `json:"action"`
	TargetType string       `json:"target_type"`
	TargetID   string       `json:"target_id"`
	Items      []ItemRecord `json:"items,omitempty"`
	Added      []ItemRecord `json:"added,omitempty"`
	Removed    []ItemRecord `json:"removed,omitempty"`
	Current    []ItemRecord `json:"current,omitempty"`
	Propagated bool         `json:"propagated"`
	ActorID    string       `json:"actor_id,omitempty"`
	RequestID  string       `json:"request_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Record converts the event to its serialisable form.
func (e Event) Record() EventRecord {
	rec := EventRecord{
		ID:         e.ID,
		Name:       e.Name(),
		Topic:      e.Topic(),
		Kind:       e.Kind.String(),
		Action:     string(e.Action),
		Items:      itemRecords(e.Items),
		Added:      itemRecords(e.Added),
		Removed:    itemRecords(e.Removed),
		Current:    itemRecords(e.Current),
		Propagated: e.Propagated,
		ActorID:    e.ActorID,
		RequestID:  e.RequestID,
		OccurredAt: e.OccurredAt,
	}
	if e.Target != nil {
		rec.TargetType = string(e.Target.HolderType())
		rec.TargetID = e.Target.Key()
	}
	return rec
}

func itemRecords(items []Item) []ItemRecord {
	if len(items) == 0 {
		return nil
	}
	out := make([]ItemRecord, 0, len(items))
	for _, it := range items {
		out = append(out, ItemRecord{ID: it.Key(), Name: it.ItemName(), Guard: it.GuardName()})
	}
	return out
}
