package rolewatch

import (
	"context"
	"log/slog"

	"github.com/fernandezvara/dbkit"
)

// EventLog is a Sink that stores every event it receives in the
// assignment_events table.
type EventLog struct {
	db     dbkit.IDB
	logger *slog.Logger
}

// NewEventLog creates an EventLog writing to db.
func NewEventLog(db dbkit.IDB, logger *slog.Logger) *EventLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLog{db: db, logger: logger}
}

// Dispatch implements Sink. Write failures are logged.
func (l *EventLog) Dispatch(ctx context.Context, e Event) {
	if err := l.Append(ctx, e); err != nil {
		l.logger.ErrorContext(ctx, "rolewatch: failed to store event",
			"event", e.Name(),
			"event_id", e.ID,
			"error", err,
		)
	}
}

// Append stores e.
func (l *EventLog) Append(ctx context.Context, e Event) error {
	entry := newEventLogEntry(e.Record())
	result, err := l.db.NewInsert().Model(entry).Exec(ctx)
	if err = dbkit.WithErr(result, err, "AppendEvent").Err(); err != nil {
		return NewError(ErrDatabaseError, "failed to store event").WithCause(err)
	}
	return nil
}

// Events retrieves stored events, newest first.
func (l *EventLog) Events(ctx context.Context, filter EventLogFilter) ([]EventRecord, error) {
	var entries []EventLogEntry
	q := l.db.NewSelect().Model(&entries)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetType != "" {
		q = q.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.RequestID != "" {
		q = q.Where("request_id = ?", filter.RequestID)
	}
	if filter.Propagated != nil {
		q = q.Where("propagated = ?", *filter.Propagated)
	}
	if !filter.Since.IsZero() {
		q = q.Where("occurred_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("occurred_at <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("occurred_at DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetEvents").Err()
	if err != nil {
		return nil, NewError(ErrDatabaseError, "failed to load events").WithCause(err)
	}

	records := make([]EventRecord, 0, len(entries))
	for i := range entries {
		records = append(records, entries[i].Record())
	}
	return records, nil
}
