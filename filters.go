package rolewatch

import "time"

// EventLogFilter provides options for filtering event log queries.
type EventLogFilter struct {
	// Filter by actor who caused the change
	ActorID string

	// Filter by the holder the event is about
	TargetType HolderType
	TargetID   string

	// Filter by kind ("role" or "permission")
	Kind string

	// Filter by action ("assigned", "revoked" or "synced")
	Action string

	// Filter by request
	RequestID string

	// Only direct (false) or only derived (true) events. Nil means both.
	Propagated *bool

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewEventLogFilter creates a new EventLogFilter with default values.
func NewEventLogFilter() EventLogFilter {
	return EventLogFilter{
		Limit: 100,
	}
}

// WithActor sets the actor ID filter.
func (f EventLogFilter) WithActor(actorID string) EventLogFilter {
	f.ActorID = actorID
	return f
}

// WithTarget sets the target holder filter.
func (f EventLogFilter) WithTarget(h Holder) EventLogFilter {
	f.TargetType = h.HolderType()
	f.TargetID = h.Key()
	return f
}

// WithKind sets the kind filter.
func (f EventLogFilter) WithKind(kind Kind) EventLogFilter {
	f.Kind = kind.String()
	return f
}

// WithAction sets the action filter.
func (f EventLogFilter) WithAction(action Action) EventLogFilter {
	f.Action = string(action)
	return f
}

// WithRequest sets the request ID filter.
func (f EventLogFilter) WithRequest(requestID string) EventLogFilter {
	f.RequestID = requestID
	return f
}

// WithPropagated restricts results to derived or to direct events.
func (f EventLogFilter) WithPropagated(propagated bool) EventLogFilter {
	f.Propagated = &propagated
	return f
}

// WithTimeRange sets the time range filter.
func (f EventLogFilter) WithTimeRange(since, until time.Time) EventLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f EventLogFilter) WithLimit(limit int) EventLogFilter {
	f.Limit = limit
	return f
}

// WithPagination sets both limit and offset.
func (f EventLogFilter) WithPagination(limit, offset int) EventLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
