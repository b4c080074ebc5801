package rolewatch

import (
	"context"
)

// Context keys for rolewatch values.
type contextKey string

const (
	contextKeyActorID   contextKey = "rolewatch:actor_id"
	contextKeyRequestID contextKey = "rolewatch:request_id"
)

// WithActorID adds the id of whoever performs the mutation to the context.
// It is stamped on every event fired for that mutation.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Returns empty string if not set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context (for correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AuditContext holds the correlation values copied onto events.
type AuditContext struct {
	ActorID   string
	RequestID string
}

// GetAuditContext extracts all correlation values from context.
func GetAuditContext(ctx context.Context) AuditContext {
	return AuditContext{
		ActorID:   GetActorID(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithAuditContext adds all correlation values to context at once.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.ActorID != "" {
		ctx = WithActorID(ctx, ac.ActorID)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
