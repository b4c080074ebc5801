package rolewatch

import (
	"context"
)

// Store persists the many-to-many relation between holders and the roles or
// permissions they carry.
//
// A role held by a permission is the same relation as the permission held by
// the role; implementations store it once and answer from both sides.
type Store interface {
	Attach(ctx context.Context, h Holder, kind Kind, ids []string) error
	Detach(ctx context.Context, h Holder, kind Kind, ids []string) error
	DetachAll(ctx context.Context, h Holder, kind Kind) error
	Current(ctx context.Context, h Holder, kind Kind) ([]Item, error)

	// Principals returns the principals currently holding role.
	Principals(ctx context.Context, role Holder) ([]Holder, error)
}

// Transactor is implemented by stores able to run several writes atomically.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// Sink receives emitted events. Dispatch is fire-and-forget: sinks report
// their own failures and never hand them back to the mutation that fired.
type Sink interface {
	Dispatch(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

// Dispatch calls f(ctx, e).
func (f SinkFunc) Dispatch(ctx context.Context, e Event) {
	f(ctx, e)
}

// Listener handles events delivered by a Dispatcher.
type Listener func(ctx context.Context, e Event) error

// HealthChecker is implemented by stores and sinks backed by a remote service.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
