package rolewatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher is an in-process Sink delivering events to subscribed listeners.
//
// Listeners run synchronously, in subscription order. A listener returning an
// error or panicking is logged and does not stop delivery to the others.
type Dispatcher struct {
	mu            sync.RWMutex
	subscriptions []subscription
	matcher       *TopicMatcher
	logger        *slog.Logger
}

type subscription struct {
	pattern  string
	listener Listener
}

// NewDispatcher creates a new dispatcher. A nil logger uses slog.Default().
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		matcher: DefaultTopicMatcher,
		logger:  logger,
	}
}

// Subscribe registers a listener for every topic matching pattern.
//
// Example:
//
//	dispatcher.Subscribe("role.*", auditRoleChanges)
//	dispatcher.Subscribe("*.revoked", invalidateSessions)
func (d *Dispatcher) Subscribe(pattern string, listener Listener) error {
	if err := d.matcher.Validate(pattern); err != nil {
		return err
	}
	if listener == nil {
		return NewError(ErrInvalidPattern, "listener cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscriptions = append(d.subscriptions, subscription{pattern: pattern, listener: listener})
	return nil
}

// Patterns returns every subscribed pattern, in subscription order.
func (d *Dispatcher) Patterns() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	patterns := make([]string, 0, len(d.subscriptions))
	for _, sub := range d.subscriptions {
		patterns = append(patterns, sub.pattern)
	}
	return patterns
}

// Dispatch implements Sink.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	topic := e.Topic()
	for _, sub := range d.matching(topic) {
		if err := d.deliver(ctx, sub, e); err != nil {
			d.logger.Warn("rolewatch: listener failed",
				slog.String("pattern", sub.pattern),
				slog.String("event", e.Name()),
				slog.String("event_id", e.ID),
				slog.Any("error", err),
			)
		}
	}
}

func (d *Dispatcher) matching(topic string) []subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var subs []subscription
	for _, sub := range d.subscriptions {
		if d.matcher.Match(sub.pattern, topic) {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (d *Dispatcher) deliver(ctx context.Context, sub subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: listener panicked: %v", ErrDispatch, r)
		}
	}()
	return sub.listener(ctx, e)
}

// MultiSink fans every event out to several sinks, in order.
type MultiSink []Sink

// Dispatch implements Sink.
func (m MultiSink) Dispatch(ctx context.Context, e Event) {
	for _, sink := range m {
		sink.Dispatch(ctx, e)
	}
}
