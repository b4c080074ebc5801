package rolewatch

import (
	"context"
)

// mutation writes a relation change and builds the event describing it.
// A nil event means there is nothing to report.
type mutation func(ctx context.Context) (*Event, error)

type guardState uint8

const (
	guardIdle guardState = iota
	guardRunning
	guardDone
)

// onceGuard belongs to exactly one deferred registration.
type onceGuard struct {
	state guardState
}

// scheduleOrFireNow runs mutate and fires its event right away when h is
// persisted. Otherwise the pair is registered as a save hook of h and runs
// after the first successful save.
//
// Every call owns its guard, so two mutations on the same unsaved holder give
// two events. The guard turns repeated and nested saves into no-ops; a failed
// write leaves it idle so the next save retries, and no event is fired.
func (s *Service) scheduleOrFireNow(ctx context.Context, h Holder, mutate mutation) error {
	if h.Exists() {
		ev, err := mutate(ctx)
		if err != nil {
			return err
		}
		s.fire(ctx, ev)
		return nil
	}

	guard := &onceGuard{}
	h.Saved(func(ctx context.Context) (bool, error) {
		if guard.state != guardIdle {
			return guard.state == guardDone, nil
		}
		guard.state = guardRunning

		ev, err := mutate(ctx)
		if err != nil {
			guard.state = guardIdle
			return false, err
		}

		guard.state = guardDone
		s.fire(ctx, ev)
		return true, nil
	})
	s.monitor.recordDeferred()

	return nil
}
