package rolewatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type routeKey struct {
	kind   Kind
	target HolderType
}

// route says what happens to an event fired on a target: whether the target
// itself is notified, and which downstream holders receive derived events.
type route struct {
	direct    bool
	propagate func(s *Service, ctx context.Context, e *Event) error
}

// routes lists every (kind, target) pair a mutation may produce. Pairs that
// are missing, such as roles held by a role, are rejected before any write.
var routes = map[routeKey]route{
	{KindRole, HolderPrincipal}:       {direct: true},
	{KindPermission, HolderPrincipal}: {direct: true},
	{KindPermission, HolderRole}:      {direct: true, propagate: propagateToRoleHolders},
	{KindRole, HolderPermission}:      {direct: false, propagate: propagateToRoles},
}

func supports(h Holder, kind Kind) bool {
	_, ok := routes[routeKey{kind, h.HolderType()}]
	return ok
}

// fire emits e through the firing gate and the routing table.
//
// The target's own event is gated by the target; derived events are gated by
// each downstream holder only, so a disabled source does not silence holders
// that still listen. The global switch silences everything.
func (s *Service) fire(ctx context.Context, e *Event) {
	if e == nil {
		return
	}
	if !s.config.EventsEnabled {
		s.monitor.recordSuppressed()
		return
	}

	r, ok := routes[routeKey{e.Kind, e.Target.HolderType()}]
	if !ok {
		return
	}

	if r.direct {
		if s.IsEnabled(e.Target, e.Kind) {
			if err := s.dispatch(ctx, *e); err != nil {
				s.report(err, e)
			}
		} else {
			s.monitor.recordSuppressed()
		}
	}

	if r.propagate != nil {
		if err := r.propagate(s, ctx, e); err != nil {
			s.report(err, e)
		}
	}
}

// dispatch hands one event to the sink. A panicking sink is turned into an
// error so the remaining holders still get their events.
func (s *Service) dispatch(ctx context.Context, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s for %s %s: %v", ErrDispatch, e.Name(), e.Target.HolderType(), e.Target.Key(), r)
		}
	}()

	s.sink.Dispatch(ctx, e)
	s.monitor.recordDispatched(e.Propagated)
	return nil
}

func (s *Service) report(err error, e *Event) {
	s.monitor.recordFailure()
	s.logger.Error("rolewatch: event delivery failed",
		slog.String("event", e.Name()),
		slog.String("event_id", e.ID),
		slog.String("target_type", string(e.Target.HolderType())),
		slog.String("target_id", e.Target.Key()),
		slog.Any("error", err),
	)
}

// pass is one half of a propagation: a synced event is split into a revoke
// pass over Removed and an assign pass over Added.
type pass struct {
	action Action
	items  []Item
}

func passes(e *Event) []pass {
	if e.Action == ActionSynced {
		return []pass{
			{action: ActionRevoked, items: e.Removed},
			{action: ActionAssigned, items: e.Added},
		}
	}
	return []pass{{action: e.Action, items: e.Items}}
}

// propagateToRoleHolders re-emits a permission change on a role to every
// principal holding that role.
func propagateToRoleHolders(s *Service, ctx context.Context, e *Event) error {
	principals, err := s.store.Principals(ctx, e.Target)
	if err != nil {
		return NewError(ErrPropagation, "failed to load role holders").
			WithHolder(e.Target).
			WithCause(err)
	}

	var errs []error
	for _, p := range passes(e) {
		for _, principal := range principals {
			errs = append(errs, s.propagate(ctx, e, principal, p.action, p.items))
		}
	}
	return errors.Join(errs...)
}

// propagateToRoles turns a role change on a permission into a permission
// change on each role involved, then on each principal holding one of those
// roles. A principal holding several of the roles is notified once per pass.
func propagateToRoles(s *Service, ctx context.Context, e *Event) error {
	perm, ok := e.Target.(Item)
	if !ok {
		return NewError(ErrPropagation, "permission target is not an item").WithHolder(e.Target)
	}

	var errs []error
	for _, p := range passes(e) {
		seen := make(map[holderKey]struct{})
		for _, role := range p.items {
			errs = append(errs, s.propagate(ctx, e, role, p.action, []Item{perm}))

			principals, err := s.store.Principals(ctx, role)
			if err != nil {
				errs = append(errs, NewError(ErrPropagation, "failed to load role holders").
					WithHolder(role).
					WithCause(err))
				continue
			}
			for _, principal := range principals {
				if _, dup := seen[keyOf(principal)]; dup {
					continue
				}
				seen[keyOf(principal)] = struct{}{}
				errs = append(errs, s.propagate(ctx, e, principal, p.action, []Item{perm}))
			}
		}
	}
	return errors.Join(errs...)
}

// propagate sends one derived permission event to holder. Derived events go
// straight to the sink and are never routed again.
func (s *Service) propagate(ctx context.Context, source *Event, holder Holder, action Action, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	if !s.IsEnabled(holder, KindPermission) {
		s.monitor.recordSuppressed()
		return nil
	}

	derived := Event{
		ID:         uuid.NewString(),
		Kind:       KindPermission,
		Action:     action,
		Target:     holder,
		Items:      items,
		Propagated: true,
		ActorID:    source.ActorID,
		RequestID:  source.RequestID,
		OccurredAt: source.OccurredAt,
	}
	if err := s.dispatch(ctx, derived); err != nil {
		return NewError(ErrPropagation, "failed to notify downstream holder").
			WithHolder(holder).
			WithCause(err)
	}
	return nil
}
