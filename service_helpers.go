package rolewatch

import (
	"context"
)

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

// prepare validates a mutation before anything is written.
func (s *Service) prepare(h Holder, kind Kind, items []Item) ([]Item, error) {
	if h == nil {
		return nil, NewError(ErrInvalidHolder, "holder cannot be nil").WithKind(kind)
	}
	if !supports(h, kind) {
		return nil, NewError(ErrUnsupportedHolder, "holder cannot carry "+kind.String()+"s").
			WithHolder(h).
			WithKind(kind)
	}

	items = Unique(items)
	for _, it := range items {
		if it.HolderType() != kind.itemType() {
			return nil, NewError(ErrInvalidItem, "item is not a "+kind.String()).
				WithItem(it).
				WithKind(kind)
		}
		if !it.Exists() {
			return nil, NewError(ErrUnpersistedItem, "item must be saved before it is assigned").
				WithItem(it).
				WithHolder(h)
		}
		if err := s.validate.Struct(it); err != nil {
			return nil, NewError(ErrInvalidItem, "item failed validation").
				WithItem(it).
				WithCause(err)
		}
	}
	return items, nil
}

func (s *Service) assign(ctx context.Context, h Holder, kind Kind, items []Item) error {
	items, err := s.prepare(h, kind, items)
	if err != nil {
		return err
	}

	return s.scheduleOrFireNow(ctx, h, func(writeCtx context.Context) (*Event, error) {
		if err := s.store.Attach(writeCtx, h, kind, Keys(items)); err != nil {
			return nil, err
		}
		ev := s.newEvent(ctx, kind, ActionAssigned, h)
		ev.Items = items
		return ev, nil
	})
}

func (s *Service) revoke(ctx context.Context, h Holder, kind Kind, items []Item) error {
	items, err := s.prepare(h, kind, items)
	if err != nil {
		return err
	}

	return s.scheduleOrFireNow(ctx, h, func(writeCtx context.Context) (*Event, error) {
		if err := s.store.Detach(writeCtx, h, kind, Keys(items)); err != nil {
			return nil, err
		}
		ev := s.newEvent(ctx, kind, ActionRevoked, h)
		ev.Items = items
		return ev, nil
	})
}

func (s *Service) sync(ctx context.Context, h Holder, kind Kind, items []Item) error {
	items, err := s.prepare(h, kind, items)
	if err != nil {
		return err
	}

	return s.scheduleOrFireNow(ctx, h, func(writeCtx context.Context) (*Event, error) {
		var ev *Event
		err := s.withinTransaction(writeCtx, func(txCtx context.Context, store Store) error {
			var err error
			ev, err = s.replace(ctx, txCtx, store, h, kind, items)
			return err
		})
		if err != nil {
			return nil, err
		}
		return ev, nil
	})
}

// replace performs a sync as "detach all, then attach". Firing for kind is
// disabled on h while it runs and restored on every return path, so only the
// consolidated synced event built from the before/after diff is reported.
func (s *Service) replace(eventCtx, ctx context.Context, store Store, h Holder, kind Kind, items []Item) (*Event, error) {
	before, err := store.Current(ctx, h, kind)
	if err != nil {
		return nil, err
	}

	gate := h.Gate()
	wasDisabled := gate.set(kind, true)
	defer gate.set(kind, wasDisabled)

	if err := store.DetachAll(ctx, h, kind); err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := store.Attach(ctx, h, kind, Keys(items)); err != nil {
			return nil, err
		}
	}

	after, err := store.Current(ctx, h, kind)
	if err != nil {
		return nil, err
	}

	added, removed := Diff(before, after)
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil
	}

	ev := s.newEvent(eventCtx, kind, ActionSynced, h)
	ev.Added = added
	ev.Removed = removed
	ev.Current = after
	return ev, nil
}

// withinTransaction runs fn in a single transaction when the store supports it.
func (s *Service) withinTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if tx, ok := s.store.(Transactor); ok {
		return tx.InTransaction(ctx, fn)
	}
	return fn(ctx, s.store)
}
