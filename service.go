package rolewatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service wraps an assignment Store and turns every assign, revoke and sync
// into typed events delivered to a Sink.
//
// Events fire exactly once per mutation. When the holder has not been saved
// yet, the relation write and the event are deferred until its first save.
// Permission changes on a role are propagated to every principal holding it,
// and role changes on a permission to every role involved and its principals.
//
// Example:
//
//	dispatcher := rolewatch.NewDispatcher(logger)
//	_ = dispatcher.Subscribe("role.*", onRoleChange)
//
//	service := rolewatch.NewService(rolewatch.NewDBStore(db), dispatcher,
//	    rolewatch.WithConfig(cfg),
//	    rolewatch.WithLogger(logger),
//	)
//
//	err := service.AssignRoles(ctx, user, editor)
type Service struct {
	store    Store
	sink     Sink
	config   Config
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	monitor  *dispatchMonitor
}

// Option configures the Service.
type Option func(*Service)

// WithConfig sets the runtime configuration. Defaults to DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the structured logger used to report dispatch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithValidator replaces the validator used for roles and permissions.
func WithValidator(v *validator.Validate) Option {
	return func(s *Service) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithClock overrides the time source stamped on events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(store Store, sink Sink, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sink:     sink,
		config:   DefaultConfig(),
		logger:   slog.Default(),
		validate: validator.New(),
		now:      time.Now,
		monitor:  newDispatchMonitor(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Config returns the runtime configuration.
func (s *Service) Config() Config {
	return s.config
}

// Store returns the underlying assignment store.
func (s *Service) Store() Store {
	return s.store
}

// IsEnabled reports whether events of kind fire for h: the global switch is
// on and h has not disabled the kind locally.
func (s *Service) IsEnabled(h Holder, kind Kind) bool {
	return s.config.EventsEnabled && !h.Gate().Disabled(kind)
}

// Ping checks every collaborator backed by a remote service.
func (s *Service) Ping(ctx context.Context) error {
	var errs []error
	if hc, ok := s.store.(HealthChecker); ok {
		errs = append(errs, hc.Ping(ctx))
	}
	if hc, ok := s.sink.(HealthChecker); ok {
		errs = append(errs, hc.Ping(ctx))
	}
	return errors.Join(errs...)
}

// DispatchMetrics returns counters about emitted, suppressed and failed events.
func (s *Service) DispatchMetrics() DispatchMetrics {
	return s.monitor.getMetrics()
}

// ResetDispatchMetrics resets all dispatch counters.
func (s *Service) ResetDispatchMetrics() {
	s.monitor.reset()
}

func (s *Service) newEvent(ctx context.Context, kind Kind, action Action, target Holder) *Event {
	audit := GetAuditContext(ctx)
	return &Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Action:     action,
		Target:     target,
		ActorID:    audit.ActorID,
		RequestID:  audit.RequestID,
		OccurredAt: s.now(),
	}
}
