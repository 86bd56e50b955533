package v1

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/growzapp/gateway/internal/core/domain"
	"github.com/growzapp/gateway/middleware"
	"github.com/growzapp/gateway/pkg/logger"
)

// SessionService is the single source of truth for "who is logged in".
// It owns the process-wide session record, persists it atomically through
// the injected StateStore, and exposes the lifecycle as an observable state
// machine. It MUST NOT talk to the network; authentication calls live in
// PlatformService, which feeds Establish.
type SessionService struct {
	store domain.StateStore

	mu     sync.RWMutex
	state  domain.SessionState
	record domain.SessionRecord
	subs   []chan domain.SessionState

	restoreOnce sync.Once
}

// NewSessionService creates a SessionService in the uninitialized state.
// Restore must run before any guard decision is made.
func NewSessionService(store domain.StateStore) *SessionService {
	return &SessionService{
		store: store,
		state: domain.SessionUninitialized,
	}
}

// State returns the current lifecycle state.
func (s *SessionService) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns a snapshot of the session record. The zero record is
// returned outside the authenticated state.
func (s *SessionService) Current() domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Token implements api.TokenSource: a fresh read on every call.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Token
}

// Subscribe returns a channel receiving every state transition. The channel
// is buffered; slow consumers drop transitions rather than block the
// session.
func (s *SessionService) Subscribe() <-chan domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan domain.SessionState, 8)
	s.subs = append(s.subs, ch)
	return ch
}

// Restore loads the persisted session record. It runs exactly once per
// process lifetime; later calls are no-ops. A corrupt record is treated as
// absent (anonymous), logged, and never propagated.
func (s *SessionService) Restore(ctx context.Context) error {
	var restoreErr error
	s.restoreOnce.Do(func() {
		ctx, span := middleware.StartSpan(ctx, "session.restore", trace.WithAttributes(
			attribute.String("layer", "logic"),
		))
		defer span.End()

		s.transition(domain.SessionRestoring, domain.SessionRecord{})

		rec, err := s.store.LoadSession(ctx)
		var corrupt *domain.CorruptStateError
		switch {
		case errors.As(err, &corrupt):
			logger.FromContext(ctx).Warn().Err(corrupt).Msg("Persisted session unreadable, starting anonymous")
			span.AddEvent("session.corrupt_record")
			// Best-effort cleanup so the next restore is clean.
			if clearErr := s.store.ClearSession(ctx); clearErr != nil {
				logger.FromContext(ctx).Warn().Err(clearErr).Msg("Failed to clear corrupt session record")
			}
			s.transition(domain.SessionAnonymous, domain.SessionRecord{})
		case err != nil:
			span.RecordError(err)
			s.transition(domain.SessionAnonymous, domain.SessionRecord{})
			restoreErr = fmt.Errorf("load persisted session: %w", err)
		case rec == nil:
			s.transition(domain.SessionAnonymous, domain.SessionRecord{})
		default:
			span.SetAttributes(attribute.String("user.id", rec.Profile.ID))
			s.transition(domain.SessionAuthenticated, *rec)
		}
	})
	return restoreErr
}

// Establish sets token and profile together, never one without the other,
// persisting them as one record before the in-memory state changes. On
// persistence failure the session is left untouched.
func (s *SessionService) Establish(ctx context.Context, token string, profile domain.Profile) error {
	ctx, span := middleware.StartSpan(ctx, "session.establish", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", profile.ID),
	))
	defer span.End()

	rec := domain.SessionRecord{Token: token, Profile: profile}
	if !rec.Valid() {
		return fmt.Errorf("establish session: token and profile are both required")
	}

	if err := s.store.SaveSession(ctx, rec); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persist session record: %w", err)
	}

	s.transition(domain.SessionAuthenticated, rec)
	span.AddEvent("session.established")
	return nil
}

// UpdateProfile replaces the profile, re-persisting the combined record with
// the token unchanged.
func (s *SessionService) UpdateProfile(ctx context.Context, profile domain.Profile) error {
	ctx, span := middleware.StartSpan(ctx, "session.update_profile", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", profile.ID),
	))
	defer span.End()

	s.mu.RLock()
	state, token := s.state, s.record.Token
	s.mu.RUnlock()

	if state != domain.SessionAuthenticated {
		return fmt.Errorf("update profile: %w", ErrNotAuthenticated)
	}

	rec := domain.SessionRecord{Token: token, Profile: profile}
	if err := s.store.SaveSession(ctx, rec); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persist session record: %w", err)
	}

	s.transition(domain.SessionAuthenticated, rec)
	return nil
}

// Logout clears the in-memory state and the persisted record. This and the
// forced drop are the only paths that actively discard credentials.
func (s *SessionService) Logout(ctx context.Context) error {
	ctx, span := middleware.StartSpan(ctx, "session.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	s.transition(domain.SessionAnonymous, domain.SessionRecord{})

	if err := s.store.ClearSession(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("clear persisted session: %w", err)
	}
	span.AddEvent("session.cleared")
	return nil
}

// DropSession implements api.SessionDropper: the forced logout applied when
// the backend answers 401 and the drop policy is enabled.
func (s *SessionService) DropSession(ctx context.Context) {
	logger.FromContext(ctx).Warn().Msg("Session dropped after authorization failure")
	if err := s.Logout(ctx); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Failed to clear session after forced drop")
	}
}

// transition applies the new state and record atomically and notifies
// subscribers. Notification never blocks.
func (s *SessionService) transition(state domain.SessionState, rec domain.SessionRecord) {
	s.mu.Lock()
	s.state = state
	s.record = rec
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- state:
		default:
		}
	}
}
