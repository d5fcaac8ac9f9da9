// Package session binds authentication state to the sync lifecycle. A
// sign-in produces one reconciliation pull, a view-state reload, and a
// running engine for that identity; a sign-out stops and discards the
// engine. Authentication itself is someone else's problem — this package
// only consumes identity transitions.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/coinkeep/coinkeep/internal/dal"
	"github.com/coinkeep/coinkeep/internal/logger"
	"github.com/coinkeep/coinkeep/internal/model"
	engine "github.com/coinkeep/coinkeep/internal/sync"
	"github.com/rs/zerolog"
)

// Session is the authenticated identity as the auth provider reports it.
type Session struct {
	UserID string
	Email  string
}

// AuthSource is the authentication provider contract: the session as of
// now, and a stream of transitions. A nil session means signed out.
type AuthSource interface {
	Current() *Session
	Changes() <-chan *Session
}

// Loader is an in-memory view store that can re-read itself from the
// local database. All loaders are reloaded after a pull, because sync
// writes land through SQL and bypass any cached view state.
type Loader interface {
	Load(ctx context.Context) error
}

// EngineFactory builds a sync engine bound to one user identity.
type EngineFactory func(userID string) *engine.Engine

// Binder reacts to identity transitions.
type Binder struct {
	dal       *dal.DAL
	newEngine EngineFactory
	loaders   []Loader
	log       zerolog.Logger

	mu  sync.Mutex
	eng *engine.Engine
}

// NewBinder creates a Binder. Loaders are reloaded in the given order on
// every sign-in.
func NewBinder(d *dal.DAL, factory EngineFactory, loaders ...Loader) *Binder {
	return &Binder{
		dal:       d,
		newEngine: factory,
		loaders:   loaders,
		log:       logger.Log.With().Str("component", "session").Logger(),
	}
}

// Engine returns the running engine, or nil while signed out.
func (b *Binder) Engine() *engine.Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eng
}

// HandleSessionChange processes one identity transition. A non-nil session
// is a sign-in; nil is a sign-out.
func (b *Binder) HandleSessionChange(ctx context.Context, s *Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s == nil {
		b.signOut()
		return nil
	}
	return b.signIn(ctx, s)
}

// Run binds to the auth source: it applies the current session, then
// follows every transition until the context is canceled or the source's
// channel closes. The engine is stopped on the way out.
func (b *Binder) Run(ctx context.Context, src AuthSource) {
	if err := b.HandleSessionChange(ctx, src.Current()); err != nil {
		b.log.Error().Err(err).Msg("failed to bind initial session")
	}

	changes := src.Changes()
	for {
		select {
		case <-ctx.Done():
			b.HandleSessionChange(ctx, nil)
			return
		case s, ok := <-changes:
			if !ok {
				b.HandleSessionChange(ctx, nil)
				return
			}
			if err := b.HandleSessionChange(ctx, s); err != nil {
				b.log.Error().Err(err).Msg("failed to apply session change")
			}
		}
	}
}

// signIn wires a new engine to the identity: record the account email,
// pull once, handle the empty-cloud fresh-account case, reload view state,
// then start background syncing. Caller holds b.mu.
func (b *Binder) signIn(ctx context.Context, s *Session) error {
	if b.eng != nil {
		if b.eng.UserID() == s.UserID {
			return nil // session refresh for the same identity
		}
		// Identity switched without an intervening sign-out.
		b.eng.Stop()
		b.eng = nil
	}

	if s.Email != "" {
		if err := b.dal.UpdatePreference(ctx, "email", s.Email); err != nil {
			return fmt.Errorf("failed to record account email: %w", err)
		}
	}

	prefs, err := b.dal.UserPreferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}
	// A device that just completed onboarding holds only draft data; when
	// the account already has cloud data, the cloud copy wins wholesale.
	pendingAuth := prefs != nil && prefs.HasOnboarded == model.OnboardingPendingAuth

	eng := b.newEngine(s.UserID)

	gotData := eng.PullFromCloud(ctx, pendingAuth)
	if !gotData && pendingAuth {
		// Empty cloud account: drop rows synced under any prior identity
		// and queue the onboarding draft for upload.
		if err := eng.ResetLocalForFreshAccount(ctx); err != nil {
			return fmt.Errorf("failed to reset for fresh account: %w", err)
		}
	}

	if pendingAuth {
		if err := b.dal.UpdatePreference(ctx, "has_onboarded", model.OnboardingComplete); err != nil {
			return fmt.Errorf("failed to complete onboarding: %w", err)
		}
	}

	// Reload unconditionally: onboarding and pull both wrote through SQL,
	// underneath any view-layer cache.
	for _, l := range b.loaders {
		if err := l.Load(ctx); err != nil {
			b.log.Warn().Err(err).Msg("view reload failed")
		}
	}

	eng.Start(ctx)
	b.eng = eng
	b.log.Info().Str("user", s.UserID).Msg("session bound to sync engine")
	return nil
}

// signOut stops and discards the engine. Caller holds b.mu.
func (b *Binder) signOut() {
	if b.eng == nil {
		return
	}
	b.eng.Stop()
	b.eng = nil
	b.log.Info().Msg("session unbound")
}
