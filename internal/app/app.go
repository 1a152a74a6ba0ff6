// Package app is the top-level coordinator: it owns which screen is active,
// gates everything on the login super-state, and routes ledger-changed
// events to a cache refresh so every read view observes its own mutations.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"kakeibo/internal/bus"
	"kakeibo/internal/calendar"
	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/log"
	"kakeibo/internal/services"
	"kakeibo/internal/session"
)

// Screen identifies a top-level view. The set is closed; transitions
// between screens are only valid while logged in.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenDaily
	ScreenSettings
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "home"
	case ScreenDaily:
		return "daily"
	case ScreenSettings:
		return "settings"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// App composes the session holder, ledger cache, mutation coordinator and
// calendar aggregator, with a defined lifecycle: Init at start reads
// durable storage, Close tears the event loop down, Logout clears
// everything dependent on the identity.
type App struct {
	holder  *session.Holder
	cache   *ledger.Cache
	mutator *services.Mutator
	cal     *calendar.Aggregator
	bus     *bus.Bus

	mu     sync.Mutex
	screen Screen

	cancelSub func()
	loopCtx   context.Context
	loopStop  context.CancelFunc
	loopDone  chan struct{}
}

func New(holder *session.Holder, cache *ledger.Cache, mutator *services.Mutator, cal *calendar.Aggregator, b *bus.Bus) *App {
	return &App{
		holder:  holder,
		cache:   cache,
		mutator: mutator,
		cal:     cal,
		bus:     b,
		screen:  ScreenHome,
	}
}

// Init restores a persisted session, primes the ledger cache when logged
// in, and starts routing refresh notifications. A failed initial refresh is
// reported but not fatal: the views degrade to an empty ledger until the
// next successful refresh.
func (a *App) Init(ctx context.Context) error {
	if err := a.holder.Restore(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	if identity, ok := a.holder.Current(); ok {
		if err := a.cache.Refresh(ctx, identity.SubjectID); err != nil {
			slog.WarnContext(ctx, "initial ledger refresh failed", log.FieldUserID, identity.SubjectID, log.FieldError, err)
		}
	}

	events, cancel := a.bus.Subscribe()
	a.cancelSub = cancel
	a.loopCtx, a.loopStop = context.WithCancel(context.Background())
	a.loopDone = make(chan struct{})
	go a.routeRefreshes(events)

	return nil
}

// routeRefreshes re-derives the cache whenever a mutation-producing view
// announces a change for the current user. Subscribers always end up seeing
// the latest successful refresh; stale fetches are discarded inside the
// cache itself.
func (a *App) routeRefreshes(events <-chan bus.LedgerChanged) {
	defer close(a.loopDone)
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			identity, loggedIn := a.holder.Current()
			if !loggedIn || identity.SubjectID != evt.UserID {
				continue
			}
			if err := a.cache.Refresh(a.loopCtx, evt.UserID); err != nil {
				slog.Warn("ledger refresh failed", log.FieldUserID, evt.UserID, log.FieldSeq, evt.Seq, log.FieldError, err)
			}
		case <-a.loopCtx.Done():
			return
		}
	}
}

// Close stops the refresh routing. It does not log the user out.
func (a *App) Close() {
	if a.cancelSub != nil {
		a.cancelSub()
	}
	if a.loopStop != nil {
		a.loopStop()
		<-a.loopDone
	}
}

// Login consumes an identity assertion from the external provider. On
// success the coordinator is forced to {logged-in, home} and the ledger is
// primed for the new user.
func (a *App) Login(ctx context.Context, idToken string) (core.Identity, error) {
	identity, err := a.holder.Login(ctx, idToken)
	if err != nil {
		return core.Identity{}, err
	}

	a.mu.Lock()
	a.screen = ScreenHome
	a.mu.Unlock()

	if err := a.cache.Refresh(ctx, identity.SubjectID); err != nil {
		slog.WarnContext(ctx, "ledger refresh after login failed", log.FieldUserID, identity.SubjectID, log.FieldError, err)
	}
	return identity, nil
}

// Logout forces the logged-out super-state: the durable session entries
// are removed and every dependent cache is discarded.
func (a *App) Logout(ctx context.Context) error {
	if err := a.holder.Clear(ctx); err != nil {
		return err
	}
	a.cache.Invalidate()

	a.mu.Lock()
	a.screen = ScreenHome
	a.mu.Unlock()
	return nil
}

// Identity returns the logged-in identity, reporting absence when logged
// out.
func (a *App) Identity() (core.Identity, bool) {
	return a.holder.Current()
}

// Screen returns the active screen.
func (a *App) Screen() Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

// SetScreen selects a screen. Valid only while logged in.
func (a *App) SetScreen(s Screen) error {
	if _, ok := a.holder.Current(); !ok {
		return core.ErrNotLoggedIn
	}
	if s != ScreenHome && s != ScreenDaily && s != ScreenSettings {
		return fmt.Errorf("unknown screen %v", s)
	}
	a.mu.Lock()
	a.screen = s
	a.mu.Unlock()
	return nil
}

// SaveSettings replaces the profile wholesale and merges the new display
// name into the cached identity, so the navigation surface shows the new
// name without a re-login.
func (a *App) SaveSettings(ctx context.Context, profile core.Profile) error {
	identity, ok := a.holder.Current()
	if !ok {
		return core.ErrNotLoggedIn
	}
	if err := a.mutator.SaveProfile(ctx, identity.SubjectID, profile); err != nil {
		return err
	}
	if profile.Name != "" && profile.Name != identity.DisplayName {
		if err := a.holder.SetDisplayName(ctx, profile.Name); err != nil {
			return err
		}
	}
	return nil
}

// Ledger exposes the shared cache for read views.
func (a *App) Ledger() *ledger.Cache { return a.cache }

// Mutator exposes the mutation coordinator.
func (a *App) Mutator() *services.Mutator { return a.mutator }

// Calendar exposes the calendar aggregator for the daily screen.
func (a *App) Calendar() *calendar.Aggregator { return a.cal }
