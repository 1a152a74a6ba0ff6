// Package session owns the current authenticated identity. The identity is
// set once from a successful external login, cached for the process
// lifetime, and persisted to durable local storage so a restart restores
// the session without re-authenticating.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
	"kakeibo/internal/storage"
)

// Durable storage keys. Both are written on login and removed together on
// logout; both are read together at startup.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// Store is the durable key-value storage the holder persists to.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Holder caches the current identity and is the only writer of the durable
// session entries.
type Holder struct {
	mu       sync.RWMutex
	store    Store
	identity core.Identity
	token    string
	loggedIn bool
}

func NewHolder(store Store) *Holder {
	return &Holder{store: store}
}

// Restore loads a previously persisted session, if any. A missing session
// is not an error; the holder simply reports no identity afterwards.
func (h *Holder) Restore(ctx context.Context) error {
	userJSON, err := h.store.Get(ctx, KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	var identity core.Identity
	if err := json.Unmarshal([]byte(userJSON), &identity); err != nil {
		return fmt.Errorf("restore session: decode identity: %w", err)
	}

	token, err := h.store.Get(ctx, KeyToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("restore session: %w", err)
	}

	h.mu.Lock()
	h.identity = identity
	h.token = token
	h.loggedIn = true
	h.mu.Unlock()

	slog.InfoContext(ctx, "session restored", log.FieldUserID, identity.SubjectID)
	return nil
}

// Login decodes the identity assertion and persists the session.
func (h *Holder) Login(ctx context.Context, idToken string) (core.Identity, error) {
	identity, err := DecodeIDToken(idToken)
	if err != nil {
		return core.Identity{}, err
	}

	raw, err := json.Marshal(identity)
	if err != nil {
		return core.Identity{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := h.store.Put(ctx, KeyUser, string(raw)); err != nil {
		return core.Identity{}, fmt.Errorf("persist identity: %w", err)
	}
	if err := h.store.Put(ctx, KeyToken, idToken); err != nil {
		return core.Identity{}, fmt.Errorf("persist token: %w", err)
	}

	h.mu.Lock()
	h.identity = identity
	h.token = idToken
	h.loggedIn = true
	h.mu.Unlock()

	slog.InfoContext(ctx, "logged in", log.FieldUserID, identity.SubjectID, "email", identity.Email)
	return identity, nil
}

// Current returns the cached identity, reporting absence when logged out.
func (h *Holder) Current() (core.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.identity, h.loggedIn
}

// Token returns the opaque session token, or "" when logged out.
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// SetDisplayName merges a new display name into the cached identity after a
// settings save, keeping the rest of the identity intact, and re-persists it.
func (h *Holder) SetDisplayName(ctx context.Context, name string) error {
	h.mu.Lock()
	if !h.loggedIn {
		h.mu.Unlock()
		return core.ErrNotLoggedIn
	}
	h.identity.DisplayName = name
	identity := h.identity
	h.mu.Unlock()

	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := h.store.Put(ctx, KeyUser, string(raw)); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}

// Clear removes both durable entries and forgets the identity. Every
// dependent component must treat the user as logged out afterwards.
func (h *Holder) Clear(ctx context.Context) error {
	if err := h.store.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if err := h.store.Delete(ctx, KeyToken); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	h.mu.Lock()
	h.identity = core.Identity{}
	h.token = ""
	h.loggedIn = false
	h.mu.Unlock()

	slog.InfoContext(ctx, "logged out")
	return nil
}
