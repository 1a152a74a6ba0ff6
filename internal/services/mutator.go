// Package services orchestrates mutations against the remote ledger store.
//
// Mutations never touch the in-memory cache directly: on success they
// publish a ledger-changed event and every read view re-derives from a
// fresh refresh. Failures surface to the invoking view as-is; nothing is
// retried (at-most-once) and there is no optimistic local state to roll
// back.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"kakeibo/internal/bus"
	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// RemoteStore is the slice of the remote client the mutator needs.
type RemoteStore interface {
	ParseExpense(ctx context.Context, userID, text string) (core.Record, error)
	UpdateRecord(ctx context.Context, userID, recordID string, rec core.Record) error
	DeleteRecord(ctx context.Context, userID, recordID string) error
	FetchProfile(ctx context.Context, userID string) (core.Profile, error)
	SaveProfile(ctx context.Context, userID string, p core.Profile) error
}

// Mutator executes create/update/delete requests and signals interested
// views afterwards.
type Mutator struct {
	remote   RemoteStore
	bus      *bus.Bus
	creating atomic.Bool
}

func NewMutator(remote RemoteStore, b *bus.Bus) *Mutator {
	return &Mutator{remote: remote, bus: b}
}

// Create submits free text for AI-assisted parsing and returns the record
// the server produced. While one create is outstanding further creates are
// rejected with ErrBusy, so a double submission cannot produce an
// accidental duplicate. A create that failed cleanly may legitimately be
// resubmitted by the user.
func (m *Mutator) Create(ctx context.Context, userID, freeText string) (core.Record, error) {
	text := strings.TrimSpace(freeText)
	if text == "" {
		return core.Record{}, core.ErrEmptyText
	}

	if !m.creating.CompareAndSwap(false, true) {
		return core.Record{}, core.ErrBusy
	}
	defer m.creating.Store(false)

	record, err := m.remote.ParseExpense(ctx, userID, text)
	if err != nil {
		return core.Record{}, err
	}

	evt := m.bus.Publish(userID)
	slog.InfoContext(ctx, "expense created", log.FieldUserID, userID, log.FieldRecordID, record.ID, log.FieldSeq, evt.Seq)
	return record, nil
}

// Update replaces the full record under recordID.
func (m *Mutator) Update(ctx context.Context, userID, recordID string, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := m.remote.UpdateRecord(ctx, userID, recordID, rec); err != nil {
		return err
	}

	evt := m.bus.Publish(userID)
	slog.InfoContext(ctx, "expense updated", log.FieldUserID, userID, log.FieldRecordID, recordID, log.FieldSeq, evt.Seq)
	return nil
}

// Delete removes a record after explicit confirmation. When confirm
// declines, no request is issued at all and Delete reports false with a
// nil error.
func (m *Mutator) Delete(ctx context.Context, userID, recordID string, confirm func() bool) (bool, error) {
	if confirm == nil || !confirm() {
		slog.InfoContext(ctx, "delete canceled", log.FieldUserID, userID, log.FieldRecordID, recordID)
		return false, nil
	}

	if err := m.remote.DeleteRecord(ctx, userID, recordID); err != nil {
		return false, err
	}

	evt := m.bus.Publish(userID)
	slog.InfoContext(ctx, "expense deleted", log.FieldUserID, userID, log.FieldRecordID, recordID, log.FieldSeq, evt.Seq)
	return true, nil
}

// Profile fetches the user's settings document.
func (m *Mutator) Profile(ctx context.Context, userID string) (core.Profile, error) {
	return m.remote.FetchProfile(ctx, userID)
}

// SaveProfile replaces the settings document wholesale. The ledger itself
// is unchanged, so no ledger-changed event is published.
func (m *Mutator) SaveProfile(ctx context.Context, userID string, p core.Profile) error {
	if err := m.remote.SaveProfile(ctx, userID, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	slog.InfoContext(ctx, "profile saved", log.FieldUserID, userID, log.FieldCount, len(p.Categories))
	return nil
}
