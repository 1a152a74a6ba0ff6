package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"kakeibo/internal/bus"
	"kakeibo/internal/core"
)

// fakeRemote counts calls and can block a create until released.
type fakeRemote struct {
	mu          sync.Mutex
	parseCalls  int
	updateCalls int
	deleteCalls int
	saveCalls   int
	err         error

	parseGate    chan struct{}
	parseStarted chan struct{}
}

func (f *fakeRemote) ParseExpense(ctx context.Context, userID, text string) (core.Record, error) {
	f.mu.Lock()
	f.parseCalls++
	gate, started, err := f.parseGate, f.parseStarted, f.err
	f.parseStarted = nil // close only once across repeated calls
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return core.Record{}, err
	}
	return core.Record{ID: "r1", Item: text, Amount: decimal.NewFromInt(100), Currency: "TWD", Date: core.NewDate(2024, 3, 1)}, nil
}

func (f *fakeRemote) UpdateRecord(ctx context.Context, userID, recordID string, rec core.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	return f.err
}

func (f *fakeRemote) DeleteRecord(ctx context.Context, userID, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.err
}

func (f *fakeRemote) FetchProfile(ctx context.Context, userID string) (core.Profile, error) {
	return core.Profile{Name: "Alice", Currency: "TWD"}, f.err
}

func (f *fakeRemote) SaveProfile(ctx context.Context, userID string, p core.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	return f.err
}

func TestCreatePublishesRefresh(t *testing.T) {
	remote := &fakeRemote{}
	b := bus.New()
	events, cancel := b.Subscribe()
	defer cancel()

	m := NewMutator(remote, b)
	rec, err := m.Create(context.Background(), "u1", "  spent 100 on lunch  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID != "r1" {
		t.Fatalf("record = %+v", rec)
	}

	select {
	case evt := <-events:
		if evt.UserID != "u1" {
			t.Fatalf("event = %+v", evt)
		}
	default:
		t.Fatal("create must publish a ledger-changed event")
	}
}

func TestCreateRejectsEmptyText(t *testing.T) {
	m := NewMutator(&fakeRemote{}, bus.New())
	if _, err := m.Create(context.Background(), "u1", "   "); !errors.Is(err, core.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestCreateFailureDoesNotPublish(t *testing.T) {
	remote := &fakeRemote{err: core.ErrRemoteRejected}
	b := bus.New()
	events, cancel := b.Subscribe()
	defer cancel()

	m := NewMutator(remote, b)
	if _, err := m.Create(context.Background(), "u1", "text"); !errors.Is(err, core.ErrRemoteRejected) {
		t.Fatalf("expected remote rejection, got %v", err)
	}
	select {
	case evt := <-events:
		t.Fatalf("failed create must not publish, got %+v", evt)
	default:
	}
}

func TestCreateGuardsAgainstDoubleSubmission(t *testing.T) {
	remote := &fakeRemote{
		parseGate:    make(chan struct{}),
		parseStarted: make(chan struct{}),
	}
	m := NewMutator(remote, bus.New())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := m.Create(context.Background(), "u1", "first"); err != nil {
			t.Errorf("first create: %v", err)
		}
	}()

	<-remote.parseStarted

	// Second submission while the first is outstanding.
	if _, err := m.Create(context.Background(), "u1", "second"); !errors.Is(err, core.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(remote.parseGate)
	wg.Wait()

	remote.mu.Lock()
	calls := remote.parseCalls
	remote.mu.Unlock()
	if calls != 1 {
		t.Fatalf("parse calls = %d, want 1", calls)
	}

	// After completion the guard resets.
	if _, err := m.Create(context.Background(), "u1", "third"); err != nil {
		t.Fatalf("create after completion: %v", err)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	remote := &fakeRemote{}
	b := bus.New()
	events, cancel := b.Subscribe()
	defer cancel()

	m := NewMutator(remote, b)

	deleted, err := m.Delete(context.Background(), "u1", "r1", func() bool { return false })
	if err != nil {
		t.Fatalf("canceled delete: %v", err)
	}
	if deleted {
		t.Fatal("canceled delete must report false")
	}
	remote.mu.Lock()
	calls := remote.deleteCalls
	remote.mu.Unlock()
	if calls != 0 {
		t.Fatalf("canceled delete must not issue a call, got %d", calls)
	}
	select {
	case <-events:
		t.Fatal("canceled delete must not publish")
	default:
	}

	deleted, err = m.Delete(context.Background(), "u1", "r1", func() bool { return true })
	if err != nil || !deleted {
		t.Fatalf("confirmed delete = %v, %v", deleted, err)
	}
	select {
	case evt := <-events:
		if evt.UserID != "u1" {
			t.Fatalf("event = %+v", evt)
		}
	default:
		t.Fatal("confirmed delete must publish")
	}
}

func TestUpdateValidatesAndPublishes(t *testing.T) {
	remote := &fakeRemote{}
	b := bus.New()
	events, cancel := b.Subscribe()
	defer cancel()

	m := NewMutator(remote, b)
	ctx := context.Background()

	bad := core.Record{Item: "", Amount: decimal.NewFromInt(1), Date: core.NewDate(2024, 3, 1)}
	if err := m.Update(ctx, "u1", "r1", bad); !errors.Is(err, core.ErrEmptyItem) {
		t.Fatalf("expected validation error, got %v", err)
	}
	remote.mu.Lock()
	calls := remote.updateCalls
	remote.mu.Unlock()
	if calls != 0 {
		t.Fatal("invalid record must not reach the remote store")
	}

	good := core.Record{Item: "coffee", Amount: decimal.NewFromInt(1), Currency: "TWD", Date: core.NewDate(2024, 3, 1)}
	if err := m.Update(ctx, "u1", "r1", good); err != nil {
		t.Fatalf("update: %v", err)
	}
	select {
	case <-events:
	default:
		t.Fatal("update must publish a ledger-changed event")
	}
}

func TestSaveProfileDoesNotPublish(t *testing.T) {
	remote := &fakeRemote{}
	b := bus.New()
	events, cancel := b.Subscribe()
	defer cancel()

	m := NewMutator(remote, b)
	p := core.Profile{Name: "Alice", Categories: []string{"Food"}, Currency: "TWD"}
	if err := m.SaveProfile(context.Background(), "u1", p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	remote.mu.Lock()
	calls := remote.saveCalls
	remote.mu.Unlock()
	if calls != 1 {
		t.Fatalf("save calls = %d", calls)
	}
	select {
	case evt := <-events:
		t.Fatalf("profile save must not publish ledger events, got %+v", evt)
	default:
	}
}
