// Package ledger holds the authoritative in-memory record set for the
// current user. Every read view renders a projection computed from this
// cache, so all views stay consistent after any refresh.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"kakeibo/internal/core"
	"kakeibo/internal/log"
)

// Fetcher retrieves the complete record set for a user from the remote
// store.
type Fetcher interface {
	FetchRecords(ctx context.Context, userID string) ([]core.Record, error)
}

// Cache is the single shared mutable resource of the client: one writer
// (Refresh) and arbitrarily many readers. A refresh replaces the whole
// collection; there is no incremental merge and nothing durable.
type Cache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu      sync.RWMutex
	userID  string
	records []core.Record

	// Staleness guard. Each dispatched refresh takes the next sequence
	// number; a response applies only if no later response already did.
	// Without this, rapid re-triggering (fast month toggling, user
	// switches) lets a late response overwrite newer data.
	dispatchSeq uint64
	appliedSeq  uint64
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Refresh fetches the full record set for userID and swaps it into the
// cache. On failure the previous cache is left untouched, degrading to
// "stale but present" rather than blanking every view.
//
// Concurrent refreshes for the same user share one fetch, but only a fetch
// that started at or after this refresh was requested may satisfy it: a
// fetch already in flight before the request began cannot have seen the
// change the request is reacting to, so joining it would hand back
// pre-mutation data with a nil error.
func (c *Cache) Refresh(ctx context.Context, userID string) error {
	c.mu.Lock()
	c.dispatchSeq++
	seq := c.dispatchSeq
	c.mu.Unlock()

	for {
		started, err := c.fetch(ctx, userID)
		if err != nil {
			return fmt.Errorf("refresh ledger: %w", err)
		}
		if started >= seq {
			return nil
		}
		// The shared fetch predates this request. Drop its in-flight
		// entry and fetch again.
		c.group.Forget(userID)
	}
}

// fetch runs one possibly-shared fetch and reports the dispatch sequence
// observed when the fetch began.
func (c *Cache) fetch(ctx context.Context, userID string) (uint64, error) {
	v, err, _ := c.group.Do(userID, func() (any, error) {
		c.mu.Lock()
		started := c.dispatchSeq
		c.mu.Unlock()

		records, err := c.fetcher.FetchRecords(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.apply(started, userID, records)
		return started, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

// apply installs a fetch result unless a later-dispatched refresh already
// completed; stale responses are simply discarded on arrival.
func (c *Cache) apply(seq uint64, userID string, records []core.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.appliedSeq {
		slog.Debug("discarding stale refresh", log.FieldSeq, seq, "applied", c.appliedSeq, log.FieldUserID, userID)
		return
	}
	c.appliedSeq = seq
	c.userID = userID
	c.records = records
}

// UserID returns the user the cached ledger belongs to.
func (c *Cache) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Records returns a copy of the full cached ledger.
func (c *Cache) Records() []core.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Recent returns the first n records in cache order, mirroring the
// recent-list view.
func (c *Cache) Recent(n int) []core.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n > len(c.records) {
		n = len(c.records)
	}
	out := make([]core.Record, n)
	copy(out, c.records[:n])
	return out
}

// ForDate returns the records falling on the given calendar day together
// with their total, rounded to two decimal places for display. Dates are
// compared as calendar days, never as instants.
func (c *Cache) ForDate(date core.Date) ([]core.Record, decimal.Decimal) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []core.Record
	total := decimal.Zero
	for _, r := range c.records {
		if r.Date.SameDay(date) {
			out = append(out, r)
			total = total.Add(r.Amount)
		}
	}
	return out, total.Round(2)
}

// Find returns the cached record with the given id.
func (c *Cache) Find(recordID string) (core.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.records {
		if r.ID == recordID {
			return r, true
		}
	}
	return core.Record{}, false
}

// DaysWithRecords reports, for a viewed month, which days have at least one
// record. The calendar grid uses this for presence flags.
func (c *Cache) DaysWithRecords(year int, month int) map[int]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	days := make(map[int]bool)
	for _, r := range c.records {
		if r.Date.Year() == year && int(r.Date.Month()) == month {
			days[r.Date.Day()] = true
		}
	}
	return days
}

// Invalidate discards the cached ledger. Called on logout. Refreshes
// dispatched before the invalidation count as stale, so a fetch still in
// flight cannot resurrect the previous user's records.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = ""
	c.records = nil
	c.appliedSeq = c.dispatchSeq
}
