// Package bus carries ledger-change notifications between independent
// surfaces. Mutation-performing operations publish "the ledger may have
// changed for user X"; read views subscribe and re-derive their projections,
// without knowing about each other.
package bus

import (
	"sync"
	"time"
)

// LedgerChanged signals that the ledger for a user may have changed. Seq is
// a monotonically increasing refresh token: subscribers only ever need the
// latest one.
type LedgerChanged struct {
	UserID string    `json:"user_id"`
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"timestamp"`
}

// Bus is an in-process publish/subscribe channel for LedgerChanged events.
type Bus struct {
	mu     sync.Mutex
	seq    uint64
	nextID int
	subs   map[int]chan LedgerChanged
}

func New() *Bus {
	return &Bus{subs: make(map[int]chan LedgerChanged)}
}

// Subscribe registers a subscriber and returns its event channel plus a
// cancel function. The channel has capacity one: a refresh notification is
// a level trigger, so a slow subscriber observes only the latest event.
func (b *Bus) Subscribe() (<-chan LedgerChanged, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan LedgerChanged, 1)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish fans out a ledger-changed event to every subscriber without
// blocking. If a subscriber has not consumed the previous event yet, the
// stale one is replaced by the new one.
func (b *Bus) Publish(userID string) LedgerChanged {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	evt := LedgerChanged{UserID: userID, Seq: b.seq, At: time.Now()}

	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Drop the unconsumed event, then deliver the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}
	return evt
}
