package simulator

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SnapshotHandler receives published snapshots. The snapshot and its Lots
// slice are shared with other readers and must be treated as read-only.
type SnapshotHandler func(models.FeedSnapshot) error

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID      string
	handler SnapshotHandler
	active  atomic.Bool
}

// Active reports whether the subscription still receives snapshots.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// Feed holds the current snapshot and fans every new one out to
// subscribers. Readers never block on publishers: a snapshot is built in
// full and then swapped in.
type Feed struct {
	current atomic.Pointer[models.FeedSnapshot]
	closed  atomic.Bool

	mu   sync.RWMutex
	subs []*Subscription
}

func NewFeed(initial models.FeedSnapshot) *Feed {
	f := &Feed{}
	f.current.Store(&initial)
	return f
}

// Read returns the latest published snapshot.
func (f *Feed) Read() models.FeedSnapshot {
	return *f.current.Load()
}

// Subscribe registers handler for every snapshot published from now on.
func (f *Feed) Subscribe(handler SnapshotHandler) *Subscription {
	sub := &Subscription{ID: uuid.NewString(), handler: handler}
	sub.active.Store(true)

	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

// Unsubscribe stops delivery to sub. A callback already running when
// Unsubscribe is called is allowed to finish.
func (f *Feed) Unsubscribe(sub *Subscription) {
	if sub == nil || !sub.active.Swap(false) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// publish swaps in snapshot and delivers it to subscribers in
// registration order. It must only be called from one goroutine at a
// time. Returns false once the feed is closed.
func (f *Feed) publish(snapshot models.FeedSnapshot) bool {
	if f.closed.Load() {
		return false
	}
	f.current.Store(&snapshot)

	f.mu.RLock()
	subs := make([]*Subscription, len(f.subs))
	copy(subs, f.subs)
	f.mu.RUnlock()

	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		if err := deliver(sub, snapshot); err != nil {
			logrus.WithFields(logrus.Fields{
				"subscription": sub.ID,
				"sequence":     snapshot.Sequence,
			}).Warnf("subscriber failed: %v", err)
		}
	}
	return true
}

// close makes every later publish a no-op.
func (f *Feed) close() {
	f.closed.Store(true)
}

func deliver(sub *Subscription, snapshot models.FeedSnapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in subscriber: %v", r)
		}
	}()
	return sub.handler(snapshot)
}
