package simulator

import (
	"errors"
	"sync"
	"testing"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_ReadBeforePublish(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	snapshot := f.Read()
	assert.True(t, snapshot.Loading)
	assert.Empty(t, snapshot.Lots)
	assert.Equal(t, snapshot, f.Read())
}

func TestFeed_DeliversInRegistrationOrder(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	var order []string
	record := func(name string) SnapshotHandler {
		return func(s models.FeedSnapshot) error {
			order = append(order, name)
			return nil
		}
	}
	f.Subscribe(record("first"))
	f.Subscribe(record("second"))
	f.Subscribe(record("third"))

	require.True(t, f.publish(models.FeedSnapshot{Sequence: 1}))
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, uint64(1), f.Read().Sequence)
}

func TestFeed_SubscriberSeesPublishedSnapshot(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	f.Subscribe(func(s models.FeedSnapshot) error {
		// the swap happens before delivery
		assert.Equal(t, s.Sequence, f.Read().Sequence)
		return nil
	})
	f.publish(models.FeedSnapshot{Sequence: 4})
}

func TestFeed_FailingSubscribersAreIsolated(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	var got []uint64
	f.Subscribe(func(models.FeedSnapshot) error { panic("boom") })
	f.Subscribe(func(models.FeedSnapshot) error { return errors.New("sink down") })
	f.Subscribe(func(s models.FeedSnapshot) error {
		got = append(got, s.Sequence)
		return nil
	})

	f.publish(models.FeedSnapshot{Sequence: 1})
	f.publish(models.FeedSnapshot{Sequence: 2})

	assert.Equal(t, []uint64{1, 2}, got)
	assert.Equal(t, 3, f.Subscribers())
}

func TestFeed_Unsubscribe(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	calls := 0
	sub := f.Subscribe(func(models.FeedSnapshot) error {
		calls++
		return nil
	})
	assert.True(t, sub.Active())
	assert.NotEmpty(t, sub.ID)

	f.publish(models.FeedSnapshot{Sequence: 1})
	f.Unsubscribe(sub)
	f.publish(models.FeedSnapshot{Sequence: 2})

	assert.Equal(t, 1, calls)
	assert.False(t, sub.Active())
	assert.Zero(t, f.Subscribers())

	// unknown and repeated handles are no-ops
	f.Unsubscribe(sub)
	f.Unsubscribe(nil)
}

func TestFeed_UnsubscribeDuringDelivery(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	var second *Subscription
	secondCalls := 0
	f.Subscribe(func(models.FeedSnapshot) error {
		f.Unsubscribe(second)
		return nil
	})
	second = f.Subscribe(func(models.FeedSnapshot) error {
		secondCalls++
		return nil
	})

	f.publish(models.FeedSnapshot{Sequence: 1})
	assert.Zero(t, secondCalls)
}

func TestFeed_ClosedFeedIgnoresPublish(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())
	calls := 0
	f.Subscribe(func(models.FeedSnapshot) error {
		calls++
		return nil
	})

	f.close()
	assert.False(t, f.publish(models.FeedSnapshot{Sequence: 1}))
	assert.Zero(t, calls)
	assert.True(t, f.Read().Loading)
}

func TestFeed_ConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	f := NewFeed(models.LoadingSnapshot())

	build := func(seq uint64) models.FeedSnapshot {
		lots := make([]models.ParkingLot, 4)
		for i := range lots {
			lots[i] = models.ParkingLot{ID: "x", AvailableSpaces: int(seq)}
		}
		return models.FeedSnapshot{Sequence: seq, Lots: lots}
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := f.Read()
				for _, lot := range s.Lots {
					if lot.AvailableSpaces != int(s.Sequence) {
						t.Errorf("torn snapshot %d: lot has %d", s.Sequence, lot.AvailableSpaces)
						return
					}
				}
			}
		}()
	}

	for seq := uint64(1); seq <= 2000; seq++ {
		f.publish(build(seq))
	}
	close(stop)
	wg.Wait()
	assert.Equal(t, uint64(2000), f.Read().Sequence)
}
