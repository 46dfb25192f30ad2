package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/chrisdamba/parksim/internal/factories"
	"github.com/chrisdamba/parksim/internal/models"
	"github.com/lucsky/cuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyStarted = errors.New("simulator already started")
	ErrStopped        = errors.New("simulator stopped")
)

// Simulator owns one independent parking feed: the lot registry, the tick
// goroutine and the published snapshot. Create it with NewSimulator, call
// Start once and Stop when done. Instances share no state.
type Simulator struct {
	Config *models.Config

	distance     DistanceModel
	availability *AvailabilitySimulator
	feed         *Feed

	// lots and sequence are owned by the tick goroutine once started.
	lots     []models.ParkingLot
	sequence uint64

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
	err      error

	now func() time.Time
}

// NewSimulator validates config and builds the lot registry. On failure no
// simulator is returned. Readers see a loading snapshot until Start has
// waited out the warmup.
func NewSimulator(config *models.Config) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	distance := NewDistanceModel(config)
	lots, err := factories.NewLotRegistry(config, distance.Distance).BuildSeed()
	if err != nil {
		return nil, err
	}

	rng := config.RandomSource
	if rng == nil {
		rng = rand.New(rand.NewSource(config.Seed))
	}

	return &Simulator{
		Config:       config,
		distance:     distance,
		availability: NewAvailabilitySimulator(config, rng),
		feed:         NewFeed(models.LoadingSnapshot()),
		lots:         lots,
		done:         make(chan struct{}),
		now:          time.Now,
	}, nil
}

// Start launches the tick goroutine. Cancelling ctx has the same effect as
// Stop, except that it does not wait.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	logrus.WithFields(logrus.Fields{
		"lots":     len(s.lots),
		"warmup":   s.warmup(),
		"interval": s.interval(),
	}).Info("parking simulation started")

	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
	return nil
}

// Stop halts ticking and waits for the tick goroutine to exit. A tick that
// is already running completes and publishes; no tick starts afterwards,
// and once Stop returns no snapshot is published and no subscriber is
// called. Stop is idempotent. It must not be called from a subscriber
// callback.
func (s *Simulator) Stop() {
	s.mu.Lock()
	s.stopped = true
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if started {
		cancel()
	} else {
		s.closeDone()
	}
	<-s.done
	s.feed.close()
}

// Done is closed when the tick goroutine has exited.
func (s *Simulator) Done() <-chan struct{} {
	return s.done
}

// Err returns the invariant violation that halted ticking, if any.
func (s *Simulator) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Read returns the latest snapshot without blocking.
func (s *Simulator) Read() models.FeedSnapshot {
	return s.feed.Read()
}

func (s *Simulator) Subscribe(handler SnapshotHandler) *Subscription {
	return s.feed.Subscribe(handler)
}

func (s *Simulator) Unsubscribe(sub *Subscription) {
	s.feed.Unsubscribe(sub)
}

// Nearest ranks the latest snapshot. k <= 0 uses the configured default.
func (s *Simulator) Nearest(k int) []models.ParkingLot {
	if k <= 0 {
		k = s.Config.NearestK
	}
	return Nearest(s.Read(), k)
}

// Lot looks a lot up in the latest snapshot.
func (s *Simulator) Lot(id string) (models.ParkingLot, bool) {
	return s.Read().Lot(id)
}

func (s *Simulator) run(ctx context.Context) {
	defer s.closeDone()

	warmup := time.NewTimer(s.warmup())
	defer warmup.Stop()

	select {
	case <-ctx.Done():
		return
	case <-warmup.C:
	}
	if ctx.Err() != nil {
		return
	}
	s.publish(s.lots)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// both cases may be ready at once; never start a tick after stop
			if ctx.Err() != nil {
				return
			}
			if err := s.tick(); err != nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				logrus.WithError(err).Error("halting parking simulation")
				return
			}
		}
	}
}

// tick advances every lot and publishes the result as one snapshot.
func (s *Simulator) tick() error {
	next, err := s.availability.Advance(s.lots)
	if err != nil {
		return err
	}
	s.lots = next
	s.publish(next)
	return nil
}

func (s *Simulator) publish(lots []models.ParkingLot) {
	s.sequence++
	snapshot := models.FeedSnapshot{
		ID:        cuid.New(),
		Sequence:  s.sequence,
		Timestamp: s.now().UTC(),
		Lots:      lots,
	}
	if !s.feed.publish(snapshot) {
		return
	}
	logrus.WithFields(logrus.Fields{
		"sequence": snapshot.Sequence,
		"lots":     len(lots),
	}).Debug("published snapshot")
}

func (s *Simulator) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Simulator) warmup() time.Duration {
	return time.Duration(s.Config.WarmupMs) * time.Millisecond
}

func (s *Simulator) interval() time.Duration {
	return time.Duration(s.Config.TickIntervalMs) * time.Millisecond
}
