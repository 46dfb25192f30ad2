package simulator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *models.Config {
	cfg := models.DefaultConfig()
	cfg.WarmupMs = 20
	cfg.TickIntervalMs = 5
	return cfg
}

func newTestSimulator(t *testing.T, cfg *models.Config) *Simulator {
	t.Helper()
	sim, err := NewSimulator(cfg)
	require.NoError(t, err)
	t.Cleanup(sim.Stop)
	return sim
}

// collector records every snapshot it receives.
type collector struct {
	mu        sync.Mutex
	snapshots []models.FeedSnapshot
}

func (c *collector) handle(s models.FeedSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, s)
	return nil
}

func (c *collector) all() []models.FeedSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.FeedSnapshot, len(c.snapshots))
	copy(out, c.snapshots)
	return out
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

func TestNewSimulator_InvalidConfig(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.TickIntervalMs = -1

	sim, err := NewSimulator(cfg)
	assert.Nil(t, sim)
	var cfgErr *models.InvalidConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewSimulator_InvalidSeed(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.Lots = []models.LotSeed{{ID: "1", Name: "Overfull", TotalSpaces: 10, AvailableSpaces: 11}}

	sim, err := NewSimulator(cfg)
	assert.Nil(t, sim)
	var cfgErr *models.InvalidConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSimulator_LoadingUntilWarmup(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.WarmupMs = 60 * 60 * 1000
	sim := newTestSimulator(t, cfg)

	assert.True(t, sim.Read().Loading)
	require.NoError(t, sim.Start(context.Background()))

	snapshot := sim.Read()
	assert.True(t, snapshot.Loading)
	assert.Empty(t, snapshot.Lots)
	assert.Empty(t, sim.Nearest(0))

	_, ok := sim.Lot("1")
	assert.False(t, ok)

	// stop must not wait out the warmup
	stopped := make(chan struct{})
	go func() {
		sim.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on warmup")
	}
	assert.True(t, sim.Read().Loading)
}

func TestSimulator_FirstSnapshotIsSeed(t *testing.T) {
	cfg := fastConfig()
	cfg.TickIntervalMs = 60 * 60 * 1000
	sim := newTestSimulator(t, cfg)

	c := &collector{}
	sim.Subscribe(c.handle)
	require.NoError(t, sim.Start(context.Background()))

	require.Eventually(t, func() bool { return !sim.Read().Loading }, 2*time.Second, 5*time.Millisecond)

	snapshot := sim.Read()
	assert.Equal(t, uint64(1), snapshot.Sequence)
	assert.NotEmpty(t, snapshot.ID)
	assert.False(t, snapshot.Timestamp.IsZero())
	require.Len(t, snapshot.Lots, 6)
	assert.Equal(t, 45, snapshot.Lots[0].AvailableSpaces)
	assert.Equal(t, models.StatusFull, snapshot.Lots[2].Status)

	assert.Equal(t, []string{"6", "5", "2"}, ids(sim.Nearest(0)))
	assert.Len(t, sim.Nearest(1), 1)

	lot, ok := sim.Lot("4")
	require.True(t, ok)
	assert.Equal(t, "Metro Hub", lot.Name)

	require.Equal(t, 1, c.len())
	assert.Equal(t, snapshot, c.all()[0])
}

func TestSimulator_TicksKeepInvariants(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())

	c := &collector{}
	sim.Subscribe(c.handle)
	require.NoError(t, sim.Start(context.Background()))

	require.Eventually(t, func() bool { return c.len() >= 20 }, 5*time.Second, 5*time.Millisecond)
	sim.Stop()
	require.NoError(t, sim.Err())

	snapshots := c.all()
	seed := snapshots[0].Lots
	for i, snapshot := range snapshots {
		assert.Equal(t, uint64(i+1), snapshot.Sequence, "sequences are gapless")
		assert.False(t, snapshot.Loading)
		require.Len(t, snapshot.Lots, len(seed))

		for j, lot := range snapshot.Lots {
			assert.Equal(t, seed[j].ID, lot.ID)
			assert.Equal(t, seed[j].Distance, lot.Distance)
			assert.Equal(t, seed[j].TotalSpaces, lot.TotalSpaces)
			assert.NoError(t, lot.CheckOccupancy())
			assert.Equal(t, models.DeriveStatus(lot.AvailableSpaces, lot.TotalSpaces, 0.3), lot.Status)
		}

		for _, lot := range Nearest(snapshot, 3) {
			assert.NotEqual(t, models.StatusFull, lot.Status)
		}
	}
}

func TestSimulator_InjectedRandomSource(t *testing.T) {
	cfg := fastConfig()
	cfg.RandomSource = maxDelta()
	sim := newTestSimulator(t, cfg)

	c := &collector{}
	sim.Subscribe(c.handle)
	require.NoError(t, sim.Start(context.Background()))
	require.Eventually(t, func() bool { return c.len() >= 2 }, 2*time.Second, 5*time.Millisecond)
	sim.Stop()

	second := c.all()[1]
	want := map[string]int{"1": 47, "2": 14, "3": 2, "4": 80, "5": 25, "6": 158}
	for _, lot := range second.Lots {
		assert.Equal(t, want[lot.ID], lot.AvailableSpaces, lot.ID)
	}
	lot3, _ := second.Lot("3")
	assert.Equal(t, models.StatusLimited, lot3.Status)
}

func TestSimulator_SameSeedSameHistory(t *testing.T) {
	run := func() []models.FeedSnapshot {
		cfg := fastConfig()
		cfg.Seed = 1234
		sim := newTestSimulator(t, cfg)
		c := &collector{}
		sim.Subscribe(c.handle)
		require.NoError(t, sim.Start(context.Background()))
		require.Eventually(t, func() bool { return c.len() >= 10 }, 5*time.Second, 5*time.Millisecond)
		sim.Stop()
		return c.all()[:10]
	}

	a, b := run(), run()
	for i := range a {
		assert.Equal(t, a[i].Lots, b[i].Lots, "sequence %d", a[i].Sequence)
	}
}

func TestSimulator_NoPublishAfterStop(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())

	var calls atomic.Int64
	sim.Subscribe(func(models.FeedSnapshot) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, sim.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sim.Stop()
	after := calls.Load()
	last := sim.Read()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load())
	assert.Equal(t, last, sim.Read())

	select {
	case <-sim.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}

	// idempotent
	sim.Stop()
}

func TestSimulator_StartTwice(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())

	require.NoError(t, sim.Start(context.Background()))
	assert.ErrorIs(t, sim.Start(context.Background()), ErrAlreadyStarted)

	sim.Stop()
	assert.ErrorIs(t, sim.Start(context.Background()), ErrStopped)
}

func TestSimulator_StopWithoutStart(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())
	sim.Stop()

	<-sim.Done()
	assert.ErrorIs(t, sim.Start(context.Background()), ErrStopped)
	assert.True(t, sim.Read().Loading)
}

func TestSimulator_ContextCancelStopsTicking(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sim.Start(ctx))
	require.Eventually(t, func() bool { return sim.Read().Sequence >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-sim.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("tick goroutine did not exit on cancel")
	}
}

func TestSimulator_UnsubscribeStopsDelivery(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())

	var calls atomic.Int64
	sub := sim.Subscribe(func(models.FeedSnapshot) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, sim.Start(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	sim.Unsubscribe(sub)
	// a callback in flight may still finish
	time.Sleep(10 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}

func TestSimulator_IndependentInstances(t *testing.T) {
	a := newTestSimulator(t, fastConfig())
	bCfg := fastConfig()
	bCfg.WarmupMs = 60 * 60 * 1000
	b := newTestSimulator(t, bCfg)

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, b.Start(context.Background()))

	require.Eventually(t, func() bool { return a.Read().Sequence >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, b.Read().Loading)

	a.Stop()
	assert.True(t, b.Read().Loading)
	select {
	case <-b.Done():
		t.Fatal("stopping one simulator stopped the other")
	default:
	}
}

func TestSimulator_SnapshotsAreNotMutatedByLaterTicks(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())
	require.NoError(t, sim.Start(context.Background()))
	require.Eventually(t, func() bool { return !sim.Read().Loading }, 2*time.Second, 5*time.Millisecond)

	held := sim.Read()
	copied := make([]models.ParkingLot, len(held.Lots))
	copy(copied, held.Lots)

	require.Eventually(t, func() bool { return sim.Read().Sequence >= held.Sequence+5 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, copied, held.Lots)
}

func TestSimulator_InvariantViolationHalts(t *testing.T) {
	sim := newTestSimulator(t, fastConfig())
	// a lot that no clamp can bring back inside its capacity
	sim.lots[0].TotalSpaces = -1

	var calls atomic.Int64
	sim.Subscribe(func(models.FeedSnapshot) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, sim.Start(context.Background()))

	select {
	case <-sim.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("ticking did not halt on an invariant violation")
	}

	var fatal *models.FatalInvariantError
	require.True(t, errors.As(sim.Err(), &fatal))
	assert.Equal(t, "1", fatal.LotID)
	assert.Equal(t, -1, fatal.Total)

	// the seed snapshot is the last good one and stays readable
	snapshot := sim.Read()
	assert.False(t, snapshot.Loading)
	assert.Equal(t, uint64(1), snapshot.Sequence)
	assert.Len(t, snapshot.Lots, 6)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, snapshot, sim.Read())
}

func TestSimulator_ReadIsIdempotentBetweenTicks(t *testing.T) {
	cfg := fastConfig()
	cfg.TickIntervalMs = 60 * 60 * 1000
	sim := newTestSimulator(t, cfg)

	first, second := sim.Read(), sim.Read()
	assert.Equal(t, first, second)

	require.NoError(t, sim.Start(context.Background()))
	require.Eventually(t, func() bool { return !sim.Read().Loading }, 2*time.Second, 5*time.Millisecond)

	first, second = sim.Read(), sim.Read()
	assert.Equal(t, first, second)
	assert.Equal(t, ids(sim.Nearest(0)), ids(sim.Nearest(0)))
}
