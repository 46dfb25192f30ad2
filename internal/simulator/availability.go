package simulator

import (
	"github.com/chrisdamba/parksim/internal/models"
)

// AvailabilitySimulator applies one tick of random occupancy drift.
// It is not safe for concurrent use; the engine only calls it from its
// tick goroutine.
type AvailabilitySimulator struct {
	rng          models.RandomSource
	minDelta     int
	maxDelta     int
	limitedRatio float64
}

func NewAvailabilitySimulator(config *models.Config, rng models.RandomSource) *AvailabilitySimulator {
	return &AvailabilitySimulator{
		rng:          rng,
		minDelta:     config.PerturbationMin,
		maxDelta:     config.PerturbationMax,
		limitedRatio: config.LimitedThresholdRatio,
	}
}

// Advance returns the lots after one tick. The input slice is left
// untouched so it can keep backing an already published snapshot. If any
// lot ends up outside its capacity nothing is returned.
func (a *AvailabilitySimulator) Advance(lots []models.ParkingLot) ([]models.ParkingLot, error) {
	next := make([]models.ParkingLot, len(lots))
	for i, lot := range lots {
		available := clamp(lot.AvailableSpaces+a.perturbation(), 0, lot.TotalSpaces)

		lot.AvailableSpaces = available
		lot.Status = models.DeriveStatus(available, lot.TotalSpaces, a.limitedRatio)
		next[i] = lot
	}

	for _, lot := range next {
		if err := lot.CheckOccupancy(); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// perturbation draws uniformly from [minDelta, maxDelta].
func (a *AvailabilitySimulator) perturbation() int {
	span := a.maxDelta - a.minDelta + 1
	if span <= 1 {
		return a.minDelta
	}
	return a.minDelta + a.rng.Intn(span)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
