package simulator

import (
	"sort"
	"strconv"

	"github.com/chrisdamba/parksim/internal/models"
)

// Nearest returns up to k non-full lots from the snapshot, closest first.
// Equal distances are ordered by id. The snapshot is not modified.
func Nearest(snapshot models.FeedSnapshot, k int) []models.ParkingLot {
	if k <= 0 {
		return []models.ParkingLot{}
	}

	candidates := make([]models.ParkingLot, 0, len(snapshot.Lots))
	for _, lot := range snapshot.Lots {
		if lot.Status == models.StatusFull {
			continue
		}
		candidates = append(candidates, lot)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return lessID(candidates[i].ID, candidates[j].ID)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// lessID orders integer ids numerically, so "10" sorts after "9", and
// places them ahead of non-numeric ids, which keep string order.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
