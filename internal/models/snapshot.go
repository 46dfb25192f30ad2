package models

import "time"

// FeedSnapshot is a fully consistent view of every lot at one point in
// simulated time. It is immutable once published; a tick produces a new
// snapshot instead of changing an old one.
type FeedSnapshot struct {
	ID        string       `json:"id,omitempty"`
	Sequence  uint64       `json:"sequence"`
	Timestamp time.Time    `json:"timestamp"`
	Loading   bool         `json:"loading"`
	Lots      []ParkingLot `json:"lots"`
}

// LoadingSnapshot is what readers see before warmup completes.
func LoadingSnapshot() FeedSnapshot {
	return FeedSnapshot{Loading: true, Lots: []ParkingLot{}}
}

// Lot finds a lot by id.
func (s FeedSnapshot) Lot(id string) (ParkingLot, bool) {
	for _, lot := range s.Lots {
		if lot.ID == id {
			return lot, true
		}
	}
	return ParkingLot{}, false
}
