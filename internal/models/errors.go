package models

import "fmt"

// InvalidConfigError aborts construction when configuration or seed data
// violates an invariant.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// FatalInvariantError halts the tick source when a tick would publish a lot
// with occupancy outside its capacity.
type FatalInvariantError struct {
	LotID     string
	Available int
	Total     int
}

func (e *FatalInvariantError) Error() string {
	return fmt.Sprintf("invariant violated for lot %s: available %d not in [0, %d]", e.LotID, e.Available, e.Total)
}
