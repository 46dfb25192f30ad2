package models

type ParkingLot struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Location        Location     `json:"location"`
	Grid            GridPosition `json:"grid"`
	TotalSpaces     int          `json:"totalSpaces"`
	AvailableSpaces int          `json:"availableSpaces"`
	Status          Status       `json:"status"`
	PricePerHour    float64      `json:"pricePerHour"`
	Distance        int          `json:"distance"`
}

// OccupancyRate is the share of occupied spaces as a percentage.
func (p ParkingLot) OccupancyRate() float64 {
	if p.TotalSpaces <= 0 {
		return 0
	}
	return float64(p.TotalSpaces-p.AvailableSpaces) / float64(p.TotalSpaces) * 100
}

// CheckOccupancy reports a FatalInvariantError when available spaces fall
// outside [0, total].
func (p ParkingLot) CheckOccupancy() error {
	if p.AvailableSpaces < 0 || p.AvailableSpaces > p.TotalSpaces {
		return &FatalInvariantError{LotID: p.ID, Available: p.AvailableSpaces, Total: p.TotalSpaces}
	}
	return nil
}

// LotSeed is the configurable part of a lot. Status and distance are
// derived when the registry is built.
type LotSeed struct {
	ID              string       `json:"id" yaml:"id" mapstructure:"id"`
	Name            string       `json:"name" yaml:"name" mapstructure:"name"`
	Location        Location     `json:"location" yaml:"location" mapstructure:"location"`
	Grid            GridPosition `json:"grid" yaml:"grid" mapstructure:"grid"`
	TotalSpaces     int          `json:"totalSpaces" yaml:"total_spaces" mapstructure:"total_spaces"`
	AvailableSpaces int          `json:"availableSpaces" yaml:"available_spaces" mapstructure:"available_spaces"`
	PricePerHour    float64      `json:"pricePerHour" yaml:"price_per_hour" mapstructure:"price_per_hour"`
}

// Validate checks the seed against the lot invariants.
func (s LotSeed) Validate() error {
	field := func(name string) string {
		return "lots[" + s.ID + "]." + name
	}
	if s.ID == "" {
		return &InvalidConfigError{Field: "lots.id", Reason: "must not be empty"}
	}
	if s.TotalSpaces <= 0 {
		return &InvalidConfigError{Field: field("total_spaces"), Reason: "must be positive"}
	}
	if s.AvailableSpaces < 0 || s.AvailableSpaces > s.TotalSpaces {
		return &InvalidConfigError{Field: field("available_spaces"), Reason: "must be within [0, total_spaces]"}
	}
	if s.PricePerHour < 0 {
		return &InvalidConfigError{Field: field("price_per_hour"), Reason: "must not be negative"}
	}
	if !s.Grid.inBounds() {
		return &InvalidConfigError{Field: field("grid"), Reason: "top and left must be within [0, 100]"}
	}
	return nil
}
