package models

// Status is the availability state of a lot. It is always derived from
// occupancy and never set on its own.
type Status string

const (
	StatusAvailable Status = "available"
	StatusLimited   Status = "limited"
	StatusFull      Status = "full"
	// StatusUnknown is reserved for data sources that cannot report
	// occupancy. The simulator never produces it.
	StatusUnknown Status = "unknown"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusLimited, StatusFull, StatusUnknown:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// DeriveStatus maps occupancy to a status. A lot with no free spaces is
// full; one whose free share is under limitedRatio is limited.
func DeriveStatus(available, total int, limitedRatio float64) Status {
	if available <= 0 {
		return StatusFull
	}
	if float64(available)/float64(total) < limitedRatio {
		return StatusLimited
	}
	return StatusAvailable
}
