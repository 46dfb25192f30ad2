package factories

import (
	"math/rand"
	"strconv"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/jaswdr/faker"
)

// city centre the default catalog sits around
const (
	baseLat = 37.7749
	baseLon = -122.4194
)

var lotSuffixes = []string{"Garage", "Parking", "Car Park", "Deck", "Lot"}

// SyntheticLotFactory generates plausible extra lots. Output is fully
// determined by the seed.
type SyntheticLotFactory struct {
	fake faker.Faker
}

func NewSyntheticLotFactory(seed int64) *SyntheticLotFactory {
	return &SyntheticLotFactory{fake: faker.NewWithSeed(rand.NewSource(seed))}
}

// CreateLots returns n seeds with numeric ids starting at firstID.
func (sf *SyntheticLotFactory) CreateLots(n, firstID int) []models.LotSeed {
	seeds := make([]models.LotSeed, 0, n)
	for i := 0; i < n; i++ {
		seeds = append(seeds, sf.CreateLot(strconv.Itoa(firstID+i)))
	}
	return seeds
}

func (sf *SyntheticLotFactory) CreateLot(id string) models.LotSeed {
	total := sf.fake.IntBetween(40, 400)
	suffix := lotSuffixes[sf.fake.IntBetween(0, len(lotSuffixes)-1)]

	return models.LotSeed{
		ID:   id,
		Name: sf.fake.Address().StreetName() + " " + suffix,
		Location: models.Location{
			Lat: baseLat + sf.fake.Float64(4, -300, 300)/10000,
			Lon: baseLon + sf.fake.Float64(4, -300, 300)/10000,
		},
		Grid: models.GridPosition{
			Top:  float64(sf.fake.IntBetween(5, 95)),
			Left: float64(sf.fake.IntBetween(5, 95)),
		},
		TotalSpaces:     total,
		AvailableSpaces: sf.fake.IntBetween(0, total),
		PricePerHour:    sf.fake.Float64(2, 100, 600) / 100,
	}
}
