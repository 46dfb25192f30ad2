package factories

import (
	"fmt"

	"github.com/chrisdamba/parksim/internal/models"
)

// DistanceFunc returns the fixed distance metric for a grid position.
type DistanceFunc func(models.GridPosition) int

// LotRegistry builds the immutable seed catalog the simulator starts from.
type LotRegistry struct {
	config   *models.Config
	distance DistanceFunc
}

func NewLotRegistry(config *models.Config, distance DistanceFunc) *LotRegistry {
	return &LotRegistry{config: config, distance: distance}
}

// BuildSeed returns the lots in catalog order. The result depends only on
// the configuration, so two calls with the same config are identical.
func (r *LotRegistry) BuildSeed() ([]models.ParkingLot, error) {
	seeds, err := r.seeds()
	if err != nil {
		return nil, err
	}

	if r.config.ExtraLots > 0 {
		sf := NewSyntheticLotFactory(r.config.Seed)
		seeds = append(seeds, sf.CreateLots(r.config.ExtraLots, nextNumericID(seeds))...)
	}

	seen := make(map[string]struct{}, len(seeds))
	lots := make([]models.ParkingLot, 0, len(seeds))
	for _, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[seed.ID]; dup {
			return nil, &models.InvalidConfigError{Field: "lots[" + seed.ID + "].id", Reason: "is duplicated"}
		}
		seen[seed.ID] = struct{}{}
		lots = append(lots, r.createLot(seed))
	}

	if len(lots) == 0 {
		return nil, &models.InvalidConfigError{Field: "lots", Reason: "must contain at least one lot"}
	}
	return lots, nil
}

func (r *LotRegistry) seeds() ([]models.LotSeed, error) {
	switch {
	case len(r.config.Lots) > 0:
		seeds := make([]models.LotSeed, len(r.config.Lots))
		copy(seeds, r.config.Lots)
		return seeds, nil
	case r.config.SeedFile != "":
		seeds, err := LoadSeedFile(r.config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file %s: %w", r.config.SeedFile, err)
		}
		return seeds, nil
	default:
		return DefaultLotSeeds(), nil
	}
}

func (r *LotRegistry) createLot(seed models.LotSeed) models.ParkingLot {
	return models.ParkingLot{
		ID:              seed.ID,
		Name:            seed.Name,
		Location:        seed.Location,
		Grid:            seed.Grid,
		TotalSpaces:     seed.TotalSpaces,
		AvailableSpaces: seed.AvailableSpaces,
		Status:          models.DeriveStatus(seed.AvailableSpaces, seed.TotalSpaces, r.config.LimitedThresholdRatio),
		PricePerHour:    seed.PricePerHour,
		Distance:        r.distance(seed.Grid),
	}
}
