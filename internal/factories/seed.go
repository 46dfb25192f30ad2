package factories

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chrisdamba/parksim/internal/models"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Lots []models.LotSeed `yaml:"lots"`
}

// DefaultLotSeeds is the built-in six lot catalog.
func DefaultLotSeeds() []models.LotSeed {
	return []models.LotSeed{
		{
			ID:              "1",
			Name:            "Downtown Plaza",
			Location:        models.Location{Lat: 37.7849, Lon: -122.4094},
			Grid:            models.GridPosition{Top: 23, Left: 15},
			TotalSpaces:     120,
			AvailableSpaces: 45,
			PricePerHour:    3.5,
		},
		{
			ID:              "2",
			Name:            "City Center",
			Location:        models.Location{Lat: 37.7749, Lon: -122.4194},
			Grid:            models.GridPosition{Top: 10, Left: 54},
			TotalSpaces:     80,
			AvailableSpaces: 12,
			PricePerHour:    4.0,
		},
		{
			ID:              "3",
			Name:            "Main Street",
			Location:        models.Location{Lat: 37.7649, Lon: -122.4294},
			Grid:            models.GridPosition{Top: 39, Left: 29},
			TotalSpaces:     150,
			AvailableSpaces: 0,
			PricePerHour:    2.75,
		},
		{
			ID:              "4",
			Name:            "Metro Hub",
			Location:        models.Location{Lat: 37.7549, Lon: -122.4394},
			Grid:            models.GridPosition{Top: 59, Left: 78},
			TotalSpaces:     200,
			AvailableSpaces: 78,
			PricePerHour:    3.25,
		},
		{
			ID:              "5",
			Name:            "Business District",
			Location:        models.Location{Lat: 37.7949, Lon: -122.3994},
			Grid:            models.GridPosition{Top: 61, Left: 43},
			TotalSpaces:     95,
			AvailableSpaces: 23,
			PricePerHour:    5.0,
		},
		{
			ID:              "6",
			Name:            "Shopping Center",
			Location:        models.Location{Lat: 37.7449, Lon: -122.4494},
			Grid:            models.GridPosition{Top: 40, Left: 70},
			TotalSpaces:     300,
			AvailableSpaces: 156,
			PricePerHour:    2.0,
		},
	}
}

// LoadSeedFile reads a YAML document with a top level "lots" list.
func LoadSeedFile(path string) ([]models.LotSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return file.Lots, nil
}

func nextNumericID(seeds []models.LotSeed) int {
	next := 1
	for _, s := range seeds {
		if n, err := strconv.Atoi(s.ID); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}
