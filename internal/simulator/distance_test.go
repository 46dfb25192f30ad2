package simulator

import (
	"testing"

	"github.com/chrisdamba/parksim/internal/factories"
	"github.com/chrisdamba/parksim/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDistanceModel_Distance(t *testing.T) {
	d := NewDistanceModel(models.DefaultConfig())

	tests := []struct {
		name string
		grid models.GridPosition
		want int
	}{
		{"observer itself", models.GridPosition{Top: 40, Left: 50}, 0},
		{"city center", models.GridPosition{Top: 10, Left: 54}, 390},
		{"straight line", models.GridPosition{Top: 40, Left: 70}, 260},
		{"floor before scaling", models.GridPosition{Top: 41, Left: 51}, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Distance(tt.grid))
		})
	}
}

func TestDistanceModel_DefaultCatalog(t *testing.T) {
	d := NewDistanceModel(models.DefaultConfig())

	want := map[string]int{"1": 494, "2": 390, "3": 273, "4": 429, "5": 286, "6": 260}
	for _, seed := range factories.DefaultLotSeeds() {
		assert.Equal(t, want[seed.ID], d.Distance(seed.Grid), seed.ID)
	}
}

func TestDistanceModel_Scale(t *testing.T) {
	d := DistanceModel{Observer: models.GridPosition{}, Scale: 1}
	assert.Equal(t, 5, d.Distance(models.GridPosition{Top: 3, Left: 4}))

	d.Scale = 0
	assert.Zero(t, d.Distance(models.GridPosition{Top: 3, Left: 4}))
}
