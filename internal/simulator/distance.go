package simulator

import (
	"math"

	"github.com/chrisdamba/parksim/internal/models"
	"github.com/paulmach/orb/planar"
)

// DistanceModel turns a lot's grid position into the fixed distance metric
// used for ranking. It works on the map grid, not on geocoordinates.
type DistanceModel struct {
	Observer models.GridPosition
	Scale    int
}

func NewDistanceModel(config *models.Config) DistanceModel {
	return DistanceModel{Observer: config.Observer, Scale: config.DistanceScale}
}

// Distance is Scale * floor(euclidean grid distance to the observer).
func (d DistanceModel) Distance(grid models.GridPosition) int {
	return d.Scale * int(math.Floor(planar.Distance(d.Observer.Point(), grid.Point())))
}
