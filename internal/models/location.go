package models

import "github.com/paulmach/orb"

// Location is the geographic position of a lot. It is descriptive only;
// ranking uses GridPosition.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat" mapstructure:"lat" parquet:"name=lat,type=DOUBLE"`
	Lon float64 `json:"lon" yaml:"lon" mapstructure:"lon" parquet:"name=lon,type=DOUBLE"`
}

// Point returns the location as an orb point (lon, lat order).
func (l Location) Point() orb.Point {
	return orb.Point{l.Lon, l.Lat}
}

// GridPosition is a normalized 0-100 percentage position on the map grid.
type GridPosition struct {
	Top  float64 `json:"top" yaml:"top" mapstructure:"top"`
	Left float64 `json:"left" yaml:"left" mapstructure:"left"`
}

// Point returns the grid position as an orb point (left, top order).
func (g GridPosition) Point() orb.Point {
	return orb.Point{g.Left, g.Top}
}

func (g GridPosition) inBounds() bool {
	return g.Top >= 0 && g.Top <= 100 && g.Left >= 0 && g.Left <= 100
}
