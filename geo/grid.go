package geo

import (
	"github.com/mmcloughlin/geohash"
)

// Grid adapts the geohash library as the cell indexer: coordinates in,
// opaque cell ids out. Nothing here carries state.
type Grid struct {
	Precision uint
}

// NewGrid returns a grid at the given geohash precision.
func NewGrid(precision uint) *Grid {
	return &Grid{Precision: precision}
}

// CellID maps a coordinate to its cell identifier.
func (g *Grid) CellID(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, g.Precision)
}

// Neighbors returns the ids of the cells adjacent to the given one.
func (g *Grid) Neighbors(cell string) []string {
	return geohash.Neighbors(cell)
}

// CellCenter returns the centroid of a cell.
func (g *Grid) CellCenter(cell string) (lat, lon float64) {
	box := geohash.BoundingBox(cell)
	return box.Center()
}
