package geo

import (
	"sync"

	"github.com/dhconnelly/rtreego"

	"fleet-dispatch-system/models"
)

// pointTol is the half-side of the bounding box wrapped around a
// driver location so it satisfies the rtree's rectangle interface.
const pointTol = 0.0001

// driverPoint wraps a driver location to satisfy rtreego.Spatial.
type driverPoint struct {
	loc    rtreego.Point
	driver *models.Driver
}

func (p driverPoint) Bounds() rtreego.Rect {
	return p.loc.ToRect(pointTol)
}

// RTreeIndex is an r-tree over driver locations, rebuilt from the
// current fleet before each search.
type RTreeIndex struct {
	mu   sync.Mutex
	tree *rtreego.Rtree
}

func NewRTreeIndex() *RTreeIndex {
	return &RTreeIndex{tree: rtreego.NewTree(2, 25, 50)}
}

// Rebuild replaces the index contents with the given drivers.
func (idx *RTreeIndex) Rebuild(drivers []*models.Driver) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree = rtreego.NewTree(2, 25, 50)
	for _, d := range drivers {
		idx.tree.Insert(driverPoint{
			loc:    rtreego.Point{d.Latitude, d.Longitude},
			driver: d,
		})
	}
}

// SearchNearby returns the drivers whose location falls inside a
// square of half-side radiusDeg around the given point.
func (idx *RTreeIndex) SearchNearby(lat, lon, radiusDeg float64) []*models.Driver {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	center := rtreego.Point{lat, lon}
	hits := idx.tree.SearchIntersect(center.ToRect(radiusDeg))
	drivers := make([]*models.Driver, 0, len(hits))
	for _, hit := range hits {
		if p, ok := hit.(driverPoint); ok {
			drivers = append(drivers, p.driver)
		}
	}
	return drivers
}
