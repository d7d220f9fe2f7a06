package geo

import (
	"errors"
	"sync"

	"fleet-dispatch-system/models"
)

// Technique selects how nearby-driver lookups are answered.
type Technique string

const (
	GeohashTechnique  Technique = "geohash"
	RTreeTechnique    Technique = "rtree"
	QuadtreeTechnique Technique = "quadtree"
)

var ErrNoNearbyDrivers = errors.New("no nearby drivers found after maximum retries")

// Index answers nearby-driver queries with one of three spatial
// techniques over the same driver set. Callers rebuild it from the
// current fleet before searching.
type Index struct {
	grid  *Grid
	rtree *RTreeIndex
	quad  *Quadtree

	mu     sync.Mutex
	byCell map[string][]*models.Driver
}

func NewIndex(grid *Grid, bounds Bounds) *Index {
	return &Index{
		grid:   grid,
		rtree:  NewRTreeIndex(),
		quad:   NewQuadtree(bounds),
		byCell: make(map[string][]*models.Driver),
	}
}

// Rebuild replaces all three indexes with the given drivers.
func (idx *Index) Rebuild(drivers []*models.Driver) {
	idx.rtree.Rebuild(drivers)
	idx.quad.Rebuild(drivers)

	byCell := make(map[string][]*models.Driver)
	for _, d := range drivers {
		cell := idx.grid.CellID(d.Latitude, d.Longitude)
		byCell[cell] = append(byCell[cell], d)
	}
	idx.mu.Lock()
	idx.byCell = byCell
	idx.mu.Unlock()
}

// SearchNearby finds drivers around a point, doubling the search
// radius on each retry until something is found. The geohash
// technique ignores the radius: it covers the query cell plus its
// neighbors, so a single pass is all it has.
func (idx *Index) SearchNearby(lat, lon, radiusM float64, technique Technique, maxRetries int) ([]*models.Driver, error) {
	if technique == "" {
		technique = GeohashTechnique
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	radiusDeg := radiusM / metersPerDegree
	for i := 0; i < maxRetries; i++ {
		var results []*models.Driver
		switch technique {
		case GeohashTechnique:
			results = idx.cellNeighborhood(lat, lon)
			if len(results) == 0 {
				return nil, ErrNoNearbyDrivers
			}
		case RTreeTechnique:
			results = idx.rtree.SearchNearby(lat, lon, radiusDeg)
		case QuadtreeTechnique:
			results = idx.quad.SearchNearby(lat, lon, radiusDeg)
		default:
			return nil, errors.New("unsupported geo-indexing technique")
		}

		if len(results) > 0 {
			return results, nil
		}
		radiusDeg *= 2
	}
	return nil, ErrNoNearbyDrivers
}

func (idx *Index) cellNeighborhood(lat, lon float64) []*models.Driver {
	cell := idx.grid.CellID(lat, lon)
	cells := append(idx.grid.Neighbors(cell), cell)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	var results []*models.Driver
	for _, c := range cells {
		results = append(results, idx.byCell[c]...)
	}
	return results
}
