package geo

import (
	"testing"

	"fleet-dispatch-system/models"
)

func testDrivers() []*models.Driver {
	return []*models.Driver{
		{ID: "near", Latitude: 18.5250, Longitude: 73.8470},
		{ID: "close", Latitude: 18.5260, Longitude: 73.8480},
		{ID: "far", Latitude: 18.9000, Longitude: 74.2000},
	}
}

func newTestIndex() *Index {
	idx := NewIndex(NewGrid(6), Bounds{MinX: -90, MinY: -180, MaxX: 90, MaxY: 180})
	idx.Rebuild(testDrivers())
	return idx
}

func hasDriver(drivers []*models.Driver, id string) bool {
	for _, d := range drivers {
		if d.ID == id {
			return true
		}
	}
	return false
}

func TestSearchNearbyRTree(t *testing.T) {
	idx := newTestIndex()

	got, err := idx.SearchNearby(18.525, 73.847, 500, RTreeTechnique, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDriver(got, "near") {
		t.Fatalf("expected the near driver, got %+v", got)
	}
	if hasDriver(got, "far") {
		t.Fatalf("far driver should be outside a 500m search")
	}
}

func TestSearchNearbyQuadtree(t *testing.T) {
	idx := newTestIndex()

	got, err := idx.SearchNearby(18.525, 73.847, 500, QuadtreeTechnique, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDriver(got, "near") {
		t.Fatalf("expected the near driver, got %+v", got)
	}
	if hasDriver(got, "far") {
		t.Fatalf("far driver should be outside a 500m search")
	}
}

func TestSearchNearbyGeohash(t *testing.T) {
	idx := newTestIndex()

	got, err := idx.SearchNearby(18.525, 73.847, 500, GeohashTechnique, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDriver(got, "near") {
		t.Fatalf("expected the near driver in the cell neighborhood, got %+v", got)
	}
}

func TestSearchNearbyExpandsRadius(t *testing.T) {
	idx := NewIndex(NewGrid(6), Bounds{MinX: -90, MinY: -180, MaxX: 90, MaxY: 180})
	idx.Rebuild([]*models.Driver{{ID: "far", Latitude: 18.545, Longitude: 73.847}})

	// ~2.2km away: invisible at 500m, reachable after doubling.
	got, err := idx.SearchNearby(18.525, 73.847, 500, RTreeTechnique, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasDriver(got, "far") {
		t.Fatalf("expected the far driver after radius expansion")
	}
}

func TestSearchNearbyEmpty(t *testing.T) {
	idx := NewIndex(NewGrid(6), Bounds{MinX: -90, MinY: -180, MaxX: 90, MaxY: 180})
	idx.Rebuild(nil)

	if _, err := idx.SearchNearby(18.525, 73.847, 500, RTreeTechnique, 3); err != ErrNoNearbyDrivers {
		t.Fatalf("got %v, want ErrNoNearbyDrivers", err)
	}
}

func TestSearchNearbyUnknownTechnique(t *testing.T) {
	idx := newTestIndex()
	if _, err := idx.SearchNearby(18.525, 73.847, 500, Technique("voronoi"), 1); err == nil {
		t.Fatalf("expected an error for an unsupported technique")
	}
}
