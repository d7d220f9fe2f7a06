package balancer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"fleet-dispatch-system/geo"
	"fleet-dispatch-system/logger"
	"fleet-dispatch-system/models"
	"fleet-dispatch-system/store"
)

// Two well-separated anchor points so drivers and orders land in
// different cells.
var (
	cellA = [2]float64{18.525, 73.847}
	cellB = [2]float64{18.900, 74.200}
)

func seedDriver(t *testing.T, s store.FleetStore, ids []string, at [2]float64) {
	t.Helper()
	ctx := context.Background()
	existing, err := s.ListDrivers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	for _, id := range ids {
		existing = append(existing, &models.Driver{
			ID: id, Name: id,
			Latitude: at[0], Longitude: at[1],
			Status:    models.DriverAvailable,
			CreatedAt: now, UpdatedAt: now,
		})
	}
	if err := s.ResetDrivers(ctx, existing); err != nil {
		t.Fatal(err)
	}
}

func seedOrder(t *testing.T, s store.FleetStore, id, status string, pickup [2]float64) {
	t.Helper()
	now := time.Now().UTC()
	err := s.CreateOrder(context.Background(), &models.Order{
		ID:              id,
		PickupLatitude:  pickup[0],
		PickupLongitude: pickup[1],
		DestLatitude:    pickup[0],
		DestLongitude:   pickup[1],
		AverageSpeed:    25,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRecomputeCounts(t *testing.T) {
	s := store.NewMemoryStore()
	grid := geo.NewGrid(6)
	b := New(s, grid, logger.Nop())

	seedDriver(t, s, []string{"d1"}, cellA)
	seedOrder(t, s, "o1", models.OrderPending, cellA)
	seedOrder(t, s, "o2", models.OrderAssigned, cellA)
	seedOrder(t, s, "o3", models.OrderDelivered, cellA)

	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}

	stats := b.Snapshot()
	cell := grid.CellID(cellA[0], cellA[1])
	st, ok := stats[cell]
	if !ok {
		t.Fatalf("no stats for cell %q", cell)
	}
	if st.DriverCount != 1 {
		t.Errorf("driver_count = %d, want 1", st.DriverCount)
	}
	// Delivered orders no longer count as demand.
	if st.OrderCount != 2 {
		t.Errorf("order_count = %d, want 2", st.OrderCount)
	}
	if st.DensityRatio != 2 {
		t.Errorf("density_ratio = %v, want 2", st.DensityRatio)
	}
	if st.Status != models.CellBalanced {
		t.Errorf("status = %q, want balanced", st.Status)
	}
}

func TestRecomputeThresholds(t *testing.T) {
	s := store.NewMemoryStore()
	grid := geo.NewGrid(6)
	b := New(s, grid, logger.Nop())

	// Cell A: 1 driver, 4 orders -> ratio 4 -> overloaded.
	// Cell B: 1 driver, 0 orders -> ratio 0 -> underutilized.
	seedDriver(t, s, []string{"d1"}, cellA)
	seedDriver(t, s, []string{"d2"}, cellB)
	for _, id := range []string{"o1", "o2", "o3", "o4"} {
		seedOrder(t, s, id, models.OrderPending, cellA)
	}

	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	stats := b.Snapshot()

	if st := stats[grid.CellID(cellA[0], cellA[1])]; st.Status != models.CellOverloaded {
		t.Errorf("cell A status = %q, want overloaded", st.Status)
	}
	if st := stats[grid.CellID(cellB[0], cellB[1])]; st.Status != models.CellUnderutilized {
		t.Errorf("cell B status = %q, want underutilized", st.Status)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	s := store.NewMemoryStore()
	b := New(s, geo.NewGrid(6), logger.Nop())

	seedDriver(t, s, []string{"d1", "d2"}, cellA)
	seedOrder(t, s, "o1", models.OrderPending, cellA)
	seedOrder(t, s, "o2", models.OrderPending, cellB)

	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := b.Snapshot()
	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	second := b.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recompute is not idempotent: %+v vs %+v", first, second)
	}
}

func TestSelectHotspot(t *testing.T) {
	s := store.NewMemoryStore()
	grid := geo.NewGrid(6)
	b := New(s, grid, logger.Nop())

	// No stats at all: no hotspot.
	if _, ok := b.SelectHotspot(); ok {
		t.Fatal("empty balancer returned a hotspot")
	}

	// Drivers only, no demand anywhere: still no hotspot.
	seedDriver(t, s, []string{"d1"}, cellA)
	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := b.SelectHotspot(); ok {
		t.Fatal("hotspot returned for a cell with zero orders")
	}

	// Cell B has 2 orders and no driver (ratio 2); cell A has 1 order
	// and 1 driver (ratio 1). B must win.
	seedOrder(t, s, "o1", models.OrderPending, cellA)
	seedOrder(t, s, "o2", models.OrderPending, cellB)
	seedOrder(t, s, "o3", models.OrderPending, cellB)
	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}

	cell, ok := b.SelectHotspot()
	if !ok {
		t.Fatal("expected a hotspot")
	}
	if want := grid.CellID(cellB[0], cellB[1]); cell != want {
		t.Fatalf("hotspot = %q, want %q", cell, want)
	}
}

type recordingPublisher struct {
	calls int
	last  map[string]models.CellStats
	err   error
}

func (p *recordingPublisher) PublishStats(_ context.Context, stats map[string]models.CellStats) error {
	p.calls++
	p.last = stats
	return p.err
}

func TestRecomputePublishes(t *testing.T) {
	s := store.NewMemoryStore()
	b := New(s, geo.NewGrid(6), logger.Nop())
	pub := &recordingPublisher{}
	b.SetPublisher(pub)

	seedDriver(t, s, []string{"d1"}, cellA)
	if err := b.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pub.calls != 1 || len(pub.last) != 1 {
		t.Fatalf("publisher calls=%d stats=%d, want 1 and 1", pub.calls, len(pub.last))
	}

	// Publish failures are logged, never propagated.
	pub.err = errors.New("redis down")
	if err := b.Recompute(context.Background()); err != nil {
		t.Fatalf("recompute failed on publish error: %v", err)
	}
}
