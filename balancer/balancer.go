package balancer

import (
	"context"
	"sync"

	"fleet-dispatch-system/geo"
	"fleet-dispatch-system/logger"
	"fleet-dispatch-system/models"
	"fleet-dispatch-system/store"
)

// Thresholds on the density ratio (outstanding orders per driver).
const (
	overloadedRatio    = 3.0
	underutilizedRatio = 0.5
)

// Publisher receives the rebuilt statistics after each recompute.
// Publishing is best-effort; failures are logged, never propagated.
type Publisher interface {
	PublishStats(ctx context.Context, stats map[string]models.CellStats) error
}

// DemandBalancer maintains per-cell supply/demand statistics. The
// stats are a pure function of the store's drivers and undelivered
// orders: every recompute is a full rebuild, so they cannot drift.
type DemandBalancer struct {
	store store.FleetStore
	grid  *geo.Grid
	log   logger.Logger

	mu        sync.RWMutex
	stats     map[string]models.CellStats
	publisher Publisher
}

func New(st store.FleetStore, grid *geo.Grid, log logger.Logger) *DemandBalancer {
	return &DemandBalancer{
		store: st,
		grid:  grid,
		log:   log,
		stats: make(map[string]models.CellStats),
	}
}

// SetPublisher installs an optional stats sink (e.g. the redis
// snapshot cache).
func (b *DemandBalancer) SetPublisher(p Publisher) {
	b.mu.Lock()
	b.publisher = p
	b.mu.Unlock()
}

// Recompute rebuilds the statistics for every cell that holds at
// least one driver or one outstanding-order pickup. It must run after
// every event that moves drivers or changes the order set.
func (b *DemandBalancer) Recompute(ctx context.Context) error {
	drivers, err := b.store.ListDrivers(ctx)
	if err != nil {
		return err
	}
	orders, err := b.store.ListOrders(ctx, 0)
	if err != nil {
		return err
	}

	driverCounts := make(map[string]int)
	for _, d := range drivers {
		cell := d.HexID
		if cell == "" {
			cell = b.grid.CellID(d.Latitude, d.Longitude)
		}
		driverCounts[cell]++
	}
	// Outstanding demand: every order not yet delivered keeps its
	// pickup cell hot. Completion removes it, so the rebuilt count is
	// the decrement-floored-at-zero the event flow describes.
	orderCounts := make(map[string]int)
	for _, o := range orders {
		if o.Status == models.OrderDelivered {
			continue
		}
		cell := b.grid.CellID(o.PickupLatitude, o.PickupLongitude)
		orderCounts[cell]++
	}

	stats := make(map[string]models.CellStats, len(driverCounts)+len(orderCounts))
	for cell := range driverCounts {
		stats[cell] = cellStats(driverCounts[cell], orderCounts[cell])
	}
	for cell := range orderCounts {
		if _, done := stats[cell]; !done {
			stats[cell] = cellStats(driverCounts[cell], orderCounts[cell])
		}
	}

	b.mu.Lock()
	b.stats = stats
	publisher := b.publisher
	b.mu.Unlock()

	if publisher != nil {
		if err := publisher.PublishStats(ctx, stats); err != nil {
			b.log.Warnf("stats publish failed: %v", err)
		}
	}
	return nil
}

func cellStats(driverCount, orderCount int) models.CellStats {
	ratio := float64(orderCount) / float64(max(driverCount, 1))
	status := models.CellBalanced
	if ratio > overloadedRatio {
		status = models.CellOverloaded
	} else if ratio < underutilizedRatio {
		status = models.CellUnderutilized
	}
	return models.CellStats{
		DriverCount:  driverCount,
		OrderCount:   orderCount,
		DensityRatio: ratio,
		Status:       status,
	}
}

// Snapshot returns a copy of the current statistics.
func (b *DemandBalancer) Snapshot() map[string]models.CellStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]models.CellStats, len(b.stats))
	for cell, st := range b.stats {
		out[cell] = st
	}
	return out
}

// SelectHotspot returns the cell with the highest density ratio among
// cells with outstanding demand. The second return is false when no
// cell has pending orders. Ties go to whichever qualifying cell the
// map iteration visits first.
func (b *DemandBalancer) SelectHotspot() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hotspot := ""
	maxDensity := 0.0
	for cell, st := range b.stats {
		if st.OrderCount > 0 && st.DensityRatio > maxDensity {
			maxDensity = st.DensityRatio
			hotspot = cell
		}
	}
	return hotspot, hotspot != ""
}
