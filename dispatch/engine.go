package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"fleet-dispatch-system/balancer"
	"fleet-dispatch-system/geo"
	"fleet-dispatch-system/logger"
	"fleet-dispatch-system/models"
	"fleet-dispatch-system/store"
)

// averageSpeedKmh is the assumed city traffic speed used for ETAs.
const averageSpeedKmh = 25.0

var (
	// ErrNoCapacity means no driver was available at assignment time.
	// The order is still persisted as pending; dispatch is deferred,
	// not failed.
	ErrNoCapacity = errors.New("no available drivers")
	// ErrInvalidInput rejects malformed coordinates or counts before
	// any store access.
	ErrInvalidInput = errors.New("invalid input")
)

// Engine runs nearest-match assignment and the post-delivery
// reassignment cycle. All fleet mutations are serialized by one
// mutex, which closes the scan-then-mark-busy race: at most one
// in-flight assignment can pick any given driver.
type Engine struct {
	store    store.FleetStore
	balancer *balancer.DemandBalancer
	grid     *geo.Grid
	log      logger.Logger

	mu sync.Mutex
}

func NewEngine(st store.FleetStore, bal *balancer.DemandBalancer, grid *geo.Grid, log logger.Logger) *Engine {
	return &Engine{store: st, balancer: bal, grid: grid, log: log}
}

func validCoord(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func etaMinutes(totalDistanceM float64) int {
	speedMS := averageSpeedKmh * 1000 / 3600
	return int(totalDistanceM / speedMS / 60)
}

// NewOrder builds an unassigned order for the given trip. The id
// encodes the creation time so pending orders sort by age.
func NewOrder(prefix string, pickupLat, pickupLon, destLat, destLon float64) (*models.Order, error) {
	if !validCoord(pickupLat, pickupLon) || !validCoord(destLat, destLon) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	now := time.Now().UTC()
	deliveryDist := geo.Haversine(pickupLat, pickupLon, destLat, destLon)
	return &models.Order{
		ID:               newOrderID(prefix),
		PickupLatitude:   pickupLat,
		PickupLongitude:  pickupLon,
		DestLatitude:     destLat,
		DestLongitude:    destLon,
		DeliveryDistance: deliveryDist,
		TotalDistance:    deliveryDist,
		AverageSpeed:     averageSpeedKmh,
		ETAMinutes:       etaMinutes(deliveryDist),
		Status:           models.OrderPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Assign persists the order, bound to the nearest available driver if
// one exists. With no capacity the order lands as pending and
// ErrNoCapacity is returned alongside it.
func (e *Engine) Assign(ctx context.Context, o *models.Order) (*models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assignLocked(ctx, o)
}

func (e *Engine) assignLocked(ctx context.Context, o *models.Order) (*models.Order, error) {
	available, err := e.store.ListDriversByStatus(ctx, models.DriverAvailable)
	if err != nil {
		return nil, err
	}

	driver, pickupDist := nearestDriver(available, o.PickupLatitude, o.PickupLongitude)
	if driver == nil {
		if err := e.store.CreateOrder(ctx, o); err != nil {
			return nil, err
		}
		e.recompute(ctx)
		e.log.Infof("order %s pending, no drivers available", o.ID)
		return o, ErrNoCapacity
	}

	e.bindOrder(o, driver, pickupDist)
	if err := e.store.AssignOrder(ctx, o, driver); err != nil {
		return nil, err
	}
	e.recompute(ctx)
	e.log.Infof("order %s assigned to driver %s (%.0fm pickup)", o.ID, driver.ID, pickupDist)
	return o, nil
}

// bindOrder applies the assignment mutation pair to the in-memory
// records; the store write makes it durable atomically.
func (e *Engine) bindOrder(o *models.Order, d *models.Driver, pickupDist float64) {
	now := time.Now().UTC()
	o.DriverID = &d.ID
	o.PickupDistance = &pickupDist
	o.TotalDistance = pickupDist + o.DeliveryDistance
	o.ETAMinutes = etaMinutes(o.TotalDistance)
	o.Status = models.OrderAssigned
	o.UpdatedAt = now

	d.Status = models.DriverBusy
	d.UpdatedAt = now
}

// nearestDriver picks the driver with the strictly smallest haversine
// distance to the point. Ties fall to whichever driver the store
// listed first, which is not deterministic.
func nearestDriver(drivers []*models.Driver, lat, lon float64) (*models.Driver, float64) {
	var nearest *models.Driver
	minDist := math.Inf(1)
	for _, d := range drivers {
		dist := geo.Haversine(d.Latitude, d.Longitude, lat, lon)
		if dist < minDist {
			minDist = dist
			nearest = d
		}
	}
	return nearest, minDist
}

// CompleteAndReassign marks the order delivered, frees the driver at
// the order's destination, and immediately reuses the driver: oldest
// pending orders are scanned and the nearest pickup wins; with no
// pending orders the driver is redirected toward the current hotspot.
func (e *Engine) CompleteAndReassign(ctx context.Context, orderID, driverID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	driver, err := e.store.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	order.Status = models.OrderDelivered
	order.UpdatedAt = now
	if err := e.store.UpdateOrder(ctx, order); err != nil {
		return err
	}

	// The driver has arrived at the destination.
	driver.Status = models.DriverAvailable
	driver.Latitude = order.DestLatitude
	driver.Longitude = order.DestLongitude
	driver.HexID = e.grid.CellID(driver.Latitude, driver.Longitude)
	driver.UpdatedAt = now
	if err := e.store.UpdateDriver(ctx, driver); err != nil {
		return err
	}

	e.recompute(ctx)
	return e.reassignLocked(ctx, driver)
}

func (e *Engine) reassignLocked(ctx context.Context, driver *models.Driver) error {
	pending, err := e.store.ListOrdersByStatus(ctx, models.OrderPending)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		e.redirectToHotspot(ctx, driver)
		return nil
	}

	// Oldest orders first for fairness; among them, the cheapest
	// pickup for this driver wins.
	var next *models.Order
	minDist := math.Inf(1)
	for _, o := range pending {
		dist := geo.Haversine(driver.Latitude, driver.Longitude, o.PickupLatitude, o.PickupLongitude)
		if dist < minDist {
			minDist = dist
			next = o
		}
	}

	e.bindOrder(next, driver, minDist)
	if err := e.store.AssignOrder(ctx, next, driver); err != nil {
		return err
	}
	e.recompute(ctx)
	e.log.Infof("driver %s reassigned to pending order %s", driver.ID, next.ID)
	return nil
}

// redirectToHotspot points an idle driver at the highest-demand cell.
// The status marker is the whole effect: in-transit position is not
// simulated. With no hotspot the driver simply stays available.
func (e *Engine) redirectToHotspot(ctx context.Context, driver *models.Driver) {
	cell, ok := e.balancer.SelectHotspot()
	if !ok {
		e.log.Debugf("driver %s idle, no hotspot", driver.ID)
		return
	}

	driver.Status = models.DriverMovingToHotspot
	driver.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateDriver(ctx, driver); err != nil {
		e.log.Warnf("hotspot redirect for driver %s failed: %v", driver.ID, err)
		return
	}
	lat, lon := e.grid.CellCenter(cell)
	e.log.Infof("driver %s moving to hotspot %s (%.5f, %.5f)", driver.ID, cell, lat, lon)
}

// DeployFleet resets the store and scatters count drivers uniformly
// within radiusM meters of the center.
func (e *Engine) DeployFleet(ctx context.Context, centerLat, centerLon float64, count int, radiusM float64) ([]*models.Driver, error) {
	if !validCoord(centerLat, centerLon) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if count < 0 || radiusM <= 0 {
		return nil, fmt.Errorf("%w: count and radius must be positive", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now().UTC()
	drivers := make([]*models.Driver, 0, count)
	for i := 0; i < count; i++ {
		lat, lon := geo.OffsetPoint(centerLat, centerLon, radiusM, rand.Float64)
		drivers = append(drivers, &models.Driver{
			ID:        fmt.Sprintf("drv_%d", i+1),
			Name:      fmt.Sprintf("Driver %d", i+1),
			Latitude:  lat,
			Longitude: lon,
			HexID:     e.grid.CellID(lat, lon),
			Status:    models.DriverAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := e.store.ResetDrivers(ctx, drivers); err != nil {
		return nil, err
	}
	e.recompute(ctx)
	e.log.Infof("deployed %d drivers around (%.5f, %.5f)", count, centerLat, centerLon)
	return drivers, nil
}

// recompute refreshes the derived statistics. Stats are not the
// source of truth, so a failure here is a warning, not an abort of
// the primary operation.
func (e *Engine) recompute(ctx context.Context) {
	if err := e.balancer.Recompute(ctx); err != nil {
		e.log.Warnf("stats recompute failed: %v", err)
	}
}
