package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fleet-dispatch-system/models"
)

func driverFixture(id string) *models.Driver {
	now := time.Now().UTC()
	return &models.Driver{
		ID:        id,
		Name:      "Driver " + id,
		Latitude:  18.525,
		Longitude: 73.847,
		HexID:     "tes0p5",
		Status:    models.DriverAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func orderFixture(id string, createdAt time.Time) *models.Order {
	return &models.Order{
		ID:               id,
		PickupLatitude:   18.525,
		PickupLongitude:  73.847,
		DestLatitude:     18.530,
		DestLongitude:    73.850,
		DeliveryDistance: 650,
		TotalDistance:    650,
		AverageSpeed:     25,
		ETAMinutes:       1,
		Status:           models.OrderPending,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestMemoryStoreDrivers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.ResetDrivers(ctx, []*models.Driver{driverFixture("d1"), driverFixture("d2")}))

	d, err := s.GetDriver(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "Driver d1", d.Name)

	_, err = s.GetDriver(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	d.Status = models.DriverBusy
	require.NoError(t, s.UpdateDriver(ctx, d))
	busy, err := s.ListDriversByStatus(ctx, models.DriverBusy)
	require.NoError(t, err)
	require.Len(t, busy, 1)
	require.Equal(t, "d1", busy[0].ID)

	// Reset replaces the whole fleet.
	require.NoError(t, s.ResetDrivers(ctx, []*models.Driver{driverFixture("d3")}))
	all, err := s.ListDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "d3", all[0].ID)
}

func TestMemoryStoreUpdateMissingDriver(t *testing.T) {
	s := NewMemoryStore()
	err := s.UpdateDriver(context.Background(), driverFixture("nope"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now().UTC()

	require.NoError(t, s.CreateOrder(ctx, orderFixture("o2", base.Add(time.Second))))
	require.NoError(t, s.CreateOrder(ctx, orderFixture("o1", base)))
	require.NoError(t, s.CreateOrder(ctx, orderFixture("o3", base.Add(2*time.Second))))

	require.ErrorIs(t, s.CreateOrder(ctx, orderFixture("o1", base)), ErrDuplicateID)

	// Pending listing is oldest first.
	pending, err := s.ListOrdersByStatus(ctx, models.OrderPending)
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o2", "o3"}, []string{pending[0].ID, pending[1].ID, pending[2].ID})

	// General listing is newest first, capped by limit.
	recent, err := s.ListOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "o3", recent[0].ID)

	o := pending[0]
	o.Status = models.OrderDelivered
	require.NoError(t, s.UpdateOrder(ctx, o))
	left, err := s.ListOrdersByStatus(ctx, models.OrderPending)
	require.NoError(t, err)
	require.Len(t, left, 2)
}

func TestMemoryStoreAssignOrderAtomicPair(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.ResetDrivers(ctx, []*models.Driver{driverFixture("d1")}))

	o := orderFixture("o1", time.Now().UTC())
	dist := 1200.0
	d := driverFixture("d1")
	d.Status = models.DriverBusy
	o.DriverID = &d.ID
	o.PickupDistance = &dist
	o.Status = models.OrderAssigned

	require.NoError(t, s.AssignOrder(ctx, o, d))

	gotOrder, err := s.GetOrder(ctx, "o1")
	require.NoError(t, err)
	gotDriver, err := s.GetDriver(ctx, "d1")
	require.NoError(t, err)

	require.Equal(t, models.OrderAssigned, gotOrder.Status)
	require.NotNil(t, gotOrder.DriverID)
	require.Equal(t, "d1", *gotOrder.DriverID)
	require.NotNil(t, gotOrder.PickupDistance)
	require.Equal(t, models.DriverBusy, gotDriver.Status)
}

func TestMemoryStoreAssignOrderUnknownDriver(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	o := orderFixture("o1", time.Now().UTC())
	err := s.AssignOrder(ctx, o, driverFixture("ghost"))
	require.ErrorIs(t, err, ErrNotFound)

	// Neither half of the pair may land.
	_, err = s.GetOrder(ctx, "o1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.ResetDrivers(ctx, []*models.Driver{driverFixture("d1")}))

	d, err := s.GetDriver(ctx, "d1")
	require.NoError(t, err)
	d.Status = models.DriverBusy // mutate the returned copy only

	fresh, err := s.GetDriver(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, models.DriverAvailable, fresh.Status)
}
