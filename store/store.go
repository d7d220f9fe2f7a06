package store

import (
	"context"
	"errors"

	"fleet-dispatch-system/models"
)

var (
	// ErrNotFound is returned when a referenced driver or order does
	// not exist. No mutation has happened when it is returned.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when a create collides with an
	// existing record.
	ErrDuplicateID = errors.New("duplicate id")
)

// FleetStore is the authoritative driver and order registry. Every
// method is safe for concurrent use; AssignOrder applies its two
// record updates as one atomic unit.
type FleetStore interface {
	// ResetDrivers drops the entire fleet and installs the given one.
	ResetDrivers(ctx context.Context, drivers []*models.Driver) error
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
	ListDrivers(ctx context.Context) ([]*models.Driver, error)
	// ListDriversByStatus returns drivers in store iteration order;
	// callers must not rely on any particular ordering.
	ListDriversByStatus(ctx context.Context, status string) ([]*models.Driver, error)
	UpdateDriver(ctx context.Context, d *models.Driver) error

	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	// ListOrders returns the newest orders first, at most limit of
	// them (limit <= 0 means no cap).
	ListOrders(ctx context.Context, limit int) ([]*models.Order, error)
	// ListOrdersByStatus returns matching orders oldest first.
	ListOrdersByStatus(ctx context.Context, status string) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	// AssignOrder persists the order and driver mutations of an
	// assignment together: either both land or neither does.
	AssignOrder(ctx context.Context, o *models.Order, d *models.Driver) error

	Close() error
}
