package store

import (
	"context"
	"sort"
	"sync"

	"fleet-dispatch-system/models"
)

// MemoryStore keeps the fleet in process memory. It is the default
// backend for simulation runs and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	drivers map[string]*models.Driver
	orders  map[string]*models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers: make(map[string]*models.Driver),
		orders:  make(map[string]*models.Order),
	}
}

func copyDriver(d *models.Driver) *models.Driver {
	cp := *d
	return &cp
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	if o.DriverID != nil {
		id := *o.DriverID
		cp.DriverID = &id
	}
	if o.PickupDistance != nil {
		v := *o.PickupDistance
		cp.PickupDistance = &v
	}
	return &cp
}

func (s *MemoryStore) ResetDrivers(_ context.Context, drivers []*models.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = make(map[string]*models.Driver, len(drivers))
	for _, d := range drivers {
		s.drivers[d.ID] = copyDriver(d)
	}
	return nil
}

func (s *MemoryStore) GetDriver(_ context.Context, id string) (*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDriver(d), nil
}

func (s *MemoryStore) ListDrivers(_ context.Context) ([]*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, copyDriver(d))
	}
	return out, nil
}

func (s *MemoryStore) ListDriversByStatus(_ context.Context, status string) ([]*models.Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Driver
	for _, d := range s.drivers {
		if d.Status == status {
			out = append(out, copyDriver(d))
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateDriver(_ context.Context, d *models.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[d.ID]; !ok {
		return ErrNotFound
	}
	s.drivers[d.ID] = copyDriver(d)
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return ErrDuplicateID
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *MemoryStore) ListOrders(_ context.Context, limit int) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListOrdersByStatus(_ context.Context, status string) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Order
	for _, o := range s.orders {
		if o.Status == status {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return ErrNotFound
	}
	s.orders[o.ID] = copyOrder(o)
	return nil
}

func (s *MemoryStore) AssignOrder(_ context.Context, o *models.Order, d *models.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drivers[d.ID]; !ok {
		return ErrNotFound
	}
	// Upsert: the order may be assigned straight at creation or be an
	// existing pending one.
	s.orders[o.ID] = copyOrder(o)
	s.drivers[d.ID] = copyDriver(d)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
