package models

import "time"

// Order statuses.
const (
	OrderPending   = "pending"
	OrderAssigned  = "assigned"
	OrderDelivered = "delivered"
)

type Order struct {
	ID               string    `json:"id"`
	DriverID         *string   `json:"driver_id"`
	PickupLatitude   float64   `json:"pickup_latitude"`
	PickupLongitude  float64   `json:"pickup_longitude"`
	DestLatitude     float64   `json:"destination_latitude"`
	DestLongitude    float64   `json:"destination_longitude"`
	PickupDistance   *float64  `json:"pickup_distance"`
	DeliveryDistance float64   `json:"delivery_distance"`
	TotalDistance    float64   `json:"total_distance"`
	AverageSpeed     float64   `json:"average_speed"`
	ETAMinutes       int       `json:"eta_minutes"`
	Status           string    `json:"status"` // "pending", "assigned", "delivered"
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Assigned reports whether the order is bound to a driver.
func (o *Order) Assigned() bool {
	return o.DriverID != nil
}
