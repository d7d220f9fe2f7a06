package models

import "time"

// Driver statuses.
const (
	DriverAvailable       = "available"
	DriverBusy            = "busy"
	DriverMovingToHotspot = "moving_to_hotspot"
)

type Driver struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	HexID     string    `json:"hex_id"`
	Status    string    `json:"status"` // "available", "busy", "moving_to_hotspot"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
