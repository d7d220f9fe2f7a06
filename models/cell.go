package models

// Cell statuses derived from the density ratio.
const (
	CellBalanced      = "balanced"
	CellOverloaded    = "overloaded"
	CellUnderutilized = "underutilized"
)

// CellStats aggregates supply and demand for one hexagon cell.
// It is fully derived state: always rebuilt from the driver and
// pending-order sets, never patched in place.
type CellStats struct {
	DriverCount  int     `json:"driver_count"`
	OrderCount   int     `json:"order_count"`
	DensityRatio float64 `json:"density_ratio"`
	Status       string  `json:"status"` // "balanced", "overloaded", "underutilized"
}
