package geo

import (
	"math"
	"sync"

	"fleet-dispatch-system/models"
)

// qtPoint is a driver location in quadtree coordinate space
// (X = latitude, Y = longitude).
type qtPoint struct {
	X, Y   float64
	Driver *models.Driver
}

// Bounds represents the boundaries of a region.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// QuadtreeNode represents a node in the quadtree.
type QuadtreeNode struct {
	Bounds   Bounds
	Points   []qtPoint
	Children [4]*QuadtreeNode
}

// Quadtree indexes driver locations for radius queries.
type Quadtree struct {
	root *QuadtreeNode
	mu   sync.Mutex
}

// NewQuadtree initializes a quadtree covering the given bounds.
func NewQuadtree(bounds Bounds) *Quadtree {
	return &Quadtree{root: &QuadtreeNode{Bounds: bounds}}
}

// Rebuild replaces the tree contents with the given drivers. Drivers
// outside the tree bounds are silently skipped.
func (qt *Quadtree) Rebuild(drivers []*models.Driver) {
	qt.mu.Lock()
	defer qt.mu.Unlock()
	qt.root = &QuadtreeNode{Bounds: qt.root.Bounds}
	for _, d := range drivers {
		qt.root.insert(qtPoint{X: d.Latitude, Y: d.Longitude, Driver: d})
	}
}

func (node *QuadtreeNode) insert(point qtPoint) {
	if !node.contains(point) {
		return
	}
	if len(node.Points) < 4 && node.Children[0] == nil {
		node.Points = append(node.Points, point)
		return
	}
	if node.Children[0] == nil {
		node.subdivide()
	}
	for i := 0; i < 4; i++ {
		node.Children[i].insert(point)
	}
}

func (node *QuadtreeNode) contains(point qtPoint) bool {
	return point.X >= node.Bounds.MinX && point.X <= node.Bounds.MaxX &&
		point.Y >= node.Bounds.MinY && point.Y <= node.Bounds.MaxY
}

func (node *QuadtreeNode) subdivide() {
	midX := (node.Bounds.MinX + node.Bounds.MaxX) / 2
	midY := (node.Bounds.MinY + node.Bounds.MaxY) / 2
	node.Children[0] = &QuadtreeNode{Bounds: Bounds{node.Bounds.MinX, node.Bounds.MinY, midX, midY}}
	node.Children[1] = &QuadtreeNode{Bounds: Bounds{midX, node.Bounds.MinY, node.Bounds.MaxX, midY}}
	node.Children[2] = &QuadtreeNode{Bounds: Bounds{node.Bounds.MinX, midY, midX, node.Bounds.MaxY}}
	node.Children[3] = &QuadtreeNode{Bounds: Bounds{midX, midY, node.Bounds.MaxX, node.Bounds.MaxY}}
}

// SearchNearby returns the drivers within radiusDeg of the center.
func (qt *Quadtree) SearchNearby(lat, lon, radiusDeg float64) []*models.Driver {
	qt.mu.Lock()
	defer qt.mu.Unlock()
	points := qt.root.searchNearby(qtPoint{X: lat, Y: lon}, radiusDeg)
	drivers := make([]*models.Driver, 0, len(points))
	for _, p := range points {
		drivers = append(drivers, p.Driver)
	}
	return drivers
}

func (node *QuadtreeNode) searchNearby(center qtPoint, radius float64) []qtPoint {
	if !node.intersectsCircle(center, radius) {
		return nil
	}
	var result []qtPoint
	for _, point := range node.Points {
		if euclidean(point, center) <= radius {
			result = append(result, point)
		}
	}
	if node.Children[0] != nil {
		for i := 0; i < 4; i++ {
			result = append(result, node.Children[i].searchNearby(center, radius)...)
		}
	}
	return result
}

func (node *QuadtreeNode) intersectsCircle(center qtPoint, radius float64) bool {
	closestX := math.Max(node.Bounds.MinX, math.Min(center.X, node.Bounds.MaxX))
	closestY := math.Max(node.Bounds.MinY, math.Min(center.Y, node.Bounds.MaxY))
	dx := closestX - center.X
	dy := closestY - center.Y
	return (dx*dx + dy*dy) <= (radius * radius)
}

func euclidean(a, b qtPoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
