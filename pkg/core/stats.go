// pkg/core/stats.go
package core

import "time"

// Bounds is an axis-aligned bounding box over positions a toolpath
// explicitly commanded. Axes that were never commanded stay empty.
type Bounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

// Width returns the X extent of the bounds.
func (b Bounds) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the Y extent of the bounds.
func (b Bounds) Height() float64 {
	return b.MaxY - b.MinY
}

// ContainsXY reports whether the point lies inside the XY bounds.
func (b Bounds) ContainsXY(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// ToolpathStats summarizes a parsed toolpath. It is recomputed in full
// on every parse.
type ToolpathStats struct {
	Bounds         Bounds  `json:"bounds"`
	TotalDistance  float64 `json:"totalDistance"`
	DrawDistance   float64 `json:"drawDistance"`
	TravelDistance float64 `json:"travelDistance"`
	LayerCount     int     `json:"layerCount"`
	MoveCount      int     `json:"moveCount"`
	BrushCommands  int     `json:"brushCommands"`

	// EstimatedDuration is a rough wall-clock estimate assuming an
	// average feed of 1000 mm/min.
	EstimatedDuration time.Duration `json:"estimatedDuration"`
}

// SessionStat captures one compile or analyze run for performance
// tracking.
type SessionStat struct {
	Time         time.Time     `json:"time"`
	Operation    string        `json:"operation"`
	ToolpathName string        `json:"toolpathName"`
	LineCount    int           `json:"lineCount"`
	SegmentCount int           `json:"segmentCount"`
	Duration     time.Duration `json:"duration"`
	Stats        ToolpathStats `json:"stats"`
}

// Toolpath is an archived toolpath program: its wire text plus the
// statistics reconstructed from it.
type Toolpath struct {
	ID        uint          `json:"id"`
	Name      string        `json:"name"`
	Source    string        `json:"source"`
	Stats     ToolpathStats `json:"stats"`
	Segments  int           `json:"segments"`
	CreatedAt time.Time     `json:"createdAt"`
}
