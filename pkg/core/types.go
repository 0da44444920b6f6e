// pkg/core/types.go
package core

// Position3D represents an absolute machine coordinate in millimeters.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY represents a 2D point in the drawing plane, in millimeters.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Brush identifies one of the two airbrush heads.
type Brush int

const (
	BrushA Brush = iota
	BrushB
)

// ToolIndex returns the firmware tool number for the brush (T0/T1).
func (b Brush) ToolIndex() int {
	return int(b)
}

// PinIndex returns the firmware pin index used by M42/M280 commands.
// The reference machine wires brush A to pin 0 and brush B to pin 1.
func (b Brush) PinIndex() int {
	return int(b)
}

// String returns the display name of the brush ("A" or "B").
func (b Brush) String() string {
	switch b {
	case BrushA:
		return "A"
	case BrushB:
		return "B"
	default:
		return "?"
	}
}

// ConfigKey returns the configuration/macro key for the brush
// ("brush_a" or "brush_b"), matching the firmware macro naming.
func (b Brush) ConfigKey() string {
	switch b {
	case BrushA:
		return "brush_a"
	case BrushB:
		return "brush_b"
	default:
		return "brush_unknown"
	}
}

// BrushFromTool maps a firmware tool number to a brush.
// Only tools 0 and 1 are meaningful; anything else returns ok=false.
func BrushFromTool(tool int) (Brush, bool) {
	switch tool {
	case 0:
		return BrushA, true
	case 1:
		return BrushB, true
	default:
		return BrushA, false
	}
}

// BrushFromPin maps an M42/M280 pin index to a brush.
func BrushFromPin(pin int) (Brush, bool) {
	return BrushFromTool(pin)
}

// Brushes lists both brushes in tool order.
var Brushes = []Brush{BrushA, BrushB}

// BrushState holds the tracked state of a single brush during a
// compile or parse session. PaintAngle persists across strokes so a
// re-activation without an explicit angle reuses the last one.
type BrushState struct {
	ToolSelected bool `json:"toolSelected"`
	AirOn        bool `json:"airOn"`
	PaintAngle   int  `json:"paintAngle"`
}

// Stroke is one continuous paint path assigned to a single brush.
// A stroke with a single point is a dot (degenerate line).
type Stroke struct {
	Brush      Brush   `json:"brush"`
	Points     []XY    `json:"points"`
	DrawZ      float64 `json:"drawZ"`
	Feed       float64 `json:"feed"`
	PaintAngle int     `json:"paintAngle"` // 0 means reuse the last angle set on this brush
}

// Segment is one reconstructed motion span between two positions.
// Produced only by the parser; immutable once emitted.
type Segment struct {
	Start      Position3D `json:"start"`
	End        Position3D `json:"end"`
	IsDrawing  bool       `json:"isDrawing"`
	Brush      Brush      `json:"brush"`
	LayerIndex int        `json:"layerIndex"`
}
