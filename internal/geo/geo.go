package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/hairbrush/toolpath/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Segment geometry lives in machine coordinates (millimeters). Preview
// consumers get simplefeatures geometries so exported toolpaths carry
// WKT the dashboard can render without re-parsing G-code.

// ErrInvalidCoordinates is returned when a coordinate string cannot be parsed.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Distance returns the 3D Euclidean distance between two positions.
func Distance(a, b core.Position3D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// PathLength returns the total length of a 2D point sequence.
func PathLength(points []core.XY) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		total += math.Hypot(dx, dy)
	}
	return total
}

// PointFromPosition converts a machine position to a simplefeatures point.
func PointFromPosition(pos core.Position3D) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: pos.X, Y: pos.Y},
		Z:    pos.Z,
		Type: geom.DimXYZ,
	})
}

// Position3DFromString parses an "x,y" or "x,y,z" string into a machine position.
func Position3DFromString(coords string) (core.Position3D, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Position3D{}, ErrInvalidCoordinates
	}
	var z float64
	if len(coordsSplit) > 2 {
		z, err = strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return core.Position3D{}, ErrInvalidCoordinates
		}
	}
	return core.Position3D{X: x, Y: y, Z: z}, nil
}

// StrokeLineString builds a 2D line string from a stroke's points.
// Single-point strokes (dots) are returned as a degenerate two-point
// line so downstream geometry code never sees an invalid LineString.
func StrokeLineString(stroke core.Stroke) geom.LineString {
	points := stroke.Points
	if len(points) == 1 {
		points = []core.XY{points[0], points[0]}
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq)
}

// DrawingLineStrings converts a parsed segment list into one line
// string per contiguous drawing run, for preview rendering and export.
func DrawingLineStrings(segments []core.Segment) []geom.LineString {
	var out []geom.LineString
	var flat []float64

	flush := func() {
		if len(flat) >= 4 {
			seq := geom.NewSequence(flat, geom.DimXY)
			out = append(out, geom.NewLineString(seq))
		}
		flat = nil
	}

	for _, seg := range segments {
		if !seg.IsDrawing {
			flush()
			continue
		}
		if len(flat) == 0 {
			flat = append(flat, seg.Start.X, seg.Start.Y)
		}
		flat = append(flat, seg.End.X, seg.End.Y)
	}
	flush()
	return out
}
