package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hairbrush/toolpath/internal/geo"
	"github.com/hairbrush/toolpath/pkg/core"
)

// usingBrushRe matches the generator's tool-change comment,
// "Using brush: A (tool 0)", which lets the parser resynchronize the
// active brush when pin-based commands are absent.
var usingBrushRe = regexp.MustCompile(`(?i)using brush:.*\(tool\s+(\d+)\)`)

// axisBounds accumulates a per-axis min/max over explicitly commanded
// values. Axes never commanded stay out of the reported bounds, so a
// program that only ever raises Z does not drag the XY box to origin.
type axisBounds struct {
	min, max float64
	seen     bool
}

func (a *axisBounds) update(v float64) {
	if !a.seen {
		a.min, a.max = v, v
		a.seen = true
		return
	}
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

// Session reconstructs segments and statistics from wire lines fed one
// at a time. Each session is independent; interpretation of a line
// depends on all lines before it, so a session must be fed
// sequentially, but concurrent sessions over different inputs need no
// coordination.
type Session struct {
	pos      core.Position3D
	prevZ    float64
	hasPrevZ bool

	activeBrush core.Brush
	layer       int

	segments []core.Segment

	boundsX axisBounds
	boundsY axisBounds
	boundsZ axisBounds

	totalDistance  float64
	drawDistance   float64
	travelDistance float64
	moveCount      int
	brushCommands  int
}

// NewSession creates a parse session with the position at machine
// origin and brush A implicitly active.
func NewSession() *Session {
	return &Session{}
}

// ProcessLine consumes one raw wire line. Malformed and unrecognized
// lines are no-ops: a single bad line in a large file must not block
// preview or statistics.
func (s *Session) ProcessLine(raw string) {
	line := Tokenize(raw)

	switch line.Kind {
	case KindMotion:
		s.processMotion(line)

	case KindToolSelect:
		if b, ok := core.BrushFromTool(line.Tool); ok {
			s.activeBrush = b
		}

	case KindAir, KindPaint:
		s.brushCommands++
		if b, ok := core.BrushFromPin(line.Pin); ok {
			s.activeBrush = b
		}

	case KindComment:
		s.processComment(line.Comment)

	case KindMacro:
		s.processMacro(line.MacroName)
	}
}

// processComment scans comment text for the two brush marker forms.
// The most recently seen marker of either form wins.
func (s *Session) processComment(text string) {
	if text == "" {
		return
	}
	if m := usingBrushRe.FindStringSubmatch(text); m != nil {
		if tool, err := strconv.Atoi(m[1]); err == nil {
			if b, ok := core.BrushFromTool(tool); ok {
				s.activeBrush = b
			}
		}
		return
	}
	if strings.Contains(text, "Brush: A") {
		s.activeBrush = core.BrushA
	} else if strings.Contains(text, "Brush: B") {
		s.activeBrush = core.BrushB
	}
}

// processMacro attributes generated macro names back to a brush. Macro
// side effects stay invisible to the reconstruction, but the generator
// names macros deterministically per brush, so the prefix is a reliable
// resync point.
func (s *Session) processMacro(name string) {
	for _, b := range core.Brushes {
		if strings.HasPrefix(name, b.ConfigKey()+"_") {
			s.activeBrush = b
			return
		}
	}
}

func (s *Session) processMotion(line Line) {
	next := s.pos
	if line.X != nil {
		next.X = *line.X
		s.boundsX.update(next.X)
	}
	if line.Y != nil {
		next.Y = *line.Y
		s.boundsY.update(next.Y)
	}
	if line.Z != nil {
		next.Z = *line.Z
		s.boundsZ.update(next.Z)
	}

	// A G1 that only changes Z is a plunge or lift, positioning rather
	// than paint, so it is classified as travel for preview purposes.
	isDrawing := !line.Rapid
	if isDrawing && next.X == s.pos.X && next.Y == s.pos.Y && next.Z != s.pos.Z {
		isDrawing = false
	}

	dist := geo.Distance(s.pos, next)
	s.totalDistance += dist
	if isDrawing {
		s.drawDistance += dist
	} else {
		s.travelDistance += dist
	}

	if s.hasPrevZ && next.Z != s.prevZ {
		s.layer++
	}
	s.prevZ = next.Z
	s.hasPrevZ = true

	s.segments = append(s.segments, core.Segment{
		Start:      s.pos,
		End:        next,
		IsDrawing:  isDrawing,
		Brush:      s.activeBrush,
		LayerIndex: s.layer,
	})

	s.moveCount++
	s.pos = next
}

// ActiveBrush returns the brush the session currently attributes
// motion to.
func (s *Session) ActiveBrush() core.Brush {
	return s.activeBrush
}

// Segments returns the segments reconstructed so far.
func (s *Session) Segments() []core.Segment {
	return s.segments
}

// Stats returns the accumulated statistics so far. It may be called
// mid-parse; chunked callers use it for progressive preview.
func (s *Session) Stats() core.ToolpathStats {
	stats := core.ToolpathStats{
		Bounds: core.Bounds{
			MinX: s.boundsX.min, MaxX: s.boundsX.max,
			MinY: s.boundsY.min, MaxY: s.boundsY.max,
			MinZ: s.boundsZ.min, MaxZ: s.boundsZ.max,
		},
		TotalDistance:  s.totalDistance,
		DrawDistance:   s.drawDistance,
		TravelDistance: s.travelDistance,
		MoveCount:      s.moveCount,
		BrushCommands:  s.brushCommands,
	}
	if len(s.segments) > 0 {
		stats.LayerCount = s.layer + 1
	}
	// Rough wall-clock estimate at an average feed of 1000 mm/min.
	stats.EstimatedDuration = time.Duration(s.totalDistance / 1000 * 60 * float64(time.Second))
	return stats
}
