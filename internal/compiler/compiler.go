// Package compiler turns ordered drawing strokes into a
// safety-constrained instruction sequence. Each compile session owns
// its own brush tracker and output list; nothing is shared, so
// concurrent compiles need no coordination.
package compiler

import (
	"fmt"

	"github.com/hairbrush/toolpath/internal/brush"
	"github.com/hairbrush/toolpath/internal/gcode"
	"github.com/hairbrush/toolpath/pkg/core"
)

// Compile produces the full instruction sequence for the given strokes.
// It fails fast: any invalid stroke or paint angle aborts the whole
// compile with no partial output, so a broken program can never be
// streamed to hardware.
func Compile(strokes []core.Stroke, cfg core.MachineConfig) ([]core.Instruction, error) {
	for i, stroke := range strokes {
		if len(stroke.Points) == 0 {
			return nil, fmt.Errorf("stroke %d: %w", i, core.ErrEmptyStroke)
		}
	}

	tracker := brush.NewTracker(cfg)
	var out []core.Instruction

	out = append(out,
		core.Comment{Text: "H.Airbrush toolpath"},
		core.Comment{Text: fmt.Sprintf("Strokes: %d", len(strokes))},
	)
	if !cfg.SkipHoming {
		out = append(out, core.Home{})
	}

	for i, stroke := range strokes {
		instructions, err := compileStroke(tracker, stroke, cfg, i == 0)
		if err != nil {
			return nil, fmt.Errorf("stroke %d: %w", i, err)
		}
		out = append(out, instructions...)
	}

	out = append(out, core.Comment{Text: "End of toolpath"})
	if !cfg.SkipHoming {
		out = append(out, core.Home{})
	}
	return out, nil
}

// compileStroke emits one stroke. Tool selection only ever happens
// here, before the travel move; it can never appear inside the point
// loop.
func compileStroke(tracker *brush.Tracker, stroke core.Stroke, cfg core.MachineConfig, first bool) ([]core.Instruction, error) {
	var out []core.Instruction

	current, known := tracker.CurrentTool()
	if first || !known || current != stroke.Brush {
		// Raise to safe height and let motion settle before the
		// firmware applies the tool offset.
		out = append(out,
			core.Move{Z: core.Float(cfg.SafeTravelZ), Feed: core.Float(cfg.TravelFeed), Rapid: true},
			core.WaitForMotion{},
		)
		out = append(out, tracker.SelectTool(stroke.Brush)...)
		out = append(out, core.Comment{
			Text: fmt.Sprintf("Using brush: %s (tool %d)", stroke.Brush, stroke.Brush.ToolIndex()),
		})

		// Defensive flush of the incoming brush's air channel; a prior
		// session may have left it energized.
		reset, err := tracker.SetAir(stroke.Brush, false, brush.AngleUnset)
		if err != nil {
			return nil, err
		}
		out = append(out, reset...)
	}

	// Travel to the stroke start at safe height, then lower in.
	start := stroke.Points[0]
	out = append(out, core.Move{
		X:     core.Float(start.X),
		Y:     core.Float(start.Y),
		Feed:  core.Float(cfg.TravelFeed),
		Rapid: true,
	})

	feed := stroke.Feed
	if feed <= 0 {
		feed = cfg.DrawFeed
	}
	out = append(out, core.Move{Z: core.Float(stroke.DrawZ), Feed: core.Float(feed)})

	angle := stroke.PaintAngle
	if angle <= 0 {
		angle = brush.AngleUnset
	}
	airOn, err := tracker.SetAir(stroke.Brush, true, angle)
	if err != nil {
		return nil, err
	}
	out = append(out, airOn...)
	if cfg.AirStabilizeMs > 0 {
		out = append(out, core.Dwell{Millis: cfg.AirStabilizeMs})
	}

	for _, p := range stroke.Points[1:] {
		out = append(out, core.Move{
			X:    core.Float(p.X),
			Y:    core.Float(p.Y),
			Feed: core.Float(feed),
		})
	}

	airOff, err := tracker.SetAir(stroke.Brush, false, brush.AngleUnset)
	if err != nil {
		return nil, err
	}
	out = append(out, airOff...)

	out = append(out, core.Move{
		Z:     core.Float(cfg.SafeTravelZ),
		Feed:  core.Float(cfg.TravelFeed),
		Rapid: true,
	})
	return out, nil
}

// CompileText compiles strokes and serializes them to wire text in one
// step, which is what the transport and archive layers consume.
func CompileText(strokes []core.Stroke, cfg core.MachineConfig) (string, error) {
	instructions, err := Compile(strokes, cfg)
	if err != nil {
		return "", err
	}
	return gcode.New(cfg).Program(instructions), nil
}
