// Package brush owns per-brush tool/air/paint state during a compile
// session. All state transitions flow through the Tracker so the
// off-before-on air rule is guaranteed structurally instead of by
// convention at call sites.
package brush

import (
	"fmt"

	"github.com/hairbrush/toolpath/pkg/core"
)

// AngleUnset asks SetAir to reuse the last paint angle set on the brush.
const AngleUnset = -1

// Tracker tracks both brushes for one session. Zero value is not
// usable; create with NewTracker.
type Tracker struct {
	angleRange core.AngleRange

	currentTool core.Brush
	toolKnown   bool

	states [2]core.BrushState
}

// NewTracker creates a tracker with both brushes deselected, air off,
// and paint angle at the configured minimum.
func NewTracker(cfg core.MachineConfig) *Tracker {
	t := &Tracker{angleRange: cfg.PaintAngleRange}
	for i := range t.states {
		t.states[i] = core.BrushState{PaintAngle: cfg.PaintAngleRange.Min}
	}
	return t
}

// State returns a copy of the tracked state for a brush.
func (t *Tracker) State(b core.Brush) core.BrushState {
	return t.states[b]
}

// CurrentTool returns the selected brush, if any tool has been selected
// this session.
func (t *Tracker) CurrentTool() (core.Brush, bool) {
	return t.currentTool, t.toolKnown
}

// SelectTool returns the instructions needed to make b the active tool.
// Reselecting the current tool returns nothing: the firmware treats
// extraneous tool commands as unsafe because they can trigger
// unintended offset motion.
func (t *Tracker) SelectTool(b core.Brush) []core.Instruction {
	if t.toolKnown && t.currentTool == b {
		return nil
	}
	if t.toolKnown {
		t.states[t.currentTool].ToolSelected = false
	}
	t.currentTool = b
	t.toolKnown = true
	t.states[b].ToolSelected = true
	return []core.Instruction{core.SelectTool{Brush: b}}
}

// validateAngle rejects angles outside the session's servo range.
// Rejected, never clamped: silently painting at a different flow than
// requested is worse than failing the compile.
func (t *Tracker) validateAngle(angle int) error {
	if angle < t.angleRange.Min || angle > t.angleRange.Max {
		return fmt.Errorf("%w: %d not in [%d, %d]",
			core.ErrAngleOutOfRange, angle, t.angleRange.Min, t.angleRange.Max)
	}
	return nil
}

// SetAir returns the instructions for an air transition on b. The
// sequence always begins with an air-off plus paint-angle reset,
// regardless of tracked state, to flush residual air or paint flow
// before the requested state takes effect. angle applies only when
// turning on; pass AngleUnset to reuse the brush's last angle.
func (t *Tracker) SetAir(b core.Brush, on bool, angle int) ([]core.Instruction, error) {
	if on && angle != AngleUnset {
		if err := t.validateAngle(angle); err != nil {
			return nil, err
		}
	}

	instructions := []core.Instruction{
		core.SetAir{Brush: b, On: false},
		core.SetPaintAngle{Brush: b, Angle: t.angleRange.Min},
	}

	if !on {
		// Paint angle deliberately persists in tracked state so the
		// next activation without an explicit angle reuses it.
		t.states[b].AirOn = false
		return instructions, nil
	}

	resolved := angle
	if resolved == AngleUnset {
		resolved = t.states[b].PaintAngle
	}

	instructions = append(instructions,
		core.SetAir{Brush: b, On: true},
		core.SetPaintAngle{Brush: b, Angle: resolved},
	)

	t.states[b].AirOn = true
	t.states[b].PaintAngle = resolved
	return instructions, nil
}

// SetPaintAngle returns the instruction to move b's paint servo to the
// given angle without touching air state.
func (t *Tracker) SetPaintAngle(b core.Brush, angle int) ([]core.Instruction, error) {
	if err := t.validateAngle(angle); err != nil {
		return nil, err
	}
	t.states[b].PaintAngle = angle
	return []core.Instruction{core.SetPaintAngle{Brush: b, Angle: angle}}, nil
}
