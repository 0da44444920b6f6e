// Package gcode serializes toolpath instructions into the line-oriented
// wire format the plotter firmware consumes. It is a stateless
// formatter; all sequencing decisions belong to the compiler.
package gcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hairbrush/toolpath/pkg/core"
)

// Emitter formats instructions into canonical wire lines. Macro mode is
// a per-session configuration value, not a global, so sessions with
// different settings cannot interfere.
type Emitter struct {
	useMacros bool
	angleMin  int
}

// New creates an emitter for one compile session.
func New(cfg core.MachineConfig) *Emitter {
	return &Emitter{
		useMacros: cfg.UseMacros,
		angleMin:  cfg.PaintAngleRange.Min,
	}
}

// MacroName returns the firmware macro file invoked for an air or flow
// transition, e.g. "brush_a_air_on.g".
func MacroName(brush core.Brush, action string) string {
	return fmt.Sprintf("%s_%s.g", brush.ConfigKey(), action)
}

// formatCoord renders a millimeter coordinate with fixed precision.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// formatFeed renders a feed rate without trailing zeros.
func formatFeed(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Line returns the canonical wire form of a single instruction.
func (e *Emitter) Line(ins core.Instruction) string {
	switch v := ins.(type) {
	case core.Move:
		var b strings.Builder
		if v.Rapid {
			b.WriteString("G0")
		} else {
			b.WriteString("G1")
		}
		if v.X != nil {
			b.WriteString(" X")
			b.WriteString(formatCoord(*v.X))
		}
		if v.Y != nil {
			b.WriteString(" Y")
			b.WriteString(formatCoord(*v.Y))
		}
		if v.Z != nil {
			b.WriteString(" Z")
			b.WriteString(formatCoord(*v.Z))
		}
		if v.Feed != nil {
			b.WriteString(" F")
			b.WriteString(formatFeed(*v.Feed))
		}
		return b.String()

	case core.SelectTool:
		return fmt.Sprintf("T%d", v.Brush.ToolIndex())

	case core.SetAir:
		if e.useMacros {
			action := "air_off"
			if v.On {
				action = "air_on"
			}
			return e.Line(core.RunMacro{Name: MacroName(v.Brush, action)})
		}
		s := 0
		if v.On {
			s = 1
		}
		return fmt.Sprintf("M42 P%d S%d", v.Brush.PinIndex(), s)

	case core.SetPaintAngle:
		if e.useMacros {
			action := "flow_on"
			if v.Angle <= e.angleMin {
				action = "flow_off"
			}
			return e.Line(core.RunMacro{Name: MacroName(v.Brush, action)})
		}
		return fmt.Sprintf("M280 P%d S%d", v.Brush.PinIndex(), v.Angle)

	case core.WaitForMotion:
		return "M400"

	case core.Dwell:
		return fmt.Sprintf("G4 P%d", v.Millis)

	case core.Home:
		return "G28"

	case core.Comment:
		return "; " + v.Text

	case core.RunMacro:
		return fmt.Sprintf("M98 P%q", v.Name)

	default:
		// Unknown instruction types serialize as comments so a partial
		// rollout never feeds the firmware an unintended command.
		return fmt.Sprintf("; unknown instruction %T", ins)
	}
}

// Program renders a full instruction list as wire text, one line per
// instruction, with a trailing newline.
func (e *Emitter) Program(instructions []core.Instruction) string {
	var b strings.Builder
	for _, ins := range instructions {
		b.WriteString(e.Line(ins))
		b.WriteByte('\n')
	}
	return b.String()
}
