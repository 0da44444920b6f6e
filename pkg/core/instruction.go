// pkg/core/instruction.go
package core

// Instruction is one motion-control instruction in a compiled toolpath.
// The concrete types below are the only implementations. Instruction
// lists are write-once: whichever component produced a list owns it and
// no instruction is mutated after creation.
type Instruction interface {
	isInstruction()
}

// Float returns a pointer to v, for optional Move fields.
func Float(v float64) *float64 {
	return &v
}

// Move commands motion on any subset of the X/Y/Z axes.
// Nil fields leave the axis where it is. Rapid moves serialize as G0,
// others as G1.
type Move struct {
	X     *float64
	Y     *float64
	Z     *float64
	Feed  *float64
	Rapid bool
}

// SelectTool activates a brush's tool (T0/T1). The firmware resolves
// the physical tool offset itself.
type SelectTool struct {
	Brush Brush
}

// SetAir switches a brush's air solenoid (M42).
type SetAir struct {
	Brush Brush
	On    bool
}

// SetPaintAngle positions a brush's paint-flow servo (M280).
type SetPaintAngle struct {
	Brush Brush
	Angle int
}

// WaitForMotion blocks until all queued motion finishes (M400).
type WaitForMotion struct{}

// Dwell pauses for the given number of milliseconds (G4).
type Dwell struct {
	Millis int
}

// Home homes all axes (G28).
type Home struct{}

// Comment is a non-executable annotation line.
type Comment struct {
	Text string
}

// RunMacro invokes a named firmware macro file (M98).
type RunMacro struct {
	Name string
}

func (Move) isInstruction()          {}
func (SelectTool) isInstruction()    {}
func (SetAir) isInstruction()        {}
func (SetPaintAngle) isInstruction() {}
func (WaitForMotion) isInstruction() {}
func (Dwell) isInstruction()         {}
func (Home) isInstruction()          {}
func (Comment) isInstruction()       {}
func (RunMacro) isInstruction()      {}
