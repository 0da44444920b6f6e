// pkg/core/machine.go
package core

// ZRange bounds the Z heights at which drawing is allowed.
type ZRange struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// AngleRange bounds the paint-flow servo angle.
type AngleRange struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

// MachineConfig describes the plotter for one compile session.
// It is immutable once a session starts.
type MachineConfig struct {
	// SafeTravelZ is the height at which XY travel is collision-free.
	SafeTravelZ float64 `json:"safeTravelZ" mapstructure:"safeTravelZ"`

	// DrawZRange bounds stroke drawing heights.
	DrawZRange ZRange `json:"drawZRange" mapstructure:"drawZRange"`

	// BrushOffsets holds the physical XY offset of each brush. The
	// codec never applies them; firmware tool-change macros do.
	BrushOffsets map[string]XY `json:"brushOffsets" mapstructure:"brushOffsets"`

	// TravelFeed is the feed rate for non-drawing moves, mm/min.
	TravelFeed float64 `json:"travelFeed" mapstructure:"travelFeed"`

	// DrawFeed is the default drawing feed rate, mm/min, used when a
	// stroke does not carry its own.
	DrawFeed float64 `json:"drawFeed" mapstructure:"drawFeed"`

	// PaintAngleRange bounds the servo angle for both brushes.
	PaintAngleRange AngleRange `json:"paintAngleRange" mapstructure:"paintAngleRange"`

	// AirStabilizeMs is the dwell after switching air on, giving the
	// solenoid and paint flow time to settle. 0 disables the dwell.
	AirStabilizeMs int `json:"airStabilizeMs" mapstructure:"airStabilizeMs"`

	// UseMacros renders air/paint instructions as firmware macro
	// calls (M98) instead of raw M42/M280 pairs.
	UseMacros bool `json:"useMacros" mapstructure:"useMacros"`

	// SkipHoming omits the leading G28, for interactive sessions on
	// an already-homed machine.
	SkipHoming bool `json:"skipHoming" mapstructure:"skipHoming"`
}

// DefaultMachineConfig returns the reference machine profile.
func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		SafeTravelZ:     10,
		DrawZRange:      ZRange{Min: 1, Max: 5},
		TravelFeed:      3000,
		DrawFeed:        1500,
		PaintAngleRange: AngleRange{Min: 10, Max: 180},
		AirStabilizeMs:  500,
		BrushOffsets: map[string]XY{
			BrushA.ConfigKey(): {},
			BrushB.ConfigKey(): {X: 50},
		},
	}
}
