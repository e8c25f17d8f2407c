// Package control translates normalized driver inputs into forces and
// torques on the chassis. It owns the grounded/airborne control split and
// the fuel burn bookkeeping.
package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Controls is the transient input snapshot, overwritten every frame.
type Controls struct {
	Throttle float64 // [-1, 1]
	Steering float64 // [-1, 1]
	Brake    float64 // [0, 1]
	Tilt     float64 // [-1, 1]
}

// Clamped returns the snapshot with every channel forced into its valid
// range. Out-of-range values are clamped, never rejected; non-finite values
// collapse to zero.
func (c Controls) Clamped() Controls {
	return Controls{
		Throttle: clampFinite(c.Throttle, -1, 1),
		Steering: clampFinite(c.Steering, -1, 1),
		Brake:    clampFinite(c.Brake, 0, 1),
		Tilt:     clampFinite(c.Tilt, -1, 1),
	}
}

// Active reports whether any channel is non-zero.
func (c Controls) Active() bool {
	return c.Throttle != 0 || c.Steering != 0 || c.Brake != 0 || c.Tilt != 0
}

// Mode is the control regime the mapper operates in.
type Mode uint8

const (
	// ModeGrounded routes throttle, steering and brake to the chassis.
	ModeGrounded Mode = iota
	// ModeAirborne leaves only the tilt torque; the drivetrain has nothing
	// to push against.
	ModeAirborne
)

func (m Mode) String() string {
	switch m {
	case ModeGrounded:
		return "grounded"
	case ModeAirborne:
		return "airborne"
	}
	return "unknown"
}

func clampFinite(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return mgl64.Clamp(v, min, max)
}
