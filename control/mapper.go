package control

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Below this speed the brake has nothing to oppose.
const brakeEpsilon = 1e-6

var (
	ErrEnginePower = errors.New("control: engine power must be positive")
	ErrMaxSpeed    = errors.New("control: max speed must be positive")
	ErrSteer       = errors.New("control: steering parameters must not be negative")
	ErrBrake       = errors.New("control: brake force must not be negative")
	ErrTilt        = errors.New("control: tilt torque must not be negative")
	ErrFuelBurn    = errors.New("control: fuel burn rate must not be negative")
)

// Config tunes how inputs become forces.
type Config struct {
	EnginePower float64 // N at full throttle and zero speed
	MaxSpeed    float64 // speed where the drive force tapers to nothing

	// Steering authority ramps linearly with speed and saturates at
	// SteerAuthoritySpeed, so a standing vehicle cannot snap-rotate.
	SteerTorque         float64
	SteerAuthoritySpeed float64

	BrakeForce float64 // N at full pedal
	TiltTorque float64 // mid-air rotation torque

	FuelBurnRate float64 // fuel units per second at full throttle
}

// DefaultConfig returns the road-car mapping.
func DefaultConfig() Config {
	return Config{
		EnginePower:         45000,
		MaxSpeed:            18,
		SteerTorque:         5200,
		SteerAuthoritySpeed: 3.0,
		BrakeForce:          30000,
		TiltTorque:          2600,
		FuelBurnRate:        1.2,
	}
}

// Validate reports the first bad parameter.
func (c Config) Validate() error {
	if c.EnginePower <= 0 || math.IsNaN(c.EnginePower) {
		return fmt.Errorf("%w (%v)", ErrEnginePower, c.EnginePower)
	}
	if c.MaxSpeed <= 0 || math.IsNaN(c.MaxSpeed) {
		return fmt.Errorf("%w (%v)", ErrMaxSpeed, c.MaxSpeed)
	}
	if c.SteerTorque < 0 || c.SteerAuthoritySpeed <= 0 {
		return ErrSteer
	}
	if c.BrakeForce < 0 {
		return ErrBrake
	}
	if c.TiltTorque < 0 {
		return ErrTilt
	}
	if c.FuelBurnRate < 0 {
		return ErrFuelBurn
	}
	return nil
}

// State is the chassis view the mapper needs for one step.
type State struct {
	Mode     Mode
	Heading  mgl64.Vec2 // unit forward direction
	Velocity mgl64.Vec2
	Fuel     float64
	Mass     float64
}

// Output is what one step of input mapping produces. Force is world-frame
// and acts through the center of mass; Torque acts on the single rotation
// axis of the planar model. FuelBurn is deducted by the owner.
type Output struct {
	Force    mgl64.Vec2
	Torque   float64
	FuelBurn float64
}

// Mapper holds the latest input snapshot and turns it into forces.
type Mapper struct {
	cfg      Config
	controls Controls
}

// NewMapper validates cfg and builds a mapper.
func NewMapper(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{cfg: cfg}, nil
}

// Config returns the live mapping parameters.
func (m *Mapper) Config() Config {
	return m.cfg
}

// SetConfig swaps the mapping parameters after validating them.
func (m *Mapper) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// SetControls stores the latest input snapshot, clamped into range.
func (m *Mapper) SetControls(c Controls) {
	m.controls = c.Clamped()
}

// Controls returns the stored snapshot.
func (m *Mapper) Controls() Controls {
	return m.controls
}

// Map converts the stored inputs into forces for one step of length dt.
//
// Grounded: throttle drives along the heading, scaled by a speed factor
// that fades to zero at MaxSpeed; steering torque scales with the speed
// authority; braking opposes the velocity with a magnitude capped so a
// single step can never reverse the motion. Airborne: only the tilt torque
// remains, and a dead engine burns nothing.
func (m *Mapper) Map(dt float64, st State) Output {
	var out Output
	if dt <= 0 || math.IsNaN(dt) {
		return out
	}

	c := m.controls

	if st.Mode == ModeAirborne {
		out.Torque = c.Tilt * m.cfg.TiltTorque
		return out
	}

	speed := st.Velocity.Len()

	if c.Throttle != 0 && st.Fuel > 0 {
		factor := mgl64.Clamp(1-speed/m.cfg.MaxSpeed, 0, 1)
		out.Force = st.Heading.Mul(c.Throttle * m.cfg.EnginePower * factor)
		out.FuelBurn = math.Abs(c.Throttle) * m.cfg.FuelBurnRate * dt
	}

	authority := mgl64.Clamp(speed/m.cfg.SteerAuthoritySpeed, 0, 1)
	out.Torque = c.Steering * m.cfg.SteerTorque * authority

	if c.Brake > 0 && speed > brakeEpsilon {
		magnitude := math.Min(c.Brake*m.cfg.BrakeForce, st.Mass*speed/dt)
		out.Force = out.Force.Add(st.Velocity.Mul(-magnitude / speed))
	}

	return out
}
