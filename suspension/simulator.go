package suspension

import (
	"math"
)

// State is the per-step wheel input consumed by Forces. Compression follows
// the convention that positive values push the wheel up into the chassis.
// Load carries external vertical force injected at the wheel (world up
// positive), e.g. from collision resolution. LeverArm is the longitudinal
// offset of each wheel from the chassis center, used for moment aggregation.
type State struct {
	Compression [WheelCount]float64
	Velocity    [WheelCount]float64
	Grounded    [WheelCount]bool
	Load        [WheelCount]float64
	LeverArm    [WheelCount]float64
}

// Forces is the per-step output. Wheel holds axis forces: a negative value
// pushes the chassis up, away from the ground. Moments and stiffnesses are
// diagnostics for telemetry; the chassis obtains its pitch torque from
// applying the wheel forces at their attachment points, not from these.
type Forces struct {
	Wheel          [WheelCount]float64
	RollMoment     float64
	PitchMoment    float64
	RollStiffness  float64
	PitchStiffness float64
}

// Simulator turns compression state into suspension forces. Apart from the
// damper temperatures and the work counter it is a stateless transform.
type Simulator struct {
	cfg Config

	temperature [WheelCount]float64
	lastForce   [WheelCount]float64
	workDone    float64
	forceClamps uint64
}

// NewSimulator validates cfg and builds a simulator. Invalid configurations
// are rejected here, never discovered as NaN forces mid-run.
func NewSimulator(cfg Config) (*Simulator, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{cfg: cfg}
	for i := 0; i < WheelCount; i++ {
		s.temperature[i] = cfg.AmbientTemp
	}
	return s, nil
}

// Config returns the live configuration value.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Adjust applies relative deltas to the live configuration. The adjusted
// setup is validated before it replaces the old one, so a bad delta leaves
// the simulator untouched.
func (s *Simulator) Adjust(adj Adjustment) error {
	next := s.cfg.Adjust(adj)
	if err := next.Validate(); err != nil {
		return err
	}
	s.cfg = next
	return nil
}

// SpringForce returns the axis force of wheel i at the given compression.
// Base model is linear rate plus preload; with progressive rates enabled the
// effective rate climbs quadratically above the bump stop threshold, so the
// force grows superlinearly toward full bottom-out.
func (s *Simulator) SpringForce(wheel int, compression float64) float64 {
	if wheel < 0 || wheel >= WheelCount {
		return 0
	}
	compression = sanitize(compression)

	rate := s.cfg.SpringRate[wheel]
	if s.cfg.Progressive && compression > 0 {
		threshold := s.cfg.BumpStopRatio * s.cfg.MaxCompression[wheel]
		if compression > threshold {
			span := s.cfg.MaxCompression[wheel] - threshold
			if span > 0 {
				t := (compression - threshold) / span
				rate *= 1 + s.cfg.BumpStopGain*t*t
			}
		}
	}

	return -(rate*compression + s.cfg.SpringPreload[wheel])
}

// DampingForce returns the axis force opposing the compression velocity of
// wheel i. The coefficient is asymmetric per stroke direction and fades as
// the damper heats up.
func (s *Simulator) DampingForce(wheel int, velocity float64) float64 {
	if wheel < 0 || wheel >= WheelCount {
		return 0
	}
	velocity = sanitize(velocity)

	coeff := s.cfg.ReboundDamping[wheel]
	if velocity > 0 {
		coeff = s.cfg.CompressionDamping[wheel]
	}

	return -coeff * s.thermalScale(wheel) * velocity
}

// AntiRollForces returns the axis corrections coupling the front/rear pair.
// The correction is proportional to the compression difference, pushing the
// chassis up on the more compressed side and down on the other. Equal
// compressions produce no correction.
func (s *Simulator) AntiRollForces(compression [WheelCount]float64) [WheelCount]float64 {
	delta := sanitize(compression[WheelFront]) - sanitize(compression[WheelRear])
	bar := s.cfg.AntiRollBarStiffness * delta

	return [WheelCount]float64{-bar, bar}
}

// LimitForce clamps force into the configured safety range. Forces in the
// normal range pass through unchanged; engaging the clamp is counted for
// telemetry since it signals a pathological input.
func (s *Simulator) LimitForce(wheel int, force float64) float64 {
	limit := s.cfg.ForceLimit
	if math.IsNaN(force) {
		s.forceClamps++
		return 0
	}
	if force > limit {
		s.forceClamps++
		return limit
	}
	if force < -limit {
		s.forceClamps++
		return -limit
	}
	return force
}

// Forces computes the per-wheel axis forces for one step of length dt and
// advances the damper thermal state. Airborne wheels produce no force; the
// anti-roll bar only engages while both coupled wheels are grounded.
func (s *Simulator) Forces(state State, dt float64) Forces {
	var out Forces

	var bar [WheelCount]float64
	bothGrounded := state.Grounded[WheelFront] && state.Grounded[WheelRear]
	if bothGrounded {
		bar = s.AntiRollForces(state.Compression)
	}

	for i := 0; i < WheelCount; i++ {
		if !state.Grounded[i] {
			s.cool(i, dt)
			s.lastForce[i] = 0
			continue
		}

		spring := s.SpringForce(i, state.Compression[i])
		damper := s.DampingForce(i, state.Velocity[i])

		force := spring + damper + bar[i] - sanitize(state.Load[i])
		force = s.LimitForce(i, force)

		out.Wheel[i] = force
		s.lastForce[i] = force

		lift := -force
		out.PitchMoment += state.LeverArm[i] * lift

		s.heat(i, damper, state.Velocity[i], dt)
	}

	if bothGrounded {
		span := state.LeverArm[WheelFront] - state.LeverArm[WheelRear]
		out.RollMoment = -bar[WheelFront] * span
		out.RollStiffness = s.cfg.AntiRollBarStiffness * span * span
	}
	for i := 0; i < WheelCount; i++ {
		out.PitchStiffness += s.cfg.SpringRate[i] * state.LeverArm[i] * state.LeverArm[i]
	}

	return out
}

// Temperature returns the current damper temperature of wheel i in °C.
func (s *Simulator) Temperature(wheel int) float64 {
	if wheel < 0 || wheel >= WheelCount {
		return 0
	}
	return s.temperature[wheel]
}

// LastForce returns the clamped axis force wheel i produced in the most
// recent Forces call.
func (s *Simulator) LastForce(wheel int) float64 {
	if wheel < 0 || wheel >= WheelCount {
		return 0
	}
	return s.lastForce[wheel]
}

// WorkDone returns the total damper work absorbed since construction, in
// joule-equivalents.
func (s *Simulator) WorkDone() float64 {
	return s.workDone
}

// ForceClamps returns how often the safety clamp engaged.
func (s *Simulator) ForceClamps() uint64 {
	return s.forceClamps
}

// thermalScale maps the damper temperature of wheel i to a coefficient
// scale in [MinFade, 1].
func (s *Simulator) thermalScale(wheel int) float64 {
	if !s.cfg.Thermal {
		return 1
	}
	over := s.temperature[wheel] - s.cfg.AmbientTemp
	if over <= 0 {
		return 1
	}
	scale := 1 - s.cfg.FadeFactor*over
	if scale < s.cfg.MinFade {
		return s.cfg.MinFade
	}
	return scale
}

// heat adds the work done by the damper this step and applies cooling.
func (s *Simulator) heat(wheel int, damperForce, velocity, dt float64) {
	if !s.cfg.Thermal || dt <= 0 {
		return
	}
	work := math.Abs(damperForce*velocity) * dt
	s.workDone += work
	s.temperature[wheel] += s.cfg.HeatRate * work
	s.cool(wheel, dt)
}

// cool decays the damper temperature of wheel i toward ambient.
func (s *Simulator) cool(wheel int, dt float64) {
	if !s.cfg.Thermal || dt <= 0 {
		return
	}
	over := s.temperature[wheel] - s.cfg.AmbientTemp
	s.temperature[wheel] = s.cfg.AmbientTemp + over*math.Exp(-s.cfg.CoolingRate*dt)
}

// sanitize zeroes non-finite inputs so they cannot poison the force model.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
