package torsion

import (
	"github.com/akmonengine/torsion/suspension"
)

// Telemetry is a one-call snapshot of the vehicle internals, meant for
// HUDs, tuning overlays and debugging. All values are plain copies; the
// snapshot never aliases live state.
type Telemetry struct {
	Compression         [suspension.WheelCount]float64
	CompressionVelocity [suspension.WheelCount]float64
	WheelForce          [suspension.WheelCount]float64
	DamperTemperature   [suspension.WheelCount]float64
	Grounded            [suspension.WheelCount]bool

	// Aggregate suspension diagnostics of the last step.
	RollStiffness  float64
	PitchStiffness float64
	DamperWork     float64

	Speed     float64
	Health    float64
	Fuel      float64
	Airborne  bool
	Resting   bool
	Destroyed bool

	// Safety clamp counters. A steadily climbing number means the setup
	// keeps running into its limits.
	VelocityClamps uint64
	AngularClamps  uint64
	ForceClamps    uint64
}

// Telemetry captures the current snapshot. On a disposed vehicle it
// returns the zero value.
func (v *Vehicle) Telemetry() Telemetry {
	var t Telemetry
	if v.disposed {
		return t
	}

	for i := 0; i < suspension.WheelCount; i++ {
		t.Compression[i] = v.wheels.Compression(i)
		t.CompressionVelocity[i] = v.wheels.CompressionVelocity(i)
		t.WheelForce[i] = v.susp.LastForce(i)
		t.DamperTemperature[i] = v.susp.Temperature(i)
		t.Grounded[i] = v.wheels.Grounded(i)
	}

	t.RollStiffness = v.lastForces.RollStiffness
	t.PitchStiffness = v.lastForces.PitchStiffness
	t.DamperWork = v.susp.WorkDone()

	t.Speed = v.body.Speed()
	t.Health = v.stats.Health
	t.Fuel = v.stats.Fuel
	t.Airborne = v.airborne
	t.Resting = v.body.Resting()
	t.Destroyed = v.stats.Destroyed()

	t.VelocityClamps = v.body.VelocityClamps()
	t.AngularClamps = v.body.AngularClamps()
	t.ForceClamps = v.susp.ForceClamps()

	return t
}
