package control

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// almostEqual compares two floats with an absolute tolerance
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func testConfig() Config {
	return Config{
		EnginePower:         40000,
		MaxSpeed:            20,
		SteerTorque:         5000,
		SteerAuthoritySpeed: 4,
		BrakeForce:          30000,
		TiltTorque:          2500,
		FuelBurnRate:        1.5,
	}
}

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(testConfig())
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	return m
}

func groundedState(velocity mgl64.Vec2) State {
	return State{
		Mode:     ModeGrounded,
		Heading:  mgl64.Vec2{1, 0},
		Velocity: velocity,
		Fuel:     50,
		Mass:     1200,
	}
}

// =============================================================================
// Config Validation Tests
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"default is valid", func(c *Config) {}, nil},
		{"zero engine power", func(c *Config) { c.EnginePower = 0 }, ErrEnginePower},
		{"NaN engine power", func(c *Config) { c.EnginePower = math.NaN() }, ErrEnginePower},
		{"zero max speed", func(c *Config) { c.MaxSpeed = 0 }, ErrMaxSpeed},
		{"negative steer torque", func(c *Config) { c.SteerTorque = -1 }, ErrSteer},
		{"zero authority speed", func(c *Config) { c.SteerAuthoritySpeed = 0 }, ErrSteer},
		{"negative brake force", func(c *Config) { c.BrakeForce = -1 }, ErrBrake},
		{"negative tilt torque", func(c *Config) { c.TiltTorque = -1 }, ErrTilt},
		{"negative fuel burn", func(c *Config) { c.FuelBurnRate = -1 }, ErrFuelBurn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMapper_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.EnginePower = -1

	if _, err := NewMapper(cfg); !errors.Is(err, ErrEnginePower) {
		t.Errorf("NewMapper() error = %v, want %v", err, ErrEnginePower)
	}
}

// =============================================================================
// Drive Force Tests
// =============================================================================

func TestMapper_FullThrottleAtRest(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Throttle: 1})

	out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{}))

	if !almostEqual(out.Force.X(), 40000, 1e-9) {
		t.Errorf("Force.X = %v, want 40000", out.Force.X())
	}
	if !almostEqual(out.Force.Y(), 0, 1e-9) {
		t.Errorf("Force.Y = %v, want 0", out.Force.Y())
	}
	if !almostEqual(out.FuelBurn, 1.5/60.0, 1e-12) {
		t.Errorf("FuelBurn = %v, want %v", out.FuelBurn, 1.5/60.0)
	}
}

func TestMapper_DriveTapersWithSpeed(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Throttle: 1})

	half := m.Map(1.0/60.0, groundedState(mgl64.Vec2{10, 0}))
	if !almostEqual(half.Force.X(), 20000, 1e-9) {
		t.Errorf("Force.X at half speed = %v, want 20000", half.Force.X())
	}

	top := m.Map(1.0/60.0, groundedState(mgl64.Vec2{20, 0}))
	if !almostEqual(top.Force.X(), 0, 1e-9) {
		t.Errorf("Force.X at top speed = %v, want 0", top.Force.X())
	}
}

func TestMapper_ReverseThrottle(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Throttle: -1})

	out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{}))

	if out.Force.X() >= 0 {
		t.Errorf("Force.X = %v, want negative for reverse throttle", out.Force.X())
	}
	if out.FuelBurn <= 0 {
		t.Errorf("FuelBurn = %v, want > 0 (reverse burns too)", out.FuelBurn)
	}
}

func TestMapper_EmptyTankKillsDrive(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Throttle: 1})

	st := groundedState(mgl64.Vec2{})
	st.Fuel = 0

	out := m.Map(1.0/60.0, st)

	if out.Force != (mgl64.Vec2{}) {
		t.Errorf("Force = %v, want zero with an empty tank", out.Force)
	}
	if out.FuelBurn != 0 {
		t.Errorf("FuelBurn = %v, want 0 with an empty tank", out.FuelBurn)
	}
}

func TestMapper_ZeroThrottleBurnsNothing(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Brake: 1})

	out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{5, 0}))

	if out.FuelBurn != 0 {
		t.Errorf("FuelBurn = %v, want 0 without throttle", out.FuelBurn)
	}
}

// =============================================================================
// Steering Tests
// =============================================================================

func TestMapper_SteeringAuthorityRampsWithSpeed(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Steering: 1})

	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"no authority at rest", 0, 0},
		{"half authority", 2, 2500},
		{"full authority at the cap", 4, 5000},
		{"plateau above the cap", 15, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{tt.speed, 0}))
			if !almostEqual(out.Torque, tt.want, 1e-9) {
				t.Errorf("Torque at speed %v = %v, want %v", tt.speed, out.Torque, tt.want)
			}
		})
	}
}

func TestMapper_SteeringSign(t *testing.T) {
	m := newTestMapper(t)

	m.SetControls(Controls{Steering: -0.5})
	out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{8, 0}))

	if out.Torque >= 0 {
		t.Errorf("Torque = %v, want negative for negative steering", out.Torque)
	}
}

// =============================================================================
// Brake Tests
// =============================================================================

func TestMapper_BrakeOpposesVelocity(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Brake: 0.5})

	out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{10, 0}))

	if !almostEqual(out.Force.X(), -15000, 1e-9) {
		t.Errorf("Force.X = %v, want -15000", out.Force.X())
	}
}

func TestMapper_BrakeCannotReverseInOneStep(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Brake: 1})

	// Slow crawl with a large dt: the uncapped brake force would flip the
	// velocity sign, the capped one stops it exactly.
	st := groundedState(mgl64.Vec2{1, 0})
	st.Mass = 100

	out := m.Map(1.0, st)

	if !almostEqual(out.Force.X(), -100, 1e-9) {
		t.Errorf("Force.X = %v, want -100 (mass*speed/dt cap)", out.Force.X())
	}
}

func TestMapper_BrakeAtStandstillDoesNothing(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Brake: 1})

	out := m.Map(1.0/60.0, groundedState(mgl64.Vec2{}))

	if out.Force != (mgl64.Vec2{}) {
		t.Errorf("Force = %v, want zero at standstill", out.Force)
	}
}

// =============================================================================
// Airborne Mode Tests
// =============================================================================

func TestMapper_AirborneTiltOnly(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Throttle: 1, Steering: 1, Brake: 1, Tilt: -0.5})

	st := groundedState(mgl64.Vec2{5, 0})
	st.Mode = ModeAirborne

	out := m.Map(1.0/60.0, st)

	if out.Force != (mgl64.Vec2{}) {
		t.Errorf("Force = %v, want zero while airborne", out.Force)
	}
	if !almostEqual(out.Torque, -1250, 1e-9) {
		t.Errorf("Torque = %v, want -1250 (tilt only)", out.Torque)
	}
	if out.FuelBurn != 0 {
		t.Errorf("FuelBurn = %v, want 0 while airborne", out.FuelBurn)
	}
}

// =============================================================================
// Guard Tests
// =============================================================================

func TestMapper_BadDtYieldsNothing(t *testing.T) {
	m := newTestMapper(t)
	m.SetControls(Controls{Throttle: 1})

	for _, dt := range []float64{0, -1, math.NaN()} {
		out := m.Map(dt, groundedState(mgl64.Vec2{}))
		if out.Force != (mgl64.Vec2{}) || out.Torque != 0 || out.FuelBurn != 0 {
			t.Errorf("Map(dt=%v) = %+v, want zero output", dt, out)
		}
	}
}

func TestMapper_SetControlsClamps(t *testing.T) {
	m := newTestMapper(t)

	m.SetControls(Controls{Throttle: 7, Brake: -2})

	got := m.Controls()
	if got.Throttle != 1 || got.Brake != 0 {
		t.Errorf("Controls() = %+v, want clamped snapshot", got)
	}
}

func TestMapper_SetConfigValidates(t *testing.T) {
	m := newTestMapper(t)

	bad := testConfig()
	bad.MaxSpeed = -1
	if err := m.SetConfig(bad); !errors.Is(err, ErrMaxSpeed) {
		t.Errorf("SetConfig() error = %v, want %v", err, ErrMaxSpeed)
	}

	// The live config is untouched after a rejected swap.
	if m.Config().MaxSpeed != 20 {
		t.Errorf("Config().MaxSpeed = %v, want 20", m.Config().MaxSpeed)
	}
}
