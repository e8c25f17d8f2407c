package torsion

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/torsion/control"
	"github.com/akmonengine/torsion/impact"
	"github.com/akmonengine/torsion/suspension"
	"github.com/akmonengine/torsion/wheel"
)

var (
	ErrUnknownTemplate = errors.New("torsion: unknown vehicle template")
	ErrChassisSize     = errors.New("torsion: mass and dimensions must be positive")
	ErrWheelLayout     = errors.New("torsion: wheelbase, ride height and axle drop must describe a usable layout")
	ErrBodyDamping     = errors.New("torsion: body damping must not be negative")
)

// Template is the full definition of a vehicle type: chassis, wheel layout
// and the tuning of every subsystem. Templates are plain values; spawning
// from one never shares state with other vehicles.
//
// Stats.EnginePower and Stats.MaxSpeed are authoritative and overwrite the
// same fields of Control at spawn, so upgrades only track one copy.
type Template struct {
	Name string

	Mass   float64
	Width  float64
	Height float64

	Wheelbase  float64 // front to rear attachment span
	RideHeight float64 // natural suspension length below the attachments
	AxleDrop   float64 // how far below the center of mass the wheels attach

	LinearDamping  float64 // 1/s exponential velocity decay
	AngularDamping float64

	Stats      Stats
	Suspension suspension.Config
	Control    control.Config
	Impact     impact.Config
}

// Validate reports the first problem of the definition, delegating to the
// subsystem configurations for their own parameters.
func (t Template) Validate() error {
	switch {
	case t.Mass <= 0 || math.IsNaN(t.Mass):
		return fmt.Errorf("%w (mass %v)", ErrChassisSize, t.Mass)
	case t.Width <= 0 || t.Height <= 0:
		return fmt.Errorf("%w (%v x %v)", ErrChassisSize, t.Width, t.Height)
	case t.Wheelbase <= 0 || math.IsNaN(t.Wheelbase):
		return fmt.Errorf("%w (wheelbase %v)", ErrWheelLayout, t.Wheelbase)
	case t.RideHeight <= 0 || math.IsNaN(t.RideHeight):
		return fmt.Errorf("%w (ride height %v)", ErrWheelLayout, t.RideHeight)
	case t.AxleDrop < 0 || math.IsNaN(t.AxleDrop):
		return fmt.Errorf("%w (axle drop %v)", ErrWheelLayout, t.AxleDrop)
	case t.LinearDamping < 0 || t.AngularDamping < 0:
		return ErrBodyDamping
	}
	if err := t.Stats.Validate(); err != nil {
		return err
	}
	if err := t.Suspension.Validate(); err != nil {
		return err
	}
	if err := t.Control.Validate(); err != nil {
		return err
	}
	return t.Impact.Validate()
}

// geometry derives the wheel attachment layout, front wheel first.
func (t Template) geometry() wheel.Geometry {
	half := t.Wheelbase / 2
	return wheel.Geometry{
		Offset: [suspension.WheelCount]mgl64.Vec2{
			{half, -t.AxleDrop},
			{-half, -t.AxleDrop},
		},
		RestLength: t.RideHeight,
	}
}

// BuiltinTemplates returns the stock vehicle types, keyed by name. The map
// is built fresh on every call so callers can tweak their copy freely.
func BuiltinTemplates() map[string]Template {
	return map[string]Template{
		"scout":       scoutTemplate(),
		"hauler":      haulerTemplate(),
		"interceptor": interceptorTemplate(),
	}
}

// TemplateNames returns the builtin template names in sorted order.
func TemplateNames() []string {
	tpls := BuiltinTemplates()
	names := make([]string, 0, len(tpls))
	for name := range tpls {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// scoutTemplate is the light recon buggy: quick, fragile, soft springs.
func scoutTemplate() Template {
	imp := impact.DefaultConfig()
	imp.ObstacleDamageRate = 8
	imp.Restitution = 0.35

	return Template{
		Name:   "scout",
		Mass:   900,
		Width:  3.4,
		Height: 1.5,

		Wheelbase:  2.2,
		RideHeight: 0.45,
		AxleDrop:   0.3,

		LinearDamping:  0.6,
		AngularDamping: 1.2,

		Stats: Stats{
			EnginePower:  27000,
			MaxSpeed:     18,
			Armor:        0.05,
			FuelCapacity: 45,
			Fuel:         45,
			MaxHealth:    70,
			Health:       70,
		},
		Suspension: suspension.Config{
			SpringRate:     [suspension.WheelCount]float64{30000, 30000},
			MaxCompression: [suspension.WheelCount]float64{0.26, 0.26},
			MaxExtension:   [suspension.WheelCount]float64{0.20, 0.20},

			CompressionDamping: [suspension.WheelCount]float64{2600, 2600},
			ReboundDamping:     [suspension.WheelCount]float64{3400, 3400},

			AntiRollBarStiffness: 7000,

			Progressive:   true,
			BumpStopRatio: 0.8,
			BumpStopGain:  6.0,

			Thermal:     true,
			AmbientTemp: 20.0,
			HeatRate:    0.0004,
			CoolingRate: 0.08,
			FadeFactor:  0.004,
			MinFade:     0.35,

			ForceLimit: 50000,
		},
		Control: control.Config{
			EnginePower:         27000,
			MaxSpeed:            18,
			SteerTorque:         5200,
			SteerAuthoritySpeed: 3.0,
			BrakeForce:          20000,
			TiltTorque:          2400,
			FuelBurnRate:        0.9,
		},
		Impact: imp,
	}
}

// haulerTemplate is the armored freight rig: slow, heavy, stiff and with a
// bit of spring preload to carry cargo without sagging.
func haulerTemplate() Template {
	imp := impact.DefaultConfig()
	imp.ObstacleDamageRate = 4
	imp.Restitution = 0.2

	return Template{
		Name:   "hauler",
		Mass:   2400,
		Width:  4.6,
		Height: 2.2,

		Wheelbase:  3.4,
		RideHeight: 0.6,
		AxleDrop:   0.5,

		LinearDamping:  0.6,
		AngularDamping: 0.8,

		Stats: Stats{
			EnginePower:  33600,
			MaxSpeed:     12,
			Armor:        0.3,
			FuelCapacity: 140,
			Fuel:         140,
			MaxHealth:    190,
			Health:       190,
		},
		Suspension: suspension.Config{
			SpringRate:     [suspension.WheelCount]float64{90000, 94000},
			SpringPreload:  [suspension.WheelCount]float64{600, 700},
			MaxCompression: [suspension.WheelCount]float64{0.30, 0.32},
			MaxExtension:   [suspension.WheelCount]float64{0.22, 0.24},

			CompressionDamping: [suspension.WheelCount]float64{7000, 7200},
			ReboundDamping:     [suspension.WheelCount]float64{9000, 9400},

			AntiRollBarStiffness: 20000,

			Progressive:   true,
			BumpStopRatio: 0.8,
			BumpStopGain:  8.0,

			Thermal:     true,
			AmbientTemp: 20.0,
			HeatRate:    0.0003,
			CoolingRate: 0.06,
			FadeFactor:  0.003,
			MinFade:     0.4,

			ForceLimit: 50000,
		},
		Control: control.Config{
			EnginePower:         33600,
			MaxSpeed:            12,
			SteerTorque:         9000,
			SteerAuthoritySpeed: 2.0,
			BrakeForce:          36000,
			TiltTorque:          5600,
			FuelBurnRate:        1.8,
		},
		Impact: imp,
	}
}

// interceptorTemplate is the pursuit car: fast, balanced, symmetric springs.
func interceptorTemplate() Template {
	imp := impact.DefaultConfig()
	imp.Restitution = 0.3

	return Template{
		Name:   "interceptor",
		Mass:   1300,
		Width:  3.9,
		Height: 1.3,

		Wheelbase:  2.6,
		RideHeight: 0.42,
		AxleDrop:   0.32,

		LinearDamping:  0.6,
		AngularDamping: 1.0,

		Stats: Stats{
			EnginePower:  52000,
			MaxSpeed:     20,
			Armor:        0.15,
			FuelCapacity: 60,
			Fuel:         60,
			MaxHealth:    110,
			Health:       110,
		},
		Suspension: suspension.Config{
			SpringRate:     [suspension.WheelCount]float64{46000, 46000},
			MaxCompression: [suspension.WheelCount]float64{0.24, 0.24},
			MaxExtension:   [suspension.WheelCount]float64{0.18, 0.18},

			CompressionDamping: [suspension.WheelCount]float64{3800, 3800},
			ReboundDamping:     [suspension.WheelCount]float64{4800, 4800},

			AntiRollBarStiffness: 12000,

			Progressive:   true,
			BumpStopRatio: 0.8,
			BumpStopGain:  6.0,

			Thermal:     true,
			AmbientTemp: 20.0,
			HeatRate:    0.0004,
			CoolingRate: 0.08,
			FadeFactor:  0.004,
			MinFade:     0.35,

			ForceLimit: 50000,
		},
		Control: control.Config{
			EnginePower:         52000,
			MaxSpeed:            20,
			SteerTorque:         7400,
			SteerAuthoritySpeed: 3.5,
			BrakeForce:          26000,
			TiltTorque:          3200,
			FuelBurnRate:        1.6,
		},
		Impact: imp,
	}
}
