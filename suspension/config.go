// Package suspension models the per-wheel spring/damper/anti-roll forces of a
// planar two-wheel (front/rear) vehicle. The simulator is independent of the
// chassis representation: it consumes compression state and produces axis
// forces plus aggregate roll/pitch diagnostics.
package suspension

import (
	"errors"
	"fmt"
	"math"
)

// Wheel slots of the planar front/rear model.
const (
	WheelFront = 0
	WheelRear  = 1
	WheelCount = 2
)

var (
	ErrSpringRate = errors.New("suspension: spring rate must be positive")
	ErrDamping    = errors.New("suspension: damping coefficient must not be negative")
	ErrTravel     = errors.New("suspension: travel bounds must be positive")
	ErrAntiRoll   = errors.New("suspension: anti-roll stiffness must not be negative")
	ErrBumpStop   = errors.New("suspension: bump stop ratio must be in (0, 1)")
	ErrThermal    = errors.New("suspension: thermal parameters must not be negative")
	ErrForceLimit = errors.New("suspension: force limit must be positive")
)

// Config is the immutable tuning of one suspension setup. It is owned by the
// vehicle type definition and shared read-only; Adjust produces a new value
// instead of mutating in place.
type Config struct {
	SpringRate     [WheelCount]float64 // N per unit of compression
	SpringPreload  [WheelCount]float64 // N at neutral length
	MaxCompression [WheelCount]float64 // travel limit, units
	MaxExtension   [WheelCount]float64 // droop limit, units

	// Damping is the base coefficient; the stroke-direction pair overrides it
	// when set. Validation fills the pair from Damping when both are zero.
	Damping            [WheelCount]float64
	CompressionDamping [WheelCount]float64
	ReboundDamping     [WheelCount]float64

	// AntiRollBarStiffness couples the front/rear pair against differential
	// compression. Zero disables the bar.
	AntiRollBarStiffness float64

	// Progressive rate (bump stop). Above BumpStopRatio*MaxCompression the
	// effective rate climbs quadratically with BumpStopGain.
	Progressive   bool
	BumpStopRatio float64
	BumpStopGain  float64

	// Damper thermal fade. Work heats the damper, heat bleeds off toward
	// AmbientTemp, and hot dampers lose effectiveness down to MinFade.
	Thermal     bool
	AmbientTemp float64 // °C
	HeatRate    float64 // °C per joule of damper work
	CoolingRate float64 // 1/s exponential return to ambient
	FadeFactor  float64 // damping scale lost per °C above ambient
	MinFade     float64 // floor of the damping scale, (0, 1]

	// ForceLimit is the hard safety clamp on any per-wheel force.
	ForceLimit float64
}

// DefaultConfig returns a mid-size road setup. Values are per wheel of a
// two-wheel model carrying roughly half the chassis each.
func DefaultConfig() Config {
	return Config{
		SpringRate:     [WheelCount]float64{42000, 38000},
		SpringPreload:  [WheelCount]float64{900, 800},
		MaxCompression: [WheelCount]float64{0.28, 0.30},
		MaxExtension:   [WheelCount]float64{0.22, 0.24},

		CompressionDamping: [WheelCount]float64{3200, 3000},
		ReboundDamping:     [WheelCount]float64{4100, 3800},

		AntiRollBarStiffness: 9000,

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
	}
}

// Validate reports the first configuration error found. Invalid setups must
// be rejected at construction, before they can feed NaN into the integrator.
func (c Config) Validate() error {
	for i := 0; i < WheelCount; i++ {
		if c.SpringRate[i] <= 0 || math.IsNaN(c.SpringRate[i]) || math.IsInf(c.SpringRate[i], 0) {
			return fmt.Errorf("%w (wheel %d: %v)", ErrSpringRate, i, c.SpringRate[i])
		}
		if c.MaxCompression[i] <= 0 || c.MaxExtension[i] <= 0 {
			return fmt.Errorf("%w (wheel %d)", ErrTravel, i)
		}
		if c.Damping[i] < 0 || c.CompressionDamping[i] < 0 || c.ReboundDamping[i] < 0 {
			return fmt.Errorf("%w (wheel %d)", ErrDamping, i)
		}
	}
	if c.AntiRollBarStiffness < 0 {
		return ErrAntiRoll
	}
	if c.Progressive {
		if c.BumpStopRatio <= 0 || c.BumpStopRatio >= 1 {
			return fmt.Errorf("%w (ratio %v)", ErrBumpStop, c.BumpStopRatio)
		}
		if c.BumpStopGain < 0 {
			return fmt.Errorf("%w (gain %v)", ErrBumpStop, c.BumpStopGain)
		}
	}
	if c.Thermal {
		if c.HeatRate < 0 || c.CoolingRate < 0 || c.FadeFactor < 0 {
			return ErrThermal
		}
		if c.MinFade <= 0 || c.MinFade > 1 {
			return fmt.Errorf("%w (min fade %v)", ErrThermal, c.MinFade)
		}
	}
	if c.ForceLimit <= 0 {
		return ErrForceLimit
	}
	return nil
}

// normalized fills the asymmetric damping pair from the base coefficient
// where the pair was left at zero.
func (c Config) normalized() Config {
	for i := 0; i < WheelCount; i++ {
		if c.CompressionDamping[i] == 0 && c.ReboundDamping[i] == 0 && c.Damping[i] > 0 {
			c.CompressionDamping[i] = c.Damping[i]
			c.ReboundDamping[i] = c.Damping[i]
		}
	}
	return c
}

// Adjustment holds relative deltas applied by Adjust, e.g. SpringRate 0.10
// raises every spring rate by ten percent.
type Adjustment struct {
	SpringRate float64
	Preload    float64
	Damping    float64
	AntiRoll   float64
	Travel     float64
}

// Adjust returns a new configuration with the relative deltas applied. The
// receiver is never mutated; sharers of the old value keep seeing it.
func (c Config) Adjust(adj Adjustment) Config {
	out := c
	for i := 0; i < WheelCount; i++ {
		out.SpringRate[i] *= 1 + adj.SpringRate
		out.SpringPreload[i] *= 1 + adj.Preload
		out.Damping[i] *= 1 + adj.Damping
		out.CompressionDamping[i] *= 1 + adj.Damping
		out.ReboundDamping[i] *= 1 + adj.Damping
		out.MaxCompression[i] *= 1 + adj.Travel
		out.MaxExtension[i] *= 1 + adj.Travel
	}
	out.AntiRollBarStiffness *= 1 + adj.AntiRoll
	return out
}
