// Package wheel tracks the ground contact of the front/rear attachment
// points of a planar chassis. It turns chassis pose plus terrain height into
// per-wheel compression, compression velocity and contact state, which the
// suspension package consumes.
package wheel

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/torsion/suspension"
)

var (
	ErrRestLength = errors.New("wheel: rest length must be positive")
	ErrOffset     = errors.New("wheel: attachment offsets must be finite")
)

// HeightFunc returns the terrain height (world Y) under a world X coordinate.
// It is supplied by the terrain collaborator; the wheel set never assumes a
// particular ground model.
type HeightFunc func(x float64) float64

// Flat returns a HeightFunc for level ground at the given height.
func Flat(height float64) HeightFunc {
	return func(float64) float64 { return height }
}

// Geometry fixes where the wheels hang on the chassis. Offsets are
// chassis-frame attachment points relative to the center of mass;
// RestLength is the natural suspension length below the attachment.
type Geometry struct {
	Offset     [suspension.WheelCount]mgl64.Vec2
	RestLength float64
}

// Set owns the contact state of both wheels. Compression bounds and spring
// rates mirror the live suspension configuration; ApplyConfig refreshes them
// after a suspension adjustment.
type Set struct {
	geo Geometry

	maxCompression [suspension.WheelCount]float64
	maxExtension   [suspension.WheelCount]float64
	springRate     [suspension.WheelCount]float64

	compression [suspension.WheelCount]float64
	velocity    [suspension.WheelCount]float64
	grounded    [suspension.WheelCount]bool
}

// NewSet builds the wheel pair for the given suspension setup and geometry.
func NewSet(cfg suspension.Config, geo Geometry) (*Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if geo.RestLength <= 0 || math.IsNaN(geo.RestLength) {
		return nil, fmt.Errorf("%w (%v)", ErrRestLength, geo.RestLength)
	}
	for i := 0; i < suspension.WheelCount; i++ {
		for _, v := range geo.Offset[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w (wheel %d)", ErrOffset, i)
			}
		}
	}

	s := &Set{geo: geo}
	s.ApplyConfig(cfg)
	for i := 0; i < suspension.WheelCount; i++ {
		s.grounded[i] = true
	}
	return s, nil
}

// ApplyConfig refreshes compression bounds and spring rates from cfg and
// re-clamps the current compression into the new travel range. Called after
// a live suspension adjustment so both views of the setup stay coherent.
func (s *Set) ApplyConfig(cfg suspension.Config) {
	for i := 0; i < suspension.WheelCount; i++ {
		s.maxCompression[i] = cfg.MaxCompression[i]
		s.maxExtension[i] = cfg.MaxExtension[i]
		s.springRate[i] = cfg.SpringRate[i]
		s.compression[i] = mgl64.Clamp(s.compression[i], -s.maxExtension[i], s.maxCompression[i])
	}
}

// InitEquilibrium seats the wheels at the static load point
// mass*gravity/(wheels*rate) instead of zero, so a freshly spawned vehicle
// does not visibly drop onto its springs.
func (s *Set) InitEquilibrium(mass, gravity float64) {
	load := math.Abs(mass * gravity)
	for i := 0; i < suspension.WheelCount; i++ {
		c := load / (suspension.WheelCount * s.springRate[i])
		s.compression[i] = mgl64.Clamp(c, -s.maxExtension[i], s.maxCompression[i])
		s.velocity[i] = 0
		s.grounded[i] = true
	}
}

// Update recomputes the contact state of both wheels for the given chassis
// pose.
func (s *Set) Update(dt float64, position mgl64.Vec2, angle float64, ground HeightFunc) {
	for i := 0; i < suspension.WheelCount; i++ {
		s.UpdateCompression(i, dt, position, angle, ground)
	}
}

// UpdateCompression computes the new compression of wheel i from how far the
// terrain displaces the wheel from its natural resting position, clamps it
// into the configured travel and derives the compression velocity by finite
// difference. It returns the clamped compression.
func (s *Set) UpdateCompression(i int, dt float64, position mgl64.Vec2, angle float64, ground HeightFunc) float64 {
	if i < 0 || i >= suspension.WheelCount {
		return 0
	}

	attach := position.Add(mgl64.Rotate2D(angle).Mul2x1(s.geo.Offset[i]))

	raw := -s.maxExtension[i] - 1
	if ground != nil {
		h := ground(attach.X())
		if !math.IsNaN(h) && !math.IsInf(h, 0) {
			raw = h + s.geo.RestLength - attach.Y()
		}
	}

	clamped := mgl64.Clamp(raw, -s.maxExtension[i], s.maxCompression[i])
	if dt > 0 {
		s.velocity[i] = (clamped - s.compression[i]) / dt
	}
	s.compression[i] = clamped
	s.grounded[i] = raw > -s.maxExtension[i]

	return clamped
}

// Compression returns the current compression of wheel i.
func (s *Set) Compression(i int) float64 {
	if i < 0 || i >= suspension.WheelCount {
		return 0
	}
	return s.compression[i]
}

// CompressionVelocity returns the finite-difference compression velocity of
// wheel i.
func (s *Set) CompressionVelocity(i int) float64 {
	if i < 0 || i >= suspension.WheelCount {
		return 0
	}
	return s.velocity[i]
}

// Grounded reports whether wheel i still touches a surface, i.e. its travel
// is not fully extended.
func (s *Set) Grounded(i int) bool {
	if i < 0 || i >= suspension.WheelCount {
		return false
	}
	return s.grounded[i]
}

// AnyGrounded reports whether at least one wheel has contact. The vehicle is
// airborne exactly when this is false.
func (s *Set) AnyGrounded() bool {
	for i := 0; i < suspension.WheelCount; i++ {
		if s.grounded[i] {
			return true
		}
	}
	return false
}

// Offset returns the chassis-frame attachment point of wheel i.
func (s *Set) Offset(i int) mgl64.Vec2 {
	if i < 0 || i >= suspension.WheelCount {
		return mgl64.Vec2{}
	}
	return s.geo.Offset[i]
}

// SuspensionState bridges the contact state into the input the suspension
// simulator consumes, attaching the external vertical loads.
func (s *Set) SuspensionState(load [suspension.WheelCount]float64) suspension.State {
	st := suspension.State{Load: load}
	for i := 0; i < suspension.WheelCount; i++ {
		st.Compression[i] = s.compression[i]
		st.Velocity[i] = s.velocity[i]
		st.Grounded[i] = s.grounded[i]
		st.LeverArm[i] = s.geo.Offset[i].X()
	}
	return st
}
