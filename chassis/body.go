// Package chassis owns the planar rigid-body state of a vehicle: position,
// orientation angle, linear and angular velocity. Forces and torques
// accumulate between steps and are integrated with semi-implicit Euler,
// followed by drag and hard velocity caps that keep the body inside its
// stable envelope whatever the inputs were.
package chassis

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Hard caps applied after every integration step.
const (
	DefaultMaxVelocity        = 20.0 // units/s
	DefaultMaxAngularVelocity = 0.3  // rad/s
)

var (
	ErrMass       = errors.New("chassis: mass must be positive")
	ErrDimensions = errors.New("chassis: dimensions must be positive")
)

// Body is a 2D rigid body. Pose and velocity are exported for the owning
// vehicle; mass properties are fixed at construction.
type Body struct {
	Position        mgl64.Vec2
	Angle           float64 // radians, wrapped to (-π, π]
	Velocity        mgl64.Vec2
	AngularVelocity float64

	// Drag rates, applied as exp(-rate*dt) before the hard caps.
	LinearDamping  float64
	AngularDamping float64

	// Velocity caps, rescale-clamped after damping.
	MaxVelocity        float64
	MaxAngularVelocity float64

	mass    float64
	inertia float64

	accumulatedForce  mgl64.Vec2
	accumulatedTorque float64

	resting   bool
	restTimer float64

	velocityClamps uint64
	angularClamps  uint64
}

// NewBody builds a dynamic body from its mass and bounding box dimensions.
// The moment of inertia uses the solid box formula m*(w²+h²)/12.
func NewBody(mass, width, height float64) (*Body, error) {
	if mass <= 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w (%v)", ErrMass, mass)
	}
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return nil, fmt.Errorf("%w (%v x %v)", ErrDimensions, width, height)
	}

	return &Body{
		MaxVelocity:        DefaultMaxVelocity,
		MaxAngularVelocity: DefaultMaxAngularVelocity,
		mass:               mass,
		inertia:            mass * (width*width + height*height) / 12.0,
	}, nil
}

func (b *Body) Mass() float64 {
	return b.mass
}

func (b *Body) Inertia() float64 {
	return b.inertia
}

// Speed returns the magnitude of the linear velocity.
func (b *Body) Speed() float64 {
	return b.Velocity.Len()
}

// Heading returns the chassis forward direction in world frame.
func (b *Body) Heading() mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(b.Angle), math.Sin(b.Angle)}
}

// ToWorld transforms a chassis-frame point into world coordinates.
func (b *Body) ToWorld(local mgl64.Vec2) mgl64.Vec2 {
	return b.Position.Add(mgl64.Rotate2D(b.Angle).Mul2x1(local))
}

// ApplyForce accumulates a world-frame force acting at the given world-frame
// offset from the center of mass. The offset produces torque through the 2D
// cross product offset.x*force.y - offset.y*force.x.
func (b *Body) ApplyForce(force, offset mgl64.Vec2) {
	if !finiteVec(force) || !finiteVec(offset) {
		return
	}
	b.Awake()
	b.accumulatedForce = b.accumulatedForce.Add(force)
	b.accumulatedTorque += offset.X()*force.Y() - offset.Y()*force.X()
}

// ApplyForceAtLocal applies a world-frame force at a chassis-frame
// attachment point.
func (b *Body) ApplyForceAtLocal(force, local mgl64.Vec2) {
	b.ApplyForce(force, mgl64.Rotate2D(b.Angle).Mul2x1(local))
}

// ApplyTorque accumulates a pure torque.
func (b *Body) ApplyTorque(torque float64) {
	if math.IsNaN(torque) || math.IsInf(torque, 0) {
		return
	}
	b.Awake()
	b.accumulatedTorque += torque
}

// ApplyImpulse changes the linear velocity immediately by impulse/mass,
// bypassing the accumulator. Used by collision response between steps.
func (b *Body) ApplyImpulse(impulse mgl64.Vec2) {
	if !finiteVec(impulse) {
		return
	}
	b.Awake()
	b.Velocity = b.Velocity.Add(impulse.Mul(1.0 / b.mass))
	b.clampVelocity()
}

// ClearForces resets the per-step accumulators.
func (b *Body) ClearForces() {
	b.accumulatedForce = mgl64.Vec2{}
	b.accumulatedTorque = 0
}

// Integrate advances the body by dt: accelerate from the accumulated forces
// plus gravity, damp, clamp, then move. The accumulators are cleared at the
// end. Resting bodies and non-positive dt are no-ops.
func (b *Body) Integrate(dt float64, gravity mgl64.Vec2) {
	if b.resting || dt <= 0 || math.IsNaN(dt) {
		return
	}

	accel := gravity.Add(b.accumulatedForce.Mul(1.0 / b.mass))
	b.Velocity = b.Velocity.Add(accel.Mul(dt))
	b.AngularVelocity += b.accumulatedTorque / b.inertia * dt

	// Drag first, hard caps second.
	b.Velocity = b.Velocity.Mul(math.Exp(-b.LinearDamping * dt))
	b.AngularVelocity *= math.Exp(-b.AngularDamping * dt)

	b.clampVelocity()
	b.clampAngular()

	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Angle = WrapAngle(b.Angle + b.AngularVelocity*dt)

	b.ClearForces()
}

// TrySleep puts the body to rest once speed and spin stay below
// speedThreshold for timeThreshold seconds. A resting body freezes until
// something applies a force, torque or impulse to it.
func (b *Body) TrySleep(dt, timeThreshold, speedThreshold float64) {
	if b.Speed() < speedThreshold && math.Abs(b.AngularVelocity) < speedThreshold {
		b.restTimer += dt
		if b.restTimer >= timeThreshold {
			b.Rest()
		}
	} else {
		b.restTimer = 0
	}
}

// Rest freezes the body.
func (b *Body) Rest() {
	b.resting = true
	b.restTimer = 0
	b.Velocity = mgl64.Vec2{}
	b.AngularVelocity = 0
	b.ClearForces()
}

// Awake unfreezes a resting body. On a body that is already awake it
// leaves the rest timer alone, so a steady force holding the body in
// place does not keep it from ever resting.
func (b *Body) Awake() {
	if b.resting {
		b.resting = false
		b.restTimer = 0
	}
}

// Resting reports whether the body is frozen.
func (b *Body) Resting() bool {
	return b.resting
}

// VelocityClamps returns how often the linear cap engaged.
func (b *Body) VelocityClamps() uint64 {
	return b.velocityClamps
}

// AngularClamps returns how often the angular cap engaged.
func (b *Body) AngularClamps() uint64 {
	return b.angularClamps
}

func (b *Body) clampVelocity() {
	speed := b.Velocity.Len()
	if speed > b.MaxVelocity {
		// Rescale, preserving direction.
		b.Velocity = b.Velocity.Mul(b.MaxVelocity / speed)
		b.velocityClamps++
	}
}

func (b *Body) clampAngular() {
	if b.AngularVelocity > b.MaxAngularVelocity {
		b.AngularVelocity = b.MaxAngularVelocity
		b.angularClamps++
	} else if b.AngularVelocity < -b.MaxAngularVelocity {
		b.AngularVelocity = -b.MaxAngularVelocity
		b.angularClamps++
	}
}

// WrapAngle normalizes an angle into (-π, π].
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func finiteVec(v mgl64.Vec2) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
