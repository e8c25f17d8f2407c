// Package impact classifies externally detected contact events and computes
// the damage and bounce response. It never reaches back into the integrator:
// the owner applies the returned impulse and forwards the damage numbers.
package impact

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags what the vehicle hit. The zero value is deliberately the
// unknown kind, so a malformed event without a type falls into the generic
// low-damage path.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindTerrain
	KindObstacle
	KindActor
)

func (k Kind) String() string {
	switch k {
	case KindTerrain:
		return "terrain"
	case KindObstacle:
		return "obstacle"
	case KindActor:
		return "actor"
	}
	return "unknown"
}

// Contact is one collision event delivered by the external detection layer.
type Contact struct {
	Kind          Kind
	RelativeSpeed float64
	Normal        mgl64.Vec2 // world frame, zero value defaults to straight up
	Position      mgl64.Vec2
	OtherID       string
}

var (
	ErrDamageRate  = errors.New("impact: damage rates must not be negative")
	ErrThreshold   = errors.New("impact: actor speed threshold must be positive")
	ErrScale       = errors.New("impact: damage scales must not be negative")
	ErrRestitution = errors.New("impact: restitution must be in [0, 1]")
	ErrArmorCap    = errors.New("impact: armor cap must be in [0, 1)")
)

// Config tunes the response. Every threshold that changes who takes the
// brunt of a hit lives here, never inline.
type Config struct {
	ObstacleDamageRate float64 // damage per unit of relative speed
	ActorDamageRate    float64

	// Above ActorSpeedThreshold an actor hit punishes the actor and spares
	// the vehicle; below it the shares flip.
	ActorSpeedThreshold   float64
	HighSpeedVehicleScale float64
	HighSpeedActorScale   float64
	LowSpeedVehicleScale  float64
	LowSpeedActorScale    float64

	UnknownDamage  float64 // flat response to malformed events
	Restitution    float64 // bounce share of the closing speed
	MinImpactSpeed float64 // quieter contacts produce no damage or bounce

	// MaxArmor saturates the armor reduction below 1, so damage is never
	// fully negated.
	MaxArmor float64
}

// DefaultConfig returns the stock response tuning.
func DefaultConfig() Config {
	return Config{
		ObstacleDamageRate:    6.0,
		ActorDamageRate:       4.0,
		ActorSpeedThreshold:   8.0,
		HighSpeedVehicleScale: 0.25,
		HighSpeedActorScale:   3.0,
		LowSpeedVehicleScale:  1.0,
		LowSpeedActorScale:    0.5,
		UnknownDamage:         2.0,
		Restitution:           0.3,
		MinImpactSpeed:        0.5,
		MaxArmor:              0.85,
	}
}

// Validate reports the first bad parameter.
func (c Config) Validate() error {
	if c.ObstacleDamageRate < 0 || c.ActorDamageRate < 0 || c.UnknownDamage < 0 {
		return ErrDamageRate
	}
	if c.ActorSpeedThreshold <= 0 || math.IsNaN(c.ActorSpeedThreshold) {
		return fmt.Errorf("%w (%v)", ErrThreshold, c.ActorSpeedThreshold)
	}
	if c.HighSpeedVehicleScale < 0 || c.HighSpeedActorScale < 0 ||
		c.LowSpeedVehicleScale < 0 || c.LowSpeedActorScale < 0 {
		return ErrScale
	}
	if c.Restitution < 0 || c.Restitution > 1 || math.IsNaN(c.Restitution) {
		return fmt.Errorf("%w (%v)", ErrRestitution, c.Restitution)
	}
	if c.MaxArmor < 0 || c.MaxArmor >= 1 || math.IsNaN(c.MaxArmor) {
		return fmt.Errorf("%w (%v)", ErrArmorCap, c.MaxArmor)
	}
	if c.MinImpactSpeed < 0 {
		return ErrThreshold
	}
	return nil
}

// Response is the computed outcome of one contact. Impulse is a velocity
// change for the chassis; the owner scales it by mass when applying
// momentum. ActorDamage is reported for the external actor system.
type Response struct {
	VehicleDamage float64
	ActorDamage   float64
	Impulse       mgl64.Vec2
	Intensity     float64
	ClearAirborne bool
}

// Responder turns contacts into responses.
type Responder struct {
	cfg Config
}

// NewResponder validates cfg and builds a responder.
func NewResponder(cfg Config) (*Responder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Responder{cfg: cfg}, nil
}

// Config returns the live tuning.
func (r *Responder) Config() Config {
	return r.cfg
}

// ArmorReduction clamps an armor stat into the saturated [0, MaxArmor]
// range actually applied to damage.
func (r *Responder) ArmorReduction(armor float64) float64 {
	if math.IsNaN(armor) {
		return 0
	}
	return mgl64.Clamp(armor, 0, r.cfg.MaxArmor)
}

// Respond computes the outcome of one contact for a vehicle with the given
// armor stat. Terrain contact re-grounds the vehicle without hurting it;
// obstacle and actor damage scale with the relative speed; events without a
// known kind get the flat generic response.
func (r *Responder) Respond(c Contact, armor float64) Response {
	var resp Response

	speed := c.RelativeSpeed
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		speed = 0
	}
	speed = math.Abs(speed)

	keep := 1 - r.ArmorReduction(armor)

	switch c.Kind {
	case KindTerrain:
		resp.ClearAirborne = true
		if speed >= r.cfg.MinImpactSpeed {
			resp.Impulse = contactNormal(c.Normal).Mul(speed * r.cfg.Restitution)
			resp.Intensity = speed
		}

	case KindObstacle:
		if speed < r.cfg.MinImpactSpeed {
			return resp
		}
		resp.VehicleDamage = speed * r.cfg.ObstacleDamageRate * keep
		resp.Impulse = contactNormal(c.Normal).Mul(speed * r.cfg.Restitution)
		resp.Intensity = speed

	case KindActor:
		if speed < r.cfg.MinImpactSpeed {
			return resp
		}
		raw := speed * r.cfg.ActorDamageRate
		if speed > r.cfg.ActorSpeedThreshold {
			resp.VehicleDamage = raw * r.cfg.HighSpeedVehicleScale * keep
			resp.ActorDamage = raw * r.cfg.HighSpeedActorScale
		} else {
			resp.VehicleDamage = raw * r.cfg.LowSpeedVehicleScale * keep
			resp.ActorDamage = raw * r.cfg.LowSpeedActorScale
		}
		resp.Intensity = speed

	default:
		resp.VehicleDamage = r.cfg.UnknownDamage * keep
		resp.Intensity = speed
	}

	return resp
}

// contactNormal sanitizes a contact normal, defaulting to straight up.
func contactNormal(n mgl64.Vec2) mgl64.Vec2 {
	for _, c := range n {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return mgl64.Vec2{0, 1}
		}
	}
	if n.LenSqr() < 1e-12 {
		return mgl64.Vec2{0, 1}
	}
	return n.Normalize()
}
