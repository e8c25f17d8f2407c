// Package torsion simulates arcade ground vehicles on a side-view 2D
// terrain: spring/damper suspension, input-driven engine forces, impact
// damage and the bookkeeping around fuel, health and upgrades.
package torsion

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/torsion/chassis"
	"github.com/akmonengine/torsion/control"
	"github.com/akmonengine/torsion/impact"
	"github.com/akmonengine/torsion/suspension"
	"github.com/akmonengine/torsion/wheel"
)

const (
	// DefaultGravity is the downward acceleration in units/s².
	DefaultGravity = 9.81

	// DefaultMaxStepDt caps the integration step. Updates asking for more
	// time are cut into equal substeps, so a one second frame hitch does
	// not blow up the springs.
	DefaultMaxStepDt = 1.0 / 30.0

	// Rest detection thresholds, speed in units/s and time in seconds.
	DefaultRestSpeed = 0.05
	DefaultRestTime  = 0.5
)

// Per-level upgrade increments.
const (
	upgradePowerStep    = 0.08
	upgradeSpeedStep    = 0.03
	upgradeArmorStep    = 0.04
	upgradeFuelStep     = 0.10
	upgradeHandlingStep = 0.05
)

var (
	ErrDisposed        = errors.New("torsion: vehicle has been disposed")
	ErrUpgradeLevel    = errors.New("torsion: upgrade level must be at least 1")
	ErrUpgradeCategory = errors.New("torsion: unknown upgrade category")
)

type UpgradeCategory uint8

const (
	UpgradeEngine UpgradeCategory = iota
	UpgradeArmor
	UpgradeFuelTank
	UpgradeSuspension
)

func (c UpgradeCategory) String() string {
	switch c {
	case UpgradeEngine:
		return "engine"
	case UpgradeArmor:
		return "armor"
	case UpgradeFuelTank:
		return "fuel tank"
	case UpgradeSuspension:
		return "suspension"
	}
	return "unknown"
}

// Vehicle is one simulated vehicle. It owns a chassis body, a wheel pair,
// the suspension simulator, the input mapper and the impact responder, and
// steps them in a fixed order: contacts, controls, wheels, suspension,
// integration.
//
// A Vehicle is not safe for concurrent use; owners drive it from a single
// simulation goroutine.
type Vehicle struct {
	template Template

	body      *chassis.Body
	wheels    *wheel.Set
	susp      *suspension.Simulator
	mapper    *control.Mapper
	responder *impact.Responder
	stats     Stats

	// Gravity acceleration (units/s², or N/kg)
	Gravity mgl64.Vec2
	// Terrain yields the ground height under a world X position.
	Terrain wheel.HeightFunc

	MaxStepDt float64
	RestSpeed float64
	RestTime  float64

	Events Events

	contacts   []impact.Contact
	loads      [suspension.WheelCount]float64
	lastForces suspension.Forces
	airborne   bool
	outOfFuel  bool
	disposed   bool
}

// New spawns a vehicle from a builtin template name.
func New(typeName string) (*Vehicle, error) {
	tpl, ok := BuiltinTemplates()[typeName]
	if !ok {
		return nil, fmt.Errorf("%w (%q)", ErrUnknownTemplate, typeName)
	}
	return NewFromTemplate(tpl)
}

// NewFromTemplate validates the template and spawns a vehicle resting on
// flat ground at the origin, wheels pre-seated at their static load point
// so the chassis does not drop onto its springs on the first update.
func NewFromTemplate(tpl Template) (*Vehicle, error) {
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	body, err := chassis.NewBody(tpl.Mass, tpl.Width, tpl.Height)
	if err != nil {
		return nil, err
	}
	body.LinearDamping = tpl.LinearDamping
	body.AngularDamping = tpl.AngularDamping

	susp, err := suspension.NewSimulator(tpl.Suspension)
	if err != nil {
		return nil, err
	}
	wheels, err := wheel.NewSet(tpl.Suspension, tpl.geometry())
	if err != nil {
		return nil, err
	}

	ctl := tpl.Control
	ctl.EnginePower = tpl.Stats.EnginePower
	ctl.MaxSpeed = tpl.Stats.MaxSpeed
	mapper, err := control.NewMapper(ctl)
	if err != nil {
		return nil, err
	}

	responder, err := impact.NewResponder(tpl.Impact)
	if err != nil {
		return nil, err
	}

	v := &Vehicle{
		template:  tpl,
		body:      body,
		wheels:    wheels,
		susp:      susp,
		mapper:    mapper,
		responder: responder,
		stats:     tpl.Stats,

		Gravity:   mgl64.Vec2{0, -DefaultGravity},
		Terrain:   wheel.Flat(0),
		MaxStepDt: DefaultMaxStepDt,
		RestSpeed: DefaultRestSpeed,
		RestTime:  DefaultRestTime,

		Events: NewEvents(),
	}

	v.wheels.InitEquilibrium(tpl.Mass, DefaultGravity)
	seat := (v.wheels.Compression(suspension.WheelFront) + v.wheels.Compression(suspension.WheelRear)) / 2
	v.body.Position = mgl64.Vec2{0, tpl.RideHeight + tpl.AxleDrop - seat}

	return v, nil
}

// Update advances the simulation by dt seconds. Oversized steps are cut
// into substeps of at most MaxStepDt; buffered events are delivered once
// at the end of the whole update.
func (v *Vehicle) Update(dt float64) {
	if v.disposed || dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}

	maxStep := v.MaxStepDt
	if maxStep <= 0 || math.IsNaN(maxStep) {
		maxStep = DefaultMaxStepDt
	}
	steps := max(1, int(math.Ceil(dt/maxStep)))
	h := dt / float64(steps)

	for range steps {
		v.step(h)
	}

	v.Events.processStateEvents(v.airborne, v.body.Resting())
	v.Events.flush()
}

// UpdateMillis advances the simulation by dt milliseconds.
func (v *Vehicle) UpdateMillis(dt float64) {
	v.Update(dt / 1000)
}

func (v *Vehicle) step(h float64) {
	v.resolveContacts()

	if !v.body.Resting() {
		v.applyControls(h)
	}

	v.wheels.Update(h, v.body.Position, v.body.Angle, v.Terrain)
	v.airborne = !v.wheels.AnyGrounded()

	if !v.body.Resting() {
		v.applySuspension(h)
	}

	v.body.Integrate(h, v.Gravity)

	if !v.airborne && !v.mapper.Controls().Active() {
		v.body.TrySleep(h, v.RestTime, v.RestSpeed)
	}
}

// resolveContacts consumes the queued contacts: impulse on the body,
// damage on the stats, events for the owner.
func (v *Vehicle) resolveContacts() {
	if len(v.contacts) == 0 {
		return
	}
	for _, c := range v.contacts {
		res := v.responder.Respond(c, v.stats.Armor)

		if res.ClearAirborne {
			v.airborne = false
		}
		if res.Impulse != (mgl64.Vec2{}) {
			v.body.ApplyImpulse(res.Impulse.Mul(v.body.Mass()))
		}
		if res.VehicleDamage > 0 {
			v.damage(res.VehicleDamage, c.Kind)
		}
		if res.ActorDamage > 0 {
			v.Events.emit(ActorHitEvent{
				ActorID: c.OtherID,
				Damage:  res.ActorDamage,
				Speed:   math.Abs(c.RelativeSpeed),
			})
		}
		if res.Intensity > 0 {
			v.Events.emit(ImpactEvent{Position: c.Position, Intensity: res.Intensity})
		}
	}
	v.contacts = v.contacts[:0]
}

// applyControls maps the stored inputs into forces. A destroyed vehicle
// has a dead engine: the wreck keeps rolling but produces nothing.
func (v *Vehicle) applyControls(h float64) {
	if v.stats.Destroyed() {
		return
	}

	mode := control.ModeGrounded
	if v.airborne {
		mode = control.ModeAirborne
	}

	out := v.mapper.Map(h, control.State{
		Mode:     mode,
		Heading:  v.body.Heading(),
		Velocity: v.body.Velocity,
		Fuel:     v.stats.Fuel,
		Mass:     v.body.Mass(),
	})

	if out.Force != (mgl64.Vec2{}) {
		v.body.ApplyForce(out.Force, mgl64.Vec2{})
	}
	if out.Torque != 0 {
		v.body.ApplyTorque(out.Torque)
	}
	if out.FuelBurn > 0 {
		v.stats.ConsumeFuel(out.FuelBurn)
		if v.stats.Fuel <= 0 && !v.outOfFuel {
			v.outOfFuel = true
			v.Events.emit(FuelEmptyEvent{})
		}
	}
}

// applySuspension turns the wheel contact state into vertical forces at
// the attachment points. The one-shot external loads are consumed here.
func (v *Vehicle) applySuspension(h float64) {
	st := v.wheels.SuspensionState(v.loads)
	v.loads = [suspension.WheelCount]float64{}

	v.lastForces = v.susp.Forces(st, h)
	for i := 0; i < suspension.WheelCount; i++ {
		if lift := -v.lastForces.Wheel[i]; lift != 0 {
			v.body.ApplyForceAtLocal(mgl64.Vec2{0, lift}, v.wheels.Offset(i))
		}
	}
}

func (v *Vehicle) damage(amount float64, source impact.Kind) {
	applied := v.stats.ApplyDamage(amount)
	if applied <= 0 {
		return
	}
	v.Events.emit(DamageEvent{Amount: applied, Source: source})
	if v.stats.Destroyed() {
		v.Events.emit(DestroyedEvent{})
	}
}

// SetControls stores the input snapshot for the following updates. Any
// active input wakes a resting vehicle.
func (v *Vehicle) SetControls(c control.Controls) {
	if v.disposed {
		return
	}
	v.mapper.SetControls(c)
	if v.mapper.Controls().Active() {
		v.body.Awake()
	}
}

// QueueContact registers a contact reported by the owning game; it is
// resolved at the start of the next step.
func (v *Vehicle) QueueContact(c impact.Contact) {
	if v.disposed {
		return
	}
	v.contacts = append(v.contacts, c)
	v.body.Awake()
}

// SetWheelLoad sets an external vertical load on one wheel for the next
// step, e.g. cargo shifting or another body resting on the vehicle.
func (v *Vehicle) SetWheelLoad(i int, force float64) {
	if v.disposed || i < 0 || i >= suspension.WheelCount {
		return
	}
	if math.IsNaN(force) || math.IsInf(force, 0) {
		force = 0
	}
	v.loads[i] = force
	v.body.Awake()
}

// SetPosition teleports the chassis and re-seats the wheels on the new
// ground without generating a compression velocity spike.
func (v *Vehicle) SetPosition(p mgl64.Vec2) {
	if v.disposed {
		return
	}
	v.body.Position = p
	v.body.Awake()
	v.wheels.Update(0, v.body.Position, v.body.Angle, v.Terrain)
	v.airborne = !v.wheels.AnyGrounded()
}

// ApplyUpgrade permanently improves one stat family by the given level.
func (v *Vehicle) ApplyUpgrade(category UpgradeCategory, level int) error {
	if v.disposed {
		return ErrDisposed
	}
	if level < 1 {
		return fmt.Errorf("%w (%d)", ErrUpgradeLevel, level)
	}
	scale := float64(level)

	switch category {
	case UpgradeEngine:
		power := v.stats.EnginePower * (1 + upgradePowerStep*scale)
		speed := math.Min(v.stats.MaxSpeed*(1+upgradeSpeedStep*scale), v.body.MaxVelocity)
		cfg := v.mapper.Config()
		cfg.EnginePower = power
		cfg.MaxSpeed = speed
		if err := v.mapper.SetConfig(cfg); err != nil {
			return err
		}
		v.stats.EnginePower = power
		v.stats.MaxSpeed = speed
	case UpgradeArmor:
		v.stats.Armor = mgl64.Clamp(v.stats.Armor+upgradeArmorStep*scale, 0, v.responder.Config().MaxArmor)
	case UpgradeFuelTank:
		v.stats.FuelCapacity *= 1 + upgradeFuelStep*scale
	case UpgradeSuspension:
		return v.AdjustSuspension(suspension.Adjustment{
			SpringRate: upgradeHandlingStep * scale,
			Damping:    upgradeHandlingStep * scale,
			AntiRoll:   upgradeHandlingStep * scale,
		})
	default:
		return fmt.Errorf("%w (%d)", ErrUpgradeCategory, category)
	}
	return nil
}

// AdjustSuspension applies relative tuning deltas to the live suspension
// and keeps the wheel travel bounds coherent with the new setup. The
// change notification is delivered immediately.
func (v *Vehicle) AdjustSuspension(adj suspension.Adjustment) error {
	if v.disposed {
		return ErrDisposed
	}
	if err := v.susp.Adjust(adj); err != nil {
		return err
	}
	v.wheels.ApplyConfig(v.susp.Config())
	v.Events.emit(SuspensionAdjustedEvent{Adjustment: adj})
	v.Events.flush()
	return nil
}

// Repair restores health, capped at MaxHealth. Destroyed vehicles cannot
// be repaired, only Reset. Returns the amount restored.
func (v *Vehicle) Repair(amount float64) float64 {
	if v.disposed {
		return 0
	}
	return v.stats.Repair(amount)
}

// Refuel fills the tank, capped at FuelCapacity, and returns the amount
// added.
func (v *Vehicle) Refuel(amount float64) float64 {
	if v.disposed {
		return 0
	}
	added := v.stats.Refuel(amount)
	if added > 0 {
		v.outOfFuel = false
	}
	return added
}

// Reset respawns the vehicle from its template: full health and fuel,
// rest pose over the origin, upgrades and live tuning discarded. Event
// subscriptions and the owner-set knobs (Gravity, Terrain, step limits)
// survive the respawn.
func (v *Vehicle) Reset() error {
	if v.disposed {
		return ErrDisposed
	}
	fresh, err := NewFromTemplate(v.template)
	if err != nil {
		return err
	}

	v.body = fresh.body
	v.wheels = fresh.wheels
	v.susp = fresh.susp
	v.mapper = fresh.mapper
	v.responder = fresh.responder
	v.stats = fresh.stats

	v.contacts = v.contacts[:0]
	v.loads = [suspension.WheelCount]float64{}
	v.lastForces = suspension.Forces{}
	v.airborne = false
	v.outOfFuel = false
	v.Events.resetState(false, false)
	return nil
}

// Dispose releases the vehicle. Safe to call more than once; afterwards
// every operation is a no-op and accessors return zero values.
func (v *Vehicle) Dispose() {
	if v.disposed {
		return
	}
	v.disposed = true
	v.body = nil
	v.wheels = nil
	v.susp = nil
	v.mapper = nil
	v.responder = nil
	v.contacts = nil
	v.Terrain = nil
	v.Events.close()
}

// Name returns the template name the vehicle was spawned from.
func (v *Vehicle) Name() string {
	return v.template.Name
}

// Template returns a copy of the spawn definition.
func (v *Vehicle) Template() Template {
	return v.template
}

// Position returns the world position of the center of mass.
func (v *Vehicle) Position() mgl64.Vec2 {
	if v.disposed {
		return mgl64.Vec2{}
	}
	return v.body.Position
}

// Rotation returns the chassis angle in radians, wrapped to (-π, π].
func (v *Vehicle) Rotation() float64 {
	if v.disposed {
		return 0
	}
	return v.body.Angle
}

// Velocity returns the world velocity of the center of mass.
func (v *Vehicle) Velocity() mgl64.Vec2 {
	if v.disposed {
		return mgl64.Vec2{}
	}
	return v.body.Velocity
}

// Speed returns the velocity magnitude.
func (v *Vehicle) Speed() float64 {
	if v.disposed {
		return 0
	}
	return v.body.Speed()
}

// IsAirborne reports whether no wheel has ground contact.
func (v *Vehicle) IsAirborne() bool {
	return !v.disposed && v.airborne
}

// IsResting reports whether the chassis is frozen at rest.
func (v *Vehicle) IsResting() bool {
	return !v.disposed && v.body.Resting()
}

// IsDestroyed reports whether health has reached zero.
func (v *Vehicle) IsDestroyed() bool {
	return !v.disposed && v.stats.Destroyed()
}

// Stats returns a snapshot of the gameplay stats.
func (v *Vehicle) Stats() Stats {
	if v.disposed {
		return Stats{}
	}
	return v.stats
}

// Controls returns the stored input snapshot.
func (v *Vehicle) Controls() control.Controls {
	if v.disposed {
		return control.Controls{}
	}
	return v.mapper.Controls()
}
