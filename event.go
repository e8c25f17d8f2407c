package torsion

import (
	"github.com/akmonengine/torsion/impact"
	"github.com/akmonengine/torsion/suspension"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DAMAGE_APPLIED EventType = iota
	VEHICLE_DESTROYED
	IMPACT
	ACTOR_HIT
	AIRBORNE_BEGIN
	AIRBORNE_END
	VEHICLE_REST
	VEHICLE_WAKE
	SUSPENSION_ADJUSTED
	FUEL_EMPTY
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case DAMAGE_APPLIED:
		return "damage applied"
	case VEHICLE_DESTROYED:
		return "vehicle destroyed"
	case IMPACT:
		return "impact"
	case ACTOR_HIT:
		return "actor hit"
	case AIRBORNE_BEGIN:
		return "airborne begin"
	case AIRBORNE_END:
		return "airborne end"
	case VEHICLE_REST:
		return "vehicle rest"
	case VEHICLE_WAKE:
		return "vehicle wake"
	case SUSPENSION_ADJUSTED:
		return "suspension adjusted"
	case FUEL_EMPTY:
		return "fuel empty"
	}
	return "unknown"
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Damage events
type DamageEvent struct {
	Amount float64
	Source impact.Kind
}

func (e DamageEvent) Type() EventType { return DAMAGE_APPLIED }

type DestroyedEvent struct{}

func (e DestroyedEvent) Type() EventType { return VEHICLE_DESTROYED }

// Contact events
type ImpactEvent struct {
	Position  mgl64.Vec2
	Intensity float64
}

func (e ImpactEvent) Type() EventType { return IMPACT }

type ActorHitEvent struct {
	ActorID string
	Damage  float64
	Speed   float64
}

func (e ActorHitEvent) Type() EventType { return ACTOR_HIT }

// Airborne events
type AirborneBeginEvent struct{}

func (e AirborneBeginEvent) Type() EventType { return AIRBORNE_BEGIN }

type AirborneEndEvent struct{}

func (e AirborneEndEvent) Type() EventType { return AIRBORNE_END }

// Rest/Wake events
type RestEvent struct{}

func (e RestEvent) Type() EventType { return VEHICLE_REST }

type WakeEvent struct{}

func (e WakeEvent) Type() EventType { return VEHICLE_WAKE }

// Tuning events
type SuspensionAdjustedEvent struct {
	Adjustment suspension.Adjustment
}

func (e SuspensionAdjustedEvent) Type() EventType { return SUSPENSION_ADJUSTED }

type FuelEmptyEvent struct{}

func (e FuelEmptyEvent) Type() EventType { return FUEL_EMPTY }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// State tracking for Begin/End and Rest/Wake detection
	wasAirborne bool
	wasResting  bool
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 64),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// emit buffers an event until the next flush
func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// processStateEvents compares the vehicle state against the last observed
// one to detect airborne and rest transitions.
// Should be called once per update, after all substeps.
func (e *Events) processStateEvents(airborne, resting bool) {
	if airborne && !e.wasAirborne {
		e.buffer = append(e.buffer, AirborneBeginEvent{})
	} else if !airborne && e.wasAirborne {
		e.buffer = append(e.buffer, AirborneEndEvent{})
	}
	e.wasAirborne = airborne

	if resting && !e.wasResting {
		e.buffer = append(e.buffer, RestEvent{})
	} else if !resting && e.wasResting {
		e.buffer = append(e.buffer, WakeEvent{})
	}
	e.wasResting = resting
}

// resetState realigns the trackers after a respawn, without emitting
// transition events for the jump back to grounded and awake.
func (e *Events) resetState(airborne, resting bool) {
	e.wasAirborne = airborne
	e.wasResting = resting
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}

// close drops every listener and any undelivered event.
func (e *Events) close() {
	e.listeners = nil
	e.buffer = nil
}
