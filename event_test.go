package torsion

import (
	"testing"

	"github.com/akmonengine/torsion/impact"
	"github.com/akmonengine/torsion/suspension"
)

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	for _, e := range ec.events {
		if e.Type() == eventType {
			return true
		}
	}
	return false
}

// =============================================================================
// Subscribe and Listeners Tests
// =============================================================================

func TestEvents_Subscribe(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}

	events.Subscribe(DAMAGE_APPLIED, capture.capture)

	if len(events.listeners[DAMAGE_APPLIED]) != 1 {
		t.Errorf("Expected 1 listener for DAMAGE_APPLIED, got %d", len(events.listeners[DAMAGE_APPLIED]))
	}
}

func TestEvents_MultipleListeners(t *testing.T) {
	events := NewEvents()
	capture1 := &eventCapture{}
	capture2 := &eventCapture{}
	capture3 := &eventCapture{}

	events.Subscribe(IMPACT, capture1.capture)
	events.Subscribe(IMPACT, capture2.capture)
	events.Subscribe(IMPACT, capture3.capture)

	events.emit(ImpactEvent{Intensity: 2.5})
	events.flush()

	// All listeners should have received the event
	if capture1.count() != 1 {
		t.Errorf("Capture1 expected 1 event, got %d", capture1.count())
	}
	if capture2.count() != 1 {
		t.Errorf("Capture2 expected 1 event, got %d", capture2.count())
	}
	if capture3.count() != 1 {
		t.Errorf("Capture3 expected 1 event, got %d", capture3.count())
	}
}

func TestEvents_DifferentEventTypes(t *testing.T) {
	events := NewEvents()
	captureDamage := &eventCapture{}
	captureImpact := &eventCapture{}

	events.Subscribe(DAMAGE_APPLIED, captureDamage.capture)
	events.Subscribe(IMPACT, captureImpact.capture)

	events.emit(DamageEvent{Amount: 12, Source: impact.KindObstacle})
	events.flush()

	// Only the damage listener should receive the event
	if captureDamage.count() != 1 {
		t.Errorf("Damage capture expected 1 event, got %d", captureDamage.count())
	}
	if captureImpact.count() != 0 {
		t.Errorf("Impact capture expected 0 events, got %d", captureImpact.count())
	}
}

func TestEvents_EventPayloads(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}

	events.Subscribe(ACTOR_HIT, capture.capture)
	events.Subscribe(SUSPENSION_ADJUSTED, capture.capture)

	events.emit(ActorHitEvent{ActorID: "npc-7", Damage: 40, Speed: 10})
	events.emit(SuspensionAdjustedEvent{Adjustment: suspension.Adjustment{SpringRate: 0.1}})
	events.flush()

	if capture.count() != 2 {
		t.Fatalf("Expected 2 events, got %d", capture.count())
	}

	hit := capture.events[0].(ActorHitEvent)
	if hit.ActorID != "npc-7" || hit.Damage != 40 || hit.Speed != 10 {
		t.Errorf("ActorHitEvent = %+v, want npc-7/40/10", hit)
	}

	adj := capture.events[1].(SuspensionAdjustedEvent)
	if adj.Adjustment.SpringRate != 0.1 {
		t.Errorf("Adjustment.SpringRate = %v, want 0.1", adj.Adjustment.SpringRate)
	}
}

// =============================================================================
// State Transition Tests
// =============================================================================

func TestEvents_AirborneBegin(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(AIRBORNE_BEGIN, capture.capture)

	// Frame 1: still grounded, matches the initial state
	events.processStateEvents(false, false)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events while grounded, got %d", capture.count())
	}

	// Frame 2: leaves the ground
	events.processStateEvents(true, false)
	events.flush()

	if !capture.hasEventType(AIRBORNE_BEGIN) {
		t.Error("Expected AIRBORNE_BEGIN event")
	}
	if capture.count() != 1 {
		t.Errorf("Expected 1 event, got %d", capture.count())
	}
}

func TestEvents_AirborneEnd(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(AIRBORNE_END, capture.capture)

	// Frame 1: leaves the ground
	events.processStateEvents(true, false)
	events.flush()

	capture.reset()

	// Frame 2: lands
	events.processStateEvents(false, false)
	events.flush()

	if !capture.hasEventType(AIRBORNE_END) {
		t.Error("Expected AIRBORNE_END event")
	}
}

func TestEvents_NoAirborneEvent_SteadyState(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(AIRBORNE_BEGIN, capture.capture)
	events.Subscribe(AIRBORNE_END, capture.capture)

	// Frame 1: jump
	events.processStateEvents(true, false)
	events.flush()

	capture.reset()

	// Frame 2: still airborne
	events.processStateEvents(true, false)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events while staying airborne, got %d", capture.count())
	}
}

func TestEvents_RestWakeWorkflow(t *testing.T) {
	events := NewEvents()
	captureRest := &eventCapture{}
	captureWake := &eventCapture{}

	events.Subscribe(VEHICLE_REST, captureRest.capture)
	events.Subscribe(VEHICLE_WAKE, captureWake.capture)

	// Frame 1: comes to rest
	events.processStateEvents(false, true)
	events.flush()

	if captureRest.count() != 1 {
		t.Errorf("Expected 1 VEHICLE_REST event, got %d", captureRest.count())
	}
	if captureWake.count() != 0 {
		t.Errorf("Expected 0 VEHICLE_WAKE events, got %d", captureWake.count())
	}

	// Frame 2: still resting
	captureRest.reset()
	events.processStateEvents(false, true)
	events.flush()

	if captureRest.count() != 0 {
		t.Errorf("Expected no VEHICLE_REST while staying at rest, got %d", captureRest.count())
	}

	// Frame 3: wakes up
	events.processStateEvents(false, false)
	events.flush()

	if captureWake.count() != 1 {
		t.Errorf("Expected 1 VEHICLE_WAKE event, got %d", captureWake.count())
	}
}

func TestEvents_CombinedTransitions(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(AIRBORNE_END, capture.capture)
	events.Subscribe(VEHICLE_REST, capture.capture)

	// Airborne first, then landing and resting in the same update.
	events.processStateEvents(true, false)
	events.flush()
	capture.reset()

	events.processStateEvents(false, true)
	events.flush()

	if !capture.hasEventType(AIRBORNE_END) {
		t.Error("Expected AIRBORNE_END event")
	}
	if !capture.hasEventType(VEHICLE_REST) {
		t.Error("Expected VEHICLE_REST event")
	}
	if capture.count() != 2 {
		t.Errorf("Expected 2 events, got %d", capture.count())
	}
}

func TestEvents_ResetState_SuppressesTransitions(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(AIRBORNE_END, capture.capture)
	events.Subscribe(VEHICLE_WAKE, capture.capture)

	events.processStateEvents(true, true)
	events.flush()
	capture.reset()

	// A respawn realigns the trackers without the END/WAKE pair.
	events.resetState(false, false)
	events.processStateEvents(false, false)
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no events after resetState, got %d", capture.count())
	}
}

// =============================================================================
// Buffer and Edge Cases Tests
// =============================================================================

func TestEvents_Flush_ClearsBuffer(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(FUEL_EMPTY, capture.capture)

	events.emit(FuelEmptyEvent{})
	events.flush()

	if len(events.buffer) != 0 {
		t.Errorf("Expected buffer to be empty after flush, got %d events", len(events.buffer))
	}
	if capture.count() != 1 {
		t.Errorf("Expected 1 event received, got %d", capture.count())
	}

	// A second flush must not re-deliver.
	events.flush()
	if capture.count() != 1 {
		t.Errorf("Expected still 1 event after second flush, got %d", capture.count())
	}
}

func TestEvents_DeliveryOrder(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(DAMAGE_APPLIED, capture.capture)
	events.Subscribe(VEHICLE_DESTROYED, capture.capture)

	events.emit(DamageEvent{Amount: 100, Source: impact.KindObstacle})
	events.emit(DestroyedEvent{})
	events.flush()

	if capture.count() != 2 {
		t.Fatalf("Expected 2 events, got %d", capture.count())
	}
	if capture.events[0].Type() != DAMAGE_APPLIED {
		t.Errorf("First event type = %v, want DAMAGE_APPLIED", capture.events[0].Type())
	}
	if capture.events[1].Type() != VEHICLE_DESTROYED {
		t.Errorf("Second event type = %v, want VEHICLE_DESTROYED", capture.events[1].Type())
	}
}

func TestEvents_EmptyBuffer_Flush(t *testing.T) {
	events := NewEvents()

	// Flush with empty buffer should not crash
	events.flush()
}

func TestEvents_NoListeners(t *testing.T) {
	events := NewEvents()

	// Emitting without any listeners should not crash
	events.emit(DestroyedEvent{})
	events.flush()
}

func TestEvents_Close_DropsPending(t *testing.T) {
	events := NewEvents()
	capture := &eventCapture{}
	events.Subscribe(IMPACT, capture.capture)

	events.emit(ImpactEvent{Intensity: 1})
	events.close()
	events.flush()

	if capture.count() != 0 {
		t.Errorf("Expected no delivery after close, got %d", capture.count())
	}
}

func TestEventType_String(t *testing.T) {
	if got := IMPACT.String(); got != "impact" {
		t.Errorf("IMPACT.String() = %q, want %q", got, "impact")
	}
	if got := FUEL_EMPTY.String(); got != "fuel empty" {
		t.Errorf("FUEL_EMPTY.String() = %q, want %q", got, "fuel empty")
	}
	if got := EventType(200).String(); got != "unknown" {
		t.Errorf("EventType(200).String() = %q, want %q", got, "unknown")
	}
}
