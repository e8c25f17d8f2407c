package torsion

import (
	"errors"
	"math"
	"testing"
)

func testStats() Stats {
	return Stats{
		EnginePower:  40000,
		MaxSpeed:     18,
		Armor:        0.2,
		FuelCapacity: 50,
		Fuel:         30,
		MaxHealth:    100,
		Health:       100,
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestStats_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Stats)
		wantErr bool
	}{
		{"valid", func(s *Stats) {}, false},
		{"zero engine power", func(s *Stats) { s.EnginePower = 0 }, true},
		{"negative max speed", func(s *Stats) { s.MaxSpeed = -1 }, true},
		{"negative armor", func(s *Stats) { s.Armor = -0.1 }, true},
		{"full armor", func(s *Stats) { s.Armor = 1.0 }, true},
		{"zero fuel capacity", func(s *Stats) { s.FuelCapacity = 0 }, true},
		{"fuel above capacity", func(s *Stats) { s.Fuel = 51 }, true},
		{"empty tank is fine", func(s *Stats) { s.Fuel = 0 }, false},
		{"zero max health", func(s *Stats) { s.MaxHealth = 0 }, true},
		{"zero health", func(s *Stats) { s.Health = 0 }, true},
		{"health above max", func(s *Stats) { s.Health = 101 }, true},
		{"NaN health", func(s *Stats) { s.Health = math.NaN() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStats()
			tt.mutate(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrStatValue) {
				t.Errorf("Validate() error = %v, want ErrStatValue", err)
			}
		})
	}
}

// =============================================================================
// Damage and Repair Tests
// =============================================================================

func TestStats_ApplyDamage(t *testing.T) {
	s := testStats()

	applied := s.ApplyDamage(60)
	if applied != 60 {
		t.Errorf("ApplyDamage(60) = %v, want 60", applied)
	}
	if s.Health != 40 {
		t.Errorf("Health = %v, want 40", s.Health)
	}
	if s.Destroyed() {
		t.Error("Destroyed() = true at 40 health, want false")
	}
}

func TestStats_ApplyDamage_ClampsAtZero(t *testing.T) {
	s := testStats()
	s.Health = 40

	// More damage than health left: only the remainder is applied.
	applied := s.ApplyDamage(60)
	if applied != 40 {
		t.Errorf("ApplyDamage(60) = %v, want 40", applied)
	}
	if s.Health != 0 {
		t.Errorf("Health = %v, want 0", s.Health)
	}
	if !s.Destroyed() {
		t.Error("Destroyed() = false at 0 health, want true")
	}
}

func TestStats_ApplyDamage_DestroyedIsTerminal(t *testing.T) {
	s := testStats()
	s.ApplyDamage(100)

	if got := s.ApplyDamage(10); got != 0 {
		t.Errorf("ApplyDamage on destroyed = %v, want 0", got)
	}
	if got := s.Repair(50); got != 0 {
		t.Errorf("Repair on destroyed = %v, want 0", got)
	}
	if s.Health != 0 {
		t.Errorf("Health = %v, want 0", s.Health)
	}
}

func TestStats_ApplyDamage_IgnoresBadAmounts(t *testing.T) {
	s := testStats()

	for _, amount := range []float64{0, -5, math.NaN()} {
		if got := s.ApplyDamage(amount); got != 0 {
			t.Errorf("ApplyDamage(%v) = %v, want 0", amount, got)
		}
	}
	if s.Health != 100 {
		t.Errorf("Health = %v, want untouched 100", s.Health)
	}
}

func TestStats_Repair(t *testing.T) {
	s := testStats()
	s.ApplyDamage(60)

	healed := s.Repair(25)
	if healed != 25 {
		t.Errorf("Repair(25) = %v, want 25", healed)
	}
	if s.Health != 65 {
		t.Errorf("Health = %v, want 65", s.Health)
	}

	// Repairing past the cap only restores what is missing.
	healed = s.Repair(100)
	if healed != 35 {
		t.Errorf("Repair(100) = %v, want 35", healed)
	}
	if s.Health != 100 {
		t.Errorf("Health = %v, want 100", s.Health)
	}
}

// =============================================================================
// Fuel Tests
// =============================================================================

func TestStats_ConsumeFuel(t *testing.T) {
	s := testStats()

	burned := s.ConsumeFuel(10)
	if burned != 10 {
		t.Errorf("ConsumeFuel(10) = %v, want 10", burned)
	}
	if s.Fuel != 20 {
		t.Errorf("Fuel = %v, want 20", s.Fuel)
	}

	// The tank never goes negative.
	burned = s.ConsumeFuel(25)
	if burned != 20 {
		t.Errorf("ConsumeFuel(25) = %v, want 20", burned)
	}
	if s.Fuel != 0 {
		t.Errorf("Fuel = %v, want 0", s.Fuel)
	}
}

func TestStats_Refuel(t *testing.T) {
	s := testStats()

	added := s.Refuel(15)
	if added != 15 {
		t.Errorf("Refuel(15) = %v, want 15", added)
	}
	if s.Fuel != 45 {
		t.Errorf("Fuel = %v, want 45", s.Fuel)
	}

	// Filling past the capacity stops at the brim.
	added = s.Refuel(100)
	if added != 5 {
		t.Errorf("Refuel(100) = %v, want 5", added)
	}
	if s.Fuel != 50 {
		t.Errorf("Fuel = %v, want 50", s.Fuel)
	}
}
