package torsion

import (
	"errors"
	"fmt"
	"math"
)

var ErrStatValue = errors.New("torsion: vehicle stats must be finite and inside their bounds")

// Stats holds the gameplay numbers of a vehicle. EnginePower and MaxSpeed
// are authoritative here and are pushed into the control mapper, so an
// engine upgrade only has to touch one place.
type Stats struct {
	EnginePower  float64
	MaxSpeed     float64
	Armor        float64
	FuelCapacity float64
	Fuel         float64
	MaxHealth    float64
	Health       float64

	destroyed bool
}

func (s Stats) Validate() error {
	switch {
	case math.IsNaN(s.EnginePower) || s.EnginePower <= 0:
		return fmt.Errorf("%w (engine power %v)", ErrStatValue, s.EnginePower)
	case math.IsNaN(s.MaxSpeed) || s.MaxSpeed <= 0:
		return fmt.Errorf("%w (max speed %v)", ErrStatValue, s.MaxSpeed)
	case math.IsNaN(s.Armor) || s.Armor < 0 || s.Armor >= 1:
		return fmt.Errorf("%w (armor %v)", ErrStatValue, s.Armor)
	case math.IsNaN(s.FuelCapacity) || s.FuelCapacity <= 0:
		return fmt.Errorf("%w (fuel capacity %v)", ErrStatValue, s.FuelCapacity)
	case math.IsNaN(s.Fuel) || s.Fuel < 0 || s.Fuel > s.FuelCapacity:
		return fmt.Errorf("%w (fuel %v)", ErrStatValue, s.Fuel)
	case math.IsNaN(s.MaxHealth) || s.MaxHealth <= 0:
		return fmt.Errorf("%w (max health %v)", ErrStatValue, s.MaxHealth)
	case math.IsNaN(s.Health) || s.Health <= 0 || s.Health > s.MaxHealth:
		return fmt.Errorf("%w (health %v)", ErrStatValue, s.Health)
	}
	return nil
}

// ApplyDamage removes health, never dropping below zero, and latches the
// destroyed state when health reaches zero. It returns the amount
// actually removed, which is zero on an already destroyed vehicle.
func (s *Stats) ApplyDamage(amount float64) float64 {
	if s.destroyed || math.IsNaN(amount) || amount <= 0 {
		return 0
	}
	if amount > s.Health {
		amount = s.Health
	}
	s.Health -= amount
	if s.Health <= 0 {
		s.Health = 0
		s.destroyed = true
	}
	return amount
}

// Repair restores health up to MaxHealth and returns the amount restored.
// A destroyed vehicle cannot be repaired, only respawned.
func (s *Stats) Repair(amount float64) float64 {
	if s.destroyed || math.IsNaN(amount) || amount <= 0 {
		return 0
	}
	if missing := s.MaxHealth - s.Health; amount > missing {
		amount = missing
	}
	s.Health += amount
	return amount
}

// ConsumeFuel drains up to amount from the tank and returns how much was
// actually burned.
func (s *Stats) ConsumeFuel(amount float64) float64 {
	if math.IsNaN(amount) || amount <= 0 {
		return 0
	}
	if amount > s.Fuel {
		amount = s.Fuel
	}
	s.Fuel -= amount
	return amount
}

// Refuel fills the tank up to FuelCapacity and returns the amount added.
func (s *Stats) Refuel(amount float64) float64 {
	if math.IsNaN(amount) || amount <= 0 {
		return 0
	}
	if room := s.FuelCapacity - s.Fuel; amount > room {
		amount = room
	}
	s.Fuel += amount
	return amount
}

// Destroyed reports whether health has ever reached zero.
func (s Stats) Destroyed() bool {
	return s.destroyed
}
