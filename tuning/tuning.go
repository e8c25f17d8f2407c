// Package tuning loads simulation profiles with viper: world constants,
// server settings and per-template vehicle overrides. Every key has a
// default, so running without a profile file is fine; a torsion.json in
// the config directory overrides selectively.
package tuning

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"github.com/akmonengine/torsion"
	"github.com/akmonengine/torsion/suspension"
)

// World holds the global simulation constants of a profile.
type World struct {
	Gravity   float64 // units/s², downward
	MaxStepDt float64 // substep ceiling, seconds
	RestSpeed float64 // rest detection speed threshold, units/s
	RestTime  float64 // rest detection hold time, seconds
}

// Server holds the simulation server settings of a profile.
type Server struct {
	Addr     string
	TickHz   int
	LogLevel string
}

// Load sets the default for every tunable and reads the optional
// torsion.json profile from configDir. A missing file leaves the
// defaults in place; a malformed file is an error.
func Load(configDir string) error {
	viper.SetDefault("world.gravity", 9.81)
	viper.SetDefault("world.maxStepDt", 1.0/30.0)
	viper.SetDefault("world.restSpeed", 0.05)
	viper.SetDefault("world.restTime", 0.5)

	viper.SetDefault("server.addr", ":8487")
	viper.SetDefault("server.tickHz", 60)
	viper.SetDefault("server.logLevel", "info")

	viper.SetConfigName("torsion")
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("tuning: reading profile: %w", err)
	}
	return nil
}

// WorldProfile returns the loaded world constants.
func WorldProfile() World {
	return World{
		Gravity:   viper.GetFloat64("world.gravity"),
		MaxStepDt: viper.GetFloat64("world.maxStepDt"),
		RestSpeed: viper.GetFloat64("world.restSpeed"),
		RestTime:  viper.GetFloat64("world.restTime"),
	}
}

// ServerProfile returns the loaded server settings.
func ServerProfile() Server {
	return Server{
		Addr:     viper.GetString("server.addr"),
		TickHz:   viper.GetInt("server.tickHz"),
		LogLevel: viper.GetString("server.logLevel"),
	}
}

// Apply writes the world constants onto a spawned vehicle.
func (w World) Apply(v *torsion.Vehicle) {
	v.Gravity = mgl64.Vec2{0, -w.Gravity}
	v.MaxStepDt = w.MaxStepDt
	v.RestSpeed = w.RestSpeed
	v.RestTime = w.RestTime
}

// ApplyOverrides returns tpl with the profile's per-template overrides
// applied, read from the "vehicles.<name>" section. Absent keys leave
// the template untouched. Overridden pools spawn full: a new fuel
// capacity refills the tank, a new max health tops health up.
//
// Suspension tuning goes through relative deltas ("springRateDelta",
// "dampingDelta", "antiRollDelta"), matching the live adjustment model.
func ApplyOverrides(tpl torsion.Template) torsion.Template {
	prefix := "vehicles." + tpl.Name + "."

	overrideFloat(prefix+"enginePower", &tpl.Stats.EnginePower)
	overrideFloat(prefix+"maxSpeed", &tpl.Stats.MaxSpeed)
	overrideFloat(prefix+"armor", &tpl.Stats.Armor)
	if overrideFloat(prefix+"fuelCapacity", &tpl.Stats.FuelCapacity) {
		tpl.Stats.Fuel = tpl.Stats.FuelCapacity
	}
	if overrideFloat(prefix+"maxHealth", &tpl.Stats.MaxHealth) {
		tpl.Stats.Health = tpl.Stats.MaxHealth
	}

	adj := suspension.Adjustment{
		SpringRate: viper.GetFloat64(prefix + "springRateDelta"),
		Damping:    viper.GetFloat64(prefix + "dampingDelta"),
		AntiRoll:   viper.GetFloat64(prefix + "antiRollDelta"),
	}
	if adj != (suspension.Adjustment{}) {
		tpl.Suspension = tpl.Suspension.Adjust(adj)
	}
	return tpl
}

func overrideFloat(key string, dst *float64) bool {
	if !viper.IsSet(key) {
		return false
	}
	*dst = viper.GetFloat64(key)
	return true
}
