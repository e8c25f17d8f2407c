package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/torsion"
	"github.com/akmonengine/torsion/control"
	"github.com/akmonengine/torsion/impact"
	"github.com/akmonengine/torsion/suspension"
)

// bumpyRoad is the demo terrain: a flat shoulder, then a long stretch of
// sine bumps.
func bumpyRoad(x float64) float64 {
	if x < 12 {
		return 0
	}
	return 0.12 * math.Sin((x-12)/1.5)
}

// SetupVehicle spawns the scout on the bumpy road and wires the event
// subscriptions that narrate the run.
func SetupVehicle() (*torsion.Vehicle, error) {
	v, err := torsion.New("scout")
	if err != nil {
		return nil, err
	}
	v.Terrain = bumpyRoad

	v.Events.Subscribe(torsion.IMPACT, func(e torsion.Event) {
		hit := e.(torsion.ImpactEvent)
		fmt.Printf("  >> impact at x=%.1f, intensity %.1f\n", hit.Position.X(), hit.Intensity)
	})
	v.Events.Subscribe(torsion.DAMAGE_APPLIED, func(e torsion.Event) {
		dmg := e.(torsion.DamageEvent)
		fmt.Printf("  >> took %.1f damage from %s\n", dmg.Amount, dmg.Source)
	})
	v.Events.Subscribe(torsion.VEHICLE_DESTROYED, func(torsion.Event) {
		fmt.Println("  >> wrecked!")
	})
	v.Events.Subscribe(torsion.AIRBORNE_BEGIN, func(torsion.Event) {
		fmt.Println("  >> wheels off the ground")
	})
	v.Events.Subscribe(torsion.AIRBORNE_END, func(torsion.Event) {
		fmt.Println("  >> back on the road")
	})
	v.Events.Subscribe(torsion.VEHICLE_REST, func(torsion.Event) {
		fmt.Println("  >> came to rest")
	})
	v.Events.Subscribe(torsion.FUEL_EMPTY, func(torsion.Event) {
		fmt.Println("  >> tank is dry")
	})

	return v, nil
}

// DriveTheRoad throttles down the road, clips a rock on the shoulder,
// rides the bumps, then brakes and settles.
func DriveTheRoad() {
	fmt.Println("Scout on the bumpy road")
	fmt.Println("=======================")

	v, err := SetupVehicle()
	if err != nil {
		fmt.Println("spawn failed:", err)
		return
	}
	defer v.Dispose()

	stats := v.Stats()
	fmt.Printf("Starting out:\n")
	fmt.Printf("  Position: %v\n", v.Position())
	fmt.Printf("  Health: %.0f  Fuel: %.1f\n", stats.Health, stats.Fuel)
	fmt.Println()

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 900

	hitRock := false
	for step := 0; step < maxSteps; step++ {
		t := float64(step) * dt
		switch {
		case t < 9:
			v.SetControls(control.Controls{Throttle: 1})
		case t < 11:
			v.SetControls(control.Controls{Brake: 1})
		default:
			v.SetControls(control.Controls{})
		}

		// A rock on the shoulder, clipped once while still gathering speed.
		if !hitRock && v.Position().X() > 1.5 {
			hitRock = true
			v.QueueContact(impact.Contact{
				Kind:          impact.KindObstacle,
				RelativeSpeed: v.Speed(),
				Normal:        mgl64.Vec2{-0.8, 0.6},
				Position:      v.Position(),
			})
		}

		v.Update(dt)

		if step%60 == 0 {
			tel := v.Telemetry()
			fmt.Printf("t=%4.1fs  x=%6.2f y=%5.2f  speed=%5.2f  comp=[%.3f %.3f]  %s\n",
				t+dt, v.Position().X(), v.Position().Y(), v.Speed(),
				tel.Compression[suspension.WheelFront],
				tel.Compression[suspension.WheelRear],
				describe(v))
		}
	}

	fmt.Println()
	tel := v.Telemetry()
	stats = v.Stats()
	fmt.Printf("After the run:\n")
	fmt.Printf("  Position: %v  Rotation: %.3f\n", v.Position(), v.Rotation())
	fmt.Printf("  Health: %.1f  Fuel: %.1f\n", stats.Health, stats.Fuel)
	fmt.Printf("  Damper temps: front %.1f rear %.1f, work %.0f\n",
		tel.DamperTemperature[suspension.WheelFront],
		tel.DamperTemperature[suspension.WheelRear],
		tel.DamperWork)
	fmt.Printf("  Clamps: velocity %d, angular %d, force %d\n",
		tel.VelocityClamps, tel.AngularClamps, tel.ForceClamps)
	fmt.Println()
	fmt.Println("Run complete.")
}

func describe(v *torsion.Vehicle) string {
	switch {
	case v.IsDestroyed():
		return "destroyed"
	case v.IsAirborne():
		return "airborne"
	case v.IsResting():
		return "resting"
	}
	return "rolling"
}

func main() {
	DriveTheRoad()
}
