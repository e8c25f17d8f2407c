package control

import (
	"math"
	"testing"
)

// =============================================================================
// Input Clamping Tests
// =============================================================================

func TestControls_Clamped(t *testing.T) {
	tests := []struct {
		name string
		in   Controls
		want Controls
	}{
		{
			name: "in-range values pass through",
			in:   Controls{Throttle: 0.5, Steering: -0.25, Brake: 0.8, Tilt: 1},
			want: Controls{Throttle: 0.5, Steering: -0.25, Brake: 0.8, Tilt: 1},
		},
		{
			name: "overshoot clamps to the rails",
			in:   Controls{Throttle: 2, Steering: -3, Brake: 1.5, Tilt: -9},
			want: Controls{Throttle: 1, Steering: -1, Brake: 1, Tilt: -1},
		},
		{
			name: "negative brake clamps to zero",
			in:   Controls{Brake: -0.4},
			want: Controls{},
		},
		{
			name: "non-finite input collapses to zero",
			in:   Controls{Throttle: math.NaN(), Steering: math.Inf(1), Brake: math.Inf(-1)},
			want: Controls{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamped()
			if got != tt.want {
				t.Errorf("Clamped() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestControls_Active(t *testing.T) {
	if (Controls{}).Active() {
		t.Error("Active() = true for the zero snapshot, want false")
	}
	if !(Controls{Brake: 0.1}).Active() {
		t.Error("Active() = false with brake pressed, want true")
	}
	if !(Controls{Tilt: -0.3}).Active() {
		t.Error("Active() = false with tilt input, want true")
	}
}

// =============================================================================
// Mode Tests
// =============================================================================

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeGrounded, "grounded"},
		{ModeAirborne, "airborne"},
		{Mode(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("Mode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
