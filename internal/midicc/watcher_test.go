// ABOUTME: Tests for MIDI CC mapping helpers
// ABOUTME: Tests value-to-weight conversion and port exclusion
package midicc

import "testing"

func TestWeightForCC(t *testing.T) {
	tests := []struct {
		value uint8
		want  float64
	}{
		{0, 0.0},
		{127, 2.0},
	}

	for _, tt := range tests {
		if got := WeightForCC(tt.value); got != tt.want {
			t.Errorf("value %d: expected %v, got %v", tt.value, tt.want, got)
		}
	}

	// Midpoint lands near the center of the range
	mid := WeightForCC(64)
	if mid < 1.0 || mid > 1.02 {
		t.Errorf("expected midpoint near 1.0, got %v", mid)
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Midi Through Port-0", true},
		{"Virtual Dummy Out", true},
		{"Launchkey Mini MK3", false},
		{"nanoKONTROL2", false},
	}

	for _, tt := range tests {
		if got := excluded(tt.name); got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
