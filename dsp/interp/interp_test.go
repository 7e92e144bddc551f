package interp

import (
	"math"
	"testing"
)

func TestLinearEndpoints(t *testing.T) {
	if got := Linear(0, 2, 4); got != 2 {
		t.Fatalf("frac=0: got %v want 2", got)
	}
	if got := Linear(1, 2, 4); got != 4 {
		t.Fatalf("frac=1: got %v want 4", got)
	}
	if got := Linear(0.5, 2, 4); got != 3 {
		t.Fatalf("frac=0.5: got %v want 3", got)
	}
}

func TestHermite4Endpoints(t *testing.T) {
	// At t=0 the result is x0, at t=1 it is x1, regardless of neighbors.
	if got := Hermite4(0, -7, 1, 2, 9); got != 1 {
		t.Fatalf("t=0: got %v want 1", got)
	}
	if got := Hermite4(1, -7, 1, 2, 9); got != 2 {
		t.Fatalf("t=1: got %v want 2", got)
	}
}

func TestHermite4ExactOnRamp(t *testing.T) {
	// Cubic interpolation reproduces a linear ramp exactly.
	got := Hermite4(0.25, 0, 1, 2, 3)
	if math.Abs(got-1.25) > 1e-12 {
		t.Fatalf("ramp: got %v want 1.25", got)
	}
}

func TestHermite4DCPreservation(t *testing.T) {
	got := Hermite4(0.37, 42, 42, 42, 42)
	if math.Abs(got-42) > 1e-12 {
		t.Fatalf("DC: got %v want 42", got)
	}
}
