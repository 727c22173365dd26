package math

import "testing"

func TestFloatEqual(t *testing.T) {
	if !FloatEqual(1.0, 1.0) {
		t.Fatalf("identical values should compare equal")
	}
	// One float32 rounding step away is still equal.
	if !FloatEqual(1.0, 1.0+K_FLOAT_EPSILON/2) {
		t.Fatalf("values within epsilon should compare equal")
	}
	if FloatEqual(1.0, 1.001) {
		t.Fatalf("distinct values should not compare equal")
	}
	if !FloatEqual(0, 0) {
		t.Fatalf("zeros should compare equal")
	}
}

func TestRandomInRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		got := RandomInRange(3, 7)
		if got < 3 || got > 7 {
			t.Fatalf("value %d outside [3, 7]", got)
		}
	}
	if got := RandomInRange(5, 5); got != 5 {
		t.Fatalf("degenerate range should pin the value, got %d", got)
	}
}
