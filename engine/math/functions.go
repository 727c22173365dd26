package math

import (
	m "math"
	"time"

	"golang.org/x/exp/rand"
)

const (
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

var randSeeded bool = false

func kabs(x float32) float32 {
	return float32(m.Abs(float64(x)))
}

// FloatEqual compares two float32 values within epsilon tolerance.
func FloatEqual(a, b float32) bool {
	return kabs(a-b) <= K_FLOAT_EPSILON*kabs(a) ||
		kabs(a-b) <= K_FLOAT_EPSILON*kabs(b) ||
		kabs(a-b) <= K_FLOAT_EPSILON
}

// RandomInRange returns a random int32 in [min, max].
func RandomInRange(min, max int32) int32 {
	if !randSeeded {
		rand.Seed(uint64(time.Now().UnixNano()))
		randSeeded = true
	}
	return (rand.Int31() % (max - min + 1)) + min
}
