package motion

import (
	"math"
	"time"
)

// EaseOutCubic decelerates toward t = 1.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// EaseOutQuint decelerates harder than [EaseOutCubic].
func EaseOutQuint(t float64) float64 {
	return 1 - math.Pow(1-t, 5)
}

// StepVelocity decays v by exp(-friction * delta). The sign of v never flips
// and repeated steps converge to zero.
func StepVelocity(v, friction float64, delta time.Duration) float64 {
	return v * math.Exp(-friction*delta.Seconds())
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
