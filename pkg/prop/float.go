package prop

import (
	"fmt"
	"math"
)

// FloatConstraint constrains a float property such as the frame rate.
type FloatConstraint interface {
	Compare(float32) (float64, bool)
	Value() (float32, bool)
}

// Float prefers the value closest to it. The distance is relative, so 25 fps
// against 30 weighs the same as 1600 px against 1920.
type Float float32

// Compare implements FloatConstraint.
func (f Float) Compare(a float32) (float64, bool) {
	return relative(float64(f), float64(a)), true
}

// Value implements FloatConstraint.
func (f Float) Value() (float32, bool) { return float32(f), true }

func (f Float) String() string {
	return fmt.Sprintf("%.2f (ideal)", float32(f))
}

// relative returns |a-b| scaled by the larger magnitude, 0 when equal.
func relative(want, got float64) float64 {
	if want == got {
		return 0
	}
	return math.Abs(got-want) / math.Max(math.Abs(got), math.Abs(want))
}

// ideal scores a preference: a match costs nothing, anything else costs one
// but still qualifies.
func ideal(match bool) (float64, bool) {
	if match {
		return 0, true
	}
	return 1, true
}

// exact scores a requirement: anything but a match disqualifies.
func exact(match bool) (float64, bool) {
	if match {
		return 0, true
	}
	return 1, false
}
