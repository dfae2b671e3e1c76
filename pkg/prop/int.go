package prop

import "fmt"

// IntConstraint constrains an integer property such as width or height.
type IntConstraint interface {
	Compare(int) (float64, bool)
	Value() (int, bool)
}

// Int prefers the value closest to it.
type Int int

// Compare implements IntConstraint.
func (i Int) Compare(a int) (float64, bool) {
	return relative(float64(i), float64(a)), true
}

// Value implements IntConstraint.
func (i Int) Value() (int, bool) { return int(i), true }

func (i Int) String() string {
	return fmt.Sprintf("%d (ideal)", int(i))
}

// IntExact only matches the same value.
type IntExact int

// Compare implements IntConstraint.
func (i IntExact) Compare(a int) (float64, bool) {
	return exact(int(i) == a)
}

// Value implements IntConstraint.
func (i IntExact) Value() (int, bool) { return int(i), true }

func (i IntExact) String() string {
	return fmt.Sprintf("%d (exact)", int(i))
}
