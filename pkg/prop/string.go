package prop

import "fmt"

// StringConstraint constrains a string property such as a device ID.
type StringConstraint interface {
	Compare(string) (float64, bool)
	Value() (string, bool)
}

// StringExact only matches devices whose property equals it. Used to pin a
// camera by ID.
type StringExact string

// Compare implements StringConstraint.
func (s StringExact) Compare(a string) (float64, bool) {
	return exact(string(s) == a)
}

// Value implements StringConstraint.
func (s StringExact) Value() (string, bool) { return string(s), true }

func (s StringExact) String() string {
	return fmt.Sprintf("%q (exact)", string(s))
}
