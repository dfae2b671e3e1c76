package prop

// FacingMode describes which way a camera sensor points relative to the user.
// Values follow https://w3c.github.io/mediacapture-main/#dom-videofacingmodeenum
type FacingMode string

const (
	// FacingModeUnknown is reported by drivers that can't tell where the sensor points,
	// e.g. most USB webcams.
	FacingModeUnknown FacingMode = ""
	// FacingModeUser is a camera pointing at the user (front camera).
	FacingModeUser FacingMode = "user"
	// FacingModeEnvironment is a camera pointing away from the user (rear camera).
	FacingModeEnvironment FacingMode = "environment"
)

// FacingModeConstraint is an interface to represent facing mode constraint.
type FacingModeConstraint interface {
	Compare(FacingMode) (float64, bool)
	Value() (FacingMode, bool)
}

// FacingModeIdeal specifies preferred facing mode.
// Any device may be selected, but a matching one takes priority.
type FacingModeIdeal FacingMode

// Compare implements FacingModeConstraint.
func (f FacingModeIdeal) Compare(a FacingMode) (float64, bool) {
	return ideal(FacingMode(f) == a)
}

// Value implements FacingModeConstraint.
func (f FacingModeIdeal) Value() (FacingMode, bool) { return FacingMode(f), true }

// FacingModeExact specifies required facing mode.
type FacingModeExact FacingMode

// Compare implements FacingModeConstraint.
func (f FacingModeExact) Compare(a FacingMode) (float64, bool) {
	return exact(FacingMode(f) == a)
}

// Value implements FacingModeConstraint.
func (f FacingModeExact) Value() (FacingMode, bool) { return FacingMode(f), true }
