package session

import "github.com/reportscan/capture/pkg/prop"

// Phase is the lifecycle phase of a session.
type Phase int

const (
	// PhaseIdle means no stream is held or requested.
	PhaseIdle Phase = iota
	// PhaseAcquiring means a stream request is in flight.
	PhaseAcquiring
	// PhaseLive means a stream is held and frames are flowing.
	PhaseLive
	// PhaseReview means a frame was frozen into an Artifact and the stream was
	// released. The artifact waits for Accept or Reject.
	PhaseReview
	// PhaseDenied means the last acquisition failed. Start may be called again.
	PhaseDenied
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAcquiring:
		return "acquiring"
	case PhaseLive:
		return "live"
	case PhaseReview:
		return "review"
	case PhaseDenied:
		return "denied"
	}
	return "unknown"
}

// Permission records whether camera access has been granted. It only changes
// as the outcome of an acquisition.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	}
	return "unknown"
}

// Facing is the preferred camera sensor.
type Facing int

const (
	// FacingRear prefers the camera pointing away from the user, which is the
	// one that sees a report lying on a desk.
	FacingRear Facing = iota
	// FacingFront prefers the camera pointing at the user.
	FacingFront
)

func (f Facing) String() string {
	if f == FacingFront {
		return "front"
	}
	return "rear"
}

// Flip returns the opposite facing.
func (f Facing) Flip() Facing {
	if f == FacingFront {
		return FacingRear
	}
	return FacingFront
}

func (f Facing) mode() prop.FacingMode {
	if f == FacingFront {
		return prop.FacingModeUser
	}
	return prop.FacingModeEnvironment
}

// Reason tells why the last acquisition failed. Every reason leads to
// PhaseDenied; the distinction only serves diagnostics.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonPermission means the user or the OS refused access.
	ReasonPermission
	// ReasonNoDevice means no camera matched the request.
	ReasonNoDevice
	// ReasonUnavailable covers every other platform failure, e.g. a busy device.
	ReasonUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonPermission:
		return "permission"
	case ReasonNoDevice:
		return "no device"
	}
	return "unavailable"
}

// State is what the presentation layer renders.
type State struct {
	Phase      Phase
	Permission Permission
	Facing     Facing
	// DeviceCount is the number of video inputs found by the last enumeration.
	DeviceCount int
	// CanSwitch is true when there is more than one camera to switch between.
	CanSwitch bool
	// Reason is set while Phase is PhaseDenied.
	Reason Reason
	// StreamID identifies the live stream, empty unless Phase is PhaseLive.
	StreamID string
	// PreviewURI is the preview of the artifact under review, empty unless
	// Phase is PhaseReview.
	PreviewURI string
}

// Failure is a user facing notification about a failed acquisition.
type Failure struct {
	Reason  Reason
	Message string
	Err     error
}
