package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/reportscan/capture"
	"github.com/reportscan/capture/pkg/driver/availability"
)

// ErrInvalidState is wrapped by errors of operations that aren't allowed in
// the current phase.
var ErrInvalidState = errors.New("session: invalid state")

var (
	errNoVideoTrack   = errors.New("session: stream has no video track")
	errNoMediaDevices = errors.New("session: media devices aren't available")
)

// failureMessage is shown for every reason; users can't act differently on
// them.
const failureMessage = "Unable to access the camera. Please check that camera access is allowed and try again."

// AcquireError is returned by operations that failed to acquire a stream.
type AcquireError struct {
	Reason Reason
	Err    error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("session: camera unavailable (%s): %v", e.Reason, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

func invalidState(op string, p Phase) error {
	return fmt.Errorf("%w: can't %s while %s", ErrInvalidState, op, p)
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, availability.ErrPermission), errors.Is(err, os.ErrPermission):
		return ReasonPermission
	case errors.Is(err, capture.ErrNotFound), errors.Is(err, availability.ErrNoDevice):
		return ReasonNoDevice
	}
	return ReasonUnavailable
}
