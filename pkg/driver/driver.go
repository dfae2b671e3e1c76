package driver

import (
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
)

// OpenCloser is an interface with Open and Close method
type OpenCloser interface {
	Open() error
	Close() error
}

// Infoer is an interface with Info method
type Infoer interface {
	Info() Info
}

// Info is a generic driver information
type Info struct {
	Label      string
	DeviceType DeviceType
	Priority   Priority
	// Facing is where the sensor points. Leave it empty when the platform
	// doesn't expose it.
	Facing prop.FacingMode
}

// Adapter is a base interface that needs to be implemented by all device drivers
type Adapter interface {
	OpenCloser
	Properties() []prop.Media
}

// Driver is an adapter with extra features such as state management
type Driver interface {
	Adapter
	ID() string
	Info() Info
	Status() State
}

// VideoRecorder is an interface to encapsulate the recording process for video drivers
type VideoRecorder interface {
	VideoRecord(p prop.Media) (r video.Reader, err error)
}
