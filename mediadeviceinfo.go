package capture

import (
	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/prop"
)

// MediaDeviceType enumerates type of media device.
type MediaDeviceType int

// MediaDeviceType definitions.
const (
	VideoInput MediaDeviceType = iota + 1
)

func (t MediaDeviceType) String() string {
	switch t {
	case VideoInput:
		return "videoinput"
	}
	return "unknown"
}

// MediaDeviceInfo represents https://w3c.github.io/mediacapture-main/#dom-mediadeviceinfo
type MediaDeviceInfo struct {
	DeviceID   string
	Kind       MediaDeviceType
	Label      string
	DeviceType driver.DeviceType
	Facing     prop.FacingMode
}
