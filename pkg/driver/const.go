package driver

// DeviceType represents human readable device type. DeviceType
// can be useful to filter the drivers too.
type DeviceType string

const (
	// Camera represents camera devices
	Camera DeviceType = "camera"
)

// Priority represents the priority of a driver when several of them fit the
// constraints equally well. A higher value wins.
type Priority float32

const (
	PriorityHigh   Priority = 0.1
	PriorityNormal Priority = 0.0
	PriorityLow    Priority = -0.1
)
