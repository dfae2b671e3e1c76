//go:build !linux

package camera

import "github.com/reportscan/capture/pkg/driver"

// Initialize registers nothing; V4L2 cameras only exist on Linux.
func Initialize(m *driver.Manager) {}
