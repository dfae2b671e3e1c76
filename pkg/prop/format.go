package prop

import (
	"fmt"

	"github.com/reportscan/capture/pkg/frame"
)

// FrameFormatConstraint constrains the raw pixel format a device delivers.
type FrameFormatConstraint interface {
	Compare(frame.Format) (float64, bool)
	Value() (frame.Format, bool)
}

// FrameFormat prefers a pixel format. Devices that only offer other formats
// still match, behind the ones that offer it.
type FrameFormat frame.Format

// Compare implements FrameFormatConstraint.
func (f FrameFormat) Compare(a frame.Format) (float64, bool) {
	return ideal(frame.Format(f) == a)
}

// Value implements FrameFormatConstraint.
func (f FrameFormat) Value() (frame.Format, bool) { return frame.Format(f), true }

func (f FrameFormat) String() string {
	return fmt.Sprintf("%s (ideal)", frame.Format(f))
}
