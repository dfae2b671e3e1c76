package session

import (
	"time"

	"github.com/pion/logging"
	"github.com/reportscan/capture/pkg/frame"
)

const (
	defaultWidth          = 1920
	defaultHeight         = 1080
	defaultJPEGQuality    = 95
	defaultThumbnailWidth = 320
)

type options struct {
	facing         Facing
	width, height  int
	jpegQuality    int
	thumbnailWidth int
	deviceID       string
	frameRate      float32
	frameFormat    frame.Format
	onCapture      func(Artifact)
	onChange       func(State)
	onFailure      func(Failure)
	logger         logging.LeveledLogger
	now            func() time.Time
}

// Option configures a Session.
type Option func(*options)

// WithFacing sets the initial facing preference. Defaults to FacingRear.
func WithFacing(f Facing) Option {
	return func(o *options) {
		o.facing = f
	}
}

// WithIdealResolution sets the resolution requested from the camera. The
// camera closest to it is picked; it isn't a hard requirement.
func WithIdealResolution(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithJPEGQuality sets the quality captured frames are encoded with, from 1 to 100.
func WithJPEGQuality(quality int) Option {
	return func(o *options) {
		switch {
		case quality < 1:
			quality = 1
		case quality > 100:
			quality = 100
		}
		o.jpegQuality = quality
	}
}

// WithThumbnailWidth bounds the width of the preview built for captured
// artifacts. Zero keeps the full size.
func WithThumbnailWidth(width int) Option {
	return func(o *options) {
		if width >= 0 {
			o.thumbnailWidth = width
		}
	}
}

// WithOnCapture sets the callback accepted artifacts are handed to.
func WithOnCapture(fn func(Artifact)) Option {
	return func(o *options) {
		o.onCapture = fn
	}
}

// WithOnChange sets a callback that receives the state after every transition.
func WithOnChange(fn func(State)) Option {
	return func(o *options) {
		o.onChange = fn
	}
}

// WithOnFailure sets a callback that receives user facing failure notices.
func WithOnFailure(fn func(Failure)) Option {
	return func(o *options) {
		o.onFailure = fn
	}
}

// WithLogger replaces the session logger.
func WithLogger(l logging.LeveledLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock replaces time.Now, which stamps artifacts.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithDeviceID pins the session to the camera with the given ID, as listed by
// ListVideoInputs. A pinned session can't switch cameras.
func WithDeviceID(id string) Option {
	return func(o *options) {
		o.deviceID = id
	}
}

// WithFrameRate sets the frame rate asked of the camera. Cameras that don't
// report their rate aren't ranked by it.
func WithFrameRate(fps float32) Option {
	return func(o *options) {
		if fps > 0 {
			o.frameRate = fps
		}
	}
}

// WithFrameFormat prefers cameras that deliver the given pixel format, e.g.
// frame.FormatMJPEG for high resolutions over USB.
func WithFrameFormat(f frame.Format) Option {
	return func(o *options) {
		o.frameFormat = f
	}
}
