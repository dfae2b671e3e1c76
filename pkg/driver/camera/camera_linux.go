package camera

// #include <linux/videodev2.h>
import "C"

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/blackjack/webcam"
	"github.com/reportscan/capture/internal/logging"
	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/driver/availability"
	"github.com/reportscan/capture/pkg/frame"
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
)

const (
	maxEmptyFrameCount = 5
	// Seconds to wait for the device to hand out a frame.
	readTimeoutSeconds = 5
)

var (
	errReadTimeout = errors.New("read timeout")
	errEmptyFrame  = errors.New("empty frame")
)

var logger = logging.NewLogger("capture/driver/camera")

// Camera implementation using v4l2
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html#videodev
type camera struct {
	path            string
	cam             *webcam.Webcam
	formats         map[webcam.PixelFormat]frame.Format
	reversedFormats map[frame.Format]webcam.PixelFormat
	mutex           sync.Mutex
	cancel          func()
}

func init() {
	Initialize(driver.GetManager())
}

// Initialize finds and registers every V4L2 camera on the host into m.
func Initialize(m *driver.Manager) {
	discovered := make(map[string]struct{})
	discover(m, discovered, "/dev/v4l/by-path/*")
	discover(m, discovered, "/dev/video*")
}

func discover(m *driver.Manager, discovered map[string]struct{}, pattern string) {
	devices, err := filepath.Glob(pattern)
	if err != nil {
		// No v4l device.
		return
	}
	for _, device := range devices {
		label := filepath.Base(device)
		reallink, err := os.Readlink(device)
		if err != nil {
			reallink = label
		} else {
			reallink = filepath.Base(reallink)
		}

		if _, ok := discovered[reallink]; ok {
			continue
		}
		discovered[reallink] = struct{}{}

		cam := newCamera(device)
		err = m.Register(cam, driver.Info{
			Label:      label + LabelSeparator + reallink,
			DeviceType: driver.Camera,
		})
		if err != nil {
			logger.Warnf("failed to register %s: %v", device, err)
		}
	}
}

func newCamera(path string) *camera {
	formats := map[webcam.PixelFormat]frame.Format{
		webcam.PixelFormat(C.V4L2_PIX_FMT_YUV420): frame.FormatI420,
		webcam.PixelFormat(C.V4L2_PIX_FMT_NV21):   frame.FormatNV21,
		webcam.PixelFormat(C.V4L2_PIX_FMT_YUYV):   frame.FormatYUYV,
		webcam.PixelFormat(C.V4L2_PIX_FMT_UYVY):   frame.FormatUYVY,
		webcam.PixelFormat(C.V4L2_PIX_FMT_MJPEG):  frame.FormatMJPEG,
	}

	reversedFormats := make(map[frame.Format]webcam.PixelFormat)
	for k, v := range formats {
		reversedFormats[v] = k
	}

	return &camera{
		path:            path,
		formats:         formats,
		reversedFormats: reversedFormats,
	}
}

// classify maps open(2) failures onto availability errors so callers can tell
// a refused permission from a missing device.
func classify(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%s: %w: %w", path, availability.ErrPermission, err)
	case errors.Is(err, syscall.EBUSY):
		return fmt.Errorf("%s: %w: %w", path, availability.ErrBusy, err)
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return fmt.Errorf("%s: %w: %w", path, availability.ErrNoDevice, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

func (c *camera) Open() error {
	cam, err := webcam.Open(c.path)
	if err != nil {
		return classify(c.path, err)
	}

	c.cam = cam
	return nil
}

func (c *camera) Close() error {
	if c.cam == nil {
		return nil
	}

	if c.cancel != nil {
		// Let the reader knows that the caller has closed the camera
		c.cancel()
		// Wait until the reader unref the buffer
		c.mutex.Lock()
		defer c.mutex.Unlock()

		// Note: StopStreaming frees frame buffers even if they are still used in Go code.
		//       Frames are copied out of the mmap buffer before they leave the reader.
		c.cam.StopStreaming()
		c.cancel = nil
	}
	err := c.cam.Close()
	c.cam = nil
	return err
}

func (c *camera) VideoRecord(p prop.Media) (video.Reader, error) {
	decoder, err := frame.NewDecoder(p.FrameFormat)
	if err != nil {
		return nil, err
	}

	pf := c.reversedFormats[p.FrameFormat]
	_, _, _, err = c.cam.SetImageFormat(pf, uint32(p.Width), uint32(p.Height))
	if err != nil {
		return nil, err
	}

	if err := c.cam.StartStreaming(); err != nil {
		return nil, classify(c.path, err)
	}

	cam := c.cam

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	var buf []byte
	r := video.ReaderFunc(func() (img image.Image, release func(), err error) {
		// Lock to avoid accessing the buffer after StopStreaming()
		c.mutex.Lock()
		defer c.mutex.Unlock()

		// Wait until a frame is ready
		for i := 0; i < maxEmptyFrameCount; i++ {
			if ctx.Err() != nil {
				// Return EOF if the camera is already closed.
				return nil, func() {}, io.EOF
			}

			err := cam.WaitForFrame(readTimeoutSeconds)
			switch err.(type) {
			case nil:
			case *webcam.Timeout:
				return nil, func() {}, errReadTimeout
			default:
				// Camera has been stopped.
				return nil, func() {}, err
			}

			b, err := cam.ReadFrame()
			if err != nil {
				// Camera has been stopped.
				return nil, func() {}, err
			}

			// Frame is empty.
			// Retry reading and return errEmptyFrame if it exceeds maxEmptyFrameCount.
			if len(b) == 0 {
				continue
			}

			if len(b) > len(buf) {
				// Grow the intermediate buffer
				buf = make([]byte, len(b))
			}

			// move the memory from mmap to Go. This will guarantee that any data that's going out
			// from this reader will be Go safe. Otherwise, it's possible that outside of this reader
			// that this memory is still being used even after we close it.
			n := copy(buf, b)
			return decoder.Decode(buf[:n], p.Width, p.Height)
		}
		return nil, func() {}, errEmptyFrame
	})

	return r, nil
}

func (c *camera) Properties() []prop.Media {
	properties := make([]prop.Media, 0)
	for format := range c.cam.GetSupportedFormats() {
		supportedFormat, ok := c.formats[format]
		if !ok {
			continue
		}
		for _, frameSize := range c.cam.GetSupportedFrameSizes(format) {
			properties = append(properties, prop.Media{
				Video: prop.Video{
					Width:       int(frameSize.MaxWidth),
					Height:      int(frameSize.MaxHeight),
					FrameFormat: supportedFormat,
				},
			})
		}
	}
	if len(properties) == 0 {
		logger.Debugf("%s reports no supported format: %s", c.path, strings.Join(c.supportedFormatNames(), ","))
	}
	return properties
}

func (c *camera) supportedFormatNames() []string {
	var names []string
	for _, name := range c.cam.GetSupportedFormats() {
		names = append(names, name)
	}
	return names
}
