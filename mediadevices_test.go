package capture

import (
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/driver/availability"
	"github.com/reportscan/capture/pkg/driver/videotest"
	"github.com/reportscan/capture/pkg/frame"
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestMediaDevices(t *testing.T, opts ...MediaDevicesOption) MediaDevices {
	t.Helper()
	m := driver.NewManager()
	require.NoError(t, videotest.Register(m, "front", prop.FacingModeUser))
	require.NoError(t, videotest.Register(m, "rear", prop.FacingModeEnvironment))
	return NewMediaDevices(append([]MediaDevicesOption{WithDriverManager(m)}, opts...)...)
}

func TestGetUserMedia(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	md := newTestMediaDevices(t)
	constraints := MediaStreamConstraints{
		Video: func(c *MediaTrackConstraints) {
			c.Width = prop.Int(640)
			c.Height = prop.Int(480)
		},
	}
	constraintsWrong := MediaStreamConstraints{
		Video: func(c *MediaTrackConstraints) {
			c.Width = prop.IntExact(10000)
			c.Height = prop.Int(480)
		},
	}

	// GetUserMedia with broken parameters
	_, err := md.GetUserMedia(constraintsWrong)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, but got %v", err)
	}

	// GetUserMedia with correct parameters
	ms, err := md.GetUserMedia(constraints)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	tracks := ms.GetTracks()
	if l := len(tracks); l != 1 {
		t.Fatalf("Number of the tracks is expected to be 1, got %d", l)
	}
	ended := make(chan error, 1)
	tracks[0].OnEnded(func(err error) {
		ended <- err
	})
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, CloseAll(ms))
	select {
	case err := <-ended:
		if err != io.EOF {
			t.Errorf("OnEnded called: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for OnEnded")
	}

	// Stop and retry GetUserMedia
	ms, err = md.GetUserMedia(constraints)
	if err != nil {
		t.Fatalf("Failed to GetUserMedia after the previsous tracks stopped: %v", err)
	}
	require.NoError(t, CloseAll(ms))
}

func TestGetUserMediaWithoutVideo(t *testing.T) {
	md := newTestMediaDevices(t)
	_, err := md.GetUserMedia(MediaStreamConstraints{})
	assert.Error(t, err)
}

func TestGetUserMediaPrefersFacingMode(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	md := newTestMediaDevices(t)
	for _, facing := range []prop.FacingMode{prop.FacingModeUser, prop.FacingModeEnvironment} {
		ms, err := md.GetUserMedia(MediaStreamConstraints{
			Video: func(c *MediaTrackConstraints) {
				c.Width = prop.Int(1920)
				c.Height = prop.Int(1080)
				c.FacingMode = prop.FacingModeIdeal(facing)
			},
		})
		require.NoError(t, err)

		settings := ms.GetVideoTracks()[0].Settings()
		assert.Equal(t, facing, settings.FacingMode)
		assert.Equal(t, 1920, settings.Width)
		assert.Equal(t, 1080, settings.Height)
		require.NoError(t, CloseAll(ms))
	}
}

func TestGetUserMediaPinnedDevice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	md := newTestMediaDevices(t)
	var rear MediaDeviceInfo
	for _, d := range md.EnumerateDevices() {
		if d.Facing == prop.FacingModeEnvironment {
			rear = d
		}
	}
	require.NotEmpty(t, rear.DeviceID)

	ms, err := md.GetUserMedia(MediaStreamConstraints{
		Video: func(c *MediaTrackConstraints) {
			c.DeviceID = prop.StringExact(rear.DeviceID)
			c.FacingMode = prop.FacingModeIdeal(prop.FacingModeUser)
			c.FrameRate = prop.Float(15)
			c.FrameFormat = prop.FrameFormat(frame.FormatMJPEG)
		},
	})
	require.NoError(t, err)
	defer CloseAll(ms)

	settings := ms.GetVideoTracks()[0].Settings()
	assert.Equal(t, rear.DeviceID, settings.DeviceID)
	assert.Equal(t, prop.FacingModeEnvironment, settings.FacingMode)
	assert.Equal(t, float32(15), settings.FrameRate)
	assert.Equal(t, frame.FormatYUYV, settings.FrameFormat, "the device's own format wins over the preference")

	_, err = md.GetUserMedia(MediaStreamConstraints{
		Video: func(c *MediaTrackConstraints) {
			c.DeviceID = prop.StringExact("unplugged")
		},
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetUserMediaBusyDevice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := driver.NewManager()
	require.NoError(t, videotest.Register(m, "only", prop.FacingModeUser))
	md := NewMediaDevices(WithDriverManager(m))
	constraints := MediaStreamConstraints{Video: func(c *MediaTrackConstraints) {}}

	ms, err := md.GetUserMedia(constraints)
	require.NoError(t, err)
	defer CloseAll(ms)

	_, err = md.GetUserMedia(constraints)
	assert.True(t, errors.Is(err, availability.ErrBusy), "expected busy, got %v", err)
}

func TestGetUserMediaNoDevice(t *testing.T) {
	md := NewMediaDevices(WithDriverManager(driver.NewManager()))
	_, err := md.GetUserMedia(MediaStreamConstraints{Video: func(c *MediaTrackConstraints) {}})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, availability.ErrNoDevice))
}

func TestSnapshot(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	frames := make(chan struct{}, 1)
	countFrames := func(r video.Reader) video.Reader {
		return video.ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err == nil {
				select {
				case frames <- struct{}{}:
				default:
				}
			}
			return img, release, err
		})
	}

	md := newTestMediaDevices(t, WithVideoTransformers(countFrames))
	ms, err := md.GetUserMedia(MediaStreamConstraints{
		Video: func(c *MediaTrackConstraints) {
			c.Width = prop.IntExact(640)
			c.Height = prop.IntExact(480)
		},
	})
	require.NoError(t, err)
	defer CloseAll(ms)

	track := ms.GetVideoTracks()[0]
	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for a frame")
	}

	require.Eventually(t, func() bool {
		_, err := track.Snapshot()
		return err == nil
	}, time.Second, 10*time.Millisecond)

	img, err := track.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
}

func TestEnumerateDevices(t *testing.T) {
	md := newTestMediaDevices(t)
	devices := md.EnumerateDevices()
	require.Len(t, devices, 2)

	assert.Equal(t, "front", devices[0].Label)
	assert.Equal(t, prop.FacingModeUser, devices[0].Facing)
	assert.Equal(t, "rear", devices[1].Label)
	assert.Equal(t, prop.FacingModeEnvironment, devices[1].Facing)
	for _, d := range devices {
		assert.Equal(t, VideoInput, d.Kind)
		assert.NotEmpty(t, d.DeviceID)
	}
}
