package session

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/reportscan/capture"
	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/driver/videotest"
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestVideoTestCamera(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := driver.NewManager()
	require.NoError(t, videotest.Register(m, "front", prop.FacingModeUser))
	require.NoError(t, videotest.Register(m, "rear", prop.FacingModeEnvironment))

	var accepted []Artifact
	s := New(capture.NewMediaDevices(capture.WithDriverManager(m)),
		WithIdealResolution(640, 480),
		WithOnCapture(func(a Artifact) { accepted = append(accepted, a) }),
	)
	defer s.Close()

	st := s.State()
	assert.Equal(t, 2, st.DeviceCount)
	assert.True(t, st.CanSwitch)

	require.NoError(t, s.Start())
	require.NoError(t, s.SwitchFacing())
	assert.Equal(t, FacingFront, s.State().Facing)

	var a *Artifact
	require.Eventually(t, func() bool {
		var err error
		if a, err = s.Capture(); err != nil {
			t.Error(err)
		}
		return a != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 640, a.Width)
	assert.Equal(t, 480, a.Height)

	require.NoError(t, s.Reject())
	assert.Equal(t, PhaseLive, s.State().Phase)

	require.Eventually(t, func() bool {
		a, _ = s.Capture()
		return a != nil
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Accept())
	assert.Len(t, accepted, 1)
	assert.Equal(t, PhaseIdle, s.State().Phase)
}

// failAfter makes a reader fail with err once it has produced n frames.
func failAfter(n int, err error) video.TransformFunc {
	return func(r video.Reader) video.Reader {
		read := 0
		return video.ReaderFunc(func() (image.Image, func(), error) {
			if read >= n {
				return nil, nil, err
			}
			read++
			return r.Read()
		})
	}
}

// signalFrames sends on frames after each frame, without blocking.
func signalFrames(frames chan<- struct{}) video.TransformFunc {
	return func(r video.Reader) video.Reader {
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
}

func TestVideoTestCameraFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	unplugged := errors.New("device unplugged")
	m := driver.NewManager()
	require.NoError(t, videotest.Register(m, "rear", prop.FacingModeEnvironment))

	failures := make(chan Failure, 2)
	s := New(
		capture.NewMediaDevices(
			capture.WithDriverManager(m),
			capture.WithVideoTransformers(failAfter(2, unplugged)),
		),
		WithIdealResolution(640, 480),
		WithOnFailure(func(f Failure) { failures <- f }),
	)
	defer s.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.Start())

		select {
		case f := <-failures:
			assert.Equal(t, ReasonUnavailable, f.Reason)
			assert.True(t, errors.Is(f.Err, unplugged))
		case <-time.After(2 * time.Second):
			t.Fatal("Timeout waiting for the failure notice")
		}

		st := s.State()
		assert.Equal(t, PhaseDenied, st.Phase)
		assert.Equal(t, PermissionDenied, st.Permission)
		assert.Empty(t, st.StreamID)

		a, err := s.Capture()
		assert.NoError(t, err)
		assert.Nil(t, a, "a dead camera must not hand out its last frame")
	}
}

func TestVideoTestCaptureRacingStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	frames := make(chan struct{}, 1)
	m := driver.NewManager()
	require.NoError(t, videotest.Register(m, "rear", prop.FacingModeEnvironment))
	s := New(
		capture.NewMediaDevices(
			capture.WithDriverManager(m),
			capture.WithVideoTransformers(signalFrames(frames)),
		),
		WithIdealResolution(640, 480),
	)
	defer s.Close()

	for i := 0; i < 20; i++ {
		select {
		case <-frames:
		default:
		}
		require.NoError(t, s.Start())
		// The second frame is only read once the first one is stored.
		for n := 0; n < 2; n++ {
			select {
			case <-frames:
			case <-time.After(2 * time.Second):
				t.Fatal("Timeout waiting for a frame")
			}
		}

		var wg sync.WaitGroup
		var a *Artifact
		var captureErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			a, captureErr = s.Capture()
		}()
		go func() {
			defer wg.Done()
			s.Stop()
		}()
		wg.Wait()

		require.NoError(t, captureErr)
		st := s.State()
		assert.Empty(t, st.StreamID)
		if a == nil {
			assert.Equal(t, PhaseIdle, st.Phase)
			continue
		}
		assert.Equal(t, PhaseReview, st.Phase)
		assert.Equal(t, 640, a.Width)
		assert.Equal(t, 480, a.Height)
		require.NoError(t, s.Accept())
	}
}
