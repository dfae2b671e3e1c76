package session

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/reportscan/capture"
	"github.com/reportscan/capture/pkg/prop"
)

// fakePlatform hands out fake streams and counts how many are held.
type fakePlatform struct {
	devices   []capture.MediaDeviceInfo
	enumPanic bool
	// gate, when set, blocks GetUserMedia until it's closed.
	gate chan struct{}

	mu        sync.Mutex
	err       error
	failOn    map[prop.FacingMode]error
	noFrame   bool
	requested []prop.FacingMode
	last      capture.MediaTrackConstraints
	tracks    []*fakeTrack
	opened    int
	active    int
	maxActive int
}

func newFakePlatform(n int) *fakePlatform {
	f := &fakePlatform{}
	modes := []prop.FacingMode{prop.FacingModeEnvironment, prop.FacingModeUser}
	for i := 0; i < n; i++ {
		f.devices = append(f.devices, capture.MediaDeviceInfo{
			DeviceID: string(rune('a' + i)),
			Kind:     capture.VideoInput,
			Label:    "fake camera",
			Facing:   modes[i%len(modes)],
		})
	}
	return f
}

func (f *fakePlatform) EnumerateDevices() []capture.MediaDeviceInfo {
	if f.enumPanic {
		panic("enumerateDevices is not supported")
	}
	return f.devices
}

func (f *fakePlatform) GetUserMedia(constraints capture.MediaStreamConstraints) (capture.MediaStream, error) {
	var c capture.MediaTrackConstraints
	constraints.Video(&c)
	var facing prop.FacingMode
	if c.FacingMode != nil {
		facing, _ = c.FacingMode.Value()
	}

	f.mu.Lock()
	f.requested = append(f.requested, facing)
	f.last = c
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := f.failOn[facing]; err != nil {
		return nil, err
	}

	f.opened++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	t := &fakeTrack{platform: f, noFrame: f.noFrame, facing: facing}
	f.tracks = append(f.tracks, t)
	return capture.NewMediaStream(t)
}

// endLatest makes the most recent track end with err, the way a track does
// when its camera goes away.
func (f *fakePlatform) endLatest(err error) {
	f.mu.Lock()
	t := f.tracks[len(f.tracks)-1]
	f.mu.Unlock()
	t.end(err)
}

func (f *fakePlatform) constraints() capture.MediaTrackConstraints {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakePlatform) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakePlatform) counts() (opened, active, maxActive int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened, f.active, f.maxActive
}

func (f *fakePlatform) requests() []prop.FacingMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]prop.FacingMode(nil), f.requested...)
}

type fakeTrack struct {
	platform *fakePlatform
	noFrame  bool
	facing   prop.FacingMode
	once     sync.Once

	mu      sync.Mutex
	onEnded func(error)
}

func (t *fakeTrack) ID() string                    { return "fake" }
func (t *fakeTrack) Kind() capture.MediaDeviceType { return capture.VideoInput }

func (t *fakeTrack) OnEnded(handler func(error)) {
	t.mu.Lock()
	t.onEnded = handler
	t.mu.Unlock()
}

func (t *fakeTrack) end(err error) {
	t.mu.Lock()
	handler := t.onEnded
	t.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

func (t *fakeTrack) Settings() prop.Media {
	return prop.Media{Video: prop.Video{Width: 64, Height: 48, FacingMode: t.facing}}
}

func (t *fakeTrack) Snapshot() (*image.RGBA, error) {
	if t.noFrame {
		return nil, capture.ErrFrameNotReady
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	return img, nil
}

func (t *fakeTrack) Close() error {
	closed := false
	t.once.Do(func() {
		t.platform.mu.Lock()
		t.platform.active--
		t.platform.mu.Unlock()
		closed = true
	})
	if !closed {
		return io.ErrClosedPipe
	}
	return nil
}
