package capture

import (
	"errors"
	"image"
	"sync"

	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
)

// ErrFrameNotReady is returned by Snapshot when the source hasn't produced a
// frame yet.
var ErrFrameNotReady = errors.New("track: no frame has been produced yet")

// Track is an interface that represent MediaStreamTrack
// Reference: https://w3c.github.io/mediacapture-main/#mediastreamtrack
type Track interface {
	// ID returns the ID of the device the track reads from
	ID() string
	// Kind returns the kind of media carried by the track
	Kind() MediaDeviceType
	// Settings returns the properties the device was started with
	Settings() prop.Media
	// OnEnded registers a handler that is called once the track ends, with the
	// reason it ended. Closing the track ends it with io.EOF.
	OnEnded(func(error))
	// Snapshot draws the latest frame into a newly allocated RGBA buffer of the
	// same size.
	Snapshot() (*image.RGBA, error)
	// Close stops the device and waits until the track stops reading from it.
	// Calling Close more than once is a no-op.
	Close() error
}

type baseTrack struct {
	mu             sync.Mutex
	onErrorHandler func(error)
	err            error
}

func (t *baseTrack) OnEnded(handler func(error)) {
	t.mu.Lock()
	t.onErrorHandler = handler
	err := t.err
	t.mu.Unlock()

	if err != nil && handler != nil {
		// Already errored.
		go handler(err)
	}
}

func (t *baseTrack) onError(err error) {
	t.mu.Lock()
	t.err = err
	handler := t.onErrorHandler
	t.mu.Unlock()

	if handler != nil {
		go handler(err)
	}
}

// videoTrack keeps a copy of the most recent frame read from its driver, the
// way a video element keeps its current frame on screen.
type videoTrack struct {
	baseTrack
	d        driver.Driver
	reader   video.Reader
	settings prop.Media

	frameMu sync.Mutex
	frames  *video.FrameBuffer

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

func newVideoTrack(opts *MediaDevicesOptions, d driver.Driver, p prop.Media) (*videoTrack, error) {
	if err := d.Open(); err != nil {
		return nil, err
	}

	recorder, ok := d.(driver.VideoRecorder)
	if !ok {
		d.Close()
		return nil, errors.New("track: driver can't record video")
	}

	r, err := recorder.VideoRecord(p)
	if err != nil {
		d.Close()
		return nil, err
	}

	if opts.videoTransform != nil {
		r = opts.videoTransform(r)
	}

	t := &videoTrack{
		d:        d,
		reader:   r,
		settings: p,
		frames:   video.NewFrameBuffer(0),
		done:     make(chan struct{}),
	}
	go t.start()
	return t, nil
}

func (t *videoTrack) start() {
	defer close(t.done)
	for {
		img, release, err := t.reader.Read()
		if err != nil {
			t.onError(err)
			return
		}

		t.frameMu.Lock()
		t.frames.StoreCopy(img)
		t.frameMu.Unlock()
		release()
	}
}

func (t *videoTrack) ID() string {
	return t.d.ID()
}

func (t *videoTrack) Kind() MediaDeviceType {
	return VideoInput
}

func (t *videoTrack) Settings() prop.Media {
	return t.settings
}

func (t *videoTrack) Snapshot() (*image.RGBA, error) {
	t.frameMu.Lock()
	defer t.frameMu.Unlock()

	img := t.frames.Load()
	if img == nil {
		return nil, ErrFrameNotReady
	}
	return video.Rasterize(img), nil
}

func (t *videoTrack) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.d.Close()
		<-t.done
	})
	return t.closeErr
}
