// Package session implements the camera session behind report capture: it
// acquires a live camera stream, freezes a frame into a JPEG artifact and
// resolves the artifact by accepting or rejecting it.
//
// A Session is a finite state machine:
//
//	Idle --Start--> Acquiring --ok--> Live --Capture--> Review --Accept--> Idle
//	                          --err-> Denied            Review --Reject--> Acquiring
//
// Stop returns Live and Acquiring to Idle, SwitchFacing restarts a Live
// session with the other camera.
package session

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/reportscan/capture"
	internallog "github.com/reportscan/capture/internal/logging"
	"github.com/reportscan/capture/pkg/prop"
	"golang.org/x/sync/singleflight"
)

// MediaDevices is the platform the session acquires streams from.
// capture.NewMediaDevices satisfies it.
type MediaDevices interface {
	EnumerateDevices() []capture.MediaDeviceInfo
	GetUserMedia(constraints capture.MediaStreamConstraints) (capture.MediaStream, error)
}

// Session is safe for concurrent use.
type Session struct {
	md   MediaDevices
	opts options
	log  logging.LeveledLogger

	group singleflight.Group

	mu         sync.Mutex
	phase      Phase
	permission Permission
	facing     Facing
	reason     Reason
	lastErr    error
	devices    []capture.MediaDeviceInfo
	handle     *handle
	artifact   *Artifact
	// resume is set when the artifact under review was frozen from a live
	// stream, so Reject goes back to live view.
	resume bool
	// attempt identifies the current acquisition. Stop bumps it so a pending
	// acquisition sees it was cancelled.
	attempt uint64
	// last is closed when the most recent device operation is done. Device
	// operations wait for their predecessor so claims never overlap.
	last chan struct{}
}

// New creates an idle session and enumerates the available cameras.
func New(md MediaDevices, opts ...Option) *Session {
	o := options{
		facing:         FacingRear,
		width:          defaultWidth,
		height:         defaultHeight,
		jpegQuality:    defaultJPEGQuality,
		thumbnailWidth: defaultThumbnailWidth,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = internallog.NewLogger("capture/session")
	}

	s := &Session{
		md:     md,
		opts:   o,
		log:    o.logger,
		facing: o.facing,
	}
	s.ListVideoInputs()
	return s
}

// ListVideoInputs refreshes and returns the cameras the platform reports. It
// returns an empty list if the platform can't enumerate devices.
func (s *Session) ListVideoInputs() []capture.MediaDeviceInfo {
	devices := s.enumerate()

	s.mu.Lock()
	s.devices = devices
	s.mu.Unlock()

	return append([]capture.MediaDeviceInfo(nil), devices...)
}

func (s *Session) enumerate() (devices []capture.MediaDeviceInfo) {
	if s.md == nil {
		s.log.Warn("no media devices, camera capture is unavailable")
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Warnf("failed to enumerate devices: %v", r)
			devices = nil
		}
	}()

	for _, d := range s.md.EnumerateDevices() {
		if d.Kind == capture.VideoInput {
			devices = append(devices, d)
		}
	}
	return devices
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Phase:       s.phase,
		Permission:  s.permission,
		Facing:      s.facing,
		DeviceCount: len(s.devices),
		CanSwitch:   len(s.devices) > 1 && s.opts.deviceID == "",
	}
	if s.phase == PhaseDenied {
		st.Reason = s.reason
	}
	if s.handle != nil {
		st.StreamID = s.handle.stream.ID()
	}
	if s.artifact != nil {
		st.PreviewURI = s.artifact.PreviewURI
	}
	return st
}

func (s *Session) emit(st State) {
	if s.opts.onChange != nil {
		s.opts.onChange(st)
	}
}

// claim reserves the next device operation. s.mu must be held. The returned
// channel is closed once the previous operation is done.
func (s *Session) claim() (<-chan struct{}, func()) {
	prev := s.last
	ch := make(chan struct{})
	s.last = ch
	return prev, func() { close(ch) }
}

func wait(ch <-chan struct{}) {
	if ch != nil {
		<-ch
	}
}

// Start acquires a camera stream facing the preferred way. Calling Start
// while a previous call is acquiring waits for the same acquisition. Start is
// a no-op on a live session.
func (s *Session) Start() error {
	s.mu.Lock()
	run := s.startLocked()
	s.mu.Unlock()
	return run()
}

// startLocked moves to PhaseAcquiring and returns the rest of the start, to
// be run once s.mu is released.
func (s *Session) startLocked() func() error {
	switch s.phase {
	case PhaseLive:
		return func() error { return nil }
	case PhaseReview:
		return func() error { return invalidState("start", PhaseReview) }
	case PhaseAcquiring:
		attempt := s.attempt
		return func() error { return s.acquire(attempt) }
	}

	s.attempt++
	attempt := s.attempt
	s.phase = PhaseAcquiring
	st := s.stateLocked()
	return func() error {
		s.emit(st)
		return s.acquire(attempt)
	}
}

func (s *Session) acquire(attempt uint64) error {
	_, err, _ := s.group.Do(strconv.FormatUint(attempt, 10), func() (interface{}, error) {
		return nil, s.runAcquire(attempt)
	})
	return err
}

func (s *Session) pendingLocked(attempt uint64) bool {
	return s.attempt == attempt && s.phase == PhaseAcquiring
}

// outcomeLocked is what a caller gets for an acquisition that already resolved.
func (s *Session) outcomeLocked(attempt uint64) error {
	if s.attempt == attempt && s.phase == PhaseDenied {
		return s.lastErr
	}
	return nil
}

func (s *Session) runAcquire(attempt uint64) error {
	s.mu.Lock()
	if !s.pendingLocked(attempt) {
		err := s.outcomeLocked(attempt)
		s.mu.Unlock()
		return err
	}
	prev, done := s.claim()
	s.mu.Unlock()
	defer done()

	wait(prev)

	s.mu.Lock()
	if !s.pendingLocked(attempt) {
		err := s.outcomeLocked(attempt)
		s.mu.Unlock()
		return err
	}
	facing := s.facing
	s.mu.Unlock()

	s.log.Debugf("acquiring %s camera", facing)
	h, err := openStream(s.md, s.constraints(facing), s.log)

	s.mu.Lock()
	if !s.pendingLocked(attempt) {
		s.mu.Unlock()
		if h != nil {
			s.log.Debug("acquisition resolved after stop, releasing stream")
			h.release()
		}
		return nil
	}

	if err != nil {
		aerr, st := s.denyLocked(err)
		s.mu.Unlock()

		s.log.Warnf("failed to acquire %s camera: %v", facing, aerr)
		s.fail(st, aerr)
		return aerr
	}

	s.handle = h
	s.phase = PhaseLive
	s.permission = PermissionGranted
	s.reason = ReasonNone
	s.lastErr = nil
	st := s.stateLocked()
	s.mu.Unlock()

	s.log.Infof("%s camera live, stream %s", facing, h.stream.ID())
	s.emit(st)
	h.stream.GetVideoTracks()[0].OnEnded(func(err error) {
		s.trackEnded(h, err)
	})
	return nil
}

// denyLocked records a failed or lost acquisition.
func (s *Session) denyLocked(err error) (*AcquireError, State) {
	aerr := &AcquireError{Reason: classify(err), Err: err}
	s.phase = PhaseDenied
	s.permission = PermissionDenied
	s.reason = aerr.Reason
	s.lastErr = aerr
	return aerr, s.stateLocked()
}

func (s *Session) fail(st State, aerr *AcquireError) {
	s.emit(st)
	if s.opts.onFailure != nil {
		s.opts.onFailure(Failure{Reason: aerr.Reason, Message: failureMessage, Err: aerr})
	}
}

// trackEnded handles a live track that stopped on its own, e.g. an unplugged
// camera. Tracks ended by releasing their handle are ignored.
func (s *Session) trackEnded(h *handle, err error) {
	if err == nil || errors.Is(err, io.EOF) {
		return
	}

	s.mu.Lock()
	if s.phase != PhaseLive || s.handle != h {
		s.mu.Unlock()
		return
	}
	s.handle = nil
	aerr, st := s.denyLocked(err)
	prev, done := s.claim()
	s.mu.Unlock()

	wait(prev)
	h.release()
	done()

	s.log.Warnf("camera stopped delivering frames: %v", err)
	s.fail(st, aerr)
}

func (s *Session) constraints(f Facing) capture.MediaStreamConstraints {
	return capture.MediaStreamConstraints{
		Video: func(c *capture.MediaTrackConstraints) {
			c.Width = prop.Int(s.opts.width)
			c.Height = prop.Int(s.opts.height)
			c.FacingMode = prop.FacingModeIdeal(f.mode())
			if s.opts.deviceID != "" {
				c.DeviceID = prop.StringExact(s.opts.deviceID)
			}
			if s.opts.frameRate > 0 {
				c.FrameRate = prop.Float(s.opts.frameRate)
			}
			if s.opts.frameFormat != "" {
				c.FrameFormat = prop.FrameFormat(s.opts.frameFormat)
			}
		},
	}
}

// Stop releases the stream and returns the session to idle. A pending
// acquisition is cancelled; its stream is released as soon as it arrives.
// Stop doesn't touch an artifact under review and is a no-op when nothing is
// held.
func (s *Session) Stop() {
	s.mu.Lock()
	finish := s.stopLocked()
	s.mu.Unlock()
	finish()
}

// stopLocked moves to PhaseIdle and returns the rest of the stop, to be run
// once s.mu is released.
func (s *Session) stopLocked() func() {
	switch s.phase {
	case PhaseAcquiring:
		s.attempt++
		s.phase = PhaseIdle
		st := s.stateLocked()
		return func() {
			s.log.Debug("acquisition cancelled")
			s.emit(st)
		}
	case PhaseLive:
		h := s.handle
		s.handle = nil
		s.phase = PhaseIdle
		prev, done := s.claim()
		st := s.stateLocked()
		return func() {
			wait(prev)
			h.release()
			done()
			s.log.Debug("camera stopped")
			s.emit(st)
		}
	}
	return func() {}
}

// SwitchFacing releases the live stream and acquires one from the camera
// facing the other way. If that fails the session ends up denied with no
// stream held.
func (s *Session) SwitchFacing() error {
	s.mu.Lock()
	if s.phase != PhaseLive {
		p := s.phase
		s.mu.Unlock()
		return invalidState("switch camera", p)
	}

	h := s.handle
	s.handle = nil
	s.facing = s.facing.Flip()
	s.attempt++
	attempt := s.attempt
	s.phase = PhaseAcquiring
	prev, done := s.claim()
	st := s.stateLocked()
	s.mu.Unlock()

	wait(prev)
	h.release()
	done()

	s.log.Debugf("switching to %s camera", st.Facing)
	s.emit(st)
	return s.acquire(attempt)
}

// Toggle stops a live or acquiring session and starts an idle or denied one.
func (s *Session) Toggle() error {
	s.mu.Lock()
	switch p := s.phase; p {
	case PhaseLive, PhaseAcquiring:
		finish := s.stopLocked()
		s.mu.Unlock()
		finish()
		return nil
	case PhaseIdle, PhaseDenied:
		run := s.startLocked()
		s.mu.Unlock()
		return run()
	default:
		s.mu.Unlock()
		return invalidState("toggle", p)
	}
}

// Capture freezes the latest frame of the live stream, releases the stream
// and keeps the encoded frame for review. It returns nil without changing
// anything if the session isn't live or the camera hasn't produced a frame
// yet.
func (s *Session) Capture() (*Artifact, error) {
	s.mu.Lock()
	if s.phase != PhaseLive {
		s.mu.Unlock()
		return nil, nil
	}
	h := s.handle
	s.mu.Unlock()

	tracks := h.stream.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, nil
	}
	img, err := tracks[0].Snapshot()
	if errors.Is(err, capture.ErrFrameNotReady) {
		s.log.Debug("capture skipped, no frame yet")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to read frame: %w", err)
	}

	a, err := encodeArtifact(img, s.opts.jpegQuality, s.opts.thumbnailWidth, s.opts.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.phase != PhaseLive || s.handle != h {
		// Stopped or captured by someone else meanwhile.
		s.mu.Unlock()
		return nil, nil
	}
	s.handle = nil
	s.artifact = a
	s.resume = true
	s.phase = PhaseReview
	prev, done := s.claim()
	st := s.stateLocked()
	s.mu.Unlock()

	wait(prev)
	h.release()
	done()

	s.log.Infof("captured %dx%d frame as %s", a.Width, a.Height, a.Filename)
	s.emit(st)
	return a, nil
}

// Accept hands the artifact under review to the capture callback and returns
// the session to idle without restarting the camera.
func (s *Session) Accept() error {
	s.mu.Lock()
	if s.phase != PhaseReview {
		p := s.phase
		s.mu.Unlock()
		return invalidState("accept", p)
	}
	a := s.artifact
	s.artifact = nil
	s.resume = false
	s.phase = PhaseIdle
	st := s.stateLocked()
	s.mu.Unlock()

	s.log.Debugf("accepted %s", a.Filename)
	s.emit(st)
	if s.opts.onCapture != nil {
		s.opts.onCapture(*a)
	}
	return nil
}

// Reject discards the artifact under review and goes back to live view.
func (s *Session) Reject() error {
	s.mu.Lock()
	if s.phase != PhaseReview {
		p := s.phase
		s.mu.Unlock()
		return invalidState("reject", p)
	}
	s.artifact = nil
	resume := s.resume
	s.resume = false
	if !resume {
		s.phase = PhaseIdle
		st := s.stateLocked()
		s.mu.Unlock()
		s.emit(st)
		return nil
	}

	s.attempt++
	attempt := s.attempt
	s.phase = PhaseAcquiring
	st := s.stateLocked()
	s.mu.Unlock()

	s.log.Debug("capture rejected, restarting camera")
	s.emit(st)
	return s.acquire(attempt)
}

// Close stops the session, drops any artifact under review and waits until
// every device operation, including a cancelled acquisition, is done.
func (s *Session) Close() {
	s.Stop()

	s.mu.Lock()
	if s.phase == PhaseReview {
		s.artifact = nil
		s.resume = false
		s.phase = PhaseIdle
	}
	last := s.last
	s.mu.Unlock()

	wait(last)
}
