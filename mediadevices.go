package capture

import (
	"errors"
	"fmt"
	"math"

	"github.com/reportscan/capture/internal/logging"
	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/driver/availability"
	"github.com/reportscan/capture/pkg/io/video"
	"github.com/reportscan/capture/pkg/prop"
)

// ErrNotFound is returned by GetUserMedia when no device fits the constraints.
var ErrNotFound = errors.New("failed to find the best driver that fits the constraints")

var errNoMediaRequested = errors.New("at least one kind of media must be requested")

var logger = logging.NewLogger("capture")

// MediaDevices is an interface that's defined on https://developer.mozilla.org/en-US/docs/Web/API/MediaDevices
type MediaDevices interface {
	GetUserMedia(constraints MediaStreamConstraints) (MediaStream, error)
	EnumerateDevices() []MediaDeviceInfo
}

// MediaDevicesOptions stores parameters used by MediaDevices.
type MediaDevicesOptions struct {
	manager        *driver.Manager
	videoTransform video.TransformFunc
}

// MediaDevicesOption is a type of MediaDevices functional option.
type MediaDevicesOption func(*MediaDevicesOptions)

// WithDriverManager makes MediaDevices look up drivers in m instead of the
// global driver manager.
func WithDriverManager(m *driver.Manager) MediaDevicesOption {
	return func(o *MediaDevicesOptions) {
		o.manager = m
	}
}

// WithVideoTransformers will be used to transform the video that's coming from the driver.
// So, basically it'll look like following: driver -> VideoTransform -> track
func WithVideoTransformers(transformFuncs ...video.TransformFunc) MediaDevicesOption {
	return func(o *MediaDevicesOptions) {
		o.videoTransform = video.Merge(transformFuncs...)
	}
}

type mediaDevices struct {
	MediaDevicesOptions
}

// NewMediaDevices creates MediaDevices interface that provides access to connected
// cameras.
func NewMediaDevices(opts ...MediaDevicesOption) MediaDevices {
	mdo := MediaDevicesOptions{
		manager: driver.GetManager(),
	}
	for _, o := range opts {
		o(&mdo)
	}
	return &mediaDevices{
		MediaDevicesOptions: mdo,
	}
}

var defaultMediaDevices = NewMediaDevices()

// GetUserMedia calls GetUserMedia on the default MediaDevices.
func GetUserMedia(constraints MediaStreamConstraints) (MediaStream, error) {
	return defaultMediaDevices.GetUserMedia(constraints)
}

// EnumerateDevices calls EnumerateDevices on the default MediaDevices.
func EnumerateDevices() []MediaDeviceInfo {
	return defaultMediaDevices.EnumerateDevices()
}

// GetUserMedia prompts the user for permission to use a media input which produces a MediaStream
// with tracks containing the requested types of media.
// Reference: https://developer.mozilla.org/en-US/docs/Web/API/MediaDevices/getUserMedia
func (m *mediaDevices) GetUserMedia(constraints MediaStreamConstraints) (MediaStream, error) {
	tracks := make([]Track, 0)

	cleanTracks := func() {
		for _, t := range tracks {
			t.Close()
		}
	}

	if constraints.Video == nil {
		return nil, errNoMediaRequested
	}

	var p MediaTrackConstraints
	constraints.Video(&p)
	track, err := m.selectVideo(p)
	if err != nil {
		cleanTracks()
		return nil, err
	}
	tracks = append(tracks, track)

	s, err := NewMediaStream(tracks...)
	if err != nil {
		cleanTracks()
		return nil, err
	}

	return s, nil
}

type driverProperties struct {
	d     driver.Driver
	props []prop.Media
}

// queryDriverProperties opens closed drivers just long enough to read their
// properties. The last open failure is returned so that callers can tell why
// nothing was usable.
func queryDriverProperties(m *driver.Manager, filter driver.FilterFn) ([]driverProperties, error) {
	var needToClose []driver.Driver
	var openErr error
	drivers := m.Query(filter)
	results := make([]driverProperties, 0, len(drivers))

	for _, d := range drivers {
		if d.Status() == driver.StateClosed {
			err := d.Open()
			if err != nil {
				// Skip this driver if we failed to open because we can't get the properties
				logger.Debugf("skipping %s: %v", d.Info().Label, err)
				openErr = err
				continue
			}
			needToClose = append(needToClose, d)
		}

		results = append(results, driverProperties{d: d, props: d.Properties()})
	}

	for _, d := range needToClose {
		// Since it was closed, we should close it to avoid a leak
		d.Close()
	}

	return results, openErr
}

// selectBestDriver implements SelectSettings algorithm.
// Reference: https://w3c.github.io/mediacapture-main/#dfn-selectsettings
func selectBestDriver(m *driver.Manager, filter driver.FilterFn, constraints MediaTrackConstraints) (driver.Driver, prop.Media, error) {
	var bestDriver driver.Driver
	var bestProp prop.Media
	minFitnessDist := math.Inf(1)

	candidates, openErr := queryDriverProperties(m, filter)
	for _, c := range candidates {
		priority := float64(c.d.Info().Priority)
		for _, p := range c.props {
			fitnessDist, ok := constraints.MediaConstraints.FitnessDistance(p)
			if !ok {
				continue
			}
			fitnessDist -= priority
			if fitnessDist < minFitnessDist {
				minFitnessDist = fitnessDist
				bestDriver = c.d
				bestProp = p
			}
		}
	}

	if bestDriver == nil {
		if openErr != nil {
			return nil, prop.Media{}, fmt.Errorf("%w: %w", ErrNotFound, openErr)
		}
		return nil, prop.Media{}, fmt.Errorf("%w: %w", ErrNotFound, availability.ErrNoDevice)
	}

	logger.Debugf("selected %s with %v", bestDriver.Info().Label, &bestProp)

	var selected prop.Media
	selected.MergeConstraints(constraints.MediaConstraints)
	selected.Merge(bestProp)
	// The ideal facing is only a preference; report what the device actually is.
	selected.FacingMode = bestProp.FacingMode
	return bestDriver, selected, nil
}

func (m *mediaDevices) selectVideo(constraints MediaTrackConstraints) (Track, error) {
	filter := driver.FilterAnd(
		driver.FilterVideoRecorder(),
		driver.FilterDeviceType(driver.Camera),
	)

	d, p, err := selectBestDriver(m.manager, filter, constraints)
	if err != nil {
		return nil, err
	}

	if d.Status() != driver.StateClosed {
		return nil, fmt.Errorf("%s: %w", d.Info().Label, availability.ErrBusy)
	}

	return newVideoTrack(&m.MediaDevicesOptions, d, p)
}

func (m *mediaDevices) EnumerateDevices() []MediaDeviceInfo {
	drivers := m.manager.Query(driver.FilterVideoRecorder())
	info := make([]MediaDeviceInfo, 0, len(drivers))
	for _, d := range drivers {
		driverInfo := d.Info()
		info = append(info, MediaDeviceInfo{
			DeviceID:   d.ID(),
			Kind:       VideoInput,
			Label:      driverInfo.Label,
			DeviceType: driverInfo.DeviceType,
			Facing:     driverInfo.Facing,
		})
	}
	return info
}
