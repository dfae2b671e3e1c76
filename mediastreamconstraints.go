package capture

import (
	"github.com/reportscan/capture/pkg/prop"
)

// MediaStreamConstraints selects which kinds of media GetUserMedia acquires.
// A nil Video means no video is requested.
type MediaStreamConstraints struct {
	Video MediaOption
}

// MediaTrackConstraints represents https://w3c.github.io/mediacapture-main/#dom-mediatrackconstraints
type MediaTrackConstraints struct {
	prop.MediaConstraints
}

// MediaOption is a type of MediaTrackConstraints functional option.
type MediaOption func(*MediaTrackConstraints)
