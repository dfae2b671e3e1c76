package session

import (
	"fmt"
	"sync"

	"github.com/pion/logging"
	"github.com/reportscan/capture"
)

// handle owns an acquired stream. release stops every track of it once, no
// matter how many times it's called.
type handle struct {
	stream  capture.MediaStream
	release func()
}

func openStream(md MediaDevices, constraints capture.MediaStreamConstraints, log logging.LeveledLogger) (h *handle, err error) {
	if md == nil {
		return nil, errNoMediaDevices
	}

	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("session: media devices panicked: %v", r)
		}
	}()

	stream, err := md.GetUserMedia(constraints)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	h = &handle{
		stream: stream,
		release: func() {
			once.Do(func() {
				if err := capture.CloseAll(stream); err != nil {
					log.Warnf("failed to release stream %s: %v", stream.ID(), err)
				}
			})
		},
	}

	if len(stream.GetVideoTracks()) == 0 {
		h.release()
		return nil, errNoVideoTrack
	}
	return h, nil
}
