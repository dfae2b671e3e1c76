package session

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/google/uuid"
	"github.com/reportscan/capture/pkg/io/video"
)

const previewQuality = 80

// Artifact is a still image frozen from a live stream.
type Artifact struct {
	ID string
	// Data is the JPEG encoded image.
	Data          []byte
	Width, Height int
	// Filename is a suggested name to store or upload Data under.
	Filename   string
	CapturedAt time.Time
	// PreviewURI is a data URI of a downscaled copy, for display.
	PreviewURI string
}

func encodeArtifact(img image.Image, quality, thumbnailWidth int, now time.Time) (*Artifact, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("session: failed to encode capture: %w", err)
	}

	var preview bytes.Buffer
	thumb := video.Thumbnail(img, thumbnailWidth)
	if err := jpeg.Encode(&preview, thumb, &jpeg.Options{Quality: previewQuality}); err != nil {
		return nil, fmt.Errorf("session: failed to encode preview: %w", err)
	}

	b := img.Bounds()
	return &Artifact{
		ID:         uuid.NewString(),
		Data:       buf.Bytes(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		Filename:   fmt.Sprintf("report-%s.jpg", now.UTC().Format("20060102T150405Z")),
		CapturedAt: now,
		PreviewURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(preview.Bytes()),
	}, nil
}
