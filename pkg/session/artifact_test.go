package session

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeArtifact(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))

	a, err := encodeArtifact(img, 95, 160, now)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, 640, a.Width)
	assert.Equal(t, 480, a.Height)
	assert.Equal(t, "report-20260102T020405Z.jpg", a.Filename)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)

	const prefix = "data:image/jpeg;base64,"
	require.True(t, strings.HasPrefix(a.PreviewURI, prefix))
	preview, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(a.PreviewURI, prefix))
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(preview))
	require.NoError(t, err)
	assert.Equal(t, 160, cfg.Width)
	assert.Equal(t, 120, cfg.Height)
}

func TestEncodeArtifactUniqueIDs(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	a, err := encodeArtifact(img, 95, 0, time.Now())
	require.NoError(t, err)
	b, err := encodeArtifact(img, 95, 0, time.Now())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
