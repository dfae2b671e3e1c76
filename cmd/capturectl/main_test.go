package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facing: front\nwidth: 1280\nheight: 720\ndriver: videotest\n"), 0o600))

	c := newFlags("capture")
	c.fs.StringVar(&c.cfg.Facing, "facing", c.cfg.Facing, "")
	c.fs.IntVar(&c.cfg.Width, "width", c.cfg.Width, "")
	c.fs.Float64Var(&c.frameRate, "fps", 0, "")
	c.fs.StringVar(&c.cfg.Device, "device", "", "")
	require.NoError(t, c.parse([]string{"--config", path, "--width", "640", "--fps", "15", "--device", "7f0c", "--log-level", "error"}))

	assert.Equal(t, "front", c.cfg.Facing)
	assert.Equal(t, 640, c.cfg.Width)
	assert.Equal(t, 720, c.cfg.Height)
	assert.Equal(t, "videotest", c.cfg.Driver)
	assert.Equal(t, float32(15), c.cfg.FrameRate)
	assert.Equal(t, "7f0c", c.cfg.Device)
}

func TestCaptureWithVideoTest(t *testing.T) {
	out := t.TempDir()
	code := run([]string{"capture", "--driver", "videotest", "--width", "640", "--height", "480", "--switch", "--out", out, "--log-level", "error"})
	require.Equal(t, 0, code)

	files, err := filepath.Glob(filepath.Join(out, "report-*.jpg"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCaptureDeviceByLabel(t *testing.T) {
	out := t.TempDir()
	code := run([]string{"capture", "--driver", "videotest", "--device", "VideoTest front", "--width", "640", "--height", "480", "--out", out, "--log-level", "error"})
	require.Equal(t, 0, code)

	files, err := filepath.Glob(filepath.Join(out, "report-*.jpg"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCaptureUnknownDevice(t *testing.T) {
	out := t.TempDir()
	code := run([]string{"capture", "--driver", "videotest", "--device", "no-such-camera", "--out", out, "--log-level", "error"})
	assert.Equal(t, 1, code)

	files, err := filepath.Glob(filepath.Join(out, "*.jpg"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestUnknownCommand(t *testing.T) {
	assert.Equal(t, 2, run([]string{"record"}))
	assert.Equal(t, 2, run([]string{"list", "--driver", "gstreamer"}))
}
