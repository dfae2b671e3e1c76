// Package config loads capturectl settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/reportscan/capture/pkg/frame"
	"gopkg.in/yaml.v3"
)

// Driver names accepted by Config.Driver.
const (
	DriverCamera    = "camera"
	DriverVideoTest = "videotest"
)

// Facing names accepted by Config.Facing.
const (
	FacingRear  = "rear"
	FacingFront = "front"
)

// Config holds the capturectl settings.
type Config struct {
	// Facing is the camera tried first, "rear" or "front".
	Facing string `yaml:"facing"`
	// Device pins a camera by the label or ID capturectl list prints. Empty
	// picks by Facing.
	Device string `yaml:"device"`
	// Width and Height are the ideal capture resolution.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// FrameRate is the ideal frame rate, 0 leaves it to the camera.
	FrameRate float32 `yaml:"frame_rate"`
	// Format is the preferred raw pixel format, e.g. MJPEG. Empty accepts any.
	Format string `yaml:"format"`
	// Quality is the JPEG quality, 1 to 100.
	Quality        int    `yaml:"quality"`
	ThumbnailWidth int    `yaml:"thumbnail_width"`
	OutputDir      string `yaml:"output_dir"`
	// Driver selects the camera backend, "camera" for V4L2 devices or
	// "videotest" for synthetic ones.
	Driver   string `yaml:"driver"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Facing:         FacingRear,
		Width:          1920,
		Height:         1080,
		Quality:        95,
		ThumbnailWidth: 320,
		OutputDir:      ".",
		Driver:         DriverCamera,
		LogLevel:       "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values, unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return cfg, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read file: %w", err)
	}

	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode decodes a single strict YAML document from r into cfg.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Facing {
	case FacingRear, FacingFront:
	default:
		errs = append(errs, fmt.Errorf("facing: must be %q or %q, got %q", FacingRear, FacingFront, c.Facing))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("resolution: must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.FrameRate < 0 {
		errs = append(errs, fmt.Errorf("frame_rate: must not be negative, got %.2f", c.FrameRate))
	}
	switch frame.Format(c.Format) {
	case "", frame.FormatI420, frame.FormatNV21, frame.FormatYUY2, frame.FormatUYVY, frame.FormatMJPEG:
	default:
		errs = append(errs, fmt.Errorf("format: unsupported pixel format %q", c.Format))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality: must be between 1 and 100, got %d", c.Quality))
	}
	if c.ThumbnailWidth < 0 {
		errs = append(errs, fmt.Errorf("thumbnail_width: must not be negative, got %d", c.ThumbnailWidth))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir: must not be empty"))
	}
	switch c.Driver {
	case DriverCamera, DriverVideoTest:
	default:
		errs = append(errs, fmt.Errorf("driver: must be %q or %q, got %q", DriverCamera, DriverVideoTest, c.Driver))
	}
	return errors.Join(errs...)
}
