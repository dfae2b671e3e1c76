// Command capturectl lists cameras and runs one report capture into a
// directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/reportscan/capture"
	"github.com/reportscan/capture/internal/config"
	"github.com/reportscan/capture/internal/logging"
	"github.com/reportscan/capture/pkg/driver"
	"github.com/reportscan/capture/pkg/driver/camera"
	"github.com/reportscan/capture/pkg/driver/videotest"
	"github.com/reportscan/capture/pkg/frame"
	"github.com/reportscan/capture/pkg/prop"
	"github.com/reportscan/capture/pkg/session"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return 0
	}

	switch args[0] {
	case "list":
		return runList(args[1:])
	case "capture":
		return runCapture(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  capturectl list [--config capture.yaml] [--driver camera|videotest]")
	fmt.Fprintln(os.Stderr, "  capturectl capture [--config capture.yaml] [--facing rear|front | --device id] [--out dir] [flags]")
}

type cliFlags struct {
	fs         *flag.FlagSet
	configPath string
	cfg        config.Config
	// flag has no float32 flavour.
	frameRate  float64
}

// newFlags binds the config fields to fs. Flags given on the command line win
// over the config file.
func newFlags(name string) *cliFlags {
	c := &cliFlags{
		fs:  flag.NewFlagSet("capturectl "+name, flag.ContinueOnError),
		cfg: config.Default(),
	}
	c.fs.SetOutput(os.Stderr)
	c.fs.StringVar(&c.configPath, "config", "", "path to YAML configuration file")
	c.fs.StringVar(&c.cfg.Driver, "driver", c.cfg.Driver, "camera backend, camera or videotest")
	c.fs.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level: error, warn, info, debug or trace")
	return c
}

func (c *cliFlags) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return fmt.Errorf("configuration error in %s: %w", c.configPath, err)
		}
	}
	c.fs.Visit(func(f *flag.Flag) { c.override(&cfg, f.Name) })
	c.cfg = cfg

	if err := c.cfg.Validate(); err != nil {
		return err
	}
	return logging.Configure(c.cfg.LogLevel, os.Stderr)
}

// override copies the value of the flag called name into dst.
func (c *cliFlags) override(dst *config.Config, name string) {
	switch name {
	case "driver":
		dst.Driver = c.cfg.Driver
	case "log-level":
		dst.LogLevel = c.cfg.LogLevel
	case "facing":
		dst.Facing = c.cfg.Facing
	case "width":
		dst.Width = c.cfg.Width
	case "height":
		dst.Height = c.cfg.Height
	case "quality":
		dst.Quality = c.cfg.Quality
	case "thumbnail-width":
		dst.ThumbnailWidth = c.cfg.ThumbnailWidth
	case "out":
		dst.OutputDir = c.cfg.OutputDir
	case "device":
		dst.Device = c.cfg.Device
	case "fps":
		dst.FrameRate = float32(c.frameRate)
	case "format":
		dst.Format = c.cfg.Format
	}
}

func mediaDevices(cfg config.Config) capture.MediaDevices {
	m := driver.NewManager()
	switch cfg.Driver {
	case config.DriverVideoTest:
		_ = videotest.Register(m, "VideoTest front", prop.FacingModeUser)
		_ = videotest.Register(m, "VideoTest rear", prop.FacingModeEnvironment)
	default:
		camera.Initialize(m)
	}
	return capture.NewMediaDevices(capture.WithDriverManager(m))
}

func runList(args []string) int {
	c := newFlags("list")
	if err := c.parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	s := session.New(mediaDevices(c.cfg))
	devices := s.ListVideoInputs()
	if len(devices) == 0 {
		fmt.Println("no cameras found")
		return 1
	}
	for _, d := range devices {
		facing := string(d.Facing)
		if facing == "" {
			facing = "unknown"
		}
		fmt.Printf("%s\t%s\tfacing=%s\n", d.DeviceID, d.Label, facing)
	}
	return 0
}

func runCapture(args []string) int {
	c := newFlags("capture")
	c.fs.StringVar(&c.cfg.Facing, "facing", c.cfg.Facing, "camera to start with, rear or front")
	c.fs.IntVar(&c.cfg.Width, "width", c.cfg.Width, "ideal capture width")
	c.fs.IntVar(&c.cfg.Height, "height", c.cfg.Height, "ideal capture height")
	c.fs.IntVar(&c.cfg.Quality, "quality", c.cfg.Quality, "JPEG quality, 1 to 100")
	c.fs.IntVar(&c.cfg.ThumbnailWidth, "thumbnail-width", c.cfg.ThumbnailWidth, "maximum preview width")
	c.fs.StringVar(&c.cfg.OutputDir, "out", c.cfg.OutputDir, "directory the capture is written to")
	c.fs.StringVar(&c.cfg.Device, "device", c.cfg.Device, "ID or label of the camera to use, as printed by list")
	c.fs.Float64Var(&c.frameRate, "fps", float64(c.cfg.FrameRate), "ideal frame rate, 0 leaves it to the camera")
	c.fs.StringVar(&c.cfg.Format, "format", c.cfg.Format, "preferred pixel format, e.g. MJPEG")
	switchFacing := c.fs.Bool("switch", false, "switch to the other camera before capturing")
	timeout := c.fs.Duration("timeout", 10*time.Second, "how long to wait for the first frame")
	if err := c.parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if err := captureOnce(c.cfg, *switchFacing, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

var errNoFrame = errors.New("camera produced no frame in time")

// resolveDevice maps a configured device, given by ID or by label, to the ID
// of this run. IDs change between runs, labels of V4L2 cameras don't. An
// unknown device is passed through and fails to match any camera.
func resolveDevice(md capture.MediaDevices, device string) string {
	if device == "" {
		return ""
	}
	for _, d := range md.EnumerateDevices() {
		if d.DeviceID == device || d.Label == device {
			return d.DeviceID
		}
	}
	return device
}

func captureOnce(cfg config.Config, switchFacing bool, timeout time.Duration) error {
	facing := session.FacingRear
	if cfg.Facing == config.FacingFront {
		facing = session.FacingFront
	}

	md := mediaDevices(cfg)
	deviceID := resolveDevice(md, cfg.Device)

	var written string
	var writeErr error
	s := session.New(md,
		session.WithFacing(facing),
		session.WithIdealResolution(cfg.Width, cfg.Height),
		session.WithJPEGQuality(cfg.Quality),
		session.WithThumbnailWidth(cfg.ThumbnailWidth),
		session.WithDeviceID(deviceID),
		session.WithFrameRate(cfg.FrameRate),
		session.WithFrameFormat(frame.Format(cfg.Format)),
		session.WithOnFailure(func(f session.Failure) {
			fmt.Fprintln(os.Stderr, f.Message)
		}),
		session.WithOnCapture(func(a session.Artifact) {
			written = filepath.Join(cfg.OutputDir, a.Filename)
			writeErr = os.WriteFile(written, a.Data, 0o644)
		}),
	)
	defer s.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	if err := s.Start(); err != nil {
		return err
	}
	if switchFacing {
		if !s.State().CanSwitch {
			return errors.New("only one camera available, can't switch")
		}
		if err := s.SwitchFacing(); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		a, err := s.Capture()
		if err != nil {
			return err
		}
		if a != nil {
			fmt.Printf("captured %dx%d, %d bytes, preview %d bytes\n",
				a.Width, a.Height, len(a.Data), len(strings.TrimPrefix(a.PreviewURI, "data:image/jpeg;base64,")))
			break
		}

		select {
		case <-ticker.C:
		case <-deadline:
			return errNoFrame
		case <-interrupt:
			return errors.New("interrupted")
		}
	}

	if err := s.Accept(); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write capture: %w", writeErr)
	}
	fmt.Println(written)
	return nil
}
