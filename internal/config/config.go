// Package config loads runtime configuration from MUDRA_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/paint"
	"github.com/ayusman/mudra/internal/snapshot"
)

// Config is the full runtime configuration. Zero-valued directory fields
// are derived from DataDir by Resolve.
type Config struct {
	Addr      string `env:"MUDRA_ADDR" envDefault:"127.0.0.1:8080"`
	StaticDir string `env:"MUDRA_STATIC_DIR"`
	ImagesDir string `env:"MUDRA_IMAGES_DIR"`
	DataDir   string `env:"MUDRA_DATA_DIR"`

	CameraDevice int  `env:"MUDRA_CAMERA" envDefault:"0"`
	Width        int  `env:"MUDRA_WIDTH" envDefault:"640"`
	Height       int  `env:"MUDRA_HEIGHT" envDefault:"480"`
	Mirror       bool `env:"MUDRA_MIRROR" envDefault:"true"`
	IdleFPS      int  `env:"MUDRA_IDLE_FPS" envDefault:"5"`
	ActiveFPS    int  `env:"MUDRA_ACTIVE_FPS" envDefault:"15"`

	StartupRetries   int           `env:"MUDRA_STARTUP_RETRIES" envDefault:"5"`
	RetryInterval    time.Duration `env:"MUDRA_RETRY_INTERVAL" envDefault:"500ms"`
	RetryMaxInterval time.Duration `env:"MUDRA_RETRY_MAX_INTERVAL" envDefault:"5s"`

	MaxHands        int     `env:"MUDRA_MAX_HANDS" envDefault:"2"`
	MinConfidence   float64 `env:"MUDRA_MIN_CONFIDENCE" envDefault:"0.5"`
	MinTrackingConf float64 `env:"MUDRA_MIN_TRACKING_CONFIDENCE" envDefault:"0.5"`
	DetectFace      bool    `env:"MUDRA_DETECT_FACE" envDefault:"true"`
	DetectorWidth   int     `env:"MUDRA_DETECTOR_WIDTH" envDefault:"320"`
	ScriptPath      string  `env:"MUDRA_SCRIPT_PATH"`
	PythonPath      string  `env:"MUDRA_PYTHON"`

	SnapshotDir      string        `env:"MUDRA_SNAPSHOT_DIR"`
	SnapshotCooldown time.Duration `env:"MUDRA_SNAPSHOT_COOLDOWN" envDefault:"3s"`
	SnapshotTrigger  string        `env:"MUDRA_SNAPSHOT_TRIGGER" envDefault:"Right/Palm"`
	SnapshotQuality  int           `env:"MUDRA_SNAPSHOT_QUALITY" envDefault:"90"`
	DBPath           string        `env:"MUDRA_DB"`

	HookDir      string        `env:"MUDRA_HOOK_DIR"`
	HookTimeout  time.Duration `env:"MUDRA_HOOK_TIMEOUT" envDefault:"5s"`
	HookCooldown time.Duration `env:"MUDRA_HOOK_COOLDOWN" envDefault:"3s"`
	Actions      bool          `env:"MUDRA_ACTIONS" envDefault:"true"`

	Paint         bool `env:"MUDRA_PAINT" envDefault:"true"`
	StreamQuality int  `env:"MUDRA_STREAM_QUALITY" envDefault:"80"`

	LogLevel     string `env:"MUDRA_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"MUDRA_LOG_FORMAT" envDefault:"text"`
	OtelEndpoint string `env:"MUDRA_OTEL_ENDPOINT"`
	OtelEnabled  bool   `env:"MUDRA_OTEL_ENABLED" envDefault:"true"`

	Tray bool `env:"MUDRA_TRAY" envDefault:"false"`
}

// ParseEnv parses environment variables into the provided config struct.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config. Call Resolve after any flag
// overrides have been applied.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve fills derived paths from DataDir, defaulting DataDir to
// ~/.mudra, and validates the result.
func (c *Config) Resolve() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		c.DataDir = filepath.Join(home, ".mudra")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "mudra.db")
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = filepath.Join(c.DataDir, "snapshots")
	}
	if c.HookDir == "" {
		c.HookDir = filepath.Join(c.DataDir, "hooks")
	}
	if c.ImagesDir == "" {
		c.ImagesDir = filepath.Join(c.DataDir, "images")
	}
	return c.Validate()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be positive", c.Width, c.Height))
	}
	if c.IdleFPS <= 0 || c.ActiveFPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d/%d must be positive", c.IdleFPS, c.ActiveFPS))
	}
	if c.StartupRetries < 1 {
		errs = append(errs, fmt.Errorf("startup retries %d must be at least 1", c.StartupRetries))
	}
	if c.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("max hands %d must be at least 1", c.MaxHands))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 || c.MinTrackingConf < 0 || c.MinTrackingConf > 1 {
		errs = append(errs, errors.New("confidence thresholds must be within [0, 1]"))
	}
	if _, err := snapshot.ParseTrigger(c.SnapshotTrigger); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Camera returns the capture settings.
func (c Config) Camera() capture.Config {
	return capture.Config{
		DeviceID: c.CameraDevice,
		Width:    c.Width,
		Height:   c.Height,
		FPS:      c.ActiveFPS,
		Mirror:   c.Mirror,
	}
}

// Retry returns the camera open/reconnect policy.
func (c Config) Retry() capture.RetryConfig {
	return capture.RetryConfig{
		Attempts:        c.StartupRetries,
		InitialInterval: c.RetryInterval,
		MaxInterval:     c.RetryMaxInterval,
	}
}

// Rate returns the adaptive frame-rate settings.
func (c Config) Rate() capture.RateConfig {
	rc := capture.DefaultRateConfig()
	rc.IdleFPS = c.IdleFPS
	rc.ActiveFPS = c.ActiveFPS
	return rc
}

// Detector returns the landmark detector settings.
func (c Config) Detector() detector.Config {
	return detector.Config{
		MaxHands:        c.MaxHands,
		MinConfidence:   c.MinConfidence,
		MinTrackingConf: c.MinTrackingConf,
		DetectFace:      c.DetectFace,
		InputWidth:      c.DetectorWidth,
		ScriptPath:      c.ScriptPath,
		PythonPath:      c.PythonPath,
	}
}

// Snapshot returns the snapshot writer settings. The trigger must already
// have passed Validate.
func (c Config) Snapshot() snapshot.Config {
	trigger, err := snapshot.ParseTrigger(c.SnapshotTrigger)
	if err != nil {
		trigger = snapshot.DefaultTrigger()
	}
	return snapshot.Config{
		Dir:      c.SnapshotDir,
		Cooldown: c.SnapshotCooldown,
		Trigger:  trigger,
		Quality:  c.SnapshotQuality,
	}
}

// PaintSession returns the painting canvas settings sized to the capture.
func (c Config) PaintSession() paint.Config {
	pc := paint.DefaultConfig()
	pc.Width = c.Width
	pc.Height = c.Height
	return pc
}
