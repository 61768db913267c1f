package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if !cfg.Mirror || !cfg.DetectFace || !cfg.Actions {
		t.Errorf("Mirror/DetectFace/Actions = %v/%v/%v, want all true", cfg.Mirror, cfg.DetectFace, cfg.Actions)
	}
	if cfg.MaxHands != 2 || cfg.MinConfidence != 0.5 || cfg.MinTrackingConf != 0.5 {
		t.Errorf("detector = %d/%v/%v, want 2/0.5/0.5", cfg.MaxHands, cfg.MinConfidence, cfg.MinTrackingConf)
	}
	if cfg.SnapshotCooldown != 3*time.Second {
		t.Errorf("SnapshotCooldown = %v, want 3s", cfg.SnapshotCooldown)
	}
	if cfg.SnapshotTrigger != "Right/Palm" {
		t.Errorf("SnapshotTrigger = %q", cfg.SnapshotTrigger)
	}
	if cfg.Tray {
		t.Error("Tray should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MUDRA_ADDR", ":9090")
	t.Setenv("MUDRA_MIRROR", "false")
	t.Setenv("MUDRA_SNAPSHOT_COOLDOWN", "1500ms")
	t.Setenv("MUDRA_MAX_HANDS", "1")
	t.Setenv("MUDRA_SNAPSHOT_TRIGGER", "left/back")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":9090" || cfg.Mirror || cfg.MaxHands != 1 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SnapshotCooldown != 1500*time.Millisecond {
		t.Errorf("SnapshotCooldown = %v", cfg.SnapshotCooldown)
	}

	trigger := cfg.Snapshot().Trigger
	if trigger.Handedness != detector.Left || trigger.Orientation != gesture.Back {
		t.Errorf("trigger = %v, want Left/Back", trigger)
	}
}

func TestLoad_Error(t *testing.T) {
	t.Setenv("MUDRA_WIDTH", "wide")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestResolve_DerivesPaths(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.DataDir = dir

	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.DBPath != filepath.Join(dir, "mudra.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.SnapshotDir != filepath.Join(dir, "snapshots") {
		t.Errorf("SnapshotDir = %q", cfg.SnapshotDir)
	}
	if cfg.HookDir != filepath.Join(dir, "hooks") {
		t.Errorf("HookDir = %q", cfg.HookDir)
	}
	if cfg.ImagesDir != filepath.Join(dir, "images") {
		t.Errorf("ImagesDir = %q", cfg.ImagesDir)
	}
}

func TestResolve_KeepsExplicitPaths(t *testing.T) {
	cfg, _ := Load()
	cfg.DataDir = t.TempDir()
	cfg.SnapshotDir = "/tmp/elsewhere"

	if err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.SnapshotDir != "/tmp/elsewhere" {
		t.Errorf("SnapshotDir = %q, want the explicit value", cfg.SnapshotDir)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, "frame size"},
		{"zero idle fps", func(c *Config) { c.IdleFPS = 0 }, "fps"},
		{"no retries", func(c *Config) { c.StartupRetries = 0 }, "startup retries"},
		{"no hands", func(c *Config) { c.MaxHands = 0 }, "max hands"},
		{"confidence above one", func(c *Config) { c.MinConfidence = 1.5 }, "confidence"},
		{"bad trigger", func(c *Config) { c.SnapshotTrigger = "Middle/Palm" }, "invalid trigger"},
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg, _ := Load()
	cfg.Width, cfg.Height = 320, 240
	cfg.CameraDevice = 2

	cam := cfg.Camera()
	if cam.DeviceID != 2 || cam.Width != 320 || cam.Height != 240 || !cam.Mirror {
		t.Errorf("Camera() = %+v", cam)
	}
	if rc := cfg.Retry(); rc.Attempts != 5 || rc.InitialInterval != 500*time.Millisecond {
		t.Errorf("Retry() = %+v", rc)
	}
	if rate := cfg.Rate(); rate.IdleFPS != 5 || rate.ActiveFPS != 15 {
		t.Errorf("Rate() = %+v", rate)
	}
	if pc := cfg.PaintSession(); pc.Width != 320 || pc.Height != 240 {
		t.Errorf("PaintSession() = %+v", pc)
	}
	if dc := cfg.Detector(); dc.MaxHands != 2 || !dc.DetectFace || dc.InputWidth != 320 {
		t.Errorf("Detector() = %+v", dc)
	}
}
