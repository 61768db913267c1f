package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
	"github.com/ayusman/mudra/internal/tray"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the camera pipeline and HTTP server",
		Long: `Open the camera and process frames until interrupted.

Endpoints:
  /api/status         current interaction state (JSON)
  /api/ws             interaction state pushed on every frame
  /api/stream         MJPEG with the hand skeleton and status overlay
  /api/paint/stream   MJPEG with the finger-painting canvas
  /api/images/{key}   response images
  /api/snapshots      snapshot ledger

The process exits with status 1 if the camera cannot be opened.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address")
	f.Int("camera", 0, "Camera device index")
	f.Int("width", 0, "Capture width")
	f.Int("height", 0, "Capture height")
	f.Bool("mirror", true, "Mirror frames horizontally")
	f.Int("max-hands", 0, "Maximum hands to detect")
	f.Bool("face", true, "Detect the face for expressions")
	f.Bool("paint", true, "Enable the finger-painting stream")
	f.Bool("actions", true, "Enable snapshots and hooks")
	f.String("snapshot-trigger", "", "Hand that triggers snapshots, e.g. Right/Palm")
	f.Duration("snapshot-cooldown", 0, "Minimum time between snapshots")
	f.String("static", "", "Directory of the web viewer")
	f.String("images", "", "Directory of response images")
	f.String("hooks", "", "Hook directory")
	f.String("script", "", "Path to mediapipe_service.py")
	f.Bool("tray", false, "Show the system tray icon")
	return cmd
}

func serveOverrides(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	setString(fs, "addr", &cfg.Addr)
	setInt(fs, "camera", &cfg.CameraDevice)
	setInt(fs, "width", &cfg.Width)
	setInt(fs, "height", &cfg.Height)
	setBool(fs, "mirror", &cfg.Mirror)
	setInt(fs, "max-hands", &cfg.MaxHands)
	setBool(fs, "face", &cfg.DetectFace)
	setBool(fs, "paint", &cfg.Paint)
	setBool(fs, "actions", &cfg.Actions)
	setString(fs, "snapshot-trigger", &cfg.SnapshotTrigger)
	setDuration(fs, "snapshot-cooldown", &cfg.SnapshotCooldown)
	setString(fs, "static", &cfg.StaticDir)
	setString(fs, "images", &cfg.ImagesDir)
	setString(fs, "hooks", &cfg.HookDir)
	setString(fs, "script", &cfg.ScriptPath)
	setBool(fs, "tray", &cfg.Tray)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, serveOverrides)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{Endpoint: cfg.OtelEndpoint, Enabled: cfg.OtelEnabled}, telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	a, err := app.New(appConfig(cfg, st))
	if err != nil {
		return err
	}
	defer a.Close()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		slog.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		ImagesDir: cfg.ImagesDir,
		Store:     st,
		State:     a.State(),
		Annotated: a.Annotated(),
		Painted:   a.Painted(),
		Actions:   a,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx, cfg.Addr) })

	if cfg.Tray {
		runTray(gctx, stop, a, cfg.Addr)
	}

	err = g.Wait()
	if errors.Is(err, app.ErrCameraUnavailable) {
		slog.Error("camera could not be opened", "device", cfg.CameraDevice, "attempts", cfg.StartupRetries)
	}
	return err
}

func appConfig(cfg config.Config, st *store.Store) app.Config {
	return app.Config{
		Camera:        cfg.Camera(),
		Retry:         cfg.Retry(),
		Rate:          cfg.Rate(),
		Detector:      cfg.Detector(),
		Paint:         cfg.Paint,
		PaintConfig:   cfg.PaintSession(),
		StreamQuality: cfg.StreamQuality,
		Snapshot:      cfg.Snapshot(),
		HookDir:       cfg.HookDir,
		HookTimeout:   cfg.HookTimeout,
		HookCooldown:  cfg.HookCooldown,
		Actions:       cfg.Actions,
		Store:         st,
	}
}

// runTray blocks on the tray's event loop until the user quits or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, addr string) {
	t := tray.New(a.Enabled())
	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(enabled); err != nil {
			slog.Warn("toggle actions", "err", err)
		}
	})
	t.OnOpenUI(func() {
		if err := openBrowser(viewerURL(addr)); err != nil {
			slog.Warn("open browser", "err", err)
		}
	})
	t.OnQuit(stop)

	go t.Follow(ctx, a.State())
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
