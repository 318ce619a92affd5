// Package main is the entry point for the aurapaneld panel daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/aurapanel/aurapanel/internal/config"
	"github.com/aurapanel/aurapanel/internal/control"
	"github.com/aurapanel/aurapanel/internal/coordinator"
	"github.com/aurapanel/aurapanel/internal/hover"
	"github.com/aurapanel/aurapanel/internal/ipc"
	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/monitor"
	"github.com/aurapanel/aurapanel/internal/native"
	"github.com/aurapanel/aurapanel/internal/popover"
	"github.com/aurapanel/aurapanel/internal/registry"
	"github.com/aurapanel/aurapanel/internal/store"
	"github.com/aurapanel/aurapanel/internal/uiloop"
	"github.com/aurapanel/aurapanel/internal/windows"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to aurapaneld.toml (default: ~/.config/aurapanel/aurapaneld.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("aurapaneld version", version)
		os.Exit(0)
	}

	cfg, err := config.LoadDaemonConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel()),
	}))
	slog.SetDefault(logger)

	logger.Info("starting aurapaneld", "version", version)

	ctxDesc, err := coordinator.DetectContext(os.Getenv)
	if err != nil {
		logger.Error("failed to detect role", "error", err)
		os.Exit(1)
	}
	if ctxDesc.Role != model.RoleCoordinator {
		// Child surfaces are materialized by the coordinator process;
		// a child context reaching the daemon binary is a wiring bug.
		logger.Error("aurapaneld must run as the coordinator", "role", ctxDesc.Role)
		os.Exit(1)
	}

	backend, err := native.New(logger)
	if err != nil {
		logger.Error("failed to initialize native backend", "error", err)
		os.Exit(1)
	}

	d := &daemon{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		loop:    uiloop.New(backend),
		ctx:     ctxDesc,
	}

	// Bootstrap runs off the main thread once the run loop is pumping;
	// engine calls marshal back onto it.
	native.RunApp(func() { go d.bootstrap() })
}

type daemon struct {
	cfg     *config.DaemonConfig
	logger  *slog.Logger
	backend native.Backend
	loop    *uiloop.Loop
	ctx     model.Context

	monitors  *monitor.Registry
	windows   *windows.Controller
	popovers  *popover.Controller
	hover     *hover.Manager
	co        *coordinator.Coordinator
	ctl       *control.Server
	ipcServer *ipc.Server

	running atomic.Bool
}

func (d *daemon) bootstrap() {
	cfg, logger := d.cfg, d.logger
	d.running.Store(true)

	reg := registry.New(logger)
	d.monitors = monitor.NewRegistry(d.backend, d.loop, logger)
	d.monitors.CoalesceWindow = cfg.Display.Coalesce.Duration()
	d.windows = windows.New(d.backend, reg, d.loop, cfg.UI.URL, logger)
	d.popovers = popover.New(d.backend, reg, d.loop, cfg.UI.URL, logger)
	d.hover = hover.NewManager(d.backend, d.popovers, logger)
	d.hover.PollInterval = cfg.Hover.PollInterval.Duration()
	d.hover.CloseDelay = cfg.Hover.CloseDelay.Duration()

	kv, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("failed to open widget store", "error", err)
		d.shutdown(1)
		return
	}

	d.co = coordinator.New(d.ctx, d.backend, d.monitors, d.windows, d.popovers, d.loop, logger)

	// First monitor snapshot, then hand the table to the controllers.
	d.monitors.Prime()
	table, err := d.monitors.List()
	if err != nil {
		logger.Error("no displays available at startup", "error", err)
		d.shutdown(1)
		return
	}
	d.loop.Call(func() {
		d.windows.SetMonitors(table)
		d.popovers.SetMonitors(table)
	})
	logger.Info("monitors discovered", "count", len(table), "primary", table[0].Name)

	d.co.Start()

	// Control channel for child surfaces.
	d.ctl = control.NewServer(control.Engine{
		Windows:  d.windows,
		Popovers: d.popovers,
		Monitors: d.monitors,
		Store:    kv,
		Hover:    d.hover,
	}, logger)
	if err := d.ctl.Start(cfg.Control.Addr); err != nil {
		logger.Error("failed to start control server", "error", err)
		d.shutdown(1)
		return
	}

	// Push engine events to connected children.
	monSub := d.monitors.Subscribe(func(monitors []model.Monitor) {
		d.ctl.Broadcast(control.EventMonitorsChanged, monitors)
	})
	defer monSub.Cancel()
	popSub := d.popovers.SubscribeClosed(func(id string) {
		d.hover.UnwatchPopover(id)
		d.ctl.Broadcast(control.EventPopoverClosed, control.PopoverClosedPayload{ID: id})
	})
	defer popSub.Cancel()
	busSub := d.co.Bus().Subscribe("", func(ev model.ExternalEvent) {
		d.ctl.Broadcast(control.EventExternal, ev)
	})
	defer busSub.Cancel()
	d.hover.OnTrigger = func(id string, entered bool) {
		event := control.EventTriggerLeave
		if entered {
			event = control.EventTriggerEnter
		}
		d.ctl.Broadcast(event, control.TriggerHoverPayload{ID: id})
	}

	// External event socket for the CLI.
	d.ipcServer = ipc.NewServer(cfg.IPC.Socket, d.co.Inject, logger)
	if err := d.ipcServer.Start(); err != nil {
		logger.Error("failed to start ipc server", "error", err)
		d.shutdown(1)
		return
	}

	// Coordinator surface hosting the primary bundle.
	d.createSelfSurface(table[0])

	// Declare and materialize discovered widgets.
	d.materializeWidgets()

	// The coordinator hides itself once every declared window exists.
	if err := d.co.WaitForAll(context.Background()); err == nil && cfg.UI.HideSelf {
		if err := d.co.HideSelf(); err != nil {
			logger.Warn("failed to hide coordinator surface", "error", err)
		}
	}

	d.watchConfig()
	d.watchWidgets()

	logger.Info("aurapaneld ready",
		"control", d.ctl.Addr(),
		"socket", cfg.IPC.Socket,
	)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	d.shutdown(0)
}

// createSelfSurface realizes the coordinator's own window across the
// primary monitor.
func (d *daemon) createSelfSurface(primary model.Monitor) {
	var (
		sid native.SurfaceID
		err error
	)
	d.loop.Call(func() {
		sid, err = d.backend.CreateWindow(native.SurfaceConfig{
			Label: "main",
			URL:   d.cfg.UI.URL,
			Frame: primary.Bounds(),
			Flags: model.WindowConfig{Transparent: true, SkipTaskbar: true},
		})
		if err == nil {
			err = d.backend.Show(sid)
		}
	})
	if err != nil {
		d.logger.Warn("failed to create coordinator surface", "error", err)
		return
	}
	d.co.SetSelfSurface(sid)
}

// materializeWidgets discovers manifests and creates their windows.
func (d *daemon) materializeWidgets() {
	manifests, err := manifestsFor(d.cfg, d.logger)
	if err != nil {
		d.logger.Warn("widget discovery failed", "error", err)
		return
	}
	for _, m := range manifests {
		d.co.Declare(m.ID)
	}
	for _, m := range manifests {
		if err := d.createWidget(m); err != nil {
			d.logger.Error("failed to create widget window", "id", m.ID, "error", err)
		}
		// The id leaves the pending set either way; a failed widget
		// must not wedge WaitForAll forever.
		d.co.MarkReady(m.ID)
	}
}

func (d *daemon) shutdown(code int) {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	if d.hover != nil {
		d.hover.Stop()
	}
	if d.ipcServer != nil {
		d.ipcServer.Stop()
	}
	if d.ctl != nil {
		d.ctl.Stop()
	}
	if d.co != nil {
		d.co.Stop()
	}
	d.logger.Info("aurapaneld stopped")
	if code != 0 {
		os.Exit(code)
	}
	native.TerminateApp()
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
