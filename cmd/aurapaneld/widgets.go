package main

import (
	"log/slog"

	"github.com/aurapanel/aurapanel/internal/config"
	"github.com/aurapanel/aurapanel/internal/manifest"
	"github.com/aurapanel/aurapanel/internal/model"
	"github.com/aurapanel/aurapanel/internal/windows"
)

func manifestsFor(cfg *config.DaemonConfig, logger *slog.Logger) ([]manifest.Manifest, error) {
	return manifest.Discover(cfg.Widgets.Dir, logger)
}

// createWidget materializes one manifest as an inline window.
func (d *daemon) createWidget(m manifest.Manifest) error {
	kind := m.Kind
	if kind == "" {
		kind = model.KindFloat
	}
	flags := m.Flags()
	return d.windows.Create(windows.CreateOptions{
		ID:       m.ID,
		Position: m.Position,
		Kind:     kind,
		Flags:    &flags,
		URL:      m.Entry,
	})
}

// reconcileWidgets moves the live window fleet to match a freshly
// discovered manifest set: new manifests are created, existing ones are
// repositioned, and windows whose manifest vanished are closed.
func (d *daemon) reconcileWidgets(manifests []manifest.Manifest) {
	current := make(map[string]bool)
	for _, id := range d.windows.IDs() {
		current[id] = true
	}

	seen := make(map[string]bool, len(manifests))
	for _, m := range manifests {
		seen[m.ID] = true
		if current[m.ID] {
			if err := d.windows.UpdatePosition(m.ID, m.Position); err != nil {
				d.logger.Warn("widget reposition failed", "id", m.ID, "error", err)
			}
			continue
		}
		d.co.Declare(m.ID)
		if err := d.createWidget(m); err != nil {
			d.logger.Error("failed to create widget window", "id", m.ID, "error", err)
		}
		d.co.MarkReady(m.ID)
	}

	for id := range current {
		if !seen[id] {
			if err := d.windows.Close(id, true); err != nil {
				d.logger.Warn("widget close failed", "id", id, "error", err)
			}
		}
	}
}

// watchWidgets follows the widgets directory for manifest changes.
func (d *daemon) watchWidgets() {
	if !d.cfg.Widgets.HotReload {
		return
	}
	w, err := manifest.NewWatcher(d.cfg.Widgets.Dir, d.logger)
	if err != nil {
		d.logger.Warn("failed to create manifest watcher", "error", err)
		return
	}
	w.SetChangeCallback(d.reconcileWidgets)
	if err := w.Start(); err != nil {
		d.logger.Warn("failed to start manifest watcher", "error", err)
	}
}

// watchConfig applies hot-reloadable settings when the config file changes.
func (d *daemon) watchConfig() {
	w, err := config.NewWatcher("", d.logger)
	if err != nil {
		d.logger.Warn("failed to create config watcher", "error", err)
		return
	}
	w.SetReloadCallback(func(cfg *config.DaemonConfig) {
		// Tunables only; addresses and paths need a restart.
		d.monitors.CoalesceWindow = cfg.Display.Coalesce.Duration()
		d.hover.PollInterval = cfg.Hover.PollInterval.Duration()
		d.hover.CloseDelay = cfg.Hover.CloseDelay.Duration()
		d.logger.Info("applied reloaded config")
	})
	w.SetErrorCallback(func(err error) {
		d.logger.Warn("config reload rejected", "error", err)
	})
	if err := w.Start(); err != nil {
		d.logger.Warn("failed to start config watcher", "error", err)
	}
}
