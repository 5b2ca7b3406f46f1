package app

import (
	"context"
	"fmt"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/eventstream"
)

// Run executes the main application lifecycle: connect the optional event
// gateway, load and merge every binding's thing descriptions, then either
// return (one-shot mode) or serve the status endpoints until the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	var bridge *eventstream.Bridge
	if a.config.EventsURL != "" {
		var err error
		bridge, err = eventstream.Connect(ctx, eventstream.Config{
			URL:                a.config.EventsURL,
			Namespace:          a.config.EventsNamespace,
			InsecureSkipVerify: a.config.EventsSkipTLSCheck,
		}, a.bus)
		if err != nil {
			return fmt.Errorf("failed to connect event gateway: %w", err)
		}
	}

	a.logger.Info("🔍 Loading thing descriptions...", "path", a.config.ThingsPath)
	caches, loadErr := a.loader.LoadAll(ctx, a.config.ThingsPath)

	a.mu.Lock()
	a.caches = caches
	a.mu.Unlock()

	a.logger.Info("🏠 Thing descriptions merged.",
		"bindings", len(caches),
		"thing_types", len(a.thingTypes.All()),
		"config_descriptions", len(a.configDescs.All()),
	)
	if loadErr != nil {
		a.logger.Warn("Some descriptions failed to load.", "error", loadErr)
	}

	if a.config.HealthcheckPort > 0 {
		a.statusServer()
		<-ctx.Done()
		a.closeStatusServer()
	}

	// Closing the bus stops the bridge's forwarding goroutine.
	a.bus.Close()
	if bridge != nil {
		bridge.Close()
	}

	a.logger.Debug("App.Run method finished.")
	return loadErr
}
