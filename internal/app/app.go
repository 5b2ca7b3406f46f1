package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/yonghaozhang/smarthome/internal/events"
	"github.com/yonghaozhang/smarthome/internal/hcl"
	"github.com/yonghaozhang/smarthome/internal/loader"
	"github.com/yonghaozhang/smarthome/internal/merge"
	"github.com/yonghaozhang/smarthome/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: the event bus, both registries, and the bulk loader that feeds
// them.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	bus         *events.Bus
	thingTypes  *registry.ThingTypeRegistry
	configDescs *registry.ConfigDescriptionRegistry
	loader      *loader.Loader

	mu         sync.Mutex
	caches     map[string]*merge.Cache
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registries.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	bus := events.NewBus()
	thingTypes := registry.NewThingTypeRegistry(bus)
	configDescs := registry.NewConfigDescriptionRegistry()

	return &App{
		outW:        outW,
		logger:      logger,
		config:      config,
		bus:         bus,
		thingTypes:  thingTypes,
		configDescs: configDescs,
		loader:      loader.New(hcl.NewLoader(), thingTypes, configDescs, config.Workers),
		caches:      make(map[string]*merge.Cache),
	}
}

// ThingTypes returns the thing-type registry. This is primarily for testing.
func (a *App) ThingTypes() *registry.ThingTypeRegistry {
	return a.thingTypes
}

// ConfigDescriptions returns the config-description registry. This is
// primarily for testing.
func (a *App) ConfigDescriptions() *registry.ConfigDescriptionRegistry {
	return a.configDescs
}

// Bus returns the application's event bus.
func (a *App) Bus() *events.Bus {
	return a.bus
}

// DiscardBinding removes every thing type and config description published
// for the binding. It reports whether the binding was known.
func (a *App) DiscardBinding(ctx context.Context, bindingID string) bool {
	a.mu.Lock()
	cache, ok := a.caches[bindingID]
	delete(a.caches, bindingID)
	a.mu.Unlock()

	if !ok {
		return false
	}
	a.logger.Info("Discarding binding.", "binding", bindingID)
	cache.Discard(ctx)
	return true
}
