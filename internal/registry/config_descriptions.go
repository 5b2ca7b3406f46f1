package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/thing"
)

// ConfigDescriptionRegistry stores configuration descriptions keyed by
// binding and URI. Registration is idempotent per URI: re-adding a known URI
// for the same binding keeps the existing description. It implements
// merge.ConfigDescriptionRegistry.
type ConfigDescriptionRegistry struct {
	mu        sync.RWMutex
	byBinding map[string]map[string]*thing.ConfigDescription
}

// NewConfigDescriptionRegistry creates an empty registry.
func NewConfigDescriptionRegistry() *ConfigDescriptionRegistry {
	return &ConfigDescriptionRegistry{
		byBinding: make(map[string]map[string]*thing.ConfigDescription),
	}
}

// Add registers one config description for the binding.
func (r *ConfigDescriptionRegistry) Add(ctx context.Context, bindingID string, desc *thing.ConfigDescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := ctxlog.FromContext(ctx)

	descs, ok := r.byBinding[bindingID]
	if !ok {
		descs = make(map[string]*thing.ConfigDescription)
		r.byBinding[bindingID] = descs
	}
	if _, exists := descs[desc.URI]; exists {
		logger.Debug("Config description already registered.", "binding", bindingID, "uri", desc.URI)
		return nil
	}
	descs[desc.URI] = desc

	logger.Debug("Config description registered.", "binding", bindingID,
		"uri", desc.URI, "parameters", len(desc.Parameters))
	return nil
}

// RemoveAll drops every config description registered for the binding.
func (r *ConfigDescriptionRegistry) RemoveAll(ctx context.Context, bindingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	descs, ok := r.byBinding[bindingID]
	if !ok {
		return
	}
	delete(r.byBinding, bindingID)

	ctxlog.FromContext(ctx).Debug("Removed all config descriptions for binding.",
		"binding", bindingID, "count", len(descs))
}

// Get looks up one config description by URI across all bindings.
func (r *ConfigDescriptionRegistry) Get(uri string) (*thing.ConfigDescription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, descs := range r.byBinding {
		if desc, ok := descs[uri]; ok {
			return desc, true
		}
	}
	return nil, false
}

// All returns every registered config description, sorted by URI.
func (r *ConfigDescriptionRegistry) All() []*thing.ConfigDescription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*thing.ConfigDescription
	for _, descs := range r.byBinding {
		for _, desc := range descs {
			all = append(all, desc)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].URI < all[j].URI })
	return all
}
