package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/events"
	"github.com/yonghaozhang/smarthome/internal/thing"
)

// ThingTypeRegistry stores every published thing type, keyed by binding and
// UID. It implements merge.ThingTypeRegistry.
type ThingTypeRegistry struct {
	mu        sync.RWMutex
	bus       *events.Bus
	byBinding map[string]map[string]*thing.ThingType
}

// NewThingTypeRegistry creates an empty registry. The bus may be nil, in
// which case no change events are emitted.
func NewThingTypeRegistry(bus *events.Bus) *ThingTypeRegistry {
	return &ThingTypeRegistry{
		bus:       bus,
		byBinding: make(map[string]map[string]*thing.ThingType),
	}
}

// Add publishes one resolved thing type for the given binding. Re-adding an
// existing UID replaces the previous definition.
func (r *ThingTypeRegistry) Add(ctx context.Context, bindingID string, tt *thing.ThingType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := ctxlog.FromContext(ctx)

	types, ok := r.byBinding[bindingID]
	if !ok {
		types = make(map[string]*thing.ThingType)
		r.byBinding[bindingID] = types
	}
	if _, exists := types[tt.UID]; exists {
		logger.Warn("Replacing already published thing type.", "binding", bindingID, "uid", tt.UID)
	}
	types[tt.UID] = tt

	logger.Debug("Thing type published.", "binding", bindingID, "uid", tt.UID,
		"groups", len(tt.Groups), "channels", len(tt.Channels))
	r.emit(events.ThingTypeAdded, bindingID, tt.UID)
	return nil
}

// RemoveAll drops every thing type published for the binding. Calling it for
// an unknown binding is a no-op, which makes discard idempotent.
func (r *ThingTypeRegistry) RemoveAll(ctx context.Context, bindingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	types, ok := r.byBinding[bindingID]
	if !ok {
		return
	}
	delete(r.byBinding, bindingID)

	ctxlog.FromContext(ctx).Debug("Removed all thing types for binding.",
		"binding", bindingID, "count", len(types))

	uids := make([]string, 0, len(types))
	for uid := range types {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		r.emit(events.ThingTypeRemoved, bindingID, uid)
	}
}

// Get looks up one thing type by UID across all bindings.
func (r *ThingTypeRegistry) Get(uid string) (*thing.ThingType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, types := range r.byBinding {
		if tt, ok := types[uid]; ok {
			return tt, true
		}
	}
	return nil, false
}

// All returns every published thing type, sorted by UID.
func (r *ThingTypeRegistry) All() []*thing.ThingType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*thing.ThingType
	for _, types := range r.byBinding {
		for _, tt := range types {
			all = append(all, tt)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UID < all[j].UID })
	return all
}

// emit publishes a change event if a bus is attached. Callers must hold r.mu.
func (r *ThingTypeRegistry) emit(typ events.Type, bindingID, uid string) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{Type: typ, BindingID: bindingID, UID: uid})
}
