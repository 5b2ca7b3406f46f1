package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yonghaozhang/smarthome/internal/ctxlog"
	"github.com/yonghaozhang/smarthome/internal/thing"
)

// ThingTypeRegistry is the downstream sink for fully resolved thing types.
type ThingTypeRegistry interface {
	// Add publishes one resolved thing type for the given binding.
	Add(ctx context.Context, bindingID string, tt *thing.ThingType) error

	// RemoveAll removes every thing type previously published for the binding.
	RemoveAll(ctx context.Context, bindingID string)
}

// ConfigDescriptionRegistry is the downstream sink for configuration
// descriptions. Registration is best-effort: the cache logs and swallows Add
// failures.
type ConfigDescriptionRegistry interface {
	Add(ctx context.Context, bindingID string, desc *thing.ConfigDescription) error
	RemoveAll(ctx context.Context, bindingID string)
}

// Cache is the owner-scoped staging area for one binding's thing
// descriptions. Records are ingested in arbitrary order during a load batch;
// Finalize resolves cross-references and publishes the results.
//
// All three operations share a single critical section. Batches are small and
// the work is in-memory merging, so one mutex per cache instance is all the
// granularity that is needed.
type Cache struct {
	mu        sync.Mutex
	bindingID string
	things    ThingTypeRegistry
	configs   ConfigDescriptionRegistry

	// Staging state, scoped to one batch. Empty before the first Ingest and
	// again after Finalize returns.
	thingRefs    []*ThingTypeRecord
	groupRefs    []*ChannelGroupTypeRecord
	groupTypes   map[string]*thing.ChannelGroupType
	channelTypes map[string]*thing.ChannelType
}

// NewCache creates a staging cache for one binding. Both registries are
// required; passing nil is a programmer error.
func NewCache(bindingID string, things ThingTypeRegistry, configs ConfigDescriptionRegistry) *Cache {
	if bindingID == "" {
		panic("merge: bindingID must not be empty")
	}
	if things == nil {
		panic("merge: ThingTypeRegistry must not be nil")
	}
	if configs == nil {
		panic("merge: ConfigDescriptionRegistry must not be nil")
	}

	return &Cache{
		bindingID:    bindingID,
		things:       things,
		configs:      configs,
		groupTypes:   make(map[string]*thing.ChannelGroupType),
		channelTypes: make(map[string]*thing.ChannelType),
	}
}

// BindingID returns the binding this cache stages definitions for.
func (c *Cache) BindingID() string {
	return c.bindingID
}

// Ingest stages one raw record. Channel types are complete on arrival and go
// straight into the channel-type map; group and thing types are held
// unresolved until Finalize. Config descriptions attached to channel-type and
// thing-type records are forwarded to the config description registry
// immediately, independent of resolution.
func (c *Cache) Ingest(ctx context.Context, rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := ctxlog.FromContext(ctx)

	switch r := rec.(type) {
	case *ChannelTypeRecord:
		c.registerConfig(ctx, r.Config)
		uid := r.ChannelType.UID
		if _, exists := c.channelTypes[uid]; exists {
			// Duplicate UIDs within one binding are a caller error; keep the
			// last write rather than guessing which definition was meant.
			logger.Warn("Duplicate channel type in batch, keeping last.", "uid", uid, "binding", c.bindingID)
		}
		c.channelTypes[uid] = r.ChannelType
	case *ChannelGroupTypeRecord:
		c.groupRefs = append(c.groupRefs, r)
	case *ThingTypeRecord:
		c.registerConfig(ctx, r.Config)
		c.thingRefs = append(c.thingRefs, r)
	default:
		return fmt.Errorf("%w: %T", ErrUnrecognizedRecord, rec)
	}

	return nil
}

// registerConfig forwards a config description to the registry. Failures are
// logged and swallowed: a missing config description must not abort the batch.
// Callers must hold c.mu.
func (c *Cache) registerConfig(ctx context.Context, desc *thing.ConfigDescription) {
	if desc == nil {
		return
	}
	if err := c.configs.Add(ctx, c.bindingID, desc); err != nil {
		ctxlog.FromContext(ctx).Error("Could not register config description.",
			"binding", c.bindingID, "uri", desc.URI, "error", err)
	}
}

// Finalize ends the batch. It resolves all staged channel group types against
// the channel-type map, then resolves all staged thing types against both
// maps and publishes each one to the thing-type registry as it is built.
//
// The group pass runs to completion before the thing-type pass starts, since
// thing types may reference groups. Thing types are published in UID order so
// that the same batch always produces the same publish sequence regardless of
// ingest order. A publish failure for one thing type is logged and isolated;
// the remaining thing types are still published and the joined error is
// returned. The staging collections are cleared on every exit path.
func (c *Cache) Finalize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.clearStaging()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Finalizing batch.",
		"binding", c.bindingID,
		"channel_types", len(c.channelTypes),
		"group_types", len(c.groupRefs),
		"thing_types", len(c.thingRefs),
	)

	// Pass 1: channel group types.
	for _, ref := range c.groupRefs {
		c.groupTypes[ref.UID] = c.resolveGroupType(ctx, ref)
	}

	// Pass 2: thing types, published immediately upon construction.
	sort.Slice(c.thingRefs, func(i, j int) bool {
		return c.thingRefs[i].UID < c.thingRefs[j].UID
	})

	var errs []error
	for _, ref := range c.thingRefs {
		tt := c.resolveThingType(ctx, ref)
		if err := c.things.Add(ctx, c.bindingID, tt); err != nil {
			logger.Error("Failed to publish thing type.",
				"binding", c.bindingID, "uid", tt.UID, "error", err)
			errs = append(errs, fmt.Errorf("publish thing type %q: %w", tt.UID, err))
		}
	}

	return errors.Join(errs...)
}

// resolveGroupType merges one unresolved group type with the batch-final
// channel-type map. References to unknown channel types are omitted.
func (c *Cache) resolveGroupType(ctx context.Context, ref *ChannelGroupTypeRecord) *thing.ChannelGroupType {
	return &thing.ChannelGroupType{
		UID:         ref.UID,
		Label:       ref.Label,
		Description: ref.Description,
		Channels:    c.resolveChannels(ctx, ref.UID, ref.Channels),
	}
}

// resolveThingType merges one unresolved thing type with the resolved
// group-type map and the channel-type map. References to unknown group or
// channel types are omitted.
func (c *Cache) resolveThingType(ctx context.Context, ref *ThingTypeRecord) *thing.ThingType {
	logger := ctxlog.FromContext(ctx)

	var groups []*thing.ChannelGroup
	for _, gr := range ref.Groups {
		gt, ok := c.groupTypes[gr.TypeUID]
		if !ok {
			logger.Debug("Omitting unknown channel group type reference.",
				"binding", c.bindingID, "thing_type", ref.UID, "group_type", gr.TypeUID)
			continue
		}
		groups = append(groups, &thing.ChannelGroup{ID: gr.ID, Type: gt})
	}

	return &thing.ThingType{
		UID:         ref.UID,
		BindingID:   c.bindingID,
		Label:       ref.Label,
		Description: ref.Description,
		Groups:      groups,
		Channels:    c.resolveChannels(ctx, ref.UID, ref.Channels),
	}
}

// resolveChannels resolves a list of channel references against the
// channel-type map, silently dropping references to types that were never
// ingested.
func (c *Cache) resolveChannels(ctx context.Context, ownerUID string, refs []ChannelRef) []*thing.Channel {
	logger := ctxlog.FromContext(ctx)

	var channels []*thing.Channel
	for _, ref := range refs {
		ct, ok := c.channelTypes[ref.TypeUID]
		if !ok {
			logger.Debug("Omitting unknown channel type reference.",
				"binding", c.bindingID, "owner", ownerUID, "channel_type", ref.TypeUID)
			continue
		}
		channels = append(channels, &thing.Channel{ID: ref.ID, Type: ct})
	}
	return channels
}

// clearStaging drops all four staging collections. Callers must hold c.mu.
func (c *Cache) clearStaging() {
	c.thingRefs = nil
	c.groupRefs = nil
	c.groupTypes = make(map[string]*thing.ChannelGroupType)
	c.channelTypes = make(map[string]*thing.ChannelType)
}

// Discard removes every thing type and config description previously
// published for this cache's binding. It does not touch staging state and is
// idempotent; callers invoke it between batches or at binding teardown.
func (c *Cache) Discard(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.things.RemoveAll(ctx, c.bindingID)
	c.configs.RemoveAll(ctx, c.bindingID)
}
