package hcl

import (
	"context"
	"fmt"
	"strings"

	"github.com/yonghaozhang/smarthome/internal/merge"
	"github.com/yonghaozhang/smarthome/internal/schema"
	"github.com/yonghaozhang/smarthome/internal/thing"
)

// translateChannelType converts a `channel_type` block into a record.
func (l *Loader) translateChannelType(ctx context.Context, bindingID string, s *schema.ChannelType) (*merge.ChannelTypeRecord, error) {
	var kind thing.ChannelKind
	switch s.Kind {
	case "", string(thing.KindState):
		kind = thing.KindState
	case string(thing.KindTrigger):
		kind = thing.KindTrigger
	default:
		return nil, fmt.Errorf("invalid channel kind %q (want %q or %q)", s.Kind, thing.KindState, thing.KindTrigger)
	}

	uid := thing.UID(bindingID, s.ID)
	cfg, err := l.translateConfig(ctx, "channel-type:"+uid, s.Config)
	if err != nil {
		return nil, err
	}

	return &merge.ChannelTypeRecord{
		ChannelType: &thing.ChannelType{
			UID:         uid,
			Kind:        kind,
			ItemType:    s.ItemType,
			Label:       s.Label,
			Description: s.Description,
			Tags:        s.Tags,
		},
		Config: cfg,
	}, nil
}

// translateChannelGroupType converts a `channel_group_type` block into an
// unresolved record.
func (l *Loader) translateChannelGroupType(bindingID string, s *schema.ChannelGroupType) *merge.ChannelGroupTypeRecord {
	return &merge.ChannelGroupTypeRecord{
		UID:         thing.UID(bindingID, s.ID),
		Label:       s.Label,
		Description: s.Description,
		Channels:    translateChannelRefs(bindingID, s.Channels),
	}
}

// translateThingType converts a `thing_type` block into an unresolved record.
func (l *Loader) translateThingType(ctx context.Context, bindingID string, s *schema.ThingType) (*merge.ThingTypeRecord, error) {
	uid := thing.UID(bindingID, s.ID)
	cfg, err := l.translateConfig(ctx, "thing-type:"+uid, s.Config)
	if err != nil {
		return nil, err
	}

	groups := make([]merge.GroupRef, 0, len(s.Groups))
	for _, g := range s.Groups {
		groups = append(groups, merge.GroupRef{ID: g.ID, TypeUID: qualify(bindingID, g.Type)})
	}

	return &merge.ThingTypeRecord{
		UID:         uid,
		Label:       s.Label,
		Description: s.Description,
		Groups:      groups,
		Channels:    translateChannelRefs(bindingID, s.Channels),
		Config:      cfg,
	}, nil
}

// translateConfig converts a `config` block into a config description. When
// the block does not name a URI, the caller-provided default is used.
func (l *Loader) translateConfig(ctx context.Context, defaultURI string, s *schema.Config) (*thing.ConfigDescription, error) {
	if s == nil {
		return nil, nil
	}

	uri := s.URI
	if uri == "" {
		uri = defaultURI
	}

	params := make([]*thing.ConfigParameter, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		typ, err := typeExprToCtyType(ctx, p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		params = append(params, &thing.ConfigParameter{
			Name:        p.Name,
			Type:        typ,
			Description: p.Description,
			Default:     p.Default,
			Required:    p.Required,
		})
	}

	return &thing.ConfigDescription{URI: uri, Parameters: params}, nil
}

func translateChannelRefs(bindingID string, refs []*schema.ChannelRef) []merge.ChannelRef {
	out := make([]merge.ChannelRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, merge.ChannelRef{ID: ref.ID, TypeUID: qualify(bindingID, ref.Type)})
	}
	return out
}

// qualify turns a type reference into a UID. Unqualified references resolve
// within the binding's own scope; references that already carry a binding
// prefix (e.g. "system:battery-level") are kept as written.
func qualify(bindingID, ref string) string {
	if strings.Contains(ref, ":") {
		return ref
	}
	return thing.UID(bindingID, ref)
}
