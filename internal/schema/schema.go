// Package schema defines the HCL shapes of thing-description files. These
// structs are decode targets only; the hcl package translates them into merge
// records and the domain model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// ChannelType represents a `channel_type` block: a self-contained channel
// definition.
type ChannelType struct {
	ID          string   `hcl:"id,label"`
	Kind        string   `hcl:"kind,optional"`
	ItemType    string   `hcl:"item_type,optional"`
	Label       string   `hcl:"label,optional"`
	Description string   `hcl:"description,optional"`
	Tags        []string `hcl:"tags,optional"`
	Config      *Config  `hcl:"config,block"`
}

// ChannelRef represents a `channel` block inside a group or thing type. It
// binds a local channel ID to a channel type.
type ChannelRef struct {
	ID   string `hcl:"id,label"`
	Type string `hcl:"type"`
}

// GroupRef represents a `group` block inside a thing type.
type GroupRef struct {
	ID   string `hcl:"id,label"`
	Type string `hcl:"type"`
}

// ChannelGroupType represents a `channel_group_type` block.
type ChannelGroupType struct {
	ID          string        `hcl:"id,label"`
	Label       string        `hcl:"label,optional"`
	Description string        `hcl:"description,optional"`
	Channels    []*ChannelRef `hcl:"channel,block"`
}

// ThingType represents a `thing_type` block.
type ThingType struct {
	ID          string        `hcl:"id,label"`
	Label       string        `hcl:"label,optional"`
	Description string        `hcl:"description,optional"`
	Groups      []*GroupRef   `hcl:"group,block"`
	Channels    []*ChannelRef `hcl:"channel,block"`
	Config      *Config       `hcl:"config,block"`
}

// Config represents a `config` block on a channel type or thing type.
type Config struct {
	URI        string       `hcl:"uri,optional"`
	Parameters []*Parameter `hcl:"parameter,block"`
}

// Parameter represents a single `parameter` block within a config block. The
// type is kept as a raw expression (e.g. `string`, `list(number)`) and parsed
// into a cty.Type during translation.
type Parameter struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Description string         `hcl:"description,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
	Required    bool           `hcl:"required,optional"`
}

// ThingDescription represents the top-level structure of one
// thing-description file. There is deliberately no remain body: a block the
// schema does not know is a decode error, not something to skip.
type ThingDescription struct {
	ChannelTypes      []*ChannelType      `hcl:"channel_type,block"`
	ChannelGroupTypes []*ChannelGroupType `hcl:"channel_group_type,block"`
	ThingTypes        []*ThingType        `hcl:"thing_type,block"`
}
