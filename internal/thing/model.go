package thing

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// UID builds the canonical unique identifier for a typed entity within a
// binding, e.g. "hue:color-light". Identifiers are unique per binding scope.
func UID(bindingID, id string) string {
	return fmt.Sprintf("%s:%s", bindingID, id)
}

// ChannelKind distinguishes state-carrying channels from pure trigger channels.
type ChannelKind string

const (
	KindState   ChannelKind = "state"
	KindTrigger ChannelKind = "trigger"
)

// ChannelType describes one kind of channel a thing can expose. It is fully
// self-contained: a channel type never references other type definitions.
type ChannelType struct {
	UID         string
	Kind        ChannelKind
	ItemType    string
	Label       string
	Description string
	Tags        []string
}

// Channel is a resolved channel instance: a local ID bound to its type
// definition.
type Channel struct {
	ID   string
	Type *ChannelType
}

// ChannelGroupType describes a named group of channels. It only exists in
// resolved form; unresolved group references live in the merge package until
// the batch is finalized.
type ChannelGroupType struct {
	UID         string
	Label       string
	Description string
	Channels    []*Channel
}

// ChannelGroup is a resolved group instance on a thing type.
type ChannelGroup struct {
	ID   string
	Type *ChannelGroupType
}

// ThingType is the final publishable unit: a fully resolved description of one
// kind of thing, with all referenced channel and group definitions attached.
type ThingType struct {
	UID         string
	BindingID   string
	Label       string
	Description string
	Groups      []*ChannelGroup
	Channels    []*Channel
}

// --- Configuration descriptions ---

// ConfigDescription is the configuration schema that may accompany a channel
// type or thing type. It is registered independently of type resolution.
type ConfigDescription struct {
	URI        string
	Parameters []*ConfigParameter
}

// ConfigParameter defines a single configuration parameter.
type ConfigParameter struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Required    bool
}
