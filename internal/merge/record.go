package merge

import (
	"errors"

	"github.com/yonghaozhang/smarthome/internal/thing"
)

// ErrUnrecognizedRecord is returned by Ingest for a record outside the closed
// set of known shapes. This is a caller bug, not a recoverable condition.
var ErrUnrecognizedRecord = errors.New("unrecognized record kind")

// Record is the closed set of raw shapes a thing-description loader can hand
// to the cache. Only the three record types in this package implement it.
type Record interface {
	record()
}

// ChannelRef is an unresolved reference from a group or thing type to a
// channel type, pairing the local channel ID with the target type UID.
type ChannelRef struct {
	ID      string
	TypeUID string
}

// GroupRef is an unresolved reference from a thing type to a channel group
// type.
type GroupRef struct {
	ID      string
	TypeUID string
}

// ChannelTypeRecord carries a fully self-contained channel type, optionally
// accompanied by its configuration description.
type ChannelTypeRecord struct {
	ChannelType *thing.ChannelType
	Config      *thing.ConfigDescription
}

// ChannelGroupTypeRecord is an unresolved channel group type: its channel
// references can only be satisfied once the whole batch has been ingested.
type ChannelGroupTypeRecord struct {
	UID         string
	Label       string
	Description string
	Channels    []ChannelRef
}

// ThingTypeRecord is an unresolved thing type, optionally accompanied by its
// configuration description. Group and channel references are resolved during
// the second merge pass.
type ThingTypeRecord struct {
	UID         string
	Label       string
	Description string
	Groups      []GroupRef
	Channels    []ChannelRef
	Config      *thing.ConfigDescription
}

func (*ChannelTypeRecord) record()      {}
func (*ChannelGroupTypeRecord) record() {}
func (*ThingTypeRecord) record()        {}
