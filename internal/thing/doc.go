// Package thing defines the domain model for thing descriptions: channel
// types, channel group types and thing types, plus the configuration
// descriptions that can accompany them. All types in this package are treated
// as immutable once constructed; the merge cache builds resolved values out of
// them and never mutates them afterwards.
package thing
