// Package merge implements the staged definition-merging cache that sits
// between the bulk loader and the registries.
//
// Thing descriptions arrive as raw records in arbitrary order while a binding
// is being loaded: channel types are self-contained, but channel group types
// and thing types reference other definitions by UID that may not have been
// ingested yet. The Cache therefore stages everything until the loader signals
// the end of the batch, then resolves cross-references in two passes: first
// every channel group type is merged against the complete channel-type map,
// then every thing type is merged against both the group-type and channel-type
// maps and published to the thing-type registry. References to definitions
// that never arrived are omitted from the resolved result rather than failing
// the merge. After the passes the staging collections are cleared, success or
// not, so the same Cache can stage the next batch for its binding.
package merge
