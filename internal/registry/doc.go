// Package registry holds the runtime registries the merge cache publishes
// into: one for fully resolved thing types and one for configuration
// descriptions.
//
// Both registries scope their contents per binding so that a single binding
// can be discarded without touching definitions contributed by others. The
// thing-type registry additionally emits change events on the application's
// event bus, which is how downstream consumers (such as the event stream
// bridge) observe the published set without polling.
package registry
