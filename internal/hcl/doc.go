// Package hcl reads thing-description files and translates them into the raw
// records the merge cache ingests. It is the only package that touches the
// HCL toolchain directly; everything downstream works on the format-agnostic
// record and domain types.
package hcl
