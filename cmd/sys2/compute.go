package main

import (
	"sys2/internal/compute"
	"sys2/internal/compute/manglecompute"
)

// newComputePlugins returns the ComputePlugins every sys2 session wires in
// by default. manglecompute covers the comparison/ordering relations
// (greaterThan, before, ...) spec.md §6 calls out as the canonical example
// of a non-holographic ComputePlugin.
func newComputePlugins() []compute.Plugin {
	return []compute.Plugin{manglecompute.New()}
}
