// Package host defines the operation-call boundary between mediafx and the
// editing engine that owns the composition.
//
// The Engine interface mirrors the small set of host primitives the sequencer
// needs: project reset, workspace activation, encoder parameters, UI area
// overrides, the entry table, import operators, render operators, and project
// persistence. Operators report their outcome as a Result set rather than an
// error so callers can distinguish "the host refused" from "the host could
// not be reached".
//
// Implementations live in subpackages: blender drives a background Blender
// process, memhost keeps the whole project in memory for tests and dry runs.
package host
