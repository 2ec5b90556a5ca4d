// Package repair retags built wheels with an external repair tool while
// keeping their contents exactly as built.
//
// The VTK shared libraries are copied into the wheel first so the tool can
// resolve every dependency and pick the right platform tag. Everything the
// tool adds is pruned from its output afterwards and the original RECORD is
// written back, so only the tool's in-place edits and the new file name
// survive.
package repair
