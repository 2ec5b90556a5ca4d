// Package wheel edits Python wheel archives through a scoped working
// directory.
//
// A Transaction extracts a wheel into a private temporary directory and, when
// it ends, packs the directory back into the original path. The original
// file is only replaced by an atomic rename once the new archive is fully
// written, so an error while packing leaves it as it was. Discard ends a
// transaction without repacking.
//
// Snapshot and Diff record which entries a later step added to a working
// directory so they can be pruned again, and Manifest keeps the RECORD file
// of the .dist-info directory verbatim across such edits.
package wheel
