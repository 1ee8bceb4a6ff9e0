// Package bundle decodes bundle containers: a fixed 60-byte header, a table
// of per-block compressed sizes, and the concatenated compressed blocks.
//
// Blocks are decoded by a caller-supplied [Decompressor]. The native game
// archives use an Oodle-family codec which this package does not implement;
// build with the "ooz" tag to link the native primitive, or use
// [ZstdDecompressor] for zstd-encoded containers.
//
// Decoding is stateless. Concurrent calls are safe as long as each call
// reads through its own io.ReadSeeker (for example an io.SectionReader over
// a shared io.ReaderAt).
package bundle
