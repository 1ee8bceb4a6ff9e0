// Package index parses a bundle archive's index blob.
//
// The decompressed index holds a bundle table, a file table keyed by a
// 64-bit path hash, a directory table, and a trailing bundle whose payload
// encodes file paths as reusable fragments. [Read] parses the tables,
// decodes the path encoding, and attaches a path to every file whose hash
// it can reproduce. The returned [Index] is immutable and safe for
// concurrent readers.
//
// Path hashes use MurmurHash64A with a fixed seed or FNV-1a, selected from
// the root directory's hash. When neither magic matches, every algorithm
// and casing is tried per path.
//
// An Index can be serialized with [Index.Encode] and restored with
// [Decode] to skip the parse on later opens.
package index
