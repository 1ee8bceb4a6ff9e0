// Package bundles reads the bundled content archives of a game install.
//
// An install keeps its files in compressed bundle containers under
// Bundles2/. A single index bundle, Bundles2/_.index.bin, maps 64-bit path
// hashes to a (bundle, offset, size) location and carries an encoded
// directory tree from which file paths are reconstructed.
//
// [Open] loads the index through a [Source] and returns an [Archive] that
// reads files by path:
//
//	src, err := bundles.NewDirSource("/games/install")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	a, err := bundles.Open(src, bundles.WithDecompressor(ooz))
//	if err != nil {
//	    return err
//	}
//	data, err := a.ReadFile("Data/Mods.dat64")
//
// Block decompression is supplied by the caller through
// [bundle.Decompressor]; this module does not implement the proprietary
// block codec. [bundle.ZstdDecompressor] handles zstd-encoded bundles, and
// the ooz build tag enables a cgo binding to a native implementation.
//
// # Caching
//
// Parsing the index and reconstructing paths takes noticeable time on a
// full install. [WithIndexCache] stores the parsed index, keyed by the
// identity of the index file, so later opens of an unchanged install skip
// the parse:
//
//	c, err := disk.New("/var/cache/bundles")
//	if err != nil {
//	    return err
//	}
//	a, err := bundles.Open(src,
//	    bundles.WithDecompressor(ooz),
//	    bundles.WithIndexCache(c),
//	)
//
// Decompressed bundles are kept in a small in-memory LRU, sized with
// [WithBundleCacheSize].
//
// # Tables
//
// [Archive.OpenTable] reads a DAT table and returns a [dat.Reader]. Column
// types come from a schema loaded with [dat.LoadSchema].
package bundles
