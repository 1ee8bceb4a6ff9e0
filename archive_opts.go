package bundles

import (
	"log/slog"

	"github.com/meigma/bundles/bundle"
	"github.com/meigma/bundles/cache"
)

// Defaults used by Open.
const (
	DefaultIndexPath       = "Bundles2/_.index.bin"
	DefaultBundleDir       = "Bundles2/"
	DefaultBundleCacheSize = 8
)

// Option configures an Archive.
type Option func(*Archive)

// WithDecompressor sets the block decompressor used for every bundle.
// Open fails with ErrNoDecompressor without one.
func WithDecompressor(d bundle.Decompressor) Option {
	return func(a *Archive) {
		a.decomp = d
	}
}

// WithLogger sets the logger for the archive and the parsers it drives.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithIndexCache enables caching of the parsed index.
//
// On open the cached encoding is tried first. A miss or an entry that fails
// to decode falls back to a full parse, and the fresh result is stored.
// Cache failures are logged and never fail Open.
func WithIndexCache(c cache.Cache) Option {
	return func(a *Archive) {
		a.indexCache = c
	}
}

// WithBundleCacheSize sets how many decompressed bundles are kept in memory
// (default: 8). Values <= 0 disable the bundle cache.
func WithBundleCacheSize(n int) Option {
	return func(a *Archive) {
		a.bundleCacheSize = n
	}
}

// WithIndexPath overrides the member name of the index bundle.
func WithIndexPath(name string) Option {
	return func(a *Archive) {
		a.indexPath = name
	}
}

// WithBundleDir overrides the directory prefix, including the trailing
// slash, that bundle names are resolved under.
func WithBundleDir(dir string) Option {
	return func(a *Archive) {
		a.bundleDir = dir
	}
}

// WithStrictPaths makes Open fail when the index's directory bundle cannot
// be decoded, instead of returning an archive without paths.
func WithStrictPaths(strict bool) Option {
	return func(a *Archive) {
		a.strictPaths = strict
	}
}
