package bundles

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/bundles/bundle"
	"github.com/meigma/bundles/cache"
	"github.com/meigma/bundles/dat"
	"github.com/meigma/bundles/index"
)

// FileLocation is where a file's bytes live: a range of a bundle's
// decompressed payload.
type FileLocation struct {
	BundleName string
	Offset     uint32
	Size       uint32
}

// Archive reads files from an install.
//
// An Archive is safe for concurrent use. Concurrent reads that need the same
// bundle share one decompression.
type Archive struct {
	src    Source
	idx    *index.Index
	decomp bundle.Decompressor
	logger *slog.Logger

	indexCache      cache.Cache // nil = no caching
	bundleCacheSize int
	indexPath       string
	bundleDir       string
	strictPaths     bool

	bundles   *lru.Cache[uint32, []byte] // nil = no caching
	loadGroup singleflight.Group         // zero value is valid
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open loads the index of the install behind src.
func Open(src Source, opts ...Option) (*Archive, error) {
	a := &Archive{
		src:             src,
		bundleCacheSize: DefaultBundleCacheSize,
		indexPath:       DefaultIndexPath,
		bundleDir:       DefaultBundleDir,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.decomp == nil {
		return nil, ErrNoDecompressor
	}
	if a.bundleCacheSize > 0 {
		c, err := lru.New[uint32, []byte](a.bundleCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create bundle cache: %w", err)
		}
		a.bundles = c
	}

	idx, err := a.loadIndex()
	if err != nil {
		return nil, err
	}
	a.idx = idx
	if err := idx.Validate(); err != nil {
		a.log().Warn("index references data outside its bundles", "error", err)
	}
	return a, nil
}

// loadIndex returns the cached index for the current index file, or parses
// it and refreshes the cache.
func (a *Archive) loadIndex() (*index.Index, error) {
	f, err := a.src.Open(a.indexPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var key digest.Digest
	if a.indexCache != nil {
		key = digest.FromString(f.SourceID())
		if idx, ok := a.cachedIndex(key); ok {
			return idx, nil
		}
	}

	raw, err := bundle.ReadAll(io.NewSectionReader(f, 0, f.Size()), a.decomp)
	if err != nil {
		return nil, &fs.PathError{Op: "read index", Path: a.indexPath, Err: err}
	}
	idx, err := index.Read(raw, a.decomp,
		index.WithLogger(a.log()),
		index.WithStrictPaths(a.strictPaths))
	if err != nil {
		return nil, &fs.PathError{Op: "parse index", Path: a.indexPath, Err: err}
	}

	if a.indexCache != nil {
		a.storeIndex(key, idx)
	}
	return idx, nil
}

func (a *Archive) cachedIndex(key digest.Digest) (*index.Index, bool) {
	data, ok := a.indexCache.Get(key)
	if !ok {
		a.log().Debug("index cache miss", "key", key)
		return nil, false
	}
	idx, err := index.Decode(bytes.NewReader(data))
	if err != nil {
		a.log().Warn("discarding unreadable cached index", "key", key, "error", err)
		if err := a.indexCache.Delete(key); err != nil {
			a.log().Warn("delete cached index", "key", key, "error", err)
		}
		return nil, false
	}
	a.log().Debug("index cache hit", "key", key, "files", idx.Len())
	return idx, true
}

func (a *Archive) storeIndex(key digest.Digest, idx *index.Index) {
	var buf bytes.Buffer
	if err := idx.Encode(&buf); err != nil {
		a.log().Warn("encode index for cache", "error", err)
		return
	}
	if err := a.indexCache.Put(key, buf.Bytes()); err != nil {
		a.log().Warn("store index in cache", "key", key, "error", err)
		return
	}
	a.log().Debug("index cached", "key", key, "bytes", buf.Len())
}

// Index returns the archive's index.
func (a *Archive) Index() *index.Index {
	return a.idx
}

// Stat returns the index entry for path.
func (a *Archive) Stat(path string) (index.FileInfo, error) {
	path = NormalizePath(path)
	fi, ok := a.idx.Lookup(path)
	if !ok {
		return index.FileInfo{}, &fs.PathError{Op: "stat", Path: path, Err: ErrNotFound}
	}
	return fi, nil
}

// Locate returns the bundle and byte range holding path.
func (a *Archive) Locate(path string) (FileLocation, error) {
	fi, err := a.Stat(path)
	if err != nil {
		return FileLocation{}, err
	}
	b, ok := a.idx.Bundle(fi.BundleIndex)
	if !ok {
		return FileLocation{}, &fs.PathError{
			Op:   "locate",
			Path: path,
			Err:  fmt.Errorf("%w: bundle %d", ErrNotFound, fi.BundleIndex),
		}
	}
	return FileLocation{BundleName: b.Name, Offset: fi.FileOffset, Size: fi.FileSize}, nil
}

// ReadFile returns the contents of the file at path.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	path = NormalizePath(path)
	fi, ok := a.idx.Lookup(path)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: ErrNotFound}
	}
	return a.readFile(fi, path)
}

// ReadFileByHash returns the contents of the file with the given path hash.
// It works for files whose path was never resolved.
func (a *Archive) ReadFileByHash(hash uint64) ([]byte, error) {
	name := fmt.Sprintf("%016x", hash)
	fi, ok := a.idx.File(hash)
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: ErrNotFound}
	}
	return a.readFile(fi, name)
}

func (a *Archive) readFile(fi index.FileInfo, name string) ([]byte, error) {
	data, err := a.ReadBundle(fi.BundleIndex)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	end := uint64(fi.FileOffset) + uint64(fi.FileSize)
	if end > uint64(len(data)) {
		return nil, &fs.PathError{
			Op:   "read",
			Path: name,
			Err:  fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, fi.FileOffset, end, len(data)),
		}
	}
	return slices.Clone(data[fi.FileOffset:end]), nil
}

// ReadBundle returns the decompressed payload of bundle i.
//
// The returned slice may be shared with other callers and with the bundle
// cache; it must not be modified.
func (a *Archive) ReadBundle(i uint32) ([]byte, error) {
	info, ok := a.idx.Bundle(i)
	if !ok {
		return nil, fmt.Errorf("%w: bundle %d of %d", ErrNotFound, i, len(a.idx.Bundles()))
	}
	if a.bundles != nil {
		if data, ok := a.bundles.Get(i); ok {
			return data, nil
		}
	}

	v, err, _ := a.loadGroup.Do(strconv.FormatUint(uint64(i), 10), func() (any, error) {
		// Another caller may have filled the cache while we waited.
		if a.bundles != nil {
			if data, ok := a.bundles.Get(i); ok {
				return data, nil
			}
		}
		data, err := a.loadBundle(info)
		if err != nil {
			return nil, err
		}
		if a.bundles != nil {
			a.bundles.Add(i, data)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// bundleNames returns the member names a bundle may be stored under.
func (a *Archive) bundleNames(name string) []string {
	return []string{a.bundleDir + name + ".bundle.bin", a.bundleDir + name}
}

func (a *Archive) loadBundle(info index.BundleInfo) ([]byte, error) {
	for _, name := range a.bundleNames(info.Name) {
		f, err := a.src.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open bundle: %w", err)
		}
		data, err := a.decompressBundle(f, name, info)
		f.Close()
		return data, err
	}
	return nil, &fs.PathError{Op: "open bundle", Path: a.bundleDir + info.Name, Err: ErrNotFound}
}

func (a *Archive) decompressBundle(f SourceFile, name string, info index.BundleInfo) ([]byte, error) {
	r := io.NewSectionReader(f, 0, f.Size())
	b, err := bundle.ReadHeader(r)
	if err != nil {
		return nil, &fs.PathError{Op: "read bundle", Path: name, Err: err}
	}
	if b.UncompressedSize != info.UncompressedSize {
		a.log().Warn("bundle size differs from index",
			"bundle", name,
			"header", b.UncompressedSize,
			"index", info.UncompressedSize)
	}
	data, err := b.Decompress(r, a.decomp)
	if err != nil {
		return nil, &fs.PathError{Op: "read bundle", Path: name, Err: err}
	}
	a.log().Debug("bundle decompressed",
		"bundle", name,
		"blocks", b.BlockCount,
		"bytes", len(data),
		"compressor", b.CompressorType.String())
	return data, nil
}

// OpenTable reads the DAT table at path. The table's bit width is taken
// from the file name unless opts override it.
func (a *Archive) OpenTable(path string, opts ...dat.Option) (*dat.Reader, error) {
	path = NormalizePath(path)
	data, err := a.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := dat.New(data, path, append([]dat.Option{dat.WithLogger(a.log())}, opts...)...)
	if err != nil {
		return nil, &fs.PathError{Op: "open table", Path: path, Err: err}
	}
	return r, nil
}
