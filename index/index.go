package index

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/meigma/bundles/internal/sizing"
)

// Index is an immutable snapshot of an archive's bundle and file tables.
//
// An Index is safe for concurrent use.
type Index struct {
	bundles   []BundleInfo
	files     map[uint64]FileInfo
	algorithm HashAlgorithm

	sortOnce sync.Once
	byPath   []FileInfo // files with a path, sorted by path
}

// New builds an Index from already-parsed tables. It takes ownership of
// bundles and files.
func New(bundles []BundleInfo, files map[uint64]FileInfo, algo HashAlgorithm) *Index {
	if files == nil {
		files = make(map[uint64]FileInfo)
	}
	return &Index{bundles: bundles, files: files, algorithm: algo}
}

// Algorithm returns the path hash algorithm detected for the archive.
func (idx *Index) Algorithm() HashAlgorithm {
	return idx.algorithm
}

// Len returns the number of files in the index.
func (idx *Index) Len() int {
	return len(idx.files)
}

// Resolved returns the number of files with a known path.
func (idx *Index) Resolved() int {
	return len(idx.sorted())
}

// Bundles returns a copy of the bundle table.
func (idx *Index) Bundles() []BundleInfo {
	return slices.Clone(idx.bundles)
}

// Bundle returns the bundle table entry at i.
func (idx *Index) Bundle(i uint32) (BundleInfo, bool) {
	if uint64(i) >= uint64(len(idx.bundles)) {
		return BundleInfo{}, false
	}
	return idx.bundles[i], true
}

// File returns the file with the given path hash.
func (idx *Index) File(hash uint64) (FileInfo, bool) {
	fi, ok := idx.files[hash]
	return fi, ok
}

// Lookup hashes path with the archive's algorithm and returns the matching
// file. The same casing fallbacks used during path resolution apply, so a
// path found by Lookup may differ in case from FileInfo.Path.
func (idx *Index) Lookup(path string) (FileInfo, bool) {
	var m matcher
	hash, ok := m.match(idx.files, []byte(path), idx.algorithm)
	if !ok {
		return FileInfo{}, false
	}
	return idx.files[hash], true
}

// Files returns an iterator over all files in unspecified order.
func (idx *Index) Files() iter.Seq[FileInfo] {
	return maps.Values(idx.files)
}

// FilesWithPrefix returns an iterator, in path order, over files whose
// resolved path starts with prefix. Files without a path are skipped.
func (idx *Index) FilesWithPrefix(prefix string) iter.Seq[FileInfo] {
	return func(yield func(FileInfo) bool) {
		files := idx.sorted()
		start := sort.Search(len(files), func(i int) bool {
			return files[i].Path >= prefix
		})
		for _, fi := range files[start:] {
			if !strings.HasPrefix(fi.Path, prefix) {
				return
			}
			if !yield(fi) {
				return
			}
		}
	}
}

func (idx *Index) sorted() []FileInfo {
	idx.sortOnce.Do(func() {
		files := make([]FileInfo, 0, len(idx.files))
		for _, fi := range idx.files {
			if fi.Path != "" {
				files = append(files, fi)
			}
		}
		slices.SortFunc(files, func(a, b FileInfo) int {
			return cmp.Or(strings.Compare(a.Path, b.Path), cmp.Compare(a.PathHash, b.PathHash))
		})
		idx.byPath = files
	})
	return idx.byPath
}

// Validate checks that every file references an existing bundle and lies
// within that bundle's declared payload.
func (idx *Index) Validate() error {
	for _, hash := range slices.Sorted(maps.Keys(idx.files)) {
		fi := idx.files[hash]
		b, ok := idx.Bundle(fi.BundleIndex)
		if !ok {
			return fmt.Errorf("%w: file %016x references bundle %d of %d", ErrMalformed, hash, fi.BundleIndex, len(idx.bundles))
		}
		end, _ := sizing.AddUint64(uint64(fi.FileOffset), uint64(fi.FileSize))
		if end > uint64(b.UncompressedSize) {
			return fmt.Errorf("%w: file %016x range [%d, %d) exceeds bundle %q size %d",
				ErrMalformed, hash, fi.FileOffset, end, b.Name, b.UncompressedSize)
		}
	}
	return nil
}
