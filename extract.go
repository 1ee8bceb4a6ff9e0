package bundles

import (
	"cmp"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/bundles/index"
)

// ExtractStats summarizes an Extract call.
type ExtractStats struct {
	Files   int   // files written
	Bytes   int64 // bytes written
	Skipped int   // files whose path cannot be written safely
}

// Extract writes the file or directory tree at prefix under dest, creating
// directories as needed. An empty prefix extracts every file with a
// resolved path. Paths keep their archive layout below dest.
//
// Files are visited in bundle order so each bundle is decompressed once when
// the bundle cache can hold the working set. workers bounds the number of
// files read and written concurrently; values <= 0 use GOMAXPROCS. Each file
// is written to a temporary name and renamed into place, so a partial file
// is never visible at its final path. Paths that would escape dest are
// skipped and counted. The first read or write error cancels the rest.
func (a *Archive) Extract(ctx context.Context, dest, prefix string, workers int) (ExtractStats, error) {
	prefix = NormalizePath(prefix)
	var files []index.FileInfo
	for fi := range a.idx.FilesWithPrefix(prefix) {
		if inTree(fi.Path, prefix) {
			files = append(files, fi)
		}
	}
	slices.SortFunc(files, func(x, y index.FileInfo) int {
		return cmp.Or(cmp.Compare(x.BundleIndex, y.BundleIndex), cmp.Compare(x.FileOffset, y.FileOffset))
	})

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return ExtractStats{}, fmt.Errorf("create destination: %w", err)
	}
	root, err := os.OpenRoot(dest)
	if err != nil {
		return ExtractStats{}, fmt.Errorf("open destination root %s: %w", dest, err)
	}
	defer root.Close()

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var (
		written atomic.Int64
		nbytes  atomic.Int64
		skipped atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, fi := range files {
		if gctx.Err() != nil {
			break
		}
		if !fs.ValidPath(fi.Path) {
			a.log().Warn("skipping unsafe path", "path", fi.Path)
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := a.readFile(fi, fi.Path)
			if err != nil {
				return err
			}
			if err := writeFileAtomic(root, filepath.FromSlash(fi.Path), data); err != nil {
				return &fs.PathError{Op: "extract", Path: fi.Path, Err: err}
			}
			written.Add(1)
			nbytes.Add(int64(len(data)))
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	stats := ExtractStats{
		Files:   int(written.Load()),
		Bytes:   nbytes.Load(),
		Skipped: int(skipped.Load()),
	}
	a.log().Debug("extract finished",
		"prefix", prefix,
		"files", stats.Files,
		"bytes", stats.Bytes,
		"skipped", stats.Skipped)
	return stats, err
}

// inTree reports whether p is prefix itself or lies below it.
func inTree(p, prefix string) bool {
	if prefix == "" || p == prefix {
		return true
	}
	return len(p) > len(prefix) && p[len(prefix)] == '/'
}

// writeFileAtomic writes data to a temp file in the target's directory then
// renames it over rel. rel is resolved inside root.
func writeFileAtomic(root *os.Root, rel string, data []byte) error {
	dir := filepath.Dir(rel)
	if err := root.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, tmpRel, err := createTempFile(root, dir, ".bundles-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := root.Rename(tmpRel, rel); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	return nil
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
