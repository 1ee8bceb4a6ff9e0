package disk

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// tempPrefix marks in-flight Put files, which are neither counted nor pruned.
const tempPrefix = "cache-"

type entryInfo struct {
	path    string
	size    int64
	modTime time.Time
}

// walkEntries lists committed cache entries under root.
func walkEntries(root string) ([]entryInfo, error) {
	var entries []entryInfo
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, entryInfo{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func dirSize(root string) (int64, error) {
	entries, err := walkEntries(root)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	return total, nil
}

// pruneDir removes the least recently written entries until the total size
// is at or below targetBytes.
func pruneDir(root string, targetBytes int64) (freed, remaining int64, err error) {
	entries, err := walkEntries(root)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		remaining += e.size
	}
	if remaining <= targetBytes {
		return 0, remaining, nil
	}

	slices.SortFunc(entries, func(a, b entryInfo) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return strings.Compare(a.path, b.path)
	})

	for _, e := range entries {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(e.path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return freed, remaining, err
		}
		remaining -= e.size
		freed += e.size
	}
	return freed, remaining, nil
}
