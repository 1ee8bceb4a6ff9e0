package bundles

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

// ByteSource provides random access to one archive member.
//
// SourceID must return a stable identifier for the underlying content; it
// keys the index cache, so it must change whenever the content does.
type ByteSource interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}

// SourceFile is an opened archive member.
type SourceFile interface {
	ByteSource
	io.Closer
}

// Source opens the members of an install by slash-separated name, such as
// "Bundles2/_.index.bin". A missing member is reported with an error
// matching fs.ErrNotExist.
type Source interface {
	Open(name string) (SourceFile, error)
}

// DirSource reads an install directory on the local file system. Opens are
// confined to the directory; names that escape it fail.
type DirSource struct {
	dir  string
	root *os.Root
}

// NewDirSource opens dir as an install root.
func NewDirSource(dir string) (*DirSource, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve install directory: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open install directory: %w", err)
	}
	return &DirSource{dir: abs, root: root}, nil
}

// Open implements Source.
func (s *DirSource) Open(name string) (SourceFile, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	f, err := s.root.Open(filepath.FromSlash(name))
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: errors.New("is a directory")}
	}
	// Size and mtime change whenever the game patches a member.
	id := filepath.Join(s.dir, filepath.FromSlash(name)) +
		":" + strconv.FormatInt(info.Size(), 10) +
		":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	return &dirFile{File: f, size: info.Size(), id: id}, nil
}

// Close releases the directory handle.
func (s *DirSource) Close() error {
	return s.root.Close()
}

type dirFile struct {
	*os.File
	size int64
	id   string
}

func (f *dirFile) Size() int64      { return f.size }
func (f *dirFile) SourceID() string { return f.id }

// LocateFunc resolves a member name to its byte range inside a larger
// source. It returns an error matching fs.ErrNotExist for unknown names.
type LocateFunc func(name string) (offset, length int64, err error)

// RangeSource serves members as byte ranges of one underlying source, for
// installs packed into a single file.
type RangeSource struct {
	src    ByteSource
	locate LocateFunc
}

// NewRangeSource returns a Source whose members are the ranges locate
// assigns within src.
func NewRangeSource(src ByteSource, locate LocateFunc) *RangeSource {
	return &RangeSource{src: src, locate: locate}
}

// Open implements Source.
func (s *RangeSource) Open(name string) (SourceFile, error) {
	off, n, err := s.locate(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if off < 0 || n < 0 || off > s.src.Size() || n > s.src.Size()-off {
		return nil, &fs.PathError{
			Op:   "open",
			Path: name,
			Err:  fmt.Errorf("%w: range [%d, +%d) outside source of %d bytes", ErrOutOfRange, off, n, s.src.Size()),
		}
	}
	return &rangeFile{
		SectionReader: io.NewSectionReader(s.src, off, n),
		id:            s.src.SourceID() + "#" + path.Clean(name) + "@" + strconv.FormatInt(off, 10) + "+" + strconv.FormatInt(n, 10),
	}, nil
}

type rangeFile struct {
	*io.SectionReader
	id string
}

func (f *rangeFile) SourceID() string { return f.id }
func (f *rangeFile) Close() error     { return nil }
