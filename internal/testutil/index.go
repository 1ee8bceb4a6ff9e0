package testutil

import (
	"encoding/binary"
	"testing"
)

// IndexBundle is a bundle table record.
type IndexBundle struct {
	Name string
	Size uint32
}

// IndexFile is a file table record.
type IndexFile struct {
	Hash   uint64
	Bundle uint32
	Offset uint32
	Size   uint32
}

// IndexDirectory is a directory table record.
type IndexDirectory struct {
	Hash          uint64
	Offset        uint32
	Size          uint32
	RecursiveSize uint32
}

// IndexTables assembles the three tables of an index blob without the
// trailing directory bundle.
func IndexTables(bundles []IndexBundle, files []IndexFile, dirs []IndexDirectory) []byte {
	le := binary.LittleEndian
	var out []byte
	out = le.AppendUint32(out, uint32(len(bundles))) //nolint:gosec // fixtures are small
	for _, b := range bundles {
		out = le.AppendUint32(out, uint32(len(b.Name))) //nolint:gosec // fixtures are small
		out = append(out, b.Name...)
		out = le.AppendUint32(out, b.Size)
	}
	out = le.AppendUint32(out, uint32(len(files))) //nolint:gosec // fixtures are small
	for _, f := range files {
		out = le.AppendUint64(out, f.Hash)
		out = le.AppendUint32(out, f.Bundle)
		out = le.AppendUint32(out, f.Offset)
		out = le.AppendUint32(out, f.Size)
	}
	out = le.AppendUint32(out, uint32(len(dirs))) //nolint:gosec // fixtures are small
	for _, d := range dirs {
		out = le.AppendUint64(out, d.Hash)
		out = le.AppendUint32(out, d.Offset)
		out = le.AppendUint32(out, d.Size)
		out = le.AppendUint32(out, d.RecursiveSize)
	}
	return out
}

// BuildIndex returns a decompressed index blob: the tables followed by a
// zstd bundle holding dirPayload.
func BuildIndex(tb testing.TB, bundles []IndexBundle, files []IndexFile, dirs []IndexDirectory, dirPayload []byte) []byte {
	tb.Helper()
	out := IndexTables(bundles, files, dirs)
	return append(out, BuildBundle(tb, dirPayload, 0)...)
}

// PathEncoder writes the directory payload's path-fragment encoding.
type PathEncoder struct {
	buf []byte
}

// Toggle writes a zero token, flipping between base and file mode.
func (e *PathEncoder) Toggle() *PathEncoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, 0)
	return e
}

// Fragment writes token ref followed by the null-terminated string s.
// ref-1 selects a previously pushed base fragment; a ref past the end of
// the base list means s stands alone.
func (e *PathEncoder) Fragment(ref uint32, s string) *PathEncoder {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, ref)
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
	return e
}

// Raw appends bytes verbatim.
func (e *PathEncoder) Raw(b ...byte) *PathEncoder {
	e.buf = append(e.buf, b...)
	return e
}

// Len returns the number of bytes written so far.
func (e *PathEncoder) Len() int {
	return len(e.buf)
}

// Bytes returns the encoded payload.
func (e *PathEncoder) Bytes() []byte {
	return e.buf
}
