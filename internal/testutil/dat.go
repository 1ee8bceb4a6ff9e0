package testutil

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

// DatMarker separates the fixed-width rows from the variable data section.
var DatMarker = bytes.Repeat([]byte{0xBB}, 8)

// DatBuilder assembles a DAT table: a u32 row count, fixed-width rows, the
// 0xBB marker, then the variable data heap.
type DatBuilder struct {
	rows [][]byte
	heap []byte
}

// AddRow appends one fixed-width row.
func (b *DatBuilder) AddRow(row []byte) *DatBuilder {
	b.rows = append(b.rows, row)
	return b
}

// String writes s to the heap as null-terminated UTF-16LE and returns its
// offset relative to the start of the data section.
func (b *DatBuilder) String(s string) uint32 {
	off := b.offset()
	for _, u := range utf16.Encode([]rune(s)) {
		b.heap = binary.LittleEndian.AppendUint16(b.heap, u)
	}
	b.heap = append(b.heap, 0, 0, 0, 0)
	return off
}

// Heap writes raw bytes to the heap and returns their data-section offset.
func (b *DatBuilder) Heap(raw []byte) uint32 {
	off := b.offset()
	b.heap = append(b.heap, raw...)
	return off
}

func (b *DatBuilder) offset() uint32 {
	return uint32(len(DatMarker) + len(b.heap)) //nolint:gosec // fixtures are small
}

// Bytes returns the encoded table.
func (b *DatBuilder) Bytes() []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(b.rows))) //nolint:gosec // fixtures are small
	for _, r := range b.rows {
		out = append(out, r...)
	}
	out = append(out, DatMarker...)
	return append(out, b.heap...)
}

// Row builds a little-endian fixed-width row.
type Row struct {
	buf []byte
}

// U8 appends a byte.
func (r *Row) U8(v uint8) *Row { r.buf = append(r.buf, v); return r }

// U16 appends a little-endian uint16.
func (r *Row) U16(v uint16) *Row { r.buf = binary.LittleEndian.AppendUint16(r.buf, v); return r }

// U32 appends a little-endian uint32.
func (r *Row) U32(v uint32) *Row { r.buf = binary.LittleEndian.AppendUint32(r.buf, v); return r }

// U64 appends a little-endian uint64.
func (r *Row) U64(v uint64) *Row { r.buf = binary.LittleEndian.AppendUint64(r.buf, v); return r }

// Bytes returns the row bytes.
func (r *Row) Bytes() []byte { return r.buf }
