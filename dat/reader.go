package dat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/meigma/bundles/internal/sizing"
)

var (
	// ErrInvalidData is returned when the row layout of a file cannot be
	// established.
	ErrInvalidData = errors.New("dat: invalid data")

	// ErrRowOutOfRange is returned when a row starts past the end of the
	// file.
	ErrRowOutOfRange = errors.New("dat: row out of range")
)

// MaxStringUnits caps the number of UTF-16 code units read for one string.
const MaxStringUnits = 8192

// rowCountSize is the size of the leading row count.
const rowCountSize = 4

var (
	marker32 = bytes.Repeat([]byte{0xBB}, 4)
	marker64 = bytes.Repeat([]byte{0xBB}, 8)
)

// Reader decodes rows of one DAT file. It holds no mutable state after New
// returns and is safe for concurrent use.
type Reader struct {
	data      []byte
	name      string
	is64      bool
	widthSet  bool
	rowCount  uint32
	rowLength int
	dataStart int
	logger    *slog.Logger
}

// New locates the row table and data section of a DAT file.
//
// The table is treated as 64-bit when the lower-cased name ends in "64",
// unless With64Bit says otherwise. The data section starts at the first
// marker of 0xBB bytes (8 for 64-bit tables, 4 otherwise) whose distance
// from the row table start is a multiple of the row count. Later candidates
// are never considered, even when the first one came from row bytes that
// happen to contain the marker.
func New(data []byte, name string, opts ...Option) (*Reader, error) {
	r := &Reader{data: data, name: name}
	for _, opt := range opts {
		opt(r)
	}
	if !r.widthSet {
		r.is64 = strings.HasSuffix(strings.ToLower(name), "64")
	}
	log := r.log()

	if len(data) < rowCountSize {
		return nil, fmt.Errorf("%w: %s: %d bytes cannot hold a row count", ErrInvalidData, name, len(data))
	}
	r.rowCount = binary.LittleEndian.Uint32(data)
	marker := r.marker()

	if r.rowCount == 0 {
		r.dataStart = rowCountSize
		if !bytes.HasPrefix(data[rowCountSize:], marker) {
			log.Debug("empty table without data section marker", "name", name)
		}
		return r, nil
	}

	off, ok := findBoundary(data, marker, r.rowCount)
	if !ok {
		return nil, fmt.Errorf("%w: %s: no data section marker aligned to %d rows", ErrInvalidData, name, r.rowCount)
	}
	r.dataStart = off
	r.rowLength = (off - rowCountSize) / int(r.rowCount)
	log.Debug("located data section",
		"name", name,
		"rows", r.rowCount,
		"row_length", r.rowLength,
		"data_offset", off,
		"is64", r.is64)
	return r, nil
}

func findBoundary(data, marker []byte, rows uint32) (int, bool) {
	for from := rowCountSize; from+len(marker) <= len(data); {
		i := bytes.Index(data[from:], marker)
		if i < 0 {
			return 0, false
		}
		i += from
		if uint64(i-rowCountSize)%uint64(rows) == 0 {
			return i, true
		}
		from = i + 1
	}
	return 0, false
}

func (r *Reader) marker() []byte {
	if r.is64 {
		return marker64
	}
	return marker32
}

// Name returns the file name the reader was created with.
func (r *Reader) Name() string { return r.name }

// Is64Bit reports whether pointer-sized fields are 8 bytes wide.
func (r *Reader) Is64Bit() bool { return r.is64 }

// RowCount returns the declared number of rows.
func (r *Reader) RowCount() uint32 { return r.rowCount }

// RowLength returns the inferred row length, or 0 for an empty table.
func (r *Reader) RowLength() int { return r.rowLength }

// DataSectionOffset returns the file offset of the data section marker.
// String and list offsets are relative to it.
func (r *Reader) DataSectionOffset() int { return r.dataStart }

// Data returns the underlying file bytes. The caller must not modify them.
func (r *Reader) Data() []byte { return r.data }

// ReadRow decodes row index using the columns of t.
//
// The row stride is the inferred row length, or the schema's width when
// none was inferred. A row that runs past the end of the file is decoded as
// far as it goes: the first column that does not fit and every column after
// it are KindUnknown.
func (r *Reader) ReadRow(index int, t *Table) ([]Value, error) {
	stride := r.rowLength
	if stride == 0 {
		stride = t.Width(r.is64)
	}

	if index < 0 {
		return nil, fmt.Errorf("%w: row %d of %s", ErrRowOutOfRange, index, r.name)
	}
	start, ok := sizing.MulUint64(uint64(index), uint64(stride))
	if ok {
		start, ok = sizing.AddUint64(start, rowCountSize)
	}
	if !ok || start > uint64(len(r.data)) {
		return nil, fmt.Errorf("%w: row %d of %s", ErrRowOutOfRange, index, r.name)
	}
	lo := int(start) //nolint:gosec // bounded by len(r.data)
	row := r.data[lo:min(len(r.data), lo+stride)]

	values := make([]Value, len(t.Columns))
	cur := 0
	for i, col := range t.Columns {
		c := classify(col)
		w := c.width(r.is64)
		if w > len(row)-cur {
			break
		}
		values[i] = r.decode(c, row[cur:cur+w])
		cur += w
	}
	return values, nil
}

// Rows returns an iterator over every declared row, stopping at the first
// row that starts past the end of the file.
func (r *Reader) Rows(t *Table) iter.Seq2[int, []Value] {
	return func(yield func(int, []Value) bool) {
		for i := range int(r.rowCount) {
			values, err := r.ReadRow(i, t)
			if err != nil {
				r.log().Debug("row iteration stopped", "name", r.name, "row", i, "error", err)
				return
			}
			if !yield(i, values) {
				return
			}
		}
	}
}

// ReadListValues decodes count elements of an array column. offset is the
// list offset from a KindList value; elements have col's type with the
// array flag cleared.
//
// Only elements that fit in the file are decoded. When the list runs past
// the end of the file, or its element type has no width, the result ends
// with a single KindUnknown placeholder instead of one per missing element,
// so the size of the result is bounded by the file, not by count.
func (r *Reader) ReadListValues(offset uint64, count int, col Column) ([]Value, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative list count %d", ErrInvalidData, count)
	}
	if count == 0 {
		return []Value{}, nil
	}
	truncated := []Value{{}}

	elem := col
	elem.Array = false
	c := classify(elem)
	if c == classArray {
		// Untyped "array" columns carry no element type.
		return truncated, nil
	}
	w := c.width(r.is64)
	if w == 0 {
		return truncated, nil
	}

	start, ok := sizing.AddUint64(uint64(r.dataStart), offset) //nolint:gosec // dataStart is non-negative
	if !ok || start >= uint64(len(r.data)) {
		return truncated, nil
	}
	lo := int(start) //nolint:gosec // bounded by len(r.data)
	region := r.data[lo:]

	n := min(count, len(region)/w)
	values := make([]Value, n, n+1)
	for i := range values {
		values[i] = r.decode(c, region[i*w:i*w+w])
	}
	if n < count {
		values = append(values, Value{})
	}
	return values, nil
}

// decode reads one field from b, which is exactly c.width bytes long.
func (r *Reader) decode(c columnClass, b []byte) Value {
	le := binary.LittleEndian
	switch c {
	case classBool:
		return Value{Kind: KindBool, Bool: b[0] != 0}
	case classU8:
		return Value{Kind: KindInt, Int: int64(b[0])}
	case classI16:
		return Value{Kind: KindInt, Int: int64(int16(le.Uint16(b)))} //nolint:gosec // sign reinterpretation
	case classU16:
		return Value{Kind: KindInt, Int: int64(le.Uint16(b))}
	case classI32:
		return Value{Kind: KindInt, Int: int64(int32(le.Uint32(b)))} //nolint:gosec // sign reinterpretation
	case classU32, classEnumRow:
		return Value{Kind: KindInt, Int: int64(le.Uint32(b))}
	case classF32:
		return Value{Kind: KindFloat, Float: math.Float32frombits(le.Uint32(b))}
	case classI64:
		return Value{Kind: KindInt, Int: int64(le.Uint64(b))} //nolint:gosec // sign reinterpretation
	case classU64:
		return Value{Kind: KindUint, Uint: le.Uint64(b)}
	case classString:
		return Value{Kind: KindString, Str: r.stringAt(uint64(le.Uint32(b)))}
	case classRef, classForeignRow:
		return Value{Kind: KindForeignRow, Row: uint64(le.Uint32(b))}
	case classArray:
		v := Value{Kind: KindList, Count: uint64(le.Uint32(b))}
		if r.is64 {
			v.Offset = uint64(le.Uint32(b[8:]))
		} else {
			v.Offset = uint64(le.Uint32(b[4:]))
		}
		return v
	default:
		return Value{}
	}
}

// stringAt decodes the null-terminated UTF-16LE string at offset within the
// data section. Offset 0 and offsets past the end of the file are empty.
func (r *Reader) stringAt(offset uint64) string {
	if offset == 0 {
		return ""
	}
	start, ok := sizing.AddUint64(uint64(r.dataStart), offset) //nolint:gosec // dataStart is non-negative
	if !ok || start >= uint64(len(r.data)) {
		return ""
	}
	var units []uint16
	for p := int(start); p+1 < len(r.data) && len(units) < MaxStringUnits; p += 2 { //nolint:gosec // bounded above
		u := binary.LittleEndian.Uint16(r.data[p:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}
