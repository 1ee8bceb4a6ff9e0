package dat

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which field of a Value is set.
type Kind uint8

const (
	// KindUnknown marks a field that could not be decoded: an unrecognized
	// type or a row too short to hold it.
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindForeignRow
	KindList
)

var kindNames = [...]string{
	KindUnknown:    "unknown",
	KindBool:       "bool",
	KindInt:        "int",
	KindUint:       "uint",
	KindFloat:      "float",
	KindString:     "string",
	KindForeignRow: "foreign_row",
	KindList:       "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one decoded field.
type Value struct {
	Kind Kind

	Bool  bool
	Int   int64
	Uint  uint64
	Float float32
	Str   string

	// Row is the referenced row index of a KindForeignRow value. It is not
	// checked against the target table.
	Row uint64

	// Count and Offset describe a KindList value. Offset is relative to
	// the data section; see Reader.ReadListValues.
	Count  uint64
	Offset uint64
}

// String formats v for display.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindUint:
		return strconv.FormatUint(v.Uint, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.Float), 'g', -1, 32)
	case KindString:
		return v.Str
	case KindForeignRow:
		return "row:" + strconv.FormatUint(v.Row, 10)
	case KindList:
		return fmt.Sprintf("list[%d]@%d", v.Count, v.Offset)
	default:
		return "Unknown"
	}
}

// MarshalJSON encodes v as its natural JSON value. Unknown fields are null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindInt:
		return json.Marshal(v.Int)
	case KindUint:
		return json.Marshal(v.Uint)
	case KindFloat:
		if f := float64(v.Float); math.IsNaN(f) || math.IsInf(f, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.Float)
	case KindString:
		return json.Marshal(v.Str)
	case KindForeignRow:
		return json.Marshal(struct {
			Row uint64 `json:"row"`
		}{v.Row})
	case KindList:
		return json.Marshal(struct {
			Count  uint64 `json:"count"`
			Offset uint64 `json:"offset"`
		}{v.Count, v.Offset})
	default:
		return []byte("null"), nil
	}
}
