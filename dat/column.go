package dat

import "strings"

// columnClass groups the schema's type spellings by how they are decoded.
type columnClass uint8

const (
	classUnknown columnClass = iota
	classBool
	classU8
	classI16
	classU16
	classI32
	classU32
	classF32
	classI64
	classU64
	classString
	classRef        // generic row reference, pointer sized
	classForeignRow // row index plus a second half in 64-bit tables
	classEnumRow
	classArray
)

func classify(col Column) columnClass {
	if col.Array || col.Type == "array" {
		return classArray
	}
	switch col.Type {
	case "bool":
		return classBool
	case "byte", "u8":
		return classU8
	case "short", "i16":
		return classI16
	case "ushort", "u16":
		return classU16
	case "int", "i32":
		return classI32
	case "uint", "u32":
		return classU32
	case "float", "f32":
		return classF32
	case "long", "i64":
		return classI64
	case "ulong", "u64":
		return classU64
	case "string", "ref|string":
		return classString
	case "foreign_row", "foreignrow":
		return classForeignRow
	case "enumrow":
		return classEnumRow
	case "row":
		return classRef
	}
	if strings.HasPrefix(col.Type, "ref|") {
		return classRef
	}
	return classUnknown
}

// ColumnWidth returns the number of row bytes col occupies. Pointer-sized
// fields double in 64-bit tables; fixed-width scalars do not. Unrecognized
// types are assumed to be 4 bytes wide.
func ColumnWidth(col Column, is64 bool) int {
	return classify(col).width(is64)
}

func (c columnClass) width(is64 bool) int {
	switch c {
	case classBool, classU8:
		return 1
	case classI16, classU16:
		return 2
	case classI32, classU32, classF32, classEnumRow, classUnknown:
		return 4
	case classI64, classU64:
		return 8
	case classString, classRef:
		if is64 {
			return 8
		}
		return 4
	case classForeignRow:
		if is64 {
			return 16
		}
		return 4
	case classArray:
		if is64 {
			return 16
		}
		return 8
	default:
		return 4
	}
}
