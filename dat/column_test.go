package dat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		col Column
		w32 int
		w64 int
	}{
		{Column{Type: "bool"}, 1, 1},
		{Column{Type: "byte"}, 1, 1},
		{Column{Type: "u8"}, 1, 1},
		{Column{Type: "short"}, 2, 2},
		{Column{Type: "u16"}, 2, 2},
		{Column{Type: "i16"}, 2, 2},
		{Column{Type: "int"}, 4, 4},
		{Column{Type: "uint"}, 4, 4},
		{Column{Type: "float"}, 4, 4},
		{Column{Type: "u32"}, 4, 4},
		{Column{Type: "i32"}, 4, 4},
		{Column{Type: "f32"}, 4, 4},
		{Column{Type: "long"}, 8, 8},
		{Column{Type: "ulong"}, 8, 8},
		{Column{Type: "u64"}, 8, 8},
		{Column{Type: "i64"}, 8, 8},
		{Column{Type: "string"}, 4, 8},
		{Column{Type: "ref|string"}, 4, 8},
		{Column{Type: "ref|Mods"}, 4, 8},
		{Column{Type: "row"}, 4, 8},
		{Column{Type: "foreign_row"}, 4, 16},
		{Column{Type: "foreignrow"}, 4, 16},
		{Column{Type: "enumrow"}, 4, 4},
		{Column{Type: "i32", Array: true}, 8, 16},
		{Column{Type: "string", Array: true}, 8, 16},
		{Column{Type: "array"}, 8, 16},
		{Column{Type: "mystery"}, 4, 4},
	}
	for _, tt := range tests {
		name := tt.col.Type
		if tt.col.Array {
			name = "[]" + name
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.w32, ColumnWidth(tt.col, false))
			assert.Equal(t, tt.w64, ColumnWidth(tt.col, true))
		})
	}
}

func TestTableWidth(t *testing.T) {
	t.Parallel()

	tbl := Table{Columns: []Column{{Type: "string"}, {Type: "bool"}, {Type: "i32", Array: true}}}
	assert.Equal(t, 13, tbl.Width(false))
	assert.Equal(t, 25, tbl.Width(true))
}
