package dat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "version": 7,
  "createdAt": 1718000000,
  "tables": [
    {
      "name": "Mods",
      "columns": [
        {"name": "Id", "description": null, "array": false, "type": "string", "unique": true, "localized": false, "references": null},
        {"name": null, "array": false, "type": "i32", "unique": false, "localized": false},
        {"name": "Stats", "array": true, "type": "foreignrow", "unique": false, "localized": false, "references": {"table": "Stats"}}
      ],
      "tags": []
    },
    {"name": "BaseItemTypes", "columns": []}
  ],
  "enumerations": []
}`

func TestLoadSchema(t *testing.T) {
	t.Parallel()

	s, err := LoadSchema(strings.NewReader(testSchema))
	require.NoError(t, err)
	assert.Equal(t, 7, s.Version)
	assert.Equal(t, int64(1718000000), s.CreatedAt)
	require.Len(t, s.Tables, 2)

	mods := s.Tables[0]
	require.Len(t, mods.Columns, 3)
	assert.Equal(t, Column{Name: "Id", Type: "string", Unique: true}, mods.Columns[0])
	assert.Empty(t, mods.Columns[1].Name)
	assert.True(t, mods.Columns[2].Array)
	assert.Equal(t, &Reference{Table: "Stats"}, mods.Columns[2].References)
}

func TestLoadSchemaInvalid(t *testing.T) {
	t.Parallel()
	_, err := LoadSchema(strings.NewReader(`{"tables": [`))
	require.Error(t, err)
}

func TestSchemaTable(t *testing.T) {
	t.Parallel()

	s, err := LoadSchema(strings.NewReader(testSchema))
	require.NoError(t, err)

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"Mods", "Mods", true},
		{"mods", "Mods", true},
		{"Data/Mods.dat64", "Mods", true},
		{`Data\BaseItemTypes.datc64`, "BaseItemTypes", true},
		{"data/baseitemtypes.dat", "BaseItemTypes", true},
		{"Data/Missing.dat", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl, ok := s.Table(tt.name)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, tbl.Name)
			}
		})
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Mods", TableName("Data/Mods.dat64"))
	assert.Equal(t, "Mods", TableName("Mods"))
	assert.Equal(t, "Words", TableName(`Data\English\Words.datc64`))
}
