package dat

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
)

// Reference names the table and column a foreign key points to.
type Reference struct {
	Table  string `json:"table"`
	Column string `json:"column,omitempty"`
}

// Column describes one field of a table row.
type Column struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"`
	Array       bool       `json:"array"`
	Unique      bool       `json:"unique"`
	Localized   bool       `json:"localized"`
	References  *Reference `json:"references,omitempty"`
}

// Table is the ordered column list of one DAT table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Width returns the sum of the column widths, the row length the schema
// declares.
func (t *Table) Width(is64 bool) int {
	n := 0
	for _, c := range t.Columns {
		n += ColumnWidth(c, is64)
	}
	return n
}

// Schema is a set of table descriptions in the shape of the community
// schema.min.json file.
type Schema struct {
	Version   int     `json:"version"`
	CreatedAt int64   `json:"createdAt"`
	Tables    []Table `json:"tables"`
}

// LoadSchema decodes a JSON schema.
func LoadSchema(r io.Reader) (*Schema, error) {
	var s Schema
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("dat: decode schema: %w", err)
	}
	return &s, nil
}

// Table returns the table for name. Name may be a bare table name or a
// file path such as "Data/Mods.dat64"; the directory and extension are
// ignored and the match is case-insensitive.
func (s *Schema) Table(name string) (*Table, bool) {
	stem := TableName(name)
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, stem) {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// TableName returns the table name a DAT file path refers to.
func TableName(file string) string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}
