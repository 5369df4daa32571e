// Package schema holds the canonical target fields for each import type.
//
// Schemas are registered at init time and never mutated afterwards, so the
// mapper and validation engine can read them from any goroutine. New import
// types are added with [Register] without touching mapper code.
package schema

import "strings"

// DataType is the declared type of a canonical field.
type DataType string

const (
	TypeString  DataType = "string"
	TypeDecimal DataType = "decimal"
	TypeInteger DataType = "integer"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
	TypeEmail   DataType = "email"
	TypePhone   DataType = "phone"
	TypeList    DataType = "list"
)

// IsNumeric reports whether values of t are numbers.
func (t DataType) IsNumeric() bool {
	return t == TypeDecimal || t == TypeInteger
}

// ImportType names a canonical record domain.
type ImportType string

const (
	Menu      ImportType = "menu"
	Inventory ImportType = "inventory"
	Sales     ImportType = "sales"
	Recipes   ImportType = "recipes"
	Customers ImportType = "customers"
)

// Field describes one canonical target field.
type Field struct {
	Name        string
	Type        DataType
	Required    bool
	Description string
	Synonyms    []string // Header spellings that mean this field, normalized
}

// Schema is the ordered field set of one import type.
type Schema struct {
	ImportType ImportType
	Label      string
	Fields     []Field
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Required returns the required fields in declaration order.
func (s Schema) Required() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// FieldNames returns all field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// NormalizeHeader lowercases a header and folds separators to single spaces,
// so "Item_Name ", "item-name" and "Item Name" compare equal.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}
