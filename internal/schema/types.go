// Package schema defines the shape of the lead export: the ordered output
// columns with their field types, and the registry of related entities that
// both export paths resolve labels from.
package schema

// FieldType represents how a column value is rendered in the export.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldBool
	FieldFloat
	FieldDate
	FieldTimestamp
	FieldTags
)

// String returns the lowercase name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldInteger:
		return "integer"
	case FieldBool:
		return "bool"
	case FieldFloat:
		return "float"
	case FieldDate:
		return "date"
	case FieldTimestamp:
		return "timestamp"
	case FieldTags:
		return "tags"
	default:
		return "unknown"
	}
}

// FieldSpec defines a single output column.
type FieldSpec struct {
	Name string    // Header name, written verbatim
	Type FieldType // Rendering rule shared by both export paths
}
