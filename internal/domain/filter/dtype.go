package filter

// DType is the declared data type of a searchable attribute.
type DType string

// Supported filter data types.
const (
	Int       DType = "int"
	Float     DType = "float"
	Timestamp DType = "timestamp"
	Enum      DType = "enum"
	String    DType = "string"
	Boolean   DType = "boolean"
)

// IsValid checks if the dtype is one of the supported values.
func (d DType) IsValid() bool {
	switch d {
	case Int, Float, Timestamp, Enum, String, Boolean:
		return true
	}
	return false
}

// IsNumeric reports whether values of this dtype order on a number line.
// Timestamps count: they are transported as epoch milliseconds.
func (d DType) IsNumeric() bool {
	return d == Int || d == Float || d == Timestamp
}

// QueryMode controls how a multi-valued filter combines its values.
type QueryMode string

// Query modes for multi-valued filters.
const (
	// QueryAny matches results carrying at least one of the values.
	QueryAny QueryMode = "any"
	// QueryAll matches results carrying every value.
	QueryAll QueryMode = "all"
)

// IsValid checks if the query mode is one of the supported values.
func (m QueryMode) IsValid() bool {
	return m == QueryAny || m == QueryAll
}

// Resource is a kind of searchable result the portal indexes.
type Resource string

// Searchable resource kinds.
const (
	Entries   Resource = "entries"
	Materials Resource = "materials"
)
