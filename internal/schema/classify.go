package schema

// SemanticType is the resolved data-shape class of a column. It drives
// which obfuscation transform applies; Opaque values are copied as-is.
type SemanticType int

const (
	Opaque SemanticType = iota
	Text
	Date
	Numeric
)

func (s SemanticType) String() string {
	switch s {
	case Text:
		return "text"
	case Date:
		return "date"
	case Numeric:
		return "numeric"
	default:
		return "opaque"
	}
}

// Classify maps a normalized MySQL data type to its semantic class.
// The mapping is total: anything unrecognized resolves to Opaque so an
// unknown type is copied untouched rather than mangled. Classification
// looks only at the declared type, never at the content.
//
// Note: enum/set are Opaque (substituted members would violate the
// value set), and time/year are Opaque (a day shift is meaningless for
// a time-of-day or a bare year).
func Classify(dataType string) SemanticType {
	switch dataType {
	case "char", "varchar", "tinytext", "text", "mediumtext", "longtext":
		return Text
	case "date", "datetime", "timestamp":
		return Date
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint",
		"decimal", "numeric", "float", "double":
		return Numeric
	default:
		return Opaque
	}
}
