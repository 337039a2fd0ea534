package table

import "goclean/domain/core"

// ColumnType is the semantic classification driving which cleaning methods
// apply to a column. The set is closed: exactly these nine values.
type ColumnType string

const (
	TypeContinuous  ColumnType = "continuous"
	TypeInteger     ColumnType = "integer"
	TypeOrdinal     ColumnType = "ordinal"
	TypeCategorical ColumnType = "categorical"
	TypeBinary      ColumnType = "binary"
	TypeText        ColumnType = "text"
	TypeDatetime    ColumnType = "datetime"
	TypeEmpty       ColumnType = "empty"
	TypeUnknown     ColumnType = "unknown"
)

// AllColumnTypes lists the closed enumeration in a stable order
var AllColumnTypes = []ColumnType{
	TypeContinuous,
	TypeInteger,
	TypeOrdinal,
	TypeCategorical,
	TypeBinary,
	TypeText,
	TypeDatetime,
	TypeEmpty,
	TypeUnknown,
}

// ParseColumnType validates a string against the closed enumeration
func ParseColumnType(s string) (ColumnType, error) {
	for _, t := range AllColumnTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", core.NewInvalidTypeError("", s)
}

// IsNumeric reports whether the type carries numeric values
func (t ColumnType) IsNumeric() bool {
	switch t {
	case TypeContinuous, TypeInteger, TypeOrdinal:
		return true
	}
	return false
}
