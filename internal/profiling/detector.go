package profiling

import (
	"math"

	"goclean/domain/table"
)

// Detection thresholds. Cardinality bounds follow the survey-data rule of
// thumb: a string column is categorical when it has few distinct values
// relative to its size, text otherwise.
const (
	smallCardinalityRatio = 0.1
	smallCardinalityMax   = 20
	ordinalMaxDistinct    = 10
)

// DetectType classifies a column's values into one of the nine semantic
// types. Pure function; tie-breaks in priority order:
// empty, binary, numeric (ordinal/integer/continuous), datetime,
// categorical, text, unknown.
func DetectType(values []table.Value) table.ColumnType {
	nonNull := make([]table.Value, 0, len(values))
	for _, v := range values {
		if !v.IsNull() {
			nonNull = append(nonNull, v)
		}
	}
	if len(nonNull) == 0 {
		return table.TypeEmpty
	}

	distinct := distinctCount(nonNull)
	if distinct == 2 {
		return table.TypeBinary
	}

	if t, ok := detectNumeric(nonNull, distinct); ok {
		return t
	}
	if allDatetime(nonNull) {
		return table.TypeDatetime
	}
	if allStrings(nonNull) {
		ratio := float64(distinct) / float64(len(nonNull))
		if ratio < smallCardinalityRatio && distinct < smallCardinalityMax {
			return table.TypeCategorical
		}
		return table.TypeText
	}
	return table.TypeUnknown
}

// detectNumeric distinguishes continuous, integer and ordinal columns.
// Only genuinely numeric cells count; numeric-looking strings stay strings
// so that type anomalies remain observable.
func detectNumeric(nonNull []table.Value, distinct int) (table.ColumnType, bool) {
	allWhole := true
	minVal := math.Inf(1)
	for _, v := range nonNull {
		if v.Kind != table.KindNumber {
			return "", false
		}
		if v.Num != math.Trunc(v.Num) {
			allWhole = false
		}
		if v.Num < minVal {
			minVal = v.Num
		}
	}
	if !allWhole {
		return table.TypeContinuous, true
	}
	if distinct < ordinalMaxDistinct && minVal >= 0 {
		return table.TypeOrdinal, true
	}
	return table.TypeInteger, true
}

func allDatetime(nonNull []table.Value) bool {
	for _, v := range nonNull {
		if _, ok := v.Time(); !ok {
			return false
		}
	}
	return true
}

func allStrings(nonNull []table.Value) bool {
	for _, v := range nonNull {
		if v.Kind != table.KindString {
			return false
		}
	}
	return true
}

func distinctCount(values []table.Value) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		seen[v.DisplayString()] = struct{}{}
	}
	return len(seen)
}
