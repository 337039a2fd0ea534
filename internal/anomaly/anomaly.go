// Package anomaly holds the read-only scans that flag suspicious cells and
// duplicate rows. Scans never mutate the frame; fixes go through the
// cleaning dispatcher so they stay undoable.
package anomaly

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"goclean/domain/table"
	"goclean/internal/profiling"
)

// Finding flags one suspicious cell.
type Finding struct {
	RowIndex int         `json:"row_index"`
	Value    table.Value `json:"value"`
	Reason   string      `json:"reason"`
}

// ColumnReport is the scan result for one column.
type ColumnReport struct {
	Column   string    `json:"column"`
	Type     string    `json:"type"`
	Findings []Finding `json:"findings"`
}

// ScanColumn checks every cell of a column against its assigned type.
// Null cells are missing data, not anomalies, and are never flagged.
func ScanColumn(f *table.Frame, r *profiling.Registry, column string) (*ColumnReport, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	ct := r.AssignedType(column)
	report := &ColumnReport{Column: column, Type: string(ct)}
	check := checkerFor(ct, values)
	if check == nil {
		return report, nil
	}
	for i, v := range values {
		if v.IsNull() {
			continue
		}
		if reason := check(v); reason != "" {
			report.Findings = append(report.Findings, Finding{RowIndex: i, Value: v, Reason: reason})
		}
	}
	return report, nil
}

// ScanAll scans every column, skipping columns whose type has no checks.
func ScanAll(f *table.Frame, r *profiling.Registry) ([]*ColumnReport, error) {
	var reports []*ColumnReport
	for _, name := range f.Columns() {
		rep, err := ScanColumn(f, r, name)
		if err != nil {
			return nil, err
		}
		if len(rep.Findings) > 0 {
			reports = append(reports, rep)
		}
	}
	return reports, nil
}

func checkerFor(ct table.ColumnType, values []table.Value) func(table.Value) string {
	switch ct {
	case table.TypeContinuous, table.TypeOrdinal:
		return checkNumeric
	case table.TypeInteger:
		return checkInteger
	case table.TypeBinary:
		return binaryChecker(values)
	case table.TypeCategorical:
		return checkCategory
	case table.TypeDatetime:
		return checkDatetime
	case table.TypeText:
		return checkText
	default:
		return nil
	}
}

func checkNumeric(v table.Value) string {
	if _, ok := v.Float(); !ok {
		return "not numeric"
	}
	return ""
}

func checkInteger(v table.Value) string {
	n, ok := v.Float()
	if !ok {
		return "not numeric"
	}
	if n != math.Trunc(n) {
		return "not a whole number"
	}
	return ""
}

// binaryChecker flags everything outside the two most frequent values.
// Count ties break on first occurrence in the column.
func binaryChecker(values []table.Value) func(table.Value) string {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		k := v.DisplayString()
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	top1, top2, n1, n2 := "", "", -1, -1
	for _, k := range order {
		n := counts[k]
		switch {
		case n > n1:
			top2, n2 = top1, n1
			top1, n1 = k, n
		case n > n2:
			top2, n2 = k, n
		}
	}
	return func(v table.Value) string {
		k := v.DisplayString()
		if k != top1 && k != top2 {
			return fmt.Sprintf("outside the two dominant values %q and %q", top1, top2)
		}
		return ""
	}
}

func checkCategory(v table.Value) string {
	if v.Kind != table.KindString {
		return ""
	}
	if strings.TrimSpace(v.Str) != v.Str {
		return "leading or trailing whitespace"
	}
	return ""
}

func checkDatetime(v table.Value) string {
	if _, ok := v.Time(); !ok {
		return "not a recognizable date"
	}
	return ""
}

func checkText(v table.Value) string {
	if v.Kind != table.KindString {
		return ""
	}
	for _, r := range v.Str {
		if unicode.IsControl(r) && r != '\t' {
			return "contains control characters"
		}
	}
	return ""
}
