package anomaly

import (
	"goclean/domain/core"
	"goclean/domain/table"
)

const duplicateSampleRows = 5

// DuplicateGroup is one set of rows sharing the same key.
type DuplicateGroup struct {
	RowIndices []int                  `json:"row_indices"`
	Sample     map[string]table.Value `json:"sample"`
}

// DuplicateReport summarizes duplicate rows over a column subset.
type DuplicateReport struct {
	Columns        []string         `json:"columns"`
	DuplicateRows  int              `json:"duplicate_rows"`
	Percentage     float64          `json:"percentage"`
	Groups         []DuplicateGroup `json:"groups"`
	TruncatedCount int              `json:"truncated_groups,omitempty"`
}

// FindDuplicates groups rows by their values in subset (all columns when
// empty). Each group past the first occurrence counts toward DuplicateRows,
// matching what remove_duplicates with keep=first would drop.
func FindDuplicates(f *table.Frame, subset []string) (*DuplicateReport, error) {
	for _, name := range subset {
		if !f.HasColumn(name) {
			return nil, core.NewColumnNotFoundError(name)
		}
	}
	columns := subset
	if len(columns) == 0 {
		columns = f.Columns()
	}

	byKey := map[string][]int{}
	order := []string{}
	for i := 0; i < f.RowCount(); i++ {
		key := f.RowKey(i, subset)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], i)
	}

	report := &DuplicateReport{Columns: columns}
	for _, key := range order {
		rows := byKey[key]
		if len(rows) < 2 {
			continue
		}
		report.DuplicateRows += len(rows) - 1
		if len(report.Groups) < duplicateSampleRows {
			report.Groups = append(report.Groups, DuplicateGroup{
				RowIndices: rows,
				Sample:     f.Row(rows[0]),
			})
		} else {
			report.TruncatedCount++
		}
	}
	if n := f.RowCount(); n > 0 {
		report.Percentage = float64(report.DuplicateRows) / float64(n) * 100
	}
	return report, nil
}
