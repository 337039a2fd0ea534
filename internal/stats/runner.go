package stats

import (
	"fmt"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/profiling"
)

// Request names a test and the columns to run it on.
type Request struct {
	Test        string  `json:"test"`
	Column      string  `json:"column"`
	Column2     string  `json:"column2,omitempty"`
	GroupColumn string  `json:"group_column,omitempty"`
	Mu          float64 `json:"mu,omitempty"`
}

// TestNames lists the supported tests.
func TestNames() []string {
	return []string{
		"one_sample_ttest",
		"welch_ttest",
		"mann_whitney",
		"pearson_correlation",
		"spearman_correlation",
		"chi_square",
		"fisher_exact",
		"one_way_anova",
		"kruskal_wallis",
	}
}

// Run resolves a request's columns and dispatches to the named test.
func (a *Analyzer) Run(f *table.Frame, req Request) (*Result, error) {
	switch req.Test {
	case "one_sample_ttest":
		xs, err := ColumnValues(f, req.Column)
		if err != nil {
			return nil, err
		}
		return a.OneSampleTTest(xs, req.Mu)

	case "welch_ttest", "mann_whitney":
		x, y, err := twoGroups(f, req.Column, req.GroupColumn)
		if err != nil {
			return nil, err
		}
		if req.Test == "welch_ttest" {
			return a.WelchTTest(x, y)
		}
		return a.MannWhitney(x, y)

	case "pearson_correlation", "spearman_correlation":
		xs, ys, err := PairedValues(f, req.Column, req.Column2)
		if err != nil {
			return nil, err
		}
		if req.Test == "pearson_correlation" {
			return a.PearsonCorrelation(xs, ys)
		}
		return a.SpearmanCorrelation(xs, ys)

	case "chi_square", "fisher_exact":
		x, y, err := pairedCategories(f, req.Column, req.Column2)
		if err != nil {
			return nil, err
		}
		if req.Test == "chi_square" {
			return a.ChiSquare(x, y)
		}
		return a.FisherExact(x, y)

	case "one_way_anova", "kruskal_wallis":
		groups, err := orderedGroups(f, req.Column, req.GroupColumn)
		if err != nil {
			return nil, err
		}
		if req.Test == "one_way_anova" {
			return a.OneWayANOVA(groups)
		}
		return a.KruskalWallis(groups)

	default:
		return nil, core.NewInvalidOperationError(req.Test, "unknown test")
	}
}

func twoGroups(f *table.Frame, valueCol, groupCol string) ([]float64, []float64, error) {
	grouped, err := GroupedValues(f, valueCol, groupCol)
	if err != nil {
		return nil, nil, err
	}
	if len(grouped) != 2 {
		return nil, nil, core.NewInvalidOperationError("two_group_test",
			fmt.Sprintf("grouping column %q splits into %d groups, need exactly 2", groupCol, len(grouped)))
	}
	keys := sortedKeys(grouped)
	return grouped[keys[0]], grouped[keys[1]], nil
}

func orderedGroups(f *table.Frame, valueCol, groupCol string) ([][]float64, error) {
	grouped, err := GroupedValues(f, valueCol, groupCol)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(grouped)
	out := make([][]float64, 0, len(keys))
	for _, k := range keys {
		out = append(out, grouped[k])
	}
	return out, nil
}

func pairedCategories(f *table.Frame, xCol, yCol string) ([]string, []string, error) {
	xv, err := f.Column(xCol)
	if err != nil {
		return nil, nil, err
	}
	yv, err := f.Column(yCol)
	if err != nil {
		return nil, nil, err
	}
	var xs, ys []string
	for i := range xv {
		if xv[i].IsNull() || yv[i].IsNull() {
			continue
		}
		xs = append(xs, xv[i].DisplayString())
		ys = append(ys, yv[i].DisplayString())
	}
	return xs, ys, nil
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// Recommendation pairs a suggested test with the reasoning behind it.
type Recommendation struct {
	Test      string `json:"test"`
	Alternate string `json:"alternate,omitempty"`
	Reason    string `json:"reason"`
}

// Recommend suggests a test for a pair of columns from their assigned types
// and group structure.
func Recommend(f *table.Frame, r *profiling.Registry, col1, col2 string) (*Recommendation, error) {
	if !f.HasColumn(col1) {
		return nil, core.NewColumnNotFoundError(col1)
	}
	if !f.HasColumn(col2) {
		return nil, core.NewColumnNotFoundError(col2)
	}
	t1 := r.AssignedType(col1)
	t2 := r.AssignedType(col2)

	switch {
	case t1.IsNumeric() && t2.IsNumeric():
		return &Recommendation{
			Test:      "pearson_correlation",
			Alternate: "spearman_correlation",
			Reason:    "both columns are numeric; Spearman if the relation is monotone but not linear",
		}, nil

	case t1.IsNumeric() != t2.IsNumeric():
		valueCol, groupCol := col1, col2
		if t2.IsNumeric() {
			valueCol, groupCol = col2, col1
		}
		grouped, err := GroupedValues(f, valueCol, groupCol)
		if err != nil {
			return nil, err
		}
		if len(grouped) < 2 {
			return nil, core.NewInvalidOperationError("recommend",
				fmt.Sprintf("grouping column %q has fewer than two classes", groupCol))
		}
		if len(grouped) == 2 {
			return &Recommendation{
				Test:      "welch_ttest",
				Alternate: "mann_whitney",
				Reason:    "numeric outcome across two groups; Mann-Whitney if the groups are small or skewed",
			}, nil
		}
		return &Recommendation{
			Test:      "one_way_anova",
			Alternate: "kruskal_wallis",
			Reason:    fmt.Sprintf("numeric outcome across %d groups; Kruskal-Wallis if normality is doubtful", len(grouped)),
		}, nil

	default:
		xs, ys, err := pairedCategories(f, col1, col2)
		if err != nil {
			return nil, err
		}
		if smallContingency(xs, ys) {
			return &Recommendation{
				Test:      "fisher_exact",
				Alternate: "chi_square",
				Reason:    "2x2 table with small expected counts, the exact test is safer",
			}, nil
		}
		return &Recommendation{
			Test:      "chi_square",
			Alternate: "fisher_exact",
			Reason:    "both columns are categorical",
		}, nil
	}
}

// smallContingency reports a 2x2 table where some expected count drops
// below 5, the usual cutoff for preferring the exact test.
func smallContingency(x, y []string) bool {
	obs, rows, cols := contingency(x, y)
	if rows != 2 || cols != 2 {
		return false
	}
	total := 0.0
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	for i := range obs {
		for j := range obs[i] {
			rowSum[i] += obs[i][j]
			colSum[j] += obs[i][j]
			total += obs[i][j]
		}
	}
	for i := range rowSum {
		for j := range colSum {
			if rowSum[i]*colSum[j]/total < 5 {
				return true
			}
		}
	}
	return false
}
