// Package balance rebalances class distributions for a target column.
// The math lives here; committing the resampled frame goes through the
// cleaning dispatcher so balancing is undoable like any other operation.
package balance

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"goclean/domain/core"
	"goclean/domain/table"
)

const (
	minRows    = 10
	smoteK     = 5
	defaultRNG = 42
)

// Methods lists the supported balancing strategies.
func Methods() []MethodInfo {
	return []MethodInfo{
		{Name: "random_oversampling", Label: "Random Oversampling", Description: "Duplicate minority rows until classes match"},
		{Name: "random_undersampling", Label: "Random Undersampling", Description: "Drop majority rows until classes match"},
		{Name: "smote", Label: "SMOTE", Description: "Synthesize minority rows between real neighbors"},
	}
}

// MethodInfo describes one balancing strategy.
type MethodInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ClassCount is one target class and its row count.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// Distribution counts rows per target class, most frequent first.
func Distribution(f *table.Frame, target string) ([]ClassCount, error) {
	values, err := f.Column(target)
	if err != nil {
		return nil, err
	}
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
	out := make([]ClassCount, 0, len(order))
	for _, k := range order {
		out = append(out, ClassCount{Class: k, Count: counts[k]})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// Validate checks that the frame can be balanced on target: the column must
// exist, hold no missing values, form at least two classes, and the frame
// must have enough rows to resample meaningfully.
func Validate(f *table.Frame, target string) error {
	values, err := f.Column(target)
	if err != nil {
		return err
	}
	if f.RowCount() < minRows {
		return core.NewInvalidOperationError("balance", fmt.Sprintf("need at least %d rows", minRows))
	}
	distinct := map[string]bool{}
	for _, v := range values {
		if v.IsNull() {
			return core.NewInvalidOperationError("balance", "target column has missing values")
		}
		distinct[v.DisplayString()] = true
	}
	if len(distinct) < 2 {
		return core.NewInvalidOperationError("balance", "target column needs at least two classes")
	}
	return nil
}

// Apply resamples the frame so every class matches the reference class size.
// Oversampling and SMOTE grow minorities to the majority; undersampling
// shrinks majorities to the minority. Returns the new frame and the number
// of rows added or removed.
func Apply(f *table.Frame, target, method string, seed int64) (*table.Frame, int, error) {
	if err := Validate(f, target); err != nil {
		return nil, 0, err
	}
	if seed == 0 {
		seed = defaultRNG
	}
	rng := rand.New(rand.NewSource(seed))
	groups, order, err := classGroups(f, target)
	if err != nil {
		return nil, 0, err
	}
	switch method {
	case "random_oversampling":
		return oversample(f, groups, order, rng)
	case "random_undersampling":
		return undersample(f, groups, order, rng)
	case "smote":
		return smote(f, target, groups, order, rng)
	default:
		return nil, 0, core.NewInvalidOperationError(method, "unknown balance method")
	}
}

func classGroups(f *table.Frame, target string) (map[string][]int, []string, error) {
	values, err := f.Column(target)
	if err != nil {
		return nil, nil, err
	}
	groups := map[string][]int{}
	var order []string
	for i, v := range values {
		k := v.DisplayString()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	return groups, order, nil
}

func maxClassSize(groups map[string][]int) int {
	max := 0
	for _, rows := range groups {
		if len(rows) > max {
			max = len(rows)
		}
	}
	return max
}

func minClassSize(groups map[string][]int) int {
	min := -1
	for _, rows := range groups {
		if min < 0 || len(rows) < min {
			min = len(rows)
		}
	}
	return min
}

func oversample(f *table.Frame, groups map[string][]int, order []string, rng *rand.Rand) (*table.Frame, int, error) {
	target := maxClassSize(groups)
	nf := f.Clone()
	added := 0
	for _, class := range order {
		rows := groups[class]
		for n := len(rows); n < target; n++ {
			src := rows[rng.Intn(len(rows))]
			nf.AppendRow(f.Row(src))
			added++
		}
	}
	return nf, added, nil
}

func undersample(f *table.Frame, groups map[string][]int, order []string, rng *rand.Rand) (*table.Frame, int, error) {
	target := minClassSize(groups)
	var keep []int
	for _, class := range order {
		rows := append([]int(nil), groups[class]...)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		rows = rows[:target]
		keep = append(keep, rows...)
	}
	sortInts(keep)
	removed := f.RowCount() - len(keep)
	nf, err := f.SelectRows(keep)
	if err != nil {
		return nil, 0, err
	}
	return nf, removed, nil
}

// smote synthesizes minority rows by interpolating the numeric features
// between a class row and one of its k nearest neighbors in the same class.
// Non-numeric columns are copied from the seed row.
func smote(f *table.Frame, target string, groups map[string][]int, order []string, rng *rand.Rand) (*table.Frame, int, error) {
	numericCols := numericColumns(f, target)
	if len(numericCols) == 0 {
		return nil, 0, core.NewInvalidOperationError("smote", "needs at least one numeric feature column")
	}
	features, err := featureMatrix(f, numericCols)
	if err != nil {
		return nil, 0, err
	}

	largest := maxClassSize(groups)
	nf := f.Clone()
	added := 0
	for _, class := range order {
		rows := groups[class]
		if len(rows) >= largest {
			continue
		}
		if len(rows) < 2 {
			return nil, 0, core.NewInvalidOperationError("smote", fmt.Sprintf("class %q has too few rows to interpolate", class))
		}
		k := smoteK
		if k > len(rows)-1 {
			k = len(rows) - 1
		}
		for n := len(rows); n < largest; n++ {
			seed := rows[rng.Intn(len(rows))]
			neighbor := nearestInClass(features, rows, seed, k, rng)
			t := rng.Float64()
			row := f.Row(seed)
			for _, col := range numericCols {
				a, aok := features[seed][col]
				b, bok := features[neighbor][col]
				if aok && bok {
					row[col] = table.Number(a + t*(b-a))
				}
			}
			nf.AppendRow(row)
			added++
		}
	}
	return nf, added, nil
}

func numericColumns(f *table.Frame, target string) []string {
	var out []string
	for _, name := range f.Columns() {
		if name == target {
			continue
		}
		values, _ := f.Column(name)
		numeric := 0
		for _, v := range values {
			if _, ok := v.Float(); ok {
				numeric++
			}
		}
		if numeric > 0 {
			out = append(out, name)
		}
	}
	return out
}

func featureMatrix(f *table.Frame, columns []string) ([]map[string]float64, error) {
	out := make([]map[string]float64, f.RowCount())
	for i := range out {
		out[i] = map[string]float64{}
	}
	for _, name := range columns {
		values, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if n, ok := v.Float(); ok {
				out[i][name] = n
			}
		}
	}
	return out, nil
}

// nearestInClass picks one of the k nearest same-class rows to seed,
// at random among the k so synthesized points spread out.
func nearestInClass(features []map[string]float64, rows []int, seed, k int, rng *rand.Rand) int {
	type cand struct {
		row  int
		dist float64
	}
	var cands []cand
	for _, r := range rows {
		if r == seed {
			continue
		}
		cands = append(cands, cand{r, featureDistance(features[seed], features[r])})
	}
	for i := 1; i < len(cands); i++ {
		for j := i; j > 0 && cands[j].dist < cands[j-1].dist; j-- {
			cands[j], cands[j-1] = cands[j-1], cands[j]
		}
	}
	if k > len(cands) {
		k = len(cands)
	}
	return cands[rng.Intn(k)].row
}

func featureDistance(a, b map[string]float64) float64 {
	var da, db []float64
	for col, av := range a {
		if bv, ok := b[col]; ok {
			da = append(da, av)
			db = append(db, bv)
		}
	}
	if len(da) == 0 {
		return 0
	}
	return floats.Distance(da, db, 2)
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}
