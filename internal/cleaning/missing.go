package cleaning

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/profiling"
)

func fillColumn(f *table.Frame, column string, fill func(i int) (table.Value, bool)) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	changed := 0
	for i := range values {
		if !values[i].IsNull() {
			continue
		}
		v, ok := fill(i)
		if !ok {
			continue
		}
		values[i] = v
		changed++
	}
	if err := f.SetColumn(column, values); err != nil {
		return nil, 0, err
	}
	return f, changed, nil
}

func meanImputation(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	nums := profiling.NumericValues(values)
	if len(nums) == 0 {
		return nil, 0, core.NewInvalidOperationError("mean_imputation", "column has no numeric values")
	}
	mean, _ := stats.Mean(nums)
	// match the reported precision of the column summaries
	mean = math.Round(mean*100) / 100
	return fillColumn(f, column, func(int) (table.Value, bool) {
		return table.Number(mean), true
	})
}

func medianImputation(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	nums := profiling.NumericValues(values)
	if len(nums) == 0 {
		return nil, 0, core.NewInvalidOperationError("median_imputation", "column has no numeric values")
	}
	median, _ := stats.Median(nums)
	return fillColumn(f, column, func(int) (table.Value, bool) {
		return table.Number(median), true
	})
}

func modeImputation(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	counts := map[string]int{}
	byKey := map[string]table.Value{}
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		k := v.DisplayString()
		counts[k]++
		byKey[k] = v
	}
	if len(counts) == 0 {
		return nil, 0, core.NewInvalidOperationError("mode_imputation", "column has no values to take a mode from")
	}
	best, bestN := "", -1
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	mode := byKey[best]
	return fillColumn(f, column, func(int) (table.Value, bool) {
		return mode, true
	})
}

func forwardFill(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	last := table.Null()
	return fillColumnScan(f, column, func(v table.Value) (table.Value, bool) {
		if !v.IsNull() {
			last = v
			return v, false
		}
		if last.IsNull() {
			return v, false
		}
		return last, true
	})
}

func backwardFill(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	next := table.Null()
	changed := 0
	for i := len(values) - 1; i >= 0; i-- {
		if !values[i].IsNull() {
			next = values[i]
			continue
		}
		if next.IsNull() {
			continue
		}
		values[i] = next
		changed++
	}
	if err := f.SetColumn(column, values); err != nil {
		return nil, 0, err
	}
	return f, changed, nil
}

// fillColumnScan walks the column top to bottom, letting step rewrite cells.
func fillColumnScan(f *table.Frame, column string, step func(table.Value) (table.Value, bool)) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	changed := 0
	for i := range values {
		v, did := step(values[i])
		if did {
			values[i] = v
			changed++
		}
	}
	if err := f.SetColumn(column, values); err != nil {
		return nil, 0, err
	}
	return f, changed, nil
}

func linearInterpolation(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	type point struct {
		idx int
		val float64
	}
	var known []point
	for i, v := range values {
		if n, ok := v.Float(); ok {
			known = append(known, point{i, n})
		}
	}
	if len(known) < 2 {
		return nil, 0, core.NewInvalidOperationError("interpolation", "need at least two known values to interpolate")
	}
	changed := 0
	k := 0
	for i := range values {
		if !values[i].IsNull() {
			continue
		}
		for k+1 < len(known) && known[k+1].idx < i {
			k++
		}
		// only interior gaps get filled, leading and trailing nulls stay
		if i < known[0].idx || i > known[len(known)-1].idx {
			continue
		}
		lo, hi := known[k], known[k+1]
		t := float64(i-lo.idx) / float64(hi.idx-lo.idx)
		values[i] = table.Number(lo.val + t*(hi.val-lo.val))
		changed++
	}
	if err := f.SetColumn(column, values); err != nil {
		return nil, 0, err
	}
	return f, changed, nil
}

func missingCategory(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	label, err := p.String("label", "Missing")
	if err != nil {
		return nil, 0, err
	}
	if label == "" {
		return nil, 0, core.NewInvalidParametersError("label must not be empty")
	}
	return fillColumn(f, column, func(int) (table.Value, bool) {
		return table.String(label), true
	})
}

// knnImputation fills each gap with the mean of the target column over the
// k rows nearest in the other numeric columns. Distances are Euclidean over
// the features both rows have; rows sharing no feature are skipped.
func knnImputation(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	k, err := p.Int("k", 5)
	if err != nil {
		return nil, 0, err
	}
	if k < 1 {
		return nil, 0, core.NewInvalidParametersError("k must be at least 1")
	}

	features := numericFeatureColumns(f, column)
	target, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	if len(features) == 0 {
		// nothing to measure distance on, degrade to mean imputation
		return meanImputation(f, column, nil)
	}

	rows := f.RowCount()
	featureVals := make([][]table.Value, len(features))
	for i, name := range features {
		featureVals[i], _ = f.Column(name)
	}

	changed := 0
	for i := 0; i < rows; i++ {
		if !target[i].IsNull() {
			continue
		}
		var neighbors []neighbor
		for j := 0; j < rows; j++ {
			tv, ok := target[j].Float()
			if !ok {
				continue
			}
			dist, shared := rowDistance(featureVals, i, j)
			if shared == 0 {
				continue
			}
			neighbors = append(neighbors, neighbor{dist, tv})
		}
		if len(neighbors) == 0 {
			continue
		}
		sortNeighbors(neighbors)
		n := k
		if n > len(neighbors) {
			n = len(neighbors)
		}
		sum := 0.0
		for _, nb := range neighbors[:n] {
			sum += nb.val
		}
		target[i] = table.Number(sum / float64(n))
		changed++
	}
	if err := f.SetColumn(column, target); err != nil {
		return nil, 0, err
	}
	return f, changed, nil
}

func numericFeatureColumns(f *table.Frame, exclude string) []string {
	var out []string
	for _, name := range f.Columns() {
		if name == exclude {
			continue
		}
		values, _ := f.Column(name)
		if len(profiling.NumericValues(values)) > 0 {
			out = append(out, name)
		}
	}
	return out
}

func rowDistance(featureVals [][]table.Value, i, j int) (float64, int) {
	sum, shared := 0.0, 0
	for _, col := range featureVals {
		a, aok := col[i].Float()
		b, bok := col[j].Float()
		if !aok || !bok {
			continue
		}
		d := a - b
		sum += d * d
		shared++
	}
	return math.Sqrt(sum), shared
}

// neighbor pairs a candidate row's feature distance with its target value.
type neighbor struct {
	dist float64
	val  float64
}

func sortNeighbors(ns []neighbor) {
	for i := 1; i < len(ns); i++ {
		for j := i; j > 0 && ns[j].dist < ns[j-1].dist; j-- {
			ns[j], ns[j-1] = ns[j-1], ns[j]
		}
	}
}

// regressionImputation predicts gaps from the numeric column with the
// strongest absolute Pearson correlation to the target, falling back to the
// column mean for rows where that predictor is also missing.
func regressionImputation(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	target, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	nums := profiling.NumericValues(target)
	if len(nums) < 2 {
		return nil, 0, core.NewInvalidOperationError("regression_imputation", "column has too few numeric values to fit on")
	}
	mean, _ := stats.Mean(nums)

	predictor, xs, ys := bestPredictor(f, column, target)
	if predictor == "" {
		return fillColumn(f, column, func(int) (table.Value, bool) {
			return table.Number(mean), true
		})
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	predVals, _ := f.Column(predictor)

	return fillColumn(f, column, func(i int) (table.Value, bool) {
		if x, ok := predVals[i].Float(); ok {
			return table.Number(alpha + beta*x), true
		}
		return table.Number(mean), true
	})
}

func bestPredictor(f *table.Frame, column string, target []table.Value) (string, []float64, []float64) {
	bestName, bestAbs := "", 0.0
	var bestXs, bestYs []float64
	for _, name := range f.Columns() {
		if name == column {
			continue
		}
		values, _ := f.Column(name)
		var xs, ys []float64
		for i := range values {
			x, xok := values[i].Float()
			y, yok := target[i].Float()
			if xok && yok {
				xs = append(xs, x)
				ys = append(ys, y)
			}
		}
		if len(xs) < 3 {
			continue
		}
		r := stat.Correlation(xs, ys, nil)
		if math.IsNaN(r) {
			continue
		}
		if abs := math.Abs(r); abs > bestAbs {
			bestName, bestAbs = name, abs
			bestXs, bestYs = xs, ys
		}
	}
	return bestName, bestXs, bestYs
}
