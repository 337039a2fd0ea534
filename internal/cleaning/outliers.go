package cleaning

import (
	"math"

	"github.com/montanaflynn/stats"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/profiling"
)

// keepRowsWhere drops the rows where drop returns true. Null cells never
// count as outliers, rows with gaps always survive a removal pass.
func keepRowsWhere(f *table.Frame, column string, drop func(float64) bool) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	keep := make([]int, 0, len(values))
	for i, v := range values {
		n, ok := v.Float()
		if ok && drop(n) {
			continue
		}
		keep = append(keep, i)
	}
	removed := len(values) - len(keep)
	if removed == 0 {
		return f, 0, nil
	}
	nf, err := f.SelectRows(keep)
	if err != nil {
		return nil, 0, err
	}
	return nf, removed, nil
}

func iqrRemoval(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	factor, err := p.Float("factor", 1.5)
	if err != nil {
		return nil, 0, err
	}
	if factor <= 0 {
		return nil, 0, core.NewInvalidParametersError("factor must be positive")
	}
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	nums := profiling.NumericValues(values)
	if len(nums) < 4 {
		return nil, 0, core.NewInvalidOperationError("iqr_removal", "too few numeric values to compute quartiles")
	}
	q, qerr := stats.Quartile(nums)
	if qerr != nil {
		return nil, 0, core.NewInvalidOperationError("iqr_removal", qerr.Error())
	}
	iqr := q.Q3 - q.Q1
	lo, hi := q.Q1-factor*iqr, q.Q3+factor*iqr
	return keepRowsWhere(f, column, func(n float64) bool {
		return n < lo || n > hi
	})
}

func zscoreRemoval(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	threshold, err := p.Float("threshold", 3)
	if err != nil {
		return nil, 0, err
	}
	if threshold <= 0 {
		return nil, 0, core.NewInvalidParametersError("threshold must be positive")
	}
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	nums := profiling.NumericValues(values)
	if len(nums) < 2 {
		return nil, 0, core.NewInvalidOperationError("zscore_removal", "too few numeric values to compute a z-score")
	}
	mean, _ := stats.Mean(nums)
	sd, _ := stats.StandardDeviationSample(nums)
	if sd == 0 {
		return f, 0, nil
	}
	return keepRowsWhere(f, column, func(n float64) bool {
		return math.Abs((n-mean)/sd) > threshold
	})
}

func winsorization(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	lower, err := p.Float("lower_percentile", 5)
	if err != nil {
		return nil, 0, err
	}
	upper, err := p.Float("upper_percentile", 95)
	if err != nil {
		return nil, 0, err
	}
	if lower < 0 || upper > 100 || lower >= upper {
		return nil, 0, core.NewInvalidParametersError("percentiles must satisfy 0 <= lower < upper <= 100")
	}
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	nums := profiling.NumericValues(values)
	if len(nums) == 0 {
		return nil, 0, core.NewInvalidOperationError("winsorization", "column has no numeric values")
	}
	lo, _ := stats.Percentile(nums, lower)
	hi, _ := stats.Percentile(nums, upper)
	return clampColumn(f, column, lo, hi)
}

func capOutliers(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	lo, err := p.RequiredFloat("lower_bound")
	if err != nil {
		return nil, 0, err
	}
	hi, err := p.RequiredFloat("upper_bound")
	if err != nil {
		return nil, 0, err
	}
	if lo > hi {
		return nil, 0, core.NewInvalidParametersError("lower_bound must not exceed upper_bound")
	}
	return clampColumn(f, column, lo, hi)
}

func clampColumn(f *table.Frame, column string, lo, hi float64) (*table.Frame, int, error) {
	return fillColumnScan(f, column, func(v table.Value) (table.Value, bool) {
		n, ok := v.Float()
		if !ok {
			return v, false
		}
		switch {
		case n < lo:
			return table.Number(lo), true
		case n > hi:
			return table.Number(hi), true
		default:
			return v, false
		}
	})
}

func logTransformation(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, 0, err
	}
	for _, v := range values {
		if n, ok := v.Float(); ok && n < 0 {
			return nil, 0, core.NewInvalidOperationError("log_transformation", "column contains negative values")
		}
	}
	return fillColumnScan(f, column, func(v table.Value) (table.Value, bool) {
		n, ok := v.Float()
		if !ok {
			return v, false
		}
		return table.Number(math.Log1p(n)), true
	})
}
