package profiling

import (
	"sync"

	"goclean/domain/table"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// NumericSummary holds descriptive statistics for a numeric column
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// ColumnProfile is the full analysis of one column
type ColumnProfile struct {
	Meta              ColumnMeta       `json:"meta"`
	NonNullCount      int              `json:"non_null_count"`
	MissingPercentage float64          `json:"missing_percentage"`
	Numeric           *NumericSummary  `json:"numeric,omitempty"`
	TopValues         []ValueFrequency `json:"top_values,omitempty"`
}

// ValueFrequency pairs a distinct value with its occurrence count
type ValueFrequency struct {
	Value table.Value `json:"value"`
	Count int         `json:"count"`
}

const topValueCount = 5

// ProfileColumn computes the full profile for one column
func ProfileColumn(f *table.Frame, r *Registry, column string) (*ColumnProfile, error) {
	meta, err := r.Get(column)
	if err != nil {
		return nil, err
	}
	values, err := f.Column(column)
	if err != nil {
		return nil, err
	}

	profile := &ColumnProfile{
		Meta:         *meta,
		NonNullCount: len(values) - meta.MissingCount,
	}
	if len(values) > 0 {
		profile.MissingPercentage = float64(meta.MissingCount) / float64(len(values)) * 100
	}

	if nums := NumericValues(values); len(nums) > 0 && meta.AssignedType.IsNumeric() {
		profile.Numeric = summarize(nums)
	}
	profile.TopValues = topValues(values, topValueCount)
	return profile, nil
}

// ProfileAll analyzes every column concurrently
func ProfileAll(f *table.Frame, r *Registry) (map[string]*ColumnProfile, error) {
	var mu sync.Mutex
	results := make(map[string]*ColumnProfile, f.ColumnCount())

	var g errgroup.Group
	for _, column := range f.Columns() {
		g.Go(func() error {
			profile, err := ProfileColumn(f, r, column)
			if err != nil {
				return err
			}
			mu.Lock()
			results[column] = profile
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func summarize(nums []float64) *NumericSummary {
	mean, _ := stats.Mean(nums)
	median, _ := stats.Median(nums)
	stdDev, _ := stats.StandardDeviation(nums)
	min, _ := stats.Min(nums)
	max, _ := stats.Max(nums)
	q25, _ := stats.Percentile(nums, 25)
	q75, _ := stats.Percentile(nums, 75)
	return &NumericSummary{
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Q25:    q25,
		Q75:    q75,
	}
}

// NumericValues extracts the float interpretation of all numeric cells
func NumericValues(values []table.Value) []float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if f, ok := v.Float(); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

func topValues(values []table.Value, n int) []ValueFrequency {
	counts := make(map[string]int)
	rep := make(map[string]table.Value)
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		key := v.DisplayString()
		counts[key]++
		if _, ok := rep[key]; !ok {
			rep[key] = v
		}
	}

	out := make([]ValueFrequency, 0, len(counts))
	for key, count := range counts {
		out = append(out, ValueFrequency{Value: rep[key], Count: count})
	}
	// Selection by repeated max keeps this simple for small n
	for i := 0; i < len(out); i++ {
		best := i
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[best].Count {
				best = j
			}
		}
		out[i], out[best] = out[best], out[i]
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
