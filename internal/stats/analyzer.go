// Package stats runs hypothesis tests over session data. Tests read the
// frame, never mutate it, and report a statistic, p-value and plain-text
// interpretation at the analyzer's significance level.
package stats

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/profiling"
)

const DefaultAlpha = 0.05

// Result is the outcome of one hypothesis test.
type Result struct {
	Test           string  `json:"test"`
	Statistic      float64 `json:"statistic"`
	PValue         float64 `json:"p_value"`
	DegreesFreedom float64 `json:"degrees_of_freedom,omitempty"`
	Alpha          float64 `json:"alpha"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
	SampleSizes    []int   `json:"sample_sizes,omitempty"`
}

// Analyzer runs tests at a fixed significance level.
type Analyzer struct {
	Alpha float64
}

func NewAnalyzer(alpha float64) *Analyzer {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &Analyzer{Alpha: alpha}
}

func (a *Analyzer) finish(test string, statistic, p, df float64, sizes ...int) *Result {
	sig := p < a.Alpha
	verdict := "no significant effect at this level"
	if sig {
		verdict = "significant at this level"
	}
	return &Result{
		Test:           test,
		Statistic:      round4(statistic),
		PValue:         round4(p),
		DegreesFreedom: round4(df),
		Alpha:          a.Alpha,
		Significant:    sig,
		Interpretation: fmt.Sprintf("p = %.4f: %s", p, verdict),
		SampleSizes:    sizes,
	}
}

func round4(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Round(f*10000) / 10000
}

// OneSampleTTest compares the sample mean against mu.
func (a *Analyzer) OneSampleTTest(sample []float64, mu float64) (*Result, error) {
	n := len(sample)
	if n < 2 {
		return nil, core.NewInvalidOperationError("one_sample_ttest", "need at least two values")
	}
	mean, _ := mstats.Mean(sample)
	sd, _ := mstats.StandardDeviationSample(sample)
	if sd == 0 {
		return nil, core.NewInvalidOperationError("one_sample_ttest", "sample has zero variance")
	}
	t := (mean - mu) / (sd / math.Sqrt(float64(n)))
	df := float64(n - 1)
	p := twoSidedT(t, df)
	return a.finish("one_sample_ttest", t, p, df, n), nil
}

// WelchTTest compares two independent means without assuming equal variance.
func (a *Analyzer) WelchTTest(x, y []float64) (*Result, error) {
	if len(x) < 2 || len(y) < 2 {
		return nil, core.NewInvalidOperationError("welch_ttest", "each group needs at least two values")
	}
	mx, _ := mstats.Mean(x)
	my, _ := mstats.Mean(y)
	vx, _ := mstats.SampleVariance(x)
	vy, _ := mstats.SampleVariance(y)
	nx, ny := float64(len(x)), float64(len(y))
	se2 := vx/nx + vy/ny
	if se2 == 0 {
		return nil, core.NewInvalidOperationError("welch_ttest", "both groups have zero variance")
	}
	t := (mx - my) / math.Sqrt(se2)
	df := se2 * se2 / (vx*vx/(nx*nx*(nx-1)) + vy*vy/(ny*ny*(ny-1)))
	p := twoSidedT(t, df)
	return a.finish("welch_ttest", t, p, df, len(x), len(y)), nil
}

// MannWhitney is the rank-sum test with normal approximation and tie
// correction. Suited to skewed data where the t-test assumptions fail.
func (a *Analyzer) MannWhitney(x, y []float64) (*Result, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, core.NewInvalidOperationError("mann_whitney", "both groups need values")
	}
	nx, ny := float64(len(x)), float64(len(y))
	ranks, tieTerm := rankAll(x, y)
	rx := 0.0
	for i := range x {
		rx += ranks[i]
	}
	u := rx - nx*(nx+1)/2
	mean := nx * ny / 2
	n := nx + ny
	variance := nx * ny / 12 * (n + 1 - tieTerm/(n*(n-1)))
	if variance == 0 {
		return nil, core.NewInvalidOperationError("mann_whitney", "all values tie")
	}
	z := (u - mean) / math.Sqrt(variance)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * norm.CDF(-math.Abs(z))
	return a.finish("mann_whitney", u, p, 0, len(x), len(y)), nil
}

// PearsonCorrelation tests the linear association between two columns.
func (a *Analyzer) PearsonCorrelation(x, y []float64) (*Result, error) {
	if len(x) != len(y) || len(x) < 3 {
		return nil, core.NewInvalidOperationError("pearson_correlation", "need at least three paired values")
	}
	r, err := mstats.Pearson(x, y)
	if err != nil {
		return nil, core.NewInvalidOperationError("pearson_correlation", err.Error())
	}
	return a.correlationResult("pearson_correlation", r, len(x))
}

// SpearmanCorrelation is Pearson over ranks, robust to monotone
// nonlinearity.
func (a *Analyzer) SpearmanCorrelation(x, y []float64) (*Result, error) {
	if len(x) != len(y) || len(x) < 3 {
		return nil, core.NewInvalidOperationError("spearman_correlation", "need at least three paired values")
	}
	rx := rankVector(x)
	ry := rankVector(y)
	r, err := mstats.Pearson(rx, ry)
	if err != nil {
		return nil, core.NewInvalidOperationError("spearman_correlation", err.Error())
	}
	return a.correlationResult("spearman_correlation", r, len(x))
}

func (a *Analyzer) correlationResult(test string, r float64, n int) (*Result, error) {
	df := float64(n - 2)
	var p float64
	if math.Abs(r) >= 1 {
		p = 0
	} else {
		t := r * math.Sqrt(df/(1-r*r))
		p = twoSidedT(t, df)
	}
	return a.finish(test, r, p, df, n), nil
}

// ChiSquare tests independence of two categorical columns.
func (a *Analyzer) ChiSquare(x, y []string) (*Result, error) {
	obs, rows, cols := contingency(x, y)
	if rows < 2 || cols < 2 {
		return nil, core.NewInvalidOperationError("chi_square", "need at least a 2x2 table")
	}
	total := 0.0
	rowSum := make([]float64, rows)
	colSum := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			rowSum[i] += obs[i][j]
			colSum[j] += obs[i][j]
			total += obs[i][j]
		}
	}
	chi := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			expected := rowSum[i] * colSum[j] / total
			if expected == 0 {
				continue
			}
			d := obs[i][j] - expected
			chi += d * d / expected
		}
	}
	df := float64((rows - 1) * (cols - 1))
	dist := distuv.ChiSquared{K: df}
	p := 1 - dist.CDF(chi)
	return a.finish("chi_square", chi, p, df, len(x)), nil
}

// FisherExact tests a 2x2 table exactly, for the small counts where the
// chi-square approximation breaks down.
func (a *Analyzer) FisherExact(x, y []string) (*Result, error) {
	obs, rows, cols := contingency(x, y)
	if rows != 2 || cols != 2 {
		return nil, core.NewInvalidOperationError("fisher_exact", "needs exactly two categories per column")
	}
	aa, bb := obs[0][0], obs[0][1]
	cc, dd := obs[1][0], obs[1][1]
	p := fisherTwoSided(int(aa), int(bb), int(cc), int(dd))
	or := oddsRatio(aa, bb, cc, dd)
	return a.finish("fisher_exact", or, p, 0, len(x)), nil
}

// OneWayANOVA compares the means of three or more groups.
func (a *Analyzer) OneWayANOVA(groups [][]float64) (*Result, error) {
	if len(groups) < 2 {
		return nil, core.NewInvalidOperationError("one_way_anova", "need at least two groups")
	}
	var all []float64
	sizes := make([]int, len(groups))
	for i, g := range groups {
		if len(g) < 2 {
			return nil, core.NewInvalidOperationError("one_way_anova", "each group needs at least two values")
		}
		sizes[i] = len(g)
		all = append(all, g...)
	}
	grand, _ := mstats.Mean(all)
	ssBetween, ssWithin := 0.0, 0.0
	for _, g := range groups {
		m, _ := mstats.Mean(g)
		ssBetween += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssWithin += (v - m) * (v - m)
		}
	}
	dfb := float64(len(groups) - 1)
	dfw := float64(len(all) - len(groups))
	if ssWithin == 0 || dfw <= 0 {
		return nil, core.NewInvalidOperationError("one_way_anova", "no within-group variance")
	}
	f := (ssBetween / dfb) / (ssWithin / dfw)
	dist := distuv.F{D1: dfb, D2: dfw}
	p := 1 - dist.CDF(f)
	return a.finish("one_way_anova", f, p, dfb, sizes...), nil
}

// KruskalWallis is the rank-based counterpart of ANOVA.
func (a *Analyzer) KruskalWallis(groups [][]float64) (*Result, error) {
	if len(groups) < 2 {
		return nil, core.NewInvalidOperationError("kruskal_wallis", "need at least two groups")
	}
	var all []float64
	sizes := make([]int, len(groups))
	for i, g := range groups {
		if len(g) == 0 {
			return nil, core.NewInvalidOperationError("kruskal_wallis", "empty group")
		}
		sizes[i] = len(g)
		all = append(all, g...)
	}
	n := float64(len(all))
	ranks, tieTerm := rankAll(all)
	h := 0.0
	offset := 0
	for _, g := range groups {
		sum := 0.0
		for i := range g {
			sum += ranks[offset+i]
		}
		h += sum * sum / float64(len(g))
		offset += len(g)
	}
	h = 12/(n*(n+1))*h - 3*(n+1)
	// tie correction
	if c := 1 - tieTerm/(n*n*n-n); c > 0 {
		h /= c
	}
	df := float64(len(groups) - 1)
	dist := distuv.ChiSquared{K: df}
	p := 1 - dist.CDF(h)
	return a.finish("kruskal_wallis", h, p, df, sizes...), nil
}

func twoSidedT(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}

// rankAll assigns midranks to the concatenation of the given samples and
// returns the tie term sum(t^3 - t) for variance corrections.
func rankAll(samples ...[]float64) ([]float64, float64) {
	var all []float64
	for _, s := range samples {
		all = append(all, s...)
	}
	type indexed struct {
		val float64
		pos int
	}
	idx := make([]indexed, len(all))
	for i, v := range all {
		idx[i] = indexed{v, i}
	}
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && idx[j].val < idx[j-1].val; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	ranks := make([]float64, len(all))
	tieTerm := 0.0
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && idx[j].val == idx[i].val {
			j++
		}
		mid := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k].pos] = mid
		}
		if t := float64(j - i); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}
	return ranks, tieTerm
}

func rankVector(xs []float64) []float64 {
	ranks, _ := rankAll(xs)
	return ranks
}

func contingency(x, y []string) ([][]float64, int, int) {
	rowIdx := map[string]int{}
	colIdx := map[string]int{}
	for _, v := range x {
		if _, ok := rowIdx[v]; !ok {
			rowIdx[v] = len(rowIdx)
		}
	}
	for _, v := range y {
		if _, ok := colIdx[v]; !ok {
			colIdx[v] = len(colIdx)
		}
	}
	obs := make([][]float64, len(rowIdx))
	for i := range obs {
		obs[i] = make([]float64, len(colIdx))
	}
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		obs[rowIdx[x[i]]][colIdx[y[i]]]++
	}
	return obs, len(rowIdx), len(colIdx)
}

// fisherTwoSided sums the probabilities of all tables at least as extreme
// as the observed one, holding the margins fixed.
func fisherTwoSided(a, b, c, d int) float64 {
	r1, r2 := a+b, c+d
	c1 := a + c
	observed := hypergeomProb(a, r1, r2, c1)
	p := 0.0
	lo := c1 - r2
	if lo < 0 {
		lo = 0
	}
	hi := c1
	if hi > r1 {
		hi = r1
	}
	const eps = 1e-9
	for k := lo; k <= hi; k++ {
		if pk := hypergeomProb(k, r1, r2, c1); pk <= observed+eps {
			p += pk
		}
	}
	if p > 1 {
		p = 1
	}
	return p
}

func hypergeomProb(a, r1, r2, c1 int) float64 {
	return math.Exp(logChoose(r1, a) + logChoose(r2, c1-a) - logChoose(r1+r2, c1))
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	lg := func(x int) float64 {
		v, _ := math.Lgamma(float64(x + 1))
		return v
	}
	return lg(n) - lg(k) - lg(n-k)
}

func oddsRatio(a, b, c, d float64) float64 {
	if b == 0 || c == 0 {
		return math.Inf(1)
	}
	return (a * d) / (b * c)
}

// ColumnValues pulls the non-missing numeric values of a column, failing
// when too few cells are usable.
func ColumnValues(f *table.Frame, column string) ([]float64, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	return profiling.NumericValues(values), nil
}

// GroupedValues splits a numeric column by the classes of a grouping column.
func GroupedValues(f *table.Frame, valueCol, groupCol string) (map[string][]float64, error) {
	values, err := f.Column(valueCol)
	if err != nil {
		return nil, err
	}
	groups, err := f.Column(groupCol)
	if err != nil {
		return nil, err
	}
	out := map[string][]float64{}
	for i := range values {
		n, ok := values[i].Float()
		if !ok || groups[i].IsNull() {
			continue
		}
		key := groups[i].DisplayString()
		out[key] = append(out[key], n)
	}
	return out, nil
}

// PairedValues pulls the rows where both columns hold numbers.
func PairedValues(f *table.Frame, xCol, yCol string) ([]float64, []float64, error) {
	xv, err := f.Column(xCol)
	if err != nil {
		return nil, nil, err
	}
	yv, err := f.Column(yCol)
	if err != nil {
		return nil, nil, err
	}
	var xs, ys []float64
	for i := range xv {
		x, xok := xv[i].Float()
		y, yok := yv[i].Float()
		if xok && yok {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys, nil
}

// CategoricalValues pulls the non-missing display strings of a column.
func CategoricalValues(f *table.Frame, column string) ([]string, error) {
	values, err := f.Column(column)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, v := range values {
		if !v.IsNull() {
			out = append(out, v.DisplayString())
		}
	}
	return out, nil
}
