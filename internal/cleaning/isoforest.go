package cleaning

import (
	"math"
	"math/rand"

	"goclean/domain/core"
	"goclean/domain/table"
)

const (
	isoTreeCount  = 100
	isoSampleSize = 256
)

// isolationForestRemoval drops the rows an isolation forest over the numeric
// columns scores as most anomalous. Rows missing any numeric feature are
// never scored and never dropped. The seed parameter makes runs repeatable.
func isolationForestRemoval(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	contamination, err := p.Float("contamination", 0.1)
	if err != nil {
		return nil, 0, err
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, 0, core.NewInvalidParametersError("contamination must be in (0, 0.5)")
	}
	seed, err := p.Int("seed", 42)
	if err != nil {
		return nil, 0, err
	}

	features := append([]string{column}, numericFeatureColumns(f, column)...)
	matrix, rowIdx := numericMatrix(f, features)
	if len(matrix) < 8 {
		return nil, 0, core.NewInvalidOperationError("isolation_forest", "too few complete numeric rows to fit a forest")
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	sample := len(matrix)
	if sample > isoSampleSize {
		sample = isoSampleSize
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))

	trees := make([]*isoNode, isoTreeCount)
	for t := range trees {
		sub := sampleRows(matrix, sample, rng)
		trees[t] = buildIsoTree(sub, 0, maxDepth, rng)
	}

	scores := make([]float64, len(matrix))
	c := avgPathLength(float64(sample))
	for i, row := range matrix {
		sum := 0.0
		for _, tree := range trees {
			sum += tree.pathLength(row, 0)
		}
		mean := sum / float64(len(trees))
		scores[i] = math.Pow(2, -mean/c)
	}

	dropCount := int(float64(len(matrix)) * contamination)
	if dropCount == 0 {
		return f, 0, nil
	}
	threshold := nthLargest(scores, dropCount)

	dropped := map[int]bool{}
	for i, s := range scores {
		if s >= threshold && len(dropped) < dropCount {
			dropped[rowIdx[i]] = true
		}
	}
	keep := make([]int, 0, f.RowCount())
	for i := 0; i < f.RowCount(); i++ {
		if !dropped[i] {
			keep = append(keep, i)
		}
	}
	nf, err := f.SelectRows(keep)
	if err != nil {
		return nil, 0, err
	}
	return nf, len(dropped), nil
}

// numericMatrix extracts the rows complete in every listed column, keeping
// the original row index of each extracted row.
func numericMatrix(f *table.Frame, columns []string) ([][]float64, []int) {
	cols := make([][]table.Value, len(columns))
	for i, name := range columns {
		cols[i], _ = f.Column(name)
	}
	var matrix [][]float64
	var rowIdx []int
	for r := 0; r < f.RowCount(); r++ {
		row := make([]float64, len(cols))
		ok := true
		for c := range cols {
			n, valid := cols[c][r].Float()
			if !valid {
				ok = false
				break
			}
			row[c] = n
		}
		if ok {
			matrix = append(matrix, row)
			rowIdx = append(rowIdx, r)
		}
	}
	return matrix, rowIdx
}

type isoNode struct {
	left, right *isoNode
	splitCol    int
	splitVal    float64
	size        int
}

func buildIsoTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if len(rows) <= 1 || depth >= maxDepth {
		return &isoNode{size: len(rows)}
	}
	col := rng.Intn(len(rows[0]))
	lo, hi := rows[0][col], rows[0][col]
	for _, r := range rows[1:] {
		if r[col] < lo {
			lo = r[col]
		}
		if r[col] > hi {
			hi = r[col]
		}
	}
	if lo == hi {
		return &isoNode{size: len(rows)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, r := range rows {
		if r[col] < split {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return &isoNode{
		left:     buildIsoTree(left, depth+1, maxDepth, rng),
		right:    buildIsoTree(right, depth+1, maxDepth, rng),
		splitCol: col,
		splitVal: split,
	}
}

func (n *isoNode) pathLength(row []float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + avgPathLength(float64(n.size))
	}
	if row[n.splitCol] < n.splitVal {
		return n.left.pathLength(row, depth+1)
	}
	return n.right.pathLength(row, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful BST search,
// the standard normalizer for isolation forest scores.
func avgPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}

func sampleRows(rows [][]float64, n int, rng *rand.Rand) [][]float64 {
	if n >= len(rows) {
		return rows
	}
	perm := rng.Perm(len(rows))
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = rows[perm[i]]
	}
	return out
}

func nthLargest(scores []float64, n int) float64 {
	sorted := append([]float64(nil), scores...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] > sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[n-1]
}
