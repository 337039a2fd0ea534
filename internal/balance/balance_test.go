package balance

import (
	"testing"

	"goclean/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imbalancedFrame(t *testing.T) *table.Frame {
	t.Helper()
	f := table.NewFrame()
	var feat1, feat2, target []table.Value
	for i := 0; i < 9; i++ {
		feat1 = append(feat1, table.Number(float64(i)))
		feat2 = append(feat2, table.Number(float64(i*2)))
		target = append(target, table.String("big"))
	}
	for i := 0; i < 3; i++ {
		feat1 = append(feat1, table.Number(float64(100+i)))
		feat2 = append(feat2, table.Number(float64(200+i)))
		target = append(target, table.String("small"))
	}
	require.NoError(t, f.AddColumn("x", feat1))
	require.NoError(t, f.AddColumn("y", feat2))
	require.NoError(t, f.AddColumn("class", target))
	return f
}

func TestDistribution(t *testing.T) {
	f := imbalancedFrame(t)
	dist, err := Distribution(f, "class")
	require.NoError(t, err)
	require.Len(t, dist, 2)
	assert.Equal(t, ClassCount{Class: "big", Count: 9}, dist[0])
	assert.Equal(t, ClassCount{Class: "small", Count: 3}, dist[1])
}

func TestValidate(t *testing.T) {
	f := imbalancedFrame(t)
	assert.NoError(t, Validate(f, "class"))

	_, err := Distribution(f, "ghost")
	assert.Error(t, err)

	small := table.NewFrame()
	require.NoError(t, small.AddColumn("class", []table.Value{table.String("a"), table.String("b")}))
	assert.Error(t, Validate(small, "class"))

	oneClass := table.NewFrame()
	vals := make([]table.Value, 12)
	for i := range vals {
		vals[i] = table.String("a")
	}
	require.NoError(t, oneClass.AddColumn("class", vals))
	assert.Error(t, Validate(oneClass, "class"))
}

func TestValidateRejectsMissingTarget(t *testing.T) {
	f := table.NewFrame()
	vals := make([]table.Value, 12)
	for i := range vals {
		vals[i] = table.String("a")
	}
	vals[3] = table.Null()
	vals[7] = table.String("b")
	require.NoError(t, f.AddColumn("class", vals))
	assert.Error(t, Validate(f, "class"))
}

func TestRandomOversampling(t *testing.T) {
	f := imbalancedFrame(t)
	nf, added, err := Apply(f, "class", "random_oversampling", 1)
	require.NoError(t, err)
	assert.Equal(t, 6, added)
	assert.Equal(t, 18, nf.RowCount())
	require.NoError(t, nf.Validate())

	dist, err := Distribution(nf, "class")
	require.NoError(t, err)
	assert.Equal(t, dist[0].Count, dist[1].Count)

	// the input frame is untouched
	assert.Equal(t, 12, f.RowCount())
}

func TestRandomUndersampling(t *testing.T) {
	f := imbalancedFrame(t)
	nf, removed, err := Apply(f, "class", "random_undersampling", 1)
	require.NoError(t, err)
	assert.Equal(t, 6, removed)
	assert.Equal(t, 6, nf.RowCount())

	dist, err := Distribution(nf, "class")
	require.NoError(t, err)
	assert.Equal(t, 3, dist[0].Count)
	assert.Equal(t, 3, dist[1].Count)
}

func TestSMOTE(t *testing.T) {
	f := imbalancedFrame(t)
	nf, added, err := Apply(f, "class", "smote", 1)
	require.NoError(t, err)
	assert.Equal(t, 6, added)
	assert.Equal(t, 18, nf.RowCount())
	require.NoError(t, nf.Validate())

	// synthetic rows stay inside the minority's feature range
	xs, err := nf.Column("x")
	require.NoError(t, err)
	classes, err := nf.Column("class")
	require.NoError(t, err)
	for i := 12; i < 18; i++ {
		assert.Equal(t, "small", classes[i].DisplayString())
		n, ok := xs[i].Float()
		require.True(t, ok)
		assert.GreaterOrEqual(t, n, 100.0)
		assert.LessOrEqual(t, n, 102.0)
	}
}

func TestUnknownMethod(t *testing.T) {
	f := imbalancedFrame(t)
	_, _, err := Apply(f, "class", "coin_flip", 1)
	assert.Error(t, err)
}
