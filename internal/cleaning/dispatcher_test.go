package cleaning

import (
	"context"
	"errors"
	"testing"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T, columns map[string][]table.Value, order ...string) *session.Session {
	t.Helper()
	st := session.NewStore(0)
	s := st.GetOrCreate(core.SessionID("test"))
	f := table.NewFrame()
	for _, name := range order {
		require.NoError(t, f.AddColumn(name, columns[name]))
	}
	require.NoError(t, s.Do(func() error { return s.Load(f) }))
	return s
}

func columnValues(t *testing.T, s *session.Session, name string) []table.Value {
	t.Helper()
	var values []table.Value
	require.NoError(t, s.Do(func() error {
		var err error
		values, err = s.Frame().Column(name)
		return err
	}))
	return values
}

func TestMeanImputation(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"age": {table.Number(1), table.Number(2), table.Null(), table.Number(4)},
	}, "age")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "missing_values", "mean_imputation", "age", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowsAffected)
	assert.Equal(t, 1, res.MissingBefore)
	assert.Equal(t, 0, res.MissingAfter)

	values := columnValues(t, s, "age")
	assert.Equal(t, table.Number(2.33), values[2])

	// the pre-image comes back byte for byte on undo
	require.NoError(t, s.Do(s.Undo))
	values = columnValues(t, s, "age")
	assert.True(t, values[2].IsNull())
	require.NoError(t, s.Do(s.Redo))
	values = columnValues(t, s, "age")
	assert.Equal(t, table.Number(2.33), values[2])
}

func TestDryRunNeverCommits(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"age": {table.Number(1), table.Number(2), table.Null(), table.Number(4)},
	}, "age")
	d := NewDispatcher(nil, nil)

	pv, err := d.DryRun(s, "missing_values", "median_imputation", "age", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pv.RowsAffected)
	assert.Equal(t, 1, pv.MissingBefore)
	assert.Equal(t, 0, pv.MissingAfter)
	require.Len(t, pv.Sample, 1)
	assert.Equal(t, 2, pv.Sample[0].RowIndex)
	assert.Equal(t, table.Number(2), pv.Sample[0].After)

	values := columnValues(t, s, "age")
	assert.True(t, values[2].IsNull())
	assert.False(t, s.History().CanUndo())
}

func TestDryRunSampleCapIsConfigurable(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"age": {table.Null(), table.Null(), table.Null(), table.Number(4)},
	}, "age")
	d := NewDispatcher(nil, nil)
	d.SampleRows = 2

	pv, err := d.DryRun(s, "missing_values", "mean_imputation", "age", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, pv.RowsAffected)
	assert.Len(t, pv.Sample, 2)
}

func TestUnknownMethodRejectedBeforeAnyChange(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"age": {table.Number(1), table.Null()},
	}, "age")
	d := NewDispatcher(nil, nil)

	_, err := d.Apply(context.Background(), s, "missing_values", "magic_fill", "age", nil)
	assert.True(t, errors.Is(err, core.ErrInvalidOperation))
	assert.False(t, s.History().CanUndo())

	_, err = d.Apply(context.Background(), s, "wizardry", "mean_imputation", "age", nil)
	assert.True(t, errors.Is(err, core.ErrInvalidOperation))
}

func TestMethodTypeApplicability(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"name": {table.String("ada"), table.Null(), table.String("grace")},
	}, "name")
	d := NewDispatcher(nil, nil)

	_, err := d.Apply(context.Background(), s, "missing_values", "mean_imputation", "name", nil)
	assert.True(t, errors.Is(err, core.ErrInvalidOperation))

	res, err := d.Apply(context.Background(), s, "missing_values", "mode_imputation", "name", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
}

func TestMissingColumnRejected(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"age": {table.Number(1), table.Number(2)},
	}, "age")
	d := NewDispatcher(nil, nil)

	_, err := d.Apply(context.Background(), s, "missing_values", "mean_imputation", "ghost", nil)
	assert.True(t, core.IsNotFoundError(err))
}

func TestIQRRemovalKeepsColumnsAligned(t *testing.T) {
	vals := make([]table.Value, 0, 21)
	labels := make([]table.Value, 0, 21)
	for i := 1; i <= 20; i++ {
		vals = append(vals, table.Number(float64(i)))
		labels = append(labels, table.String("ok"))
	}
	vals = append(vals, table.Number(500))
	labels = append(labels, table.String("outlier"))

	s := newFixture(t, map[string][]table.Value{"v": vals, "label": labels}, "v", "label")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "outliers", "iqr_removal", "v", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
	assert.Equal(t, 21, res.RowsBefore)
	assert.Equal(t, 20, res.RowsAfter)

	require.NoError(t, s.Do(func() error { return s.Frame().Validate() }))
	labelsAfter := columnValues(t, s, "label")
	assert.Len(t, labelsAfter, 20)

	require.NoError(t, s.Do(s.Undo))
	assert.Equal(t, 21, columnLen(t, s, "v"))
}

func columnLen(t *testing.T, s *session.Session, name string) int {
	t.Helper()
	return len(columnValues(t, s, name))
}

func TestRemoveDuplicatesKeepFirst(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"email": {table.String("a@x"), table.String("b@x"), table.String("a@x")},
		"n":     {table.Number(1), table.Number(2), table.Number(3)},
	}, "email", "n")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "data_quality", "remove_duplicates", "", Params{
		"columns": []string{"email"},
		"keep":    "first",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
	assert.Equal(t, 2, res.RowsAfter)

	ns := columnValues(t, s, "n")
	assert.Equal(t, table.Number(1), ns[0])
	assert.Equal(t, table.Number(2), ns[1])
}

func TestCapOutliersRequiresBounds(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"v": {table.Number(1), table.Number(30), table.Number(100)},
	}, "v")
	d := NewDispatcher(nil, nil)

	_, err := d.Apply(context.Background(), s, "outliers", "cap_outliers", "v", nil)
	assert.True(t, core.IsValidationError(err))

	res, err := d.Apply(context.Background(), s, "outliers", "cap_outliers", "v", Params{
		"lower_bound": 0.0, "upper_bound": 50.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
	assert.Equal(t, table.Number(50), columnValues(t, s, "v")[2])
}

func TestTrimWhitespace(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"city": {table.String("  Oslo "), table.String("Bergen"), table.String("   ")},
	}, "city")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "data_quality", "trim_whitespace", "city", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAffected)

	values := columnValues(t, s, "city")
	assert.Equal(t, table.String("Oslo"), values[0])
	assert.True(t, values[2].IsNull())
}

func TestForwardAndBackwardFill(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"v": {table.Null(), table.Number(5), table.Null(), table.Number(7), table.Null()},
	}, "v")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "missing_values", "forward_fill", "v", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowsAffected)
	values := columnValues(t, s, "v")
	assert.True(t, values[0].IsNull())
	assert.Equal(t, table.Number(5), values[2])
	assert.Equal(t, table.Number(7), values[4])

	res, err = d.Apply(context.Background(), s, "missing_values", "backward_fill", "v", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
	assert.Equal(t, table.Number(5), columnValues(t, s, "v")[0])
}

func TestInterpolationFillsInteriorOnly(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"v": {table.Null(), table.Number(10), table.Null(), table.Number(20), table.Number(30), table.Null()},
	}, "v")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "missing_values", "interpolation", "v", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)

	values := columnValues(t, s, "v")
	assert.True(t, values[0].IsNull())
	assert.Equal(t, table.Number(15), values[2])
	assert.True(t, values[5].IsNull())
}

func TestKNNImputationUsesNearestRows(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"x": {table.Number(1), table.Number(2), table.Number(3), table.Number(10), table.Number(11), table.Number(12)},
		"y": {table.Number(10), table.Number(20), table.Null(), table.Number(50), table.Number(60), table.Number(70)},
	}, "x", "y")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "missing_values", "knn_imputation", "y", Params{"k": 2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)

	// the two nearest rows on x are x=2 (y=20) and x=1 (y=10)
	values := columnValues(t, s, "y")
	assert.Equal(t, table.Number(15), values[2])
}

func TestFixAnomaliesNullifyAndReplace(t *testing.T) {
	s := newFixture(t, map[string][]table.Value{
		"age": {table.Number(25), table.String("abc"), table.Number(40)},
	}, "age")
	d := NewDispatcher(nil, nil)

	res, err := d.FixAnomalies(context.Background(), s, "age", FixNullify, []int{1}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
	assert.True(t, columnValues(t, s, "age")[1].IsNull())

	res, err = d.FixAnomalies(context.Background(), s, "age", FixReplace, []int{1}, "30")
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowsAffected)
	assert.Equal(t, table.Number(30), columnValues(t, s, "age")[1])

	_, err = d.FixAnomalies(context.Background(), s, "age", "shred", []int{1}, "")
	assert.True(t, core.IsValidationError(err))
	_, err = d.FixAnomalies(context.Background(), s, "age", FixNullify, []int{99}, "")
	assert.True(t, core.IsValidationError(err))
}

func TestWinsorizationClampsTails(t *testing.T) {
	vals := make([]table.Value, 0, 10)
	for _, n := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 1000} {
		vals = append(vals, table.Number(n))
	}
	s := newFixture(t, map[string][]table.Value{"v": vals}, "v")
	d := NewDispatcher(nil, nil)

	res, err := d.Apply(context.Background(), s, "outliers", "winsorization", "v", Params{
		"lower_percentile": 10.0, "upper_percentile": 90.0,
	})
	require.NoError(t, err)
	assert.Greater(t, res.RowsAffected, 0)

	clamped, ok := columnValues(t, s, "v")[9].Float()
	require.True(t, ok)
	assert.Less(t, clamped, 1000.0)
}

func TestCatalogListing(t *testing.T) {
	d := NewDispatcher(nil, nil)
	listing := d.Methods()

	require.Contains(t, listing, "missing_values")
	require.Contains(t, listing, "outliers")
	require.Contains(t, listing, "data_quality")
	assert.Len(t, listing["missing_values"], 9)
	assert.Len(t, listing["outliers"], 6)
	assert.Len(t, listing["data_quality"], 4)

	var names []string
	for _, m := range listing["missing_values"] {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "mean_imputation")
	assert.Contains(t, names, "knn_imputation")
}
