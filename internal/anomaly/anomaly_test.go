package anomaly

import (
	"testing"

	"goclean/domain/table"
	"goclean/internal/profiling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(t *testing.T, columns map[string][]table.Value, order ...string) (*table.Frame, *profiling.Registry) {
	t.Helper()
	f := table.NewFrame()
	for _, name := range order {
		require.NoError(t, f.AddColumn(name, columns[name]))
	}
	return f, profiling.DetectAll(f)
}

func TestScanNumericColumnFlagsNonNumeric(t *testing.T) {
	f, r := frameOf(t, map[string][]table.Value{
		"age": {table.Number(25), table.String("abc"), table.Number(40), table.Null()},
	}, "age")
	require.Empty(t, r.SetAssignedTypes(map[string]string{"age": "continuous"}).Rejected)

	rep, err := ScanColumn(f, r, "age")
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, 1, rep.Findings[0].RowIndex)
	assert.Equal(t, "not numeric", rep.Findings[0].Reason)
}

func TestScanIntegerFlagsFractions(t *testing.T) {
	f, r := frameOf(t, map[string][]table.Value{
		"count": {table.Number(1), table.Number(2.5), table.Number(30), table.Number(4)},
	}, "count")
	require.Empty(t, r.SetAssignedTypes(map[string]string{"count": "integer"}).Rejected)

	rep, err := ScanColumn(f, r, "count")
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, 1, rep.Findings[0].RowIndex)
	assert.Equal(t, "not a whole number", rep.Findings[0].Reason)
}

func TestScanBinaryFlagsThirdValue(t *testing.T) {
	f, r := frameOf(t, map[string][]table.Value{
		"flag": {table.String("yes"), table.String("no"), table.String("yes"), table.String("maybe")},
	}, "flag")
	require.Empty(t, r.SetAssignedTypes(map[string]string{"flag": "binary"}).Rejected)

	rep, err := ScanColumn(f, r, "flag")
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, 3, rep.Findings[0].RowIndex)
}

func TestScanBinaryTieBreaksOnFirstOccurrence(t *testing.T) {
	f, r := frameOf(t, map[string][]table.Value{
		"flag": {table.String("z"), table.String("z"), table.String("y"), table.String("a")},
	}, "flag")
	require.Empty(t, r.SetAssignedTypes(map[string]string{"flag": "binary"}).Rejected)

	// y and a are tied at one occurrence each; y appears first so a is the outlier
	rep, err := ScanColumn(f, r, "flag")
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, 3, rep.Findings[0].RowIndex)
}

func TestScanDatetime(t *testing.T) {
	f, r := frameOf(t, map[string][]table.Value{
		"day": {table.String("2024-01-02"), table.String("not a day"), table.Null()},
	}, "day")
	require.Empty(t, r.SetAssignedTypes(map[string]string{"day": "datetime"}).Rejected)

	rep, err := ScanColumn(f, r, "day")
	require.NoError(t, err)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, 1, rep.Findings[0].RowIndex)
}

func TestScanAllSkipsCleanColumns(t *testing.T) {
	f, r := frameOf(t, map[string][]table.Value{
		"age":  {table.Number(25), table.String("abc"), table.Number(40)},
		"name": {table.String("ada"), table.String("grace"), table.String("lin")},
	}, "age", "name")
	require.Empty(t, r.SetAssignedTypes(map[string]string{"age": "continuous"}).Rejected)

	reports, err := ScanAll(f, r)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "age", reports[0].Column)
}

func TestFindDuplicatesOnSubset(t *testing.T) {
	f, _ := frameOf(t, map[string][]table.Value{
		"email": {table.String("a@x"), table.String("b@x"), table.String("a@x"), table.String("a@x")},
		"n":     {table.Number(1), table.Number(2), table.Number(3), table.Number(4)},
	}, "email", "n")

	rep, err := FindDuplicates(f, []string{"email"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.DuplicateRows)
	assert.InDelta(t, 50.0, rep.Percentage, 0.001)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, []int{0, 2, 3}, rep.Groups[0].RowIndices)

	// the full-row key sees the differing n column, no duplicates remain
	rep, err = FindDuplicates(f, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.DuplicateRows)
}

func TestFindDuplicatesUnknownColumn(t *testing.T) {
	f, _ := frameOf(t, map[string][]table.Value{
		"email": {table.String("a@x")},
	}, "email")
	_, err := FindDuplicates(f, []string{"ghost"})
	assert.Error(t, err)
}
