package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame()
	require.NoError(t, f.AddColumn("age", []Value{Number(25), Number(30), Null(), Number(40)}))
	require.NoError(t, f.AddColumn("name", []Value{String("ann"), String("bob"), String("cy"), Null()}))
	return f
}

func TestAddColumnLengthMismatch(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddColumn("a", []Value{Number(1), Number(2)}))
	err := f.AddColumn("b", []Value{Number(1)})
	assert.Error(t, err)
}

func TestColumnReturnsCopy(t *testing.T) {
	f := buildFrame(t)
	values, err := f.Column("age")
	require.NoError(t, err)

	values[0] = Number(99)

	cell, err := f.Cell(0, "age")
	require.NoError(t, err)
	assert.Equal(t, Number(25), cell, "mutating a returned column must not touch the frame")
}

func TestPageClamping(t *testing.T) {
	f := buildFrame(t)

	page := f.Page(2, 10)
	assert.Len(t, page, 2)

	page = f.Page(100, 10)
	assert.Empty(t, page, "offset beyond row count returns empty slice, not an error")

	page = f.Page(-5, 2)
	assert.Len(t, page, 2)
}

func TestSelectRowsPreservesInvariant(t *testing.T) {
	f := buildFrame(t)
	out, err := f.SelectRows([]int{0, 3})
	require.NoError(t, err)

	assert.Equal(t, 2, out.RowCount())
	assert.NoError(t, out.Validate())

	cell, err := out.Cell(1, "age")
	require.NoError(t, err)
	assert.Equal(t, Number(40), cell)
}

func TestCloneIsDeep(t *testing.T) {
	f := buildFrame(t)
	cp := f.Clone()
	require.True(t, f.Equal(cp))

	require.NoError(t, cp.SetCell(0, "age", Number(-1)))
	assert.False(t, f.Equal(cp))

	cell, err := f.Cell(0, "age")
	require.NoError(t, err)
	assert.Equal(t, Number(25), cell)
}

func TestMissingCount(t *testing.T) {
	f := buildFrame(t)
	assert.Equal(t, 2, f.MissingCount())
}

func TestRowKeySubset(t *testing.T) {
	f := NewFrame()
	require.NoError(t, f.AddColumn("a", []Value{Number(1), Number(1), Number(3)}))
	require.NoError(t, f.AddColumn("b", []Value{Number(2), Number(2), Number(4)}))

	assert.Equal(t, f.RowKey(0, nil), f.RowKey(1, nil))
	assert.NotEqual(t, f.RowKey(0, nil), f.RowKey(2, nil))
	assert.Equal(t, f.RowKey(0, []string{"a"}), f.RowKey(1, []string{"a"}))
}

func TestValueParseCell(t *testing.T) {
	assert.Equal(t, Null(), ParseCell("  "))
	assert.Equal(t, Number(3.5), ParseCell("3.5"))
	assert.Equal(t, Bool(true), ParseCell("TRUE"))
	assert.Equal(t, String("abc"), ParseCell("abc"))
}

func TestValueFloat(t *testing.T) {
	f, ok := String("42").Float()
	assert.True(t, ok)
	assert.Equal(t, 42.0, f)

	_, ok = String("abc").Float()
	assert.False(t, ok)

	_, ok = Null().Float()
	assert.False(t, ok)

	f, ok = Bool(true).Float()
	assert.True(t, ok)
	assert.Equal(t, 1.0, f)
}

func TestValueTime(t *testing.T) {
	_, ok := String("2023-04-01").Time()
	assert.True(t, ok)

	_, ok = String("not a date").Time()
	assert.False(t, ok)
}
