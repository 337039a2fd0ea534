package history

import (
	"errors"
	"fmt"
	"testing"

	"goclean/domain/core"
	"goclean/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(method string) *Record {
	return &Record{
		ID:       core.OperationID(core.NewID()),
		Category: CategoryMissingValues,
		Method:   method,
		Pre:      ColumnSnapshot("x", []table.Value{table.Number(1)}),
		Post:     ColumnSnapshot("x", []table.Value{table.Number(2)}),
	}
}

func TestUndoEmpty(t *testing.T) {
	h := New()
	_, err := h.Undo()
	assert.True(t, errors.Is(err, core.ErrNothingToUndo))
}

func TestRedoEmpty(t *testing.T) {
	h := New()
	_, err := h.Redo()
	assert.True(t, errors.Is(err, core.ErrNothingToRedo))
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New()
	rec := record("mean_imputation")
	h.Push(rec)

	popped, err := h.Undo()
	require.NoError(t, err)
	assert.Same(t, rec, popped)
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	replayed, err := h.Redo()
	require.NoError(t, err)
	assert.Same(t, rec, replayed)
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestPushClearsRedo(t *testing.T) {
	h := New()
	h.Push(record("a"))
	h.Push(record("b"))

	_, err := h.Undo()
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	h.Push(record("c"))
	assert.False(t, h.CanRedo())

	_, err = h.Redo()
	assert.True(t, errors.Is(err, core.ErrNothingToRedo))
}

func TestDepthCapEvictsOldest(t *testing.T) {
	h := New()
	for i := 0; i < 25; i++ {
		h.Push(record(fmt.Sprintf("op_%d", i)))
	}
	assert.Equal(t, MaxDepth, h.UndoDepth())

	entries := h.Entries()
	assert.Equal(t, "op_5", entries[0].Method, "the 5 oldest entries are unrecoverable")
	assert.Equal(t, "op_24", entries[len(entries)-1].Method)
}

func TestColumnSnapshotIsCopy(t *testing.T) {
	values := []table.Value{table.Number(1), table.Number(2)}
	snap := ColumnSnapshot("x", values)

	values[0] = table.Number(42)
	assert.Equal(t, table.Number(1), snap.Values[0], "snapshot must not alias the source slice")
}

func TestFrameSnapshotIsDeep(t *testing.T) {
	f := table.NewFrame()
	require.NoError(t, f.AddColumn("a", []table.Value{table.Number(1)}))
	snap := FrameSnapshot(f)
	require.True(t, snap.IsFrameWide())

	require.NoError(t, f.SetCell(0, "a", table.Number(99)))
	cell, err := snap.Frame.Cell(0, "a")
	require.NoError(t, err)
	assert.Equal(t, table.Number(1), cell)
}
