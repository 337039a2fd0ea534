package session

import (
	"errors"
	"testing"
	"time"

	"goclean/domain/core"
	"goclean/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedSession(t *testing.T, st *Store, id string) *Session {
	t.Helper()
	s := st.GetOrCreate(core.SessionID(id))
	f := table.NewFrame()
	require.NoError(t, f.AddColumn("v", []table.Value{table.Number(1), table.Number(2), table.Null()}))
	require.NoError(t, s.Do(func() error { return s.Load(f) }))
	return s
}

func TestGetOrCreateIdempotent(t *testing.T) {
	st := NewStore(0)
	a := st.GetOrCreate("s1")
	b := st.GetOrCreate("s1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, st.Count())
}

func TestGetUnknownSession(t *testing.T) {
	st := NewStore(0)
	_, err := st.Get("nope")
	assert.True(t, errors.Is(err, core.ErrSessionNotFound))
}

func TestGetWithDataRequiresLoad(t *testing.T) {
	st := NewStore(0)
	st.GetOrCreate("s1")

	_, err := st.GetWithData("s1")
	assert.True(t, errors.Is(err, core.ErrSessionNotFound),
		"a session without a dataset behaves like a missing session for data operations")

	loadedSession(t, st, "s2")
	_, err = st.GetWithData("s2")
	assert.NoError(t, err)
}

func TestSetWeightColumn(t *testing.T) {
	st := NewStore(0)
	s := st.GetOrCreate("s1")
	f := table.NewFrame()
	require.NoError(t, f.AddColumn("w", []table.Value{table.Number(1), table.Number(2), table.Number(3)}))
	require.NoError(t, f.AddColumn("label", []table.Value{table.String("a"), table.String("b"), table.String("c")}))
	require.NoError(t, s.Do(func() error { return s.Load(f) }))

	_ = s.Do(func() error {
		require.NoError(t, s.SetWeightColumn("w"))
		assert.Equal(t, "w", s.WeightColumn)

		err := s.SetWeightColumn("label")
		assert.True(t, errors.Is(err, core.ErrInvalidParameters))
		assert.Equal(t, "w", s.WeightColumn, "a rejected weight column leaves the old one in place")

		err = s.SetWeightColumn("missing")
		assert.True(t, errors.Is(err, core.ErrColumnNotFound))

		require.NoError(t, s.SetWeightColumn(""))
		assert.Empty(t, s.WeightColumn)
		return nil
	})
}

func TestLoadClearsWeightColumn(t *testing.T) {
	st := NewStore(0)
	s := st.GetOrCreate("s1")
	f := table.NewFrame()
	require.NoError(t, f.AddColumn("w", []table.Value{table.Number(1), table.Number(2), table.Number(3)}))
	require.NoError(t, s.Do(func() error { return s.Load(f) }))
	_ = s.Do(func() error { return s.SetWeightColumn("w") })

	g := table.NewFrame()
	require.NoError(t, g.AddColumn("x", []table.Value{table.Number(9), table.Number(8), table.Number(7)}))
	require.NoError(t, s.Do(func() error { return s.Load(g) }))
	assert.Empty(t, s.WeightColumn)
}

func TestLoadRejectsEmptyDataset(t *testing.T) {
	st := NewStore(0)
	s := st.GetOrCreate("s1")
	err := s.Do(func() error { return s.Load(table.NewFrame()) })
	assert.True(t, errors.Is(err, core.ErrEmptyDataset))
}

func TestLoadDetectsMetadata(t *testing.T) {
	st := NewStore(0)
	s := loadedSession(t, st, "s1")

	_ = s.Do(func() error {
		meta, err := s.Registry().Get("v")
		require.NoError(t, err)
		assert.Equal(t, 1, meta.MissingCount)
		assert.Equal(t, table.TypeBinary, meta.DetectedType)
		return nil
	})
}

func TestResetRestoresPristineAndIsUndoable(t *testing.T) {
	st := NewStore(0)
	s := loadedSession(t, st, "s1")

	_ = s.Do(func() error {
		require.NoError(t, s.Frame().SetCell(0, "v", table.Number(99)))
		require.NoError(t, s.Registry().Recompute(s.Frame(), "v"))

		require.NoError(t, s.Reset())
		cell, err := s.Frame().Cell(0, "v")
		require.NoError(t, err)
		assert.Equal(t, table.Number(1), cell)

		// The reset itself occupies the undo stack as one record
		assert.Equal(t, 1, s.History().UndoDepth())
		require.NoError(t, s.Undo())
		cell, err = s.Frame().Cell(0, "v")
		require.NoError(t, err)
		assert.Equal(t, table.Number(99), cell, "undoing a reset re-applies the last pre-reset state")
		return nil
	})
}

func TestUndoRedoRestoreFrames(t *testing.T) {
	st := NewStore(0)
	s := loadedSession(t, st, "s1")

	_ = s.Do(func() error {
		require.NoError(t, s.Frame().SetCell(2, "v", table.Number(7)))
		require.NoError(t, s.Reset())

		require.NoError(t, s.Undo())
		cell, _ := s.Frame().Cell(2, "v")
		assert.Equal(t, table.Number(7), cell)

		require.NoError(t, s.Redo())
		cell, _ = s.Frame().Cell(2, "v")
		assert.True(t, cell.IsNull())
		return nil
	})
}

func TestJanitorEvictsIdleSessions(t *testing.T) {
	st := NewStore(10 * time.Millisecond)
	loadedSession(t, st, "old")

	time.Sleep(25 * time.Millisecond)
	evicted := st.evictExpired()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 0, st.Count())
}

func TestStatsSummary(t *testing.T) {
	st := NewStore(0)
	s := loadedSession(t, st, "s1")
	_ = s.Do(func() error {
		stats := s.Stats()
		assert.Equal(t, 3, stats.TotalRows)
		assert.Equal(t, 1, stats.TotalColumns)
		assert.Equal(t, 1, stats.MissingValues)
		assert.Greater(t, stats.MemoryUsageMB, 0.0)
		return nil
	})
}
