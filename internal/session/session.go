package session

import (
	"sync"
	"time"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/history"
	"goclean/internal/profiling"
)

// Session is one user's isolated working copy of a dataset plus its edit
// history: active frame, pristine frame, column metadata, undo/redo stacks.
type Session struct {
	ID        core.SessionID
	CreatedAt time.Time

	frame    *table.Frame
	pristine *table.Frame
	registry *profiling.Registry
	history  *history.History

	// Optional survey-weight column used by analysis collaborators
	WeightColumn string

	lastUsed time.Time

	// Serializes every operation on this session, reads included. Undo
	// pre-images only stay coherent if one operation is in flight at a time.
	mu sync.Mutex
}

func newSession(id core.SessionID) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		history:   history.New(),
		lastUsed:  now,
	}
}

// Do runs fn while holding the session's operation lock
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return fn()
}

// HasData reports whether a dataset has been loaded. Callers must hold the
// session lock (use Do).
func (s *Session) HasData() bool {
	return s.frame != nil
}

// Frame returns the active dataset
func (s *Session) Frame() *table.Frame {
	return s.frame
}

// Pristine returns the originally loaded, never-mutated dataset
func (s *Session) Pristine() *table.Frame {
	return s.pristine
}

// Registry returns the column metadata registry
func (s *Session) Registry() *profiling.Registry {
	return s.registry
}

// History returns the undo/redo history
func (s *Session) History() *history.History {
	return s.history
}

// Load installs a freshly parsed dataset as both active and pristine copy,
// detects all column metadata and clears any previous history.
func (s *Session) Load(f *table.Frame) error {
	if f.RowCount() == 0 || f.ColumnCount() == 0 {
		return core.ErrEmptyDataset
	}
	s.frame = f
	s.pristine = f.Clone()
	s.registry = profiling.DetectAll(f)
	s.history.Clear()
	s.WeightColumn = ""
	return nil
}

// SetWeightColumn designates a numeric column as the survey weight, or
// clears the designation when name is empty. Callers must hold the session
// lock (use Do).
func (s *Session) SetWeightColumn(name string) error {
	if name == "" {
		s.WeightColumn = ""
		return nil
	}
	meta, err := s.registry.Get(name)
	if err != nil {
		return err
	}
	if !meta.AssignedType.IsNumeric() {
		return core.NewInvalidParametersError("weight column must be numeric")
	}
	s.WeightColumn = name
	return nil
}

// ReplaceFrame swaps the active dataset. Used by the dispatcher's commit and
// by undo/redo restores; metadata recomputation is the caller's duty.
func (s *Session) ReplaceFrame(f *table.Frame) {
	s.frame = f
}

// Reset restores the active dataset from the pristine copy, re-detects
// metadata, clears both stacks and then records the reset itself as a single
// undoable operation, keeping reset symmetric with other operations.
func (s *Session) Reset() error {
	if s.pristine == nil {
		return core.ErrSessionNotFound
	}
	pre := history.FrameSnapshot(s.frame)
	s.frame = s.pristine.Clone()
	s.registry = profiling.DetectAll(s.frame)
	s.history.Clear()
	s.history.Push(&history.Record{
		ID:        core.OperationID(core.NewID()),
		Category:  history.CategoryReset,
		Method:    "reset_to_original",
		AppliedAt: time.Now(),
		Pre:       pre,
		Post:      history.FrameSnapshot(s.frame),
	})
	return nil
}

// Undo reverses the most recent operation by restoring its pre-image
func (s *Session) Undo() error {
	rec, err := s.history.Undo()
	if err != nil {
		return err
	}
	return s.restore(rec.Pre)
}

// Redo replays the most recently undone operation from its post-image,
// byte-identical to the original forward application.
func (s *Session) Redo() error {
	rec, err := s.history.Redo()
	if err != nil {
		return err
	}
	return s.restore(rec.Post)
}

func (s *Session) restore(snap history.Snapshot) error {
	if snap.IsFrameWide() {
		s.frame = snap.Frame.Clone()
		return s.registry.RecomputeAll(s.frame)
	}
	if err := s.frame.SetColumn(snap.Column, snap.Values); err != nil {
		return err
	}
	return s.registry.Recompute(s.frame, snap.Column)
}

// Stats summarizes the active dataset
type Stats struct {
	TotalRows     int     `json:"total_rows"`
	TotalColumns  int     `json:"total_columns"`
	MissingValues int     `json:"missing_values"`
	MemoryUsageMB float64 `json:"memory_usage_mb"`
}

// Stats computes the dataset summary. Requires data.
func (s *Session) Stats() Stats {
	if s.frame == nil {
		return Stats{}
	}
	return Stats{
		TotalRows:     s.frame.RowCount(),
		TotalColumns:  s.frame.ColumnCount(),
		MissingValues: s.frame.MissingCount(),
		MemoryUsageMB: float64(s.frame.MemoryEstimate()) / (1024 * 1024),
	}
}
