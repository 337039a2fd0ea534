// Package history implements the bounded undo/redo stacks backing a cleaning
// session. Records carry both a pre-image and a post-image of the affected
// data, so undo and redo are plain restores and redo is byte-identical to the
// original forward application.
package history

import (
	"time"

	"goclean/domain/core"
	"goclean/domain/table"
)

// MaxDepth caps both stacks. A hard constant: the 21st apply evicts the
// oldest undo entry, which becomes unrecoverable.
const MaxDepth = 20

// Category labels the kind of operation a record represents
type Category string

const (
	CategoryMissingValues Category = "missing_values"
	CategoryOutliers      Category = "outliers"
	CategoryDataQuality   Category = "data_quality"
	CategoryAnomalyFix    Category = "anomaly_fix"
	CategoryBalance       Category = "balance"
	CategoryReset         Category = "reset"
)

// Snapshot captures the state of the affected data at one point in time.
// Column snapshots hold one column's values; frame snapshots hold a deep copy
// of the whole frame (row-removing and dataset-wide operations). Exactly one
// of Values/Frame is set.
type Snapshot struct {
	Column string
	Values []table.Value
	Frame  *table.Frame
}

// IsFrameWide reports whether the snapshot covers the whole dataset
func (s Snapshot) IsFrameWide() bool {
	return s.Frame != nil
}

// ColumnSnapshot captures one column's values by copy
func ColumnSnapshot(column string, values []table.Value) Snapshot {
	cp := make([]table.Value, len(values))
	copy(cp, values)
	return Snapshot{Column: column, Values: cp}
}

// FrameSnapshot captures the whole frame by deep copy
func FrameSnapshot(f *table.Frame) Snapshot {
	return Snapshot{Frame: f.Clone()}
}

// Record is one applied operation plus enough state to reverse and replay it
type Record struct {
	ID           core.OperationID       `json:"id"`
	Column       string                 `json:"column,omitempty"`
	Category     Category               `json:"category"`
	Method       string                 `json:"method"`
	Params       map[string]interface{} `json:"parameters,omitempty"`
	RowsAffected int                    `json:"rows_affected"`
	AppliedAt    time.Time              `json:"applied_at"`

	Pre  Snapshot `json:"-"`
	Post Snapshot `json:"-"`
}

// History holds the bounded undo/redo stacks for one session
type History struct {
	undo []*Record
	redo []*Record
}

// New creates an empty history
func New() *History {
	return &History{}
}

// Push records a newly applied operation. Linear-timeline semantics: the redo
// stack is cleared, and the oldest undo entry is evicted past MaxDepth.
func (h *History) Push(rec *Record) {
	h.undo = append(h.undo, rec)
	if len(h.undo) > MaxDepth {
		h.undo = h.undo[len(h.undo)-MaxDepth:]
	}
	h.redo = h.redo[:0]
}

// Undo pops the most recent record. The caller restores the pre-image and
// recomputes affected metadata; the record moves to the redo stack.
func (h *History) Undo() (*Record, error) {
	if len(h.undo) == 0 {
		return nil, core.ErrNothingToUndo
	}
	rec := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, rec)
	return rec, nil
}

// Redo pops the most recently undone record. The caller restores the
// post-image; the record moves back to the undo stack.
func (h *History) Redo() (*Record, error) {
	if len(h.redo) == 0 {
		return nil, core.ErrNothingToRedo
	}
	rec := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, rec)
	return rec, nil
}

// CanUndo reports whether the undo stack is non-empty
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// UndoDepth returns the current undo stack size
func (h *History) UndoDepth() int {
	return len(h.undo)
}

// Entries returns the undo stack oldest-first for history listings
func (h *History) Entries() []*Record {
	out := make([]*Record, len(h.undo))
	copy(out, h.undo)
	return out
}

// Clear empties both stacks
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
