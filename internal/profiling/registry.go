package profiling

import (
	"goclean/domain/core"
	"goclean/domain/table"
)

const sampleValueCount = 3

// ColumnMeta tracks the semantic classification and shape of one column.
// AssignedType follows DetectedType until a user overrides it; after that,
// recomputation updates the detected type but never the assignment.
type ColumnMeta struct {
	Name         string           `json:"name"`
	DetectedType table.ColumnType `json:"detected_type"`
	AssignedType table.ColumnType `json:"assigned_type"`
	MissingCount int              `json:"missing_count"`
	UniqueCount  int              `json:"unique_count"`
	SampleValues []table.Value    `json:"sample_values"`

	userAssigned bool
}

// Registry is the column metadata registry for one session's frame
type Registry struct {
	order []string
	meta  map[string]*ColumnMeta
}

// DetectAll builds a registry with freshly detected metadata for every column
func DetectAll(f *table.Frame) *Registry {
	r := &Registry{meta: make(map[string]*ColumnMeta)}
	for _, col := range f.Columns() {
		values, _ := f.Column(col)
		r.order = append(r.order, col)
		r.meta[col] = buildMeta(col, values)
	}
	return r
}

func buildMeta(name string, values []table.Value) *ColumnMeta {
	missing := 0
	samples := make([]table.Value, 0, sampleValueCount)
	for _, v := range values {
		if v.IsNull() {
			missing++
			continue
		}
		if len(samples) < sampleValueCount {
			samples = append(samples, v)
		}
	}
	detected := DetectType(values)
	return &ColumnMeta{
		Name:         name,
		DetectedType: detected,
		AssignedType: detected,
		MissingCount: missing,
		UniqueCount:  distinctCount(values),
		SampleValues: samples,
	}
}

// Columns returns the registered column names in frame order
func (r *Registry) Columns() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the metadata for one column
func (r *Registry) Get(column string) (*ColumnMeta, error) {
	m, ok := r.meta[column]
	if !ok {
		return nil, core.NewColumnNotFoundError(column)
	}
	return m, nil
}

// AssignedType returns the effective type for a column, unknown if absent
func (r *Registry) AssignedType(column string) table.ColumnType {
	if m, ok := r.meta[column]; ok {
		return m.AssignedType
	}
	return table.TypeUnknown
}

// TypeMap returns column -> assigned type for the whole registry
func (r *Registry) TypeMap() map[string]table.ColumnType {
	out := make(map[string]table.ColumnType, len(r.meta))
	for col, m := range r.meta {
		out[col] = m.AssignedType
	}
	return out
}

// Recompute refreshes metadata for a column after its values changed.
// The detected type is re-derived; a user-assigned type is left untouched.
func (r *Registry) Recompute(f *table.Frame, column string) error {
	values, err := f.Column(column)
	if err != nil {
		return err
	}
	old, ok := r.meta[column]
	fresh := buildMeta(column, values)
	if ok && old.userAssigned {
		fresh.AssignedType = old.AssignedType
		fresh.userAssigned = true
	}
	if !ok {
		r.order = append(r.order, column)
	}
	r.meta[column] = fresh
	return nil
}

// RecomputeAll refreshes every column, dropping metadata for columns that no
// longer exist in the frame (row-removing transforms never drop columns, but
// config import can leave strays).
func (r *Registry) RecomputeAll(f *table.Frame) error {
	cols := f.Columns()
	present := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		present[col] = struct{}{}
		if err := r.Recompute(f, col); err != nil {
			return err
		}
	}
	kept := r.order[:0]
	for _, col := range r.order {
		if _, ok := present[col]; ok {
			kept = append(kept, col)
		} else {
			delete(r.meta, col)
		}
	}
	r.order = kept
	return nil
}

// TypeUpdateResult reports the per-entry outcome of a batch type update
type TypeUpdateResult struct {
	Accepted map[string]table.ColumnType `json:"accepted"`
	Rejected map[string]string           `json:"rejected"`
}

// SetAssignedTypes applies a column -> type mapping. Policy: invalid entries
// (bad type name or unknown column) are rejected individually with a reason;
// valid entries are accepted. The batch never fails as a whole.
func (r *Registry) SetAssignedTypes(mapping map[string]string) TypeUpdateResult {
	result := TypeUpdateResult{
		Accepted: make(map[string]table.ColumnType),
		Rejected: make(map[string]string),
	}
	for column, raw := range mapping {
		t, err := table.ParseColumnType(raw)
		if err != nil {
			result.Rejected[column] = "not one of the nine column types"
			continue
		}
		m, ok := r.meta[column]
		if !ok {
			result.Rejected[column] = "column not found"
			continue
		}
		m.AssignedType = t
		m.userAssigned = true
		result.Accepted[column] = t
	}
	return result
}
