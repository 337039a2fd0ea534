package cleaning

import (
	"context"
	"fmt"
	"time"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal"
	"goclean/internal/history"
	"goclean/internal/session"
	"goclean/ports"
)

const defaultPreviewSample = 10

// Result reports one committed operation.
type Result struct {
	OperationID   core.OperationID `json:"operation_id"`
	Category      string           `json:"category"`
	Method        string           `json:"method"`
	Column        string           `json:"column,omitempty"`
	RowsAffected  int              `json:"rows_affected"`
	RowsBefore    int              `json:"rows_before"`
	RowsAfter     int              `json:"rows_after"`
	MissingBefore int              `json:"missing_before"`
	MissingAfter  int              `json:"missing_after"`
}

// PreviewRow is one changed cell in a preview diff.
type PreviewRow struct {
	RowIndex int         `json:"row_index"`
	Before   table.Value `json:"before"`
	After    table.Value `json:"after"`
}

// Preview reports what an operation would do, without committing it.
type Preview struct {
	Category      string       `json:"category"`
	Method        string       `json:"method"`
	Column        string       `json:"column,omitempty"`
	RowsAffected  int          `json:"rows_affected"`
	RowsBefore    int          `json:"rows_before"`
	RowsAfter     int          `json:"rows_after"`
	MissingBefore int          `json:"missing_before"`
	MissingAfter  int          `json:"missing_after"`
	Sample        []PreviewRow `json:"sample"`
}

// Dispatcher owns the operation-apply contract. Every mutation of session
// data funnels through it: validate, snapshot, execute on a private clone,
// commit, report. A failed step before commit leaves the session untouched.
type Dispatcher struct {
	catalog Catalog
	audit   ports.AuditSink
	logger  *internal.Logger

	// SampleRows caps the preview diff length
	SampleRows int
}

func NewDispatcher(audit ports.AuditSink, logger *internal.Logger) *Dispatcher {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Dispatcher{
		catalog:    DefaultCatalog(),
		audit:      audit,
		logger:     logger,
		SampleRows: defaultPreviewSample,
	}
}

// Methods lists the catalog grouped by category.
func (d *Dispatcher) Methods() map[string][]MethodInfo {
	return d.catalog.Describe()
}

func (d *Dispatcher) lookup(category, method string) (history.Category, Method, error) {
	cat := history.Category(category)
	methods, ok := d.catalog[cat]
	if !ok {
		return "", Method{}, core.NewInvalidOperationError(category, "unknown category")
	}
	m, ok := methods[method]
	if !ok {
		return "", Method{}, core.NewInvalidOperationError(method, fmt.Sprintf("unknown %s method", category))
	}
	return cat, m, nil
}

// Apply runs one catalog operation against a session and commits it.
func (d *Dispatcher) Apply(ctx context.Context, sess *session.Session, category, method, column string, params Params) (*Result, error) {
	cat, m, err := d.lookup(category, method)
	if err != nil {
		return nil, err
	}
	var res *Result
	err = sess.Do(func() error {
		var derr error
		res, derr = d.apply(ctx, sess, cat, m, column, params)
		return derr
	})
	return res, err
}

func (d *Dispatcher) apply(ctx context.Context, sess *session.Session, cat history.Category, m Method, column string, params Params) (*Result, error) {
	if !sess.HasData() {
		return nil, core.ErrSessionNotFound
	}
	frame := sess.Frame()
	if err := d.validateColumn(sess, m, column); err != nil {
		return nil, err
	}

	pre, missingBefore := d.snapshot(frame, m.Scope, column)
	rowsBefore := frame.RowCount()

	working := frame.Clone()
	next, affected, err := m.Fn(working, column, params)
	if err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	rec := &history.Record{
		ID:           core.OperationID(core.NewID()),
		Column:       recordColumn(m.Scope, column),
		Category:     cat,
		Method:       m.Name,
		Params:       params,
		RowsAffected: affected,
		AppliedAt:    time.Now().UTC(),
		Pre:          pre,
	}
	if err := d.commit(sess, next, m.Scope, column, rec); err != nil {
		return nil, err
	}

	res := &Result{
		OperationID:   rec.ID,
		Category:      string(cat),
		Method:        m.Name,
		Column:        rec.Column,
		RowsAffected:  affected,
		RowsBefore:    rowsBefore,
		RowsAfter:     next.RowCount(),
		MissingBefore: missingBefore,
		MissingAfter:  d.missingCount(next, m.Scope, column),
	}
	d.recordAudit(ctx, sess, rec)
	d.logger.Info("[Cleaning] applied %s/%s column=%q affected=%d", cat, m.Name, rec.Column, affected)
	return res, nil
}

// DryRun runs the validate and execute steps and reports the outcome, but
// never touches session state and never writes history.
func (d *Dispatcher) DryRun(sess *session.Session, category, method, column string, params Params) (*Preview, error) {
	cat, m, err := d.lookup(category, method)
	if err != nil {
		return nil, err
	}
	var pv *Preview
	err = sess.Do(func() error {
		if !sess.HasData() {
			return core.ErrSessionNotFound
		}
		if verr := d.validateColumn(sess, m, column); verr != nil {
			return verr
		}
		frame := sess.Frame()
		missingBefore := d.missingCount(frame, m.Scope, column)

		next, affected, terr := m.Fn(frame.Clone(), column, params)
		if terr != nil {
			return terr
		}
		pv = &Preview{
			Category:      string(cat),
			Method:        m.Name,
			Column:        recordColumn(m.Scope, column),
			RowsAffected:  affected,
			RowsBefore:    frame.RowCount(),
			RowsAfter:     next.RowCount(),
			MissingBefore: missingBefore,
			MissingAfter:  d.missingCount(next, m.Scope, column),
			Sample:        sampleDiff(frame, next, column, d.SampleRows),
		}
		return nil
	})
	if err == nil {
		d.logger.Debug("[Cleaning] previewed %s/%s column=%q affected=%d", cat, m.Name, pv.Column, pv.RowsAffected)
	}
	return pv, err
}

func (d *Dispatcher) validateColumn(sess *session.Session, m Method, column string) error {
	if column == "" {
		if m.Scope == ScopeFrame {
			return nil
		}
		return core.NewInvalidParametersError("column is required")
	}
	if !sess.Frame().HasColumn(column) {
		return core.NewColumnNotFoundError(column)
	}
	ct := sess.Registry().AssignedType(column)
	if !m.AppliesTo(ct) {
		return core.NewInvalidOperationError(m.Name, fmt.Sprintf("not applicable to %s column %q", ct, column))
	}
	return nil
}

func (d *Dispatcher) snapshot(f *table.Frame, scope Scope, column string) (history.Snapshot, int) {
	if scope == ScopeFrame {
		return history.FrameSnapshot(f), f.MissingCount()
	}
	values, _ := f.Column(column)
	missing := 0
	for _, v := range values {
		if v.IsNull() {
			missing++
		}
	}
	return history.ColumnSnapshot(column, values), missing
}

func (d *Dispatcher) missingCount(f *table.Frame, scope Scope, column string) int {
	if scope == ScopeFrame || column == "" {
		return f.MissingCount()
	}
	values, err := f.Column(column)
	if err != nil {
		return 0
	}
	n := 0
	for _, v := range values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

func (d *Dispatcher) commit(sess *session.Session, next *table.Frame, scope Scope, column string, rec *history.Record) error {
	rec.Post, _ = d.snapshot(next, scope, column)
	sess.ReplaceFrame(next)
	if scope == ScopeFrame || column == "" {
		if err := sess.Registry().RecomputeAll(next); err != nil {
			return err
		}
	} else if err := sess.Registry().Recompute(next, column); err != nil {
		return err
	}
	sess.History().Push(rec)
	return nil
}

func (d *Dispatcher) recordAudit(ctx context.Context, sess *session.Session, rec *history.Record) {
	entry := ports.AuditEntry{
		SessionID:    sess.ID.String(),
		OperationID:  rec.ID.String(),
		Category:     string(rec.Category),
		Method:       rec.Method,
		Column:       rec.Column,
		Params:       rec.Params,
		RowsAffected: rec.RowsAffected,
		AppliedAt:    rec.AppliedAt,
	}
	if err := d.audit.RecordOperation(ctx, entry); err != nil {
		d.logger.Warn("[Cleaning] audit write failed: %v", err)
	}
}

func recordColumn(scope Scope, column string) string {
	if scope == ScopeFrame && column == "" {
		return ""
	}
	return column
}

func sampleDiff(before, after *table.Frame, column string, limit int) []PreviewRow {
	if limit <= 0 {
		limit = defaultPreviewSample
	}
	if column == "" || !before.HasColumn(column) || !after.HasColumn(column) {
		return nil
	}
	if before.RowCount() != after.RowCount() {
		return nil
	}
	old, _ := before.Column(column)
	upd, _ := after.Column(column)
	var sample []PreviewRow
	for i := range old {
		if old[i].Equal(upd[i]) {
			continue
		}
		sample = append(sample, PreviewRow{RowIndex: i, Before: old[i], After: upd[i]})
		if len(sample) == limit {
			break
		}
	}
	return sample
}
