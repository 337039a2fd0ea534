package cleaning

import (
	"context"
	"fmt"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/history"
	"goclean/internal/session"
)

// Anomaly-fix actions. Fixes run through the same apply contract as catalog
// methods, so they are undoable like everything else.
const (
	FixNullify = "nullify"
	FixReplace = "replace"
)

// FixAnomalies rewrites the flagged cells of one column, either nulling them
// or replacing them with a caller-supplied value.
func (d *Dispatcher) FixAnomalies(ctx context.Context, sess *session.Session, column, action string, rows []int, replacement string) (*Result, error) {
	if action != FixNullify && action != FixReplace {
		return nil, core.NewInvalidParametersError("action must be nullify or replace")
	}
	if len(rows) == 0 {
		return nil, core.NewInvalidParametersError("row_indices must not be empty")
	}
	repl := table.Null()
	if action == FixReplace {
		repl = table.ParseCell(replacement)
	}

	fn := func(f *table.Frame, col string, _ Params) (*table.Frame, int, error) {
		values, err := f.Column(col)
		if err != nil {
			return nil, 0, err
		}
		changed := 0
		for _, r := range rows {
			if r < 0 || r >= len(values) {
				return nil, 0, core.NewInvalidParametersError(fmt.Sprintf("row index %d out of range", r))
			}
			if !values[r].Equal(repl) {
				values[r] = repl
				changed++
			}
		}
		if err := f.SetColumn(col, values); err != nil {
			return nil, 0, err
		}
		return f, changed, nil
	}

	m := Method{Name: action, Scope: ScopeColumn, Fn: fn}
	params := Params{"action": action, "row_indices": rows}
	if action == FixReplace {
		params["replacement"] = replacement
	}
	var res *Result
	err := sess.Do(func() error {
		var derr error
		res, derr = d.apply(ctx, sess, history.CategoryAnomalyFix, m, column, params)
		return derr
	})
	return res, err
}

// ApplyFrameWide commits an externally computed frame transform under the
// standard contract. Used for operations whose math lives outside the
// catalog, like class balancing.
func (d *Dispatcher) ApplyFrameWide(ctx context.Context, sess *session.Session, category history.Category, method string, params Params, fn TransformFunc) (*Result, error) {
	m := Method{Name: method, Scope: ScopeFrame, Fn: fn}
	var res *Result
	err := sess.Do(func() error {
		var derr error
		res, derr = d.apply(ctx, sess, category, m, "", params)
		return derr
	})
	return res, err
}
