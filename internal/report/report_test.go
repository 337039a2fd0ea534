package report

import (
	"strings"
	"testing"
	"time"

	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/history"
	"goclean/internal/profiling"
	"goclean/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndRender(t *testing.T) {
	f := table.NewFrame()
	require.NoError(t, f.AddColumn("age", []table.Value{table.Number(25), table.Null(), table.Number(40)}))
	r := profiling.DetectAll(f)
	metas := make([]*profiling.ColumnMeta, 0)
	for _, name := range r.Columns() {
		m, err := r.Get(name)
		require.NoError(t, err)
		metas = append(metas, m)
	}

	stats := session.Stats{TotalRows: 3, TotalColumns: 1, MissingValues: 1, MemoryUsageMB: 0.01}
	records := []*history.Record{{
		ID:           core.OperationID(core.NewID()),
		Column:       "age",
		Category:     history.CategoryMissingValues,
		Method:       "mean_imputation",
		RowsAffected: 1,
		AppliedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}}

	md := Build(stats, metas, records, time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC))
	assert.Contains(t, md, "# Data Cleaning Report")
	assert.Contains(t, md, "| age |")
	assert.Contains(t, md, "mean_imputation")

	out := string(RenderHTML(md))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "mean_imputation")
}

func TestBuildWithoutOperations(t *testing.T) {
	md := Build(session.Stats{}, nil, nil, time.Now())
	assert.True(t, strings.Contains(md, "No operations applied."))
}
