// Package report renders a cleaning summary for a session: what the data
// looks like now and every operation still on the undo timeline.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goclean/internal/history"
	"goclean/internal/profiling"
	"goclean/internal/session"
)

// Build assembles the markdown report.
func Build(stats session.Stats, metas []*profiling.ColumnMeta, records []*history.Record, generated time.Time) string {
	var b strings.Builder
	b.WriteString("# Data Cleaning Report\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", generated.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Dataset\n\n")
	fmt.Fprintf(&b, "- Rows: %d\n", stats.TotalRows)
	fmt.Fprintf(&b, "- Columns: %d\n", stats.TotalColumns)
	fmt.Fprintf(&b, "- Missing values: %d\n", stats.MissingValues)
	fmt.Fprintf(&b, "- Estimated memory: %.2f MB\n\n", stats.MemoryUsageMB)

	b.WriteString("## Columns\n\n")
	b.WriteString("| Column | Type | Missing | Unique |\n")
	b.WriteString("|--------|------|---------|--------|\n")
	for _, m := range metas {
		assigned := m.AssignedType
		fmt.Fprintf(&b, "| %s | %s | %d | %d |\n", m.Name, assigned, m.MissingCount, m.UniqueCount)
	}
	b.WriteString("\n")

	b.WriteString("## Operations\n\n")
	if len(records) == 0 {
		b.WriteString("No operations applied.\n")
		return b.String()
	}
	for i, rec := range records {
		target := rec.Column
		if target == "" {
			target = "all columns"
		}
		fmt.Fprintf(&b, "%d. **%s** (%s) on %s, %d rows affected, %s\n",
			i+1, rec.Method, rec.Category, target, rec.RowsAffected,
			rec.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

// RenderHTML converts report markdown to an HTML fragment.
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}
