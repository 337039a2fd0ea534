package cleaning

import (
	"strings"
	"time"

	"goclean/domain/core"
	"goclean/domain/table"
)

// typeStandardization coerces every cell to the requested target_type,
// nulling cells that cannot be represented in it.
func typeStandardization(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	raw, err := p.String("target_type", "")
	if err != nil {
		return nil, 0, err
	}
	if raw == "" {
		return nil, 0, core.NewInvalidParametersError("target_type is required")
	}
	target, err := table.ParseColumnType(raw)
	if err != nil {
		return nil, 0, err
	}
	return fillColumnScan(f, column, func(v table.Value) (table.Value, bool) {
		if v.IsNull() {
			return v, false
		}
		coerced := coerceValue(v, target)
		if coerced.Equal(v) {
			return v, false
		}
		return coerced, true
	})
}

func coerceValue(v table.Value, target table.ColumnType) table.Value {
	switch target {
	case table.TypeContinuous, table.TypeInteger, table.TypeOrdinal:
		if n, ok := v.Float(); ok {
			return table.Number(n)
		}
		return table.Null()
	case table.TypeDatetime:
		if t, ok := v.Time(); ok {
			return table.String(t.Format(time.RFC3339))
		}
		return table.Null()
	case table.TypeBinary:
		switch strings.ToLower(strings.TrimSpace(v.DisplayString())) {
		case "true", "yes", "1":
			return table.Bool(true)
		case "false", "no", "0":
			return table.Bool(false)
		}
		return table.Null()
	default:
		return table.String(v.DisplayString())
	}
}

func removeDuplicateRows(f *table.Frame, _ string, p Params) (*table.Frame, int, error) {
	subset, err := p.StringSlice("columns")
	if err != nil {
		return nil, 0, err
	}
	for _, name := range subset {
		if !f.HasColumn(name) {
			return nil, 0, core.NewColumnNotFoundError(name)
		}
	}
	keepPolicy, err := p.String("keep", "first")
	if err != nil {
		return nil, 0, err
	}
	if keepPolicy != "first" && keepPolicy != "last" {
		return nil, 0, core.NewInvalidParametersError("keep must be first or last")
	}

	chosen := map[string]int{}
	order := make([]string, 0, f.RowCount())
	for i := 0; i < f.RowCount(); i++ {
		key := f.RowKey(i, subset)
		if _, seen := chosen[key]; !seen {
			order = append(order, key)
			chosen[key] = i
		} else if keepPolicy == "last" {
			chosen[key] = i
		}
	}
	keep := make([]int, 0, len(order))
	for _, key := range order {
		keep = append(keep, chosen[key])
	}
	sortInts(keep)
	removed := f.RowCount() - len(keep)
	if removed == 0 {
		return f, 0, nil
	}
	nf, err := f.SelectRows(keep)
	if err != nil {
		return nil, 0, err
	}
	return nf, removed, nil
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

func trimWhitespace(f *table.Frame, column string, _ Params) (*table.Frame, int, error) {
	return fillColumnScan(f, column, func(v table.Value) (table.Value, bool) {
		if v.Kind != table.KindString {
			return v, false
		}
		trimmed := strings.TrimSpace(v.Str)
		if trimmed == v.Str {
			return v, false
		}
		if trimmed == "" {
			return table.Null(), true
		}
		return table.String(trimmed), true
	})
}

func standardizeCase(f *table.Frame, column string, p Params) (*table.Frame, int, error) {
	mode, err := p.String("case", "lower")
	if err != nil {
		return nil, 0, err
	}
	var apply func(string) string
	switch mode {
	case "lower":
		apply = strings.ToLower
	case "upper":
		apply = strings.ToUpper
	case "title":
		apply = titleCase
	default:
		return nil, 0, core.NewInvalidParametersError("case must be lower, upper or title")
	}
	return fillColumnScan(f, column, func(v table.Value) (table.Value, bool) {
		if v.Kind != table.KindString {
			return v, false
		}
		cased := apply(v.Str)
		if cased == v.Str {
			return v, false
		}
		return table.String(cased), true
	})
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
