package cleaning

import (
	"goclean/domain/table"
	"goclean/internal/history"
)

// Scope says what a method rewrites. Column-scope methods touch one column
// and snapshot only it; frame-scope methods may drop or add rows and
// snapshot the whole frame.
type Scope int

const (
	ScopeColumn Scope = iota
	ScopeFrame
)

// TransformFunc rewrites a working frame. It may mutate f in place or return
// a replacement frame, plus the number of cells changed or rows removed.
// The dispatcher always hands over a private clone, so failed transforms
// never leak into session state.
type TransformFunc func(f *table.Frame, column string, p Params) (*table.Frame, int, error)

// Method is one entry of the closed cleaning catalog.
type Method struct {
	Name        string
	Label       string
	Description string
	// Applicable lists the assigned column types the method accepts.
	// Empty means any type.
	Applicable []table.ColumnType
	Scope      Scope
	Fn         TransformFunc
}

// AppliesTo reports whether the method accepts a column of type ct.
func (m Method) AppliesTo(ct table.ColumnType) bool {
	if len(m.Applicable) == 0 {
		return true
	}
	for _, t := range m.Applicable {
		if t == ct {
			return true
		}
	}
	return false
}

// Catalog maps category -> method name -> Method. The catalog is closed:
// requests naming anything outside it are rejected before any state changes.
type Catalog map[history.Category]map[string]Method

var numericTypes = []table.ColumnType{table.TypeContinuous, table.TypeInteger, table.TypeOrdinal}

// DefaultCatalog builds the full method catalog.
func DefaultCatalog() Catalog {
	c := Catalog{}
	reg := func(cat history.Category, m Method) {
		if c[cat] == nil {
			c[cat] = map[string]Method{}
		}
		c[cat][m.Name] = m
	}

	reg(history.CategoryMissingValues, Method{
		Name:        "mean_imputation",
		Label:       "Mean Imputation",
		Description: "Fill missing values with the column mean",
		Applicable:  numericTypes,
		Fn:          meanImputation,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "median_imputation",
		Label:       "Median Imputation",
		Description: "Fill missing values with the column median",
		Applicable:  numericTypes,
		Fn:          medianImputation,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "mode_imputation",
		Label:       "Mode Imputation",
		Description: "Fill missing values with the most frequent value",
		Applicable:  []table.ColumnType{table.TypeCategorical, table.TypeBinary, table.TypeText, table.TypeOrdinal},
		Fn:          modeImputation,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "forward_fill",
		Label:       "Forward Fill",
		Description: "Propagate the last seen value into following gaps",
		Fn:          forwardFill,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "backward_fill",
		Label:       "Backward Fill",
		Description: "Propagate the next seen value into preceding gaps",
		Fn:          backwardFill,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "knn_imputation",
		Label:       "KNN Imputation",
		Description: "Fill missing values from the k nearest rows on the other numeric columns",
		Applicable:  numericTypes,
		Fn:          knnImputation,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "interpolation",
		Label:       "Linear Interpolation",
		Description: "Fill interior gaps on the line between their neighbors",
		Applicable:  numericTypes,
		Fn:          linearInterpolation,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "missing_category",
		Label:       "Missing Category",
		Description: "Fill missing values with an explicit Missing label",
		Applicable:  []table.ColumnType{table.TypeCategorical, table.TypeText},
		Fn:          missingCategory,
	})
	reg(history.CategoryMissingValues, Method{
		Name:        "regression_imputation",
		Label:       "Regression Imputation",
		Description: "Predict missing values from the best correlated numeric column",
		Applicable:  numericTypes,
		Fn:          regressionImputation,
	})

	reg(history.CategoryOutliers, Method{
		Name:        "iqr_removal",
		Label:       "IQR Removal",
		Description: "Drop rows outside the interquartile fences",
		Applicable:  numericTypes,
		Scope:       ScopeFrame,
		Fn:          iqrRemoval,
	})
	reg(history.CategoryOutliers, Method{
		Name:        "zscore_removal",
		Label:       "Z-Score Removal",
		Description: "Drop rows beyond a z-score threshold",
		Applicable:  numericTypes,
		Scope:       ScopeFrame,
		Fn:          zscoreRemoval,
	})
	reg(history.CategoryOutliers, Method{
		Name:        "winsorization",
		Label:       "Winsorization",
		Description: "Clamp values to chosen percentiles",
		Applicable:  numericTypes,
		Fn:          winsorization,
	})
	reg(history.CategoryOutliers, Method{
		Name:        "log_transformation",
		Label:       "Log Transformation",
		Description: "Apply log(1+x) to compress a long right tail",
		Applicable:  numericTypes,
		Fn:          logTransformation,
	})
	reg(history.CategoryOutliers, Method{
		Name:        "cap_outliers",
		Label:       "Cap Outliers",
		Description: "Clamp values to explicit lower and upper bounds",
		Applicable:  numericTypes,
		Fn:          capOutliers,
	})
	reg(history.CategoryOutliers, Method{
		Name:        "isolation_forest",
		Label:       "Isolation Forest",
		Description: "Drop the rows an isolation forest scores as most anomalous",
		Applicable:  numericTypes,
		Scope:       ScopeFrame,
		Fn:          isolationForestRemoval,
	})

	reg(history.CategoryDataQuality, Method{
		Name:        "type_standardization",
		Label:       "Type Standardization",
		Description: "Coerce every cell to the column's assigned type",
		Fn:          typeStandardization,
	})
	reg(history.CategoryDataQuality, Method{
		Name:        "remove_duplicates",
		Label:       "Remove Duplicates",
		Description: "Drop duplicate rows, keeping the first or last occurrence",
		Scope:       ScopeFrame,
		Fn:          removeDuplicateRows,
	})
	reg(history.CategoryDataQuality, Method{
		Name:        "trim_whitespace",
		Label:       "Trim Whitespace",
		Description: "Strip leading and trailing whitespace",
		Applicable:  []table.ColumnType{table.TypeText, table.TypeCategorical},
		Fn:          trimWhitespace,
	})
	reg(history.CategoryDataQuality, Method{
		Name:        "standardize_case",
		Label:       "Standardize Case",
		Description: "Normalize text casing",
		Applicable:  []table.ColumnType{table.TypeText, table.TypeCategorical},
		Fn:          standardizeCase,
	})

	return c
}

// MethodInfo is the catalog listing shape served to clients.
type MethodInfo struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Applicable  []string `json:"applicable_types"`
}

// Describe lists the catalog grouped by category, with stable method order.
func (c Catalog) Describe() map[string][]MethodInfo {
	out := make(map[string][]MethodInfo, len(c))
	for cat, methods := range c {
		infos := make([]MethodInfo, 0, len(methods))
		for _, m := range methods {
			applicable := make([]string, 0, len(m.Applicable))
			for _, t := range m.Applicable {
				applicable = append(applicable, string(t))
			}
			if len(applicable) == 0 {
				applicable = []string{"all"}
			}
			infos = append(infos, MethodInfo{
				Name:        m.Name,
				Label:       m.Label,
				Description: m.Description,
				Applicable:  applicable,
			})
		}
		sortMethodInfos(infos)
		out[string(cat)] = infos
	}
	return out
}

func sortMethodInfos(infos []MethodInfo) {
	for i := 1; i < len(infos); i++ {
		for j := i; j > 0 && infos[j].Name < infos[j-1].Name; j-- {
			infos[j], infos[j-1] = infos[j-1], infos[j]
		}
	}
}
