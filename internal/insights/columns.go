package insights

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Column roles detected by header keyword matching.
const (
	roleRevenue  = "revenue"
	roleProfit   = "profit"
	roleCost     = "cost"
	roleChurn    = "churn"
	roleCompany  = "company"
	roleRegion   = "region"
	roleSegment  = "segment"
	roleCategory = "category"
	roleProduct  = "product"
	roleDate     = "date"
	roleDiscount = "discount"
)

var (
	parenNegative = regexp.MustCompile(`\(([^)]+)\)`)
	nonNumeric    = regexp.MustCompile(`[^\d.\-]`)
)

// coerceNumeric parses a raw cell as a number. Currency symbols and
// separators are stripped and accounting parentheses mean negative.
func coerceNumeric(raw string) (float64, bool) {
	cleaned := parenNegative.ReplaceAllString(raw, "-$1")
	cleaned = nonNumeric.ReplaceAllString(cleaned, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// numericColumn is a coerced column: values[i] is meaningful only where
// valid[i] is true.
type numericColumn struct {
	values []float64
	valid  []bool
	count  int
}

// coerceColumn coerces every cell of a raw column.
func coerceColumn(raw []string) numericColumn {
	col := numericColumn{
		values: make([]float64, len(raw)),
		valid:  make([]bool, len(raw)),
	}
	for i, cell := range raw {
		if v, ok := coerceNumeric(cell); ok {
			col.values[i] = v
			col.valid[i] = true
			col.count++
		}
	}
	return col
}

// identifyNumericColumns coerces every column and returns the names of
// those that parse as numeric for at least max(3, 20% of rows) cells,
// in frame order, plus the full coercion cache.
func identifyNumericColumns(f *Frame) ([]string, map[string]numericColumn) {
	threshold := len(f.Rows) / 5
	if threshold < 3 {
		threshold = 3
	}

	var numeric []string
	cache := make(map[string]numericColumn, len(f.Columns))
	for _, name := range f.Columns {
		col := coerceColumn(f.Column(name))
		cache[name] = col
		if col.count >= threshold {
			numeric = append(numeric, name)
		}
	}
	return numeric, cache
}

// detectColumns maps roles to column names by keyword matching over
// lowercased headers. The first matching column wins per role.
func detectColumns(f *Frame) map[string]string {
	mapping := make(map[string]string)
	setdefault := func(role, column string) {
		if _, ok := mapping[role]; !ok {
			mapping[role] = column
		}
	}

	for _, column := range f.Columns {
		name := strings.ToLower(strings.TrimSpace(column))
		if containsAny(name, "sales", "revenue", "turnover", "amount") {
			setdefault(roleRevenue, column)
		}
		if strings.Contains(name, "profit") || strings.Contains(name, "margin") {
			setdefault(roleProfit, column)
		}
		if containsAny(name, "cost", "expense", "cogs") {
			setdefault(roleCost, column)
		}
		if strings.Contains(name, "churn") || strings.Contains(name, "attrition") {
			setdefault(roleChurn, column)
		}
		if containsAny(name, "company", "account", "store", "branch", "customer id") {
			setdefault(roleCompany, column)
		}
		if strings.Contains(name, "region") {
			setdefault(roleRegion, column)
		}
		if strings.Contains(name, "segment") {
			setdefault(roleSegment, column)
		}
		if strings.Contains(name, "category") && !strings.Contains(name, "sub") {
			setdefault(roleCategory, column)
		}
		if strings.Contains(name, "product") {
			setdefault(roleProduct, column)
		}
		if strings.Contains(name, "date") {
			setdefault(roleDate, column)
		}
		if strings.Contains(name, "discount") || strings.Contains(name, "markdown") {
			setdefault(roleDiscount, column)
		}
	}
	return mapping
}

func containsAny(name string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
