// Package analysis derives descriptive statistics from a loaded dataset.
package analysis

import (
	"math"

	json "github.com/goccy/go-json"
)

// NullFloat is a float64 that serializes as JSON null when undefined.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps v, marking NaN and ±Inf as undefined.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// OrNaN returns the value, or NaN when undefined.
func (n NullFloat) OrNaN() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// BasicInfo describes the table's shape.
type BasicInfo struct {
	TotalRows   int               `json:"total_rows"`
	Columns     []string          `json:"columns"`
	ColumnTypes map[string]string `json:"column_types"`
}

// ColumnStats mirrors a describe() row for one numeric column.
type ColumnStats struct {
	Count float64   `json:"count"`
	Mean  NullFloat `json:"mean"`
	Std   NullFloat `json:"std"`
	Min   NullFloat `json:"min"`
	P25   NullFloat `json:"25%"`
	P50   NullFloat `json:"50%"`
	P75   NullFloat `json:"75%"`
	Max   NullFloat `json:"max"`
}

// CorrelationMatrix is a square Pearson matrix; Values[i][j] pairs
// Columns[i] with Columns[j].
type CorrelationMatrix struct {
	Columns []string      `json:"columns"`
	Values  [][]NullFloat `json:"values"`
}

// Index returns the position of col, or -1.
func (m *CorrelationMatrix) Index(col string) int {
	for i, c := range m.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// At returns the coefficient for (a, b).
func (m *CorrelationMatrix) At(a, b string) (NullFloat, bool) {
	i, j := m.Index(a), m.Index(b)
	if i < 0 || j < 0 {
		return NullFloat{}, false
	}
	return m.Values[i][j], true
}

// Result is the analysis of one dataset. It is not modified after Analyze
// returns.
type Result struct {
	BasicInfo         BasicInfo              `json:"basic_info"`
	MissingData       map[string]int         `json:"missing_data"`
	SummaryStatistics map[string]ColumnStats `json:"summary_statistics"`
	// CorrelationMatrix is nil when fewer than two numeric columns exist.
	CorrelationMatrix *CorrelationMatrix `json:"correlation_matrix,omitempty"`
}

// NumericColumns returns the columns that have summary statistics, in
// column order.
func (r *Result) NumericColumns() []string {
	var out []string
	for _, c := range r.BasicInfo.Columns {
		if _, ok := r.SummaryStatistics[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// JSON returns the indented JSON encoding of r.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Summary returns r as a nested map of JSON primitives, shaped like the
// dictionaries pandas produces: statistics keyed column -> stat, and the
// correlation matrix keyed column -> column.
func (r *Result) Summary() map[string]any {
	stats := make(map[string]any, len(r.SummaryStatistics))
	for col, s := range r.SummaryStatistics {
		stats[col] = map[string]any{
			"count": s.Count,
			"mean":  s.Mean,
			"std":   s.Std,
			"min":   s.Min,
			"25%":   s.P25,
			"50%":   s.P50,
			"75%":   s.P75,
			"max":   s.Max,
		}
	}
	out := map[string]any{
		"basic_info": map[string]any{
			"total_rows":   r.BasicInfo.TotalRows,
			"columns":      r.BasicInfo.Columns,
			"column_types": r.BasicInfo.ColumnTypes,
		},
		"missing_data":       r.MissingData,
		"summary_statistics": stats,
	}
	if m := r.CorrelationMatrix; m != nil {
		corr := make(map[string]any, len(m.Columns))
		for i, a := range m.Columns {
			row := make(map[string]any, len(m.Columns))
			for j, b := range m.Columns {
				row[b] = m.Values[i][j]
			}
			corr[a] = row
		}
		out["correlation_matrix"] = corr
	}
	return Normalize(out).(map[string]any)
}
