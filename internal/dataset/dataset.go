// Package dataset loads a CSV file into an immutable, typed table.
//
// Column types come from gota's detection: int and float columns are
// numeric, bool columns are boolean, and everything else is categorical.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the coarse classification of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
)

// missingTokens are read as missing values in every column. The set is the
// one pandas applies by default.
var missingTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Dataset is a loaded table. It is never mutated after Parse returns.
type Dataset struct {
	// Name is the input file's base name without extension.
	Name string
	// Encoding is the text encoding the file was decoded with.
	Encoding string

	df      dataframe.DataFrame
	columns []string
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string
	Count int
}

// Parse reads UTF-8 CSV content from r. A header without data rows yields
// an empty dataset whose columns are all categorical.
func Parse(name string, r io.Reader) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errors.New("parse csv: no columns")
	}

	var df dataframe.DataFrame
	if len(records) == 1 {
		cols := make([]series.Series, len(records[0]))
		for i, h := range records[0] {
			cols[i] = series.New([]string{}, series.String, h)
		}
		df = dataframe.New(cols...)
	} else {
		for i := range records[0] {
			normalizeColumn(records[1:], i)
		}
		df = dataframe.LoadRecords(records, dataframe.NaNValues(missingTokens))
	}
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	return &Dataset{Name: name, df: df, columns: df.Names()}, nil
}

// normalizeColumn rewrites column i so gota's type detection sees what
// pandas would parse: numbers with surrounding spaces, and True/False in
// any of the spellings pandas accepts. Columns that would stay text are
// left untouched.
func normalizeColumn(rows [][]string, i int) {
	numeric, boolean := true, true
	for _, row := range rows {
		cell := row[i]
		if isMissing(cell) {
			continue
		}
		t := strings.TrimSpace(cell)
		if _, err := strconv.ParseFloat(t, 64); err != nil {
			numeric = false
		}
		if _, ok := boolToken(t); !ok {
			boolean = false
		}
		if !numeric && !boolean {
			return
		}
	}
	for _, row := range rows {
		if isMissing(row[i]) {
			continue
		}
		t := strings.TrimSpace(row[i])
		if boolean {
			t, _ = boolToken(t)
		}
		row[i] = t
	}
}

func boolToken(s string) (string, bool) {
	switch s {
	case "True", "TRUE", "true":
		return "true", true
	case "False", "FALSE", "false":
		return "false", true
	}
	return "", false
}

func isMissing(cell string) bool {
	for _, tok := range missingTokens {
		if cell == tok {
			return true
		}
	}
	return false
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int { return d.df.Nrow() }

// Columns returns column names in file order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Kind classifies col.
func (d *Dataset) Kind(col string) Kind {
	switch d.df.Col(col).Type() {
	case series.Int, series.Float:
		return KindNumeric
	case series.Bool:
		return KindBoolean
	default:
		return KindCategorical
	}
}

// ColumnsOfKind returns the columns classified as k, in file order.
func (d *Dataset) ColumnsOfKind(k Kind) []string {
	var out []string
	for _, c := range d.columns {
		if d.Kind(c) == k {
			out = append(out, c)
		}
	}
	return out
}

// TypeName renders col's storage type the way pandas names dtypes.
// An int column holding missing values is reported as float64.
func (d *Dataset) TypeName(col string) string {
	switch d.df.Col(col).Type() {
	case series.Int:
		if d.Missing(col) > 0 {
			return "float64"
		}
		return "int64"
	case series.Float:
		return "float64"
	case series.Bool:
		if d.Missing(col) > 0 {
			return "object"
		}
		return "bool"
	default:
		return "object"
	}
}

// Missing returns the number of missing cells in col.
func (d *Dataset) Missing(col string) int {
	n := 0
	for _, na := range d.df.Col(col).IsNaN() {
		if na {
			n++
		}
	}
	return n
}

// Numeric returns the non-missing values of a numeric column in row order.
// It returns nil for non-numeric columns.
func (d *Dataset) Numeric(col string) []float64 {
	if d.Kind(col) != KindNumeric {
		return nil
	}
	vals := d.df.Col(col).Float()
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NumericPairs returns the rows where both numeric columns a and b are present.
func (d *Dataset) NumericPairs(a, b string) (x, y []float64) {
	if d.Kind(a) != KindNumeric || d.Kind(b) != KindNumeric {
		return nil, nil
	}
	xa := d.df.Col(a).Float()
	yb := d.df.Col(b).Float()
	for i := range xa {
		if i >= len(yb) {
			break
		}
		if math.IsNaN(xa[i]) || math.IsNaN(yb[i]) {
			continue
		}
		x = append(x, xa[i])
		y = append(y, yb[i])
	}
	return x, y
}

// Values returns the non-missing cells of col as strings.
func (d *Dataset) Values(col string) []string {
	s := d.df.Col(col)
	recs := s.Records()
	nan := s.IsNaN()
	out := make([]string, 0, len(recs))
	for i, r := range recs {
		if i < len(nan) && nan[i] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TopValues returns the n most frequent non-missing values of col, highest
// count first. Ties keep first-appearance order.
func (d *Dataset) TopValues(col string, n int) []ValueCount {
	counts := map[string]int{}
	var order []string
	for _, v := range d.Values(col) {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	tops := make([]ValueCount, 0, len(order))
	for _, v := range order {
		tops = append(tops, ValueCount{Value: v, Count: counts[v]})
	}
	sort.SliceStable(tops, func(i, j int) bool { return tops[i].Count > tops[j].Count })
	if n > 0 && len(tops) > n {
		tops = tops[:n]
	}
	return tops
}
