package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/autolysis/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Analyze derives the analysis result for ds.
func Analyze(ds *dataset.Dataset) *Result {
	cols := ds.Columns()
	res := &Result{
		BasicInfo: BasicInfo{
			TotalRows:   ds.Rows(),
			Columns:     cols,
			ColumnTypes: make(map[string]string, len(cols)),
		},
		MissingData:       make(map[string]int, len(cols)),
		SummaryStatistics: map[string]ColumnStats{},
	}
	for _, c := range cols {
		res.BasicInfo.ColumnTypes[c] = ds.TypeName(c)
		res.MissingData[c] = ds.Missing(c)
	}

	numeric := ds.ColumnsOfKind(dataset.KindNumeric)
	for _, c := range numeric {
		res.SummaryStatistics[c] = Describe(ds.Numeric(c))
	}
	if len(numeric) >= 2 {
		res.CorrelationMatrix = correlate(ds, numeric)
	}
	return res
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max of vals.
func Describe(vals []float64) ColumnStats {
	st := ColumnStats{Count: float64(len(vals))}
	if len(vals) == 0 {
		return st
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	st.Mean = Float(stat.Mean(vals, nil))
	if len(vals) > 1 {
		st.Std = Float(stat.StdDev(vals, nil))
	}
	st.Min = Float(sorted[0])
	st.P25 = Float(quantile(sorted, 0.25))
	st.P50 = Float(quantile(sorted, 0.50))
	st.P75 = Float(quantile(sorted, 0.75))
	st.Max = Float(sorted[len(sorted)-1])
	return st
}

// Skewness returns the adjusted Fisher-Pearson sample skewness of vals.
// It is NaN for fewer than three values and zero for constant input.
func Skewness(vals []float64) float64 {
	if len(vals) < 3 {
		return math.NaN()
	}
	if _, std := stat.MeanStdDev(vals, nil); std == 0 {
		return 0
	}
	return stat.Skew(vals, nil)
}

// Pearson returns the correlation coefficient of paired samples, or NaN when
// it is undefined.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	return clamp(r, -1, 1)
}

func correlate(ds *dataset.Dataset, cols []string) *CorrelationMatrix {
	n := len(cols)
	m := &CorrelationMatrix{Columns: append([]string(nil), cols...), Values: make([][]NullFloat, n)}
	for i := range m.Values {
		m.Values[i] = make([]NullFloat, n)
		m.Values[i][i] = Float(1)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := ds.NumericPairs(cols[i], cols[j])
			r := Float(Pearson(x, y))
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// quantile returns the q-th quantile of sorted data using linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
