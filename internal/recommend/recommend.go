// Package recommend turns an analysis result into plain-text advice.
package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/autolysis/internal/analysis"
	"github.com/KaramelBytes/autolysis/internal/dataset"
)

// None is returned when no rule fires.
const None = "No specific recommendations could be generated."

const (
	dropMissingPct  = 50.0
	strongCorr      = 0.8
	significantSkew = 1.0
)

// Options tune the generator.
type Options struct {
	// DedupeCorrelations reports each strongly correlated pair once
	// instead of once per ordering.
	DedupeCorrelations bool
}

// Generate applies the missing-data, correlation and skew rules to res and
// returns their lines joined by newlines.
func Generate(res *analysis.Result, ds *dataset.Dataset, opts Options) string {
	var lines []string
	lines = append(lines, missingData(res)...)
	lines = append(lines, correlations(res, opts)...)
	lines = append(lines, skew(res, ds)...)
	if len(lines) == 0 {
		return None
	}
	return strings.Join(lines, "\n")
}

func missingData(res *analysis.Result) []string {
	var cols []string
	for _, c := range res.BasicInfo.Columns {
		if res.MissingData[c] > 0 {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	lines := []string{
		fmt.Sprintf("Data Quality Alert: %d columns have missing data.", len(cols)),
		"Recommendations:",
	}
	rows := res.BasicInfo.TotalRows
	for _, c := range cols {
		pct := 0.0
		if rows > 0 {
			pct = float64(res.MissingData[c]) / float64(rows) * 100
		}
		if pct > dropMissingPct {
			lines = append(lines, fmt.Sprintf("- Consider dropping column '%s' due to high missing data (%.2f%%)", c, pct))
		} else {
			lines = append(lines, fmt.Sprintf("- Investigate and potentially impute missing values in '%s'", c))
		}
	}
	return lines
}

func correlations(res *analysis.Result, opts Options) []string {
	m := res.CorrelationMatrix
	if m == nil {
		return nil
	}
	var lines []string
	for i, a := range m.Columns {
		for j, b := range m.Columns {
			if i == j || (opts.DedupeCorrelations && j < i) {
				continue
			}
			r := m.Values[i][j]
			if !r.Valid || math.Abs(r.Float64) <= strongCorr {
				continue
			}
			lines = append(lines,
				fmt.Sprintf("- Strong correlation between %s and %s (r = %.2f)", a, b, r.Float64),
				"  Consider feature engineering or checking for multicollinearity",
			)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{"Correlation Insights:"}, lines...)
}

func skew(res *analysis.Result, ds *dataset.Dataset) []string {
	var lines []string
	for _, c := range res.NumericColumns() {
		s := analysis.Skewness(ds.Numeric(c))
		if math.IsNaN(s) || math.Abs(s) <= significantSkew {
			continue
		}
		direction := "right"
		if s < 0 {
			direction = "left"
		}
		lines = append(lines,
			fmt.Sprintf("- Column '%s' shows significant %s-skewed distribution", c, direction),
			"  Consider applying transformation (log, sqrt) to normalize",
		)
	}
	return lines
}
