package recommend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autolysis/internal/analysis"
	"github.com/KaramelBytes/autolysis/internal/dataset"
)

func run(t *testing.T, csv string, opts Options) string {
	t.Helper()
	ds, err := dataset.Parse("sample", strings.NewReader(csv))
	require.NoError(t, err)
	return Generate(analysis.Analyze(ds), ds, opts)
}

func TestNoRulesFire(t *testing.T) {
	got := run(t, "a,b,label\n1,5,x\n2,3,y\n3,6,z\n4,4,x\n", Options{})
	assert.Equal(t, None, got)
}

func TestMissingData(t *testing.T) {
	csv := "sparse,some,full\n,1,1\n,2,2\n,,3\n4,4,4\n"
	got := run(t, csv, Options{})
	want := strings.Join([]string{
		"Data Quality Alert: 2 columns have missing data.",
		"Recommendations:",
		"- Consider dropping column 'sparse' due to high missing data (75.00%)",
		"- Investigate and potentially impute missing values in 'some'",
	}, "\n")
	assert.True(t, strings.HasPrefix(got, want), got)
	assert.NotContains(t, got, "'full'")
}

func TestStrongCorrelationReportedBothWays(t *testing.T) {
	got := run(t, "x,y\n1,2.1\n2,3.9\n3,6.2\n4,8.1\n5,9.8\n", Options{})
	assert.Contains(t, got, "Correlation Insights:\n- Strong correlation between x and y (r = 1.00)\n  Consider feature engineering or checking for multicollinearity")
	assert.Contains(t, got, "- Strong correlation between y and x (r = 1.00)")
}

func TestStrongCorrelationDeduped(t *testing.T) {
	got := run(t, "x,y\n1,2.1\n2,3.9\n3,6.2\n4,8.1\n5,9.8\n", Options{DedupeCorrelations: true})
	assert.Contains(t, got, "- Strong correlation between x and y")
	assert.NotContains(t, got, "between y and x")
}

func TestNegativeCorrelation(t *testing.T) {
	got := run(t, "x,y\n1,10\n2,8\n3,6\n4,4\n5,2\n", Options{DedupeCorrelations: true})
	assert.Contains(t, got, "- Strong correlation between x and y (r = -1.00)")
}

func TestSkew(t *testing.T) {
	got := run(t, "right,left\n1,-10\n1,1\n1,1\n1,1\n10,1\n", Options{})
	assert.Contains(t, got, "- Column 'right' shows significant right-skewed distribution\n  Consider applying transformation (log, sqrt) to normalize")
	assert.Contains(t, got, "- Column 'left' shows significant left-skewed distribution")
}

func TestRuleOrder(t *testing.T) {
	got := run(t, "a,b\n1,1\n1,1\n1,1\n,1\n10,10\n", Options{DedupeCorrelations: true})
	lines := strings.Split(got, "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Data Quality Alert: 1 columns have missing data.", lines[0])
	corr := strings.Index(got, "Correlation Insights:")
	sk := strings.Index(got, "shows significant")
	require.Positive(t, corr)
	require.Positive(t, sk)
	assert.Less(t, corr, sk)
}
