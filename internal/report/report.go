// Package report renders the analysis README.
package report

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/KaramelBytes/autolysis/internal/analysis"
	"github.com/KaramelBytes/autolysis/internal/chart"
	"github.com/KaramelBytes/autolysis/internal/utils"
)

// FileName is the report written into the output directory.
const FileName = "README.md"

// Report holds everything rendered into the README.
type Report struct {
	// Name is the dataset name; it is capitalized in the title.
	Name            string
	Narrative       string
	Result          *analysis.Result
	Images          []chart.Image
	Recommendations string
}

// Markdown renders the report.
func (r *Report) Markdown() (string, error) {
	res := r.Result
	var b strings.Builder
	fmt.Fprintf(&b, "# Data Analysis Report: %s\n\n", utils.Capitalize(r.Name))

	b.WriteString("## Dataset Overview\n")
	b.WriteString(r.Narrative)
	b.WriteString("\n\n## Technical Analysis\n\n")

	types, err := orderedObject(res.BasicInfo.Columns, res.BasicInfo.ColumnTypes)
	if err != nil {
		return "", fmt.Errorf("column types: %w", err)
	}
	b.WriteString("### Basic Information\n")
	fmt.Fprintf(&b, "- Total Rows: %d\n", res.BasicInfo.TotalRows)
	fmt.Fprintf(&b, "- Columns: %s\n", strings.Join(res.BasicInfo.Columns, ", "))
	fmt.Fprintf(&b, "- Column Types: %s\n\n", types)

	b.WriteString("### Missing Data\n")
	var missing []string
	for _, c := range res.BasicInfo.Columns {
		if n := res.MissingData[c]; n > 0 {
			missing = append(missing, fmt.Sprintf("- %s: %d missing values", c, n))
		}
	}
	b.WriteString(strings.Join(missing, "\n"))
	b.WriteString("\n\n### Summary Statistics\n")
	var stats []string
	for _, c := range res.NumericColumns() {
		sb, err := json.MarshalIndent(res.SummaryStatistics[c], "", "  ")
		if err != nil {
			return "", fmt.Errorf("summary statistics for %s: %w", c, err)
		}
		stats = append(stats, fmt.Sprintf("#### %s\n%s", c, sb))
	}
	b.WriteString(strings.Join(stats, "\n"))

	b.WriteString("\n\n## Visualizations\n")
	var links []string
	for _, img := range r.Images {
		links = append(links, fmt.Sprintf("- [%s](%s)", img.Title, url.PathEscape(img.File)))
	}
	b.WriteString(strings.Join(links, "\n"))

	b.WriteString("\n\n## Recommendations\n")
	b.WriteString(r.Recommendations)
	b.WriteString("\n")
	return b.String(), nil
}

// Write renders r into dir/README.md, replacing any previous report, and
// returns the file path.
func Write(dir string, r *Report) (string, error) {
	md, err := r.Markdown()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := utils.SafeWriteFile(path, []byte(md)); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// orderedObject renders an indented JSON object with keys in the given order.
func orderedObject(keys []string, values map[string]string) (string, error) {
	if len(keys) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return "", err
		}
		vb, err := json.Marshal(values[k])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "  %s: %s", kb, vb)
		if i < len(keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.String(), nil
}
