// Package chart renders PNG charts for an analysis result.
package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/autolysis/internal/analysis"
	"github.com/KaramelBytes/autolysis/internal/dataset"
	"github.com/KaramelBytes/autolysis/internal/logging"
	"github.com/KaramelBytes/autolysis/internal/utils"
)

// HeatmapFile is the file name of the correlation heatmap.
const HeatmapFile = "correlation_heatmap.png"

// TopN is the number of categories drawn per bar chart.
const TopN = 10

// Image is one chart written to disk. File is relative to the output
// directory.
type Image struct {
	Title string
	File  string
}

// Renderer writes charts into a directory.
type Renderer struct {
	Logger *slog.Logger
}

// CategoryFile returns the bar chart file name for col.
func CategoryFile(col string) string {
	return utils.SafeFileComponent(col) + "_top_categories.png"
}

// categoryFiles assigns each column a distinct file name. Columns whose
// names sanitize to the same string get a numeric suffix in column order.
func categoryFiles(cols []string) map[string]string {
	used := map[string]bool{}
	out := make(map[string]string, len(cols))
	for _, col := range cols {
		file := CategoryFile(col)
		base := utils.SafeFileComponent(col)
		for n := 2; used[file]; n++ {
			file = base + "_" + strconv.Itoa(n) + "_top_categories.png"
		}
		used[file] = true
		out[col] = file
	}
	return out
}

// Render writes the correlation heatmap and one bar chart per categorical
// column into dir. A chart that fails is logged and left out of the result.
// Only failing to create dir is returned as an error.
func (r *Renderer) Render(dir string, res *analysis.Result, ds *dataset.Dataset) ([]Image, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var images []Image
	if res.CorrelationMatrix != nil {
		title := "Correlation Heatmap - " + utils.Capitalize(ds.Name)
		if err := heatmap(filepath.Join(dir, HeatmapFile), title, res.CorrelationMatrix); err != nil {
			logger.Warn("could not create correlation heatmap", "error", err)
		} else {
			images = append(images, Image{Title: "Correlation Heatmap", File: HeatmapFile})
			logger.Debug("chart written", "file", HeatmapFile)
		}
	}

	cols := ds.ColumnsOfKind(dataset.KindCategorical)
	files := categoryFiles(cols)
	for _, col := range cols {
		file := files[col]
		if err := categories(filepath.Join(dir, file), col, ds.TopValues(col, TopN)); err != nil {
			logger.Warn("could not create bar chart", "column", col, "error", err)
			continue
		}
		images = append(images, Image{Title: "Top Categories - " + col, File: file})
		logger.Debug("chart written", "file", file)
	}
	return images, nil
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ with row 0 drawn
// at the top.
type corrGrid struct {
	m *analysis.CorrelationMatrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	return g.m.Values[len(g.m.Columns)-1-r][c].OrNaN()
}

func (g corrGrid) X(c int) float64 { return float64(c) }

func (g corrGrid) Y(r int) float64 { return float64(r) }

func heatmap(path, title string, m *analysis.CorrelationMatrix) error {
	n := len(m.Columns)
	if n == 0 {
		return errors.New("empty correlation matrix")
	}
	p := plot.New()
	p.Title.Text = title

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	hm := plotter.NewHeatMap(corrGrid{m: m}, cmap.Palette(255))
	hm.Min, hm.Max = -1, 1
	p.Add(hm)

	var (
		xys    plotter.XYs
		labels []string
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.Values[i][j]
			label := "nan"
			if v.Valid {
				label = strconv.FormatFloat(v.Float64, 'f', 2, 64)
			}
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			labels = append(labels, label)
		}
	}
	annot, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("annotate heatmap: %w", err)
	}
	for i := range annot.TextStyle {
		annot.TextStyle[i].XAlign = text.XCenter
		annot.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(annot)

	rows := make([]string, n)
	for i, c := range m.Columns {
		rows[n-1-i] = c
	}
	p.NominalX(m.Columns...)
	p.NominalY(rows...)
	rotateX(p)

	if err := p.Save(10*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

func categories(path, col string, tops []dataset.ValueCount) error {
	if len(tops) == 0 {
		return fmt.Errorf("column %q has no values", col)
	}
	p := plot.New()
	p.Title.Text = "Top 10 Categories - " + col
	p.X.Label.Text = col
	p.Y.Label.Text = "Count"

	vals := make(plotter.Values, len(tops))
	names := make([]string, len(tops))
	for i, t := range tops {
		vals[i] = float64(t.Count)
		names[i] = t.Value
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(30))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	p.Y.Min = 0
	rotateX(p)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save bar chart: %w", err)
	}
	return nil
}

func rotateX(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}
