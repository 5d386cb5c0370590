// Package pipeline runs one CSV file through load, analysis, charts,
// narrative and report.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/autolysis/internal/ai"
	"github.com/KaramelBytes/autolysis/internal/analysis"
	"github.com/KaramelBytes/autolysis/internal/chart"
	"github.com/KaramelBytes/autolysis/internal/dataset"
	"github.com/KaramelBytes/autolysis/internal/logging"
	"github.com/KaramelBytes/autolysis/internal/recommend"
	"github.com/KaramelBytes/autolysis/internal/report"
	"github.com/KaramelBytes/autolysis/internal/utils"
)

// Options configure a Pipeline.
type Options struct {
	// OutputRoot is the parent of the per-dataset output directory.
	OutputRoot         string
	DetectEncoding     bool
	DedupeCorrelations bool
	// Narrative enables the chat request. When false the report carries
	// the no-summary text.
	Narrative bool
	Narrator  ai.NarratorConfig
	// Runtime replaces the registered runtime for Narrator.Provider.
	Runtime ai.Runtime
	Logger  *slog.Logger
}

// Outcome describes a finished run.
type Outcome struct {
	RunID  string
	Dir    string
	Report string
	Images []chart.Image
	Result *analysis.Result
}

// Pipeline analyzes CSV files. It holds no per-run state.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// New returns a Pipeline for opts.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = "."
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Run analyzes csvPath and writes its report under OutputRoot. Only load
// failures and filesystem errors on the output directory are returned;
// chart and narrative problems are logged and the run continues.
func (p *Pipeline) Run(ctx context.Context, csvPath string) (*Outcome, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()
	logger.Info("starting analysis", "path", csvPath)

	loader := &dataset.Loader{Logger: logger, DetectEncoding: p.opts.DetectEncoding}
	ds, err := loader.Load(csvPath)
	if err != nil {
		return nil, err
	}

	res := analysis.Analyze(ds)
	logger.Info("dataset analyzed",
		"rows", res.BasicInfo.TotalRows,
		"columns", len(res.BasicInfo.Columns),
		"numeric", len(res.SummaryStatistics),
		"correlation", res.CorrelationMatrix != nil,
	)
	recs := recommend.Generate(res, ds, recommend.Options{DedupeCorrelations: p.opts.DedupeCorrelations})

	dir := filepath.Join(p.opts.OutputRoot, utils.SafeFileComponent(ds.Name))
	images, err := (&chart.Renderer{Logger: logger}).Render(dir, res, ds)
	if err != nil {
		return nil, err
	}

	narrative := ai.NoSummary
	if p.opts.Narrative {
		n := ai.NewNarrator(p.opts.Narrator, logger)
		if p.opts.Runtime != nil {
			n.WithRuntime(p.opts.Runtime)
		}
		narrative = n.Narrate(ctx, res)
	} else {
		logger.Info("AI summary disabled")
	}

	path, err := report.Write(dir, &report.Report{
		Name:            ds.Name,
		Narrative:       narrative,
		Result:          res,
		Images:          images,
		Recommendations: recs,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("analysis complete", "dir", dir, "images", len(images), "elapsed", time.Since(start).Round(time.Millisecond))
	return &Outcome{RunID: runID, Dir: dir, Report: path, Images: images, Result: res}, nil
}
