package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/KaramelBytes/autolysis/internal/analysis"
	"github.com/KaramelBytes/autolysis/internal/logging"
	"github.com/KaramelBytes/autolysis/internal/utils"
)

// Fallback texts used in place of a narrative.
const (
	NoSummary     = "No AI summary available."
	SummaryFailed = "Unable to generate AI summary."
)

// SummaryPrefix starts the user message sent with every request.
const SummaryPrefix = "Dataset Analysis Summary:\n"

// NarratorConfig selects the backend and request parameters.
type NarratorConfig struct {
	Provider     string
	APIToken     string
	BaseURL      string
	OllamaHost   string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	HTTPTimeout  time.Duration
}

// Narrator asks a chat model to describe an analysis result.
type Narrator struct {
	cfg    NarratorConfig
	logger *slog.Logger
	// runtime overrides the registry lookup when set.
	runtime Runtime
}

// NewNarrator returns a Narrator. A nil logger discards output.
func NewNarrator(cfg NarratorConfig, logger *slog.Logger) *Narrator {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Narrator{cfg: cfg, logger: logger}
}

// WithRuntime makes n send requests through rt instead of the registered
// runtime for its provider.
func (n *Narrator) WithRuntime(rt Runtime) *Narrator {
	n.runtime = rt
	return n
}

// Narrate returns the model's narrative for res. It never fails: a missing
// token yields NoSummary and any request error yields SummaryFailed.
func (n *Narrator) Narrate(ctx context.Context, res *analysis.Result) string {
	if NeedsToken(n.cfg.Provider) && n.cfg.APIToken == "" {
		n.logger.Warn("no API token found, skipping AI summary")
		return NoSummary
	}
	rt := n.runtime
	if rt == nil {
		var ok bool
		rt, ok = GetRuntime(n.cfg.Provider, RuntimeConfig{
			HTTPTimeout: n.cfg.HTTPTimeout,
			APIKey:      n.cfg.APIToken,
			BaseURL:     n.cfg.BaseURL,
			Host:        n.cfg.OllamaHost,
		})
		if !ok {
			n.logger.Warn("unknown AI provider", "provider", n.cfg.Provider)
			return SummaryFailed
		}
	}

	req, err := n.Request(res)
	if err != nil {
		n.logger.Warn("could not build AI request", "error", err)
		return SummaryFailed
	}
	start := time.Now()
	resp, err := rt.Generate(ctx, req)
	if err != nil {
		n.logger.Warn("error getting AI summary", "provider", n.cfg.Provider, "model", n.cfg.Model, "error", err)
		return SummaryFailed
	}
	content, err := resp.Content()
	if err != nil {
		n.logger.Warn("error getting AI summary", "provider", n.cfg.Provider, "model", n.cfg.Model, "error", err)
		return SummaryFailed
	}
	n.logger.Info("AI summary received",
		"model", n.cfg.Model,
		"request_id", resp.RequestID,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return content
}

// Request builds the chat request for res, truncating the summary when it
// would not fit the model's context window.
func (n *Narrator) Request(res *analysis.Result) (GenerateRequest, error) {
	b, err := utils.PrettyJSON(res.Summary())
	if err != nil {
		return GenerateRequest{}, err
	}
	summary := string(b)
	if mi, ok := LookupModel(n.cfg.Model); ok {
		budget := mi.ContextTokens - n.cfg.MaxTokens - utils.CountTokens(n.cfg.SystemPrompt) - utils.CountTokens(SummaryPrefix)
		if got := utils.CountTokens(summary); got > budget {
			n.logger.Warn("analysis summary exceeds model context, truncating",
				"model", n.cfg.Model, "tokens", got, "budget", budget)
			summary = utils.TruncateToTokenLimit(summary, budget)
		}
	}
	return GenerateRequest{
		Model: n.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: n.cfg.SystemPrompt},
			{Role: "user", Content: SummaryPrefix + summary},
		},
		MaxTokens:   n.cfg.MaxTokens,
		Temperature: n.cfg.Temperature,
	}, nil
}
