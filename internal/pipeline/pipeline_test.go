package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autolysis/internal/ai"
	"github.com/KaramelBytes/autolysis/internal/chart"
	"github.com/KaramelBytes/autolysis/internal/dataset"
)

func serve(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return "http://" + ln.Addr().String()
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hundredRows() string {
	var b strings.Builder
	b.WriteString("id,category,score\n")
	for i := 1; i <= 100; i++ {
		fmt.Fprintf(&b, "%d,%s,%d\n", i, []string{"alpha", "beta", "gamma", "delta"}[i%4], i*3+7)
	}
	return b.String()
}

func narratorConfig(baseURL string) ai.NarratorConfig {
	return ai.NarratorConfig{
		Provider:     ai.ProviderOpenAI,
		APIToken:     "tok",
		BaseURL:      baseURL,
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a data storyteller.",
		MaxTokens:    1000,
		HTTPTimeout:  2 * time.Second,
	}
}

func readReport(t *testing.T, out *Outcome) string {
	t.Helper()
	b, err := os.ReadFile(out.Report)
	require.NoError(t, err)
	return string(b)
}

func TestRunHundredRowsWithServerError(t *testing.T) {
	var hits int32
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "down"}})
	})
	root := t.TempDir()
	csv := writeCSV(t, "sales.csv", hundredRows())

	out, err := New(Options{OutputRoot: root, Narrative: true, Narrator: narratorConfig(url)}).Run(context.Background(), csv)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	assert.Equal(t, filepath.Join(root, "sales"), out.Dir)
	assert.Equal(t, filepath.Join(root, "sales", "README.md"), out.Report)
	_, err = uuid.Parse(out.RunID)
	assert.NoError(t, err)

	assert.Equal(t, 100, out.Result.BasicInfo.TotalRows)
	assert.Len(t, out.Result.SummaryStatistics, 2)
	require.NotNil(t, out.Result.CorrelationMatrix)

	require.Equal(t, []chart.Image{
		{Title: "Correlation Heatmap", File: chart.HeatmapFile},
		{Title: "Top Categories - category", File: "category_top_categories.png"},
	}, out.Images)
	for _, img := range out.Images {
		_, err := os.Stat(filepath.Join(out.Dir, img.File))
		assert.NoError(t, err, img.File)
	}

	md := readReport(t, out)
	assert.Contains(t, md, "# Data Analysis Report: Sales\n")
	assert.Contains(t, md, "## Dataset Overview\n"+ai.SummaryFailed+"\n")
	assert.Contains(t, md, "- Total Rows: 100\n")
	assert.Contains(t, md, "### Missing Data\n\n\n")
	assert.Contains(t, md, "- Strong correlation between id and score (r = 1.00)")
	assert.Contains(t, md, "- [Top Categories - category](category_top_categories.png)")
}

func TestRunNarrativeSuccess(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "Scores climb steadily."}}},
		})
	})
	out, err := New(Options{OutputRoot: t.TempDir(), Narrative: true, Narrator: narratorConfig(url)}).
		Run(context.Background(), writeCSV(t, "scores.csv", hundredRows()))
	require.NoError(t, err)
	assert.Contains(t, readReport(t, out), "## Dataset Overview\nScores climb steadily.\n")
}

func TestRunWithoutToken(t *testing.T) {
	cfg := narratorConfig("http://127.0.0.1:1")
	cfg.APIToken = ""
	out, err := New(Options{OutputRoot: t.TempDir(), Narrative: true, Narrator: cfg}).
		Run(context.Background(), writeCSV(t, "plain.csv", "a,b\n1,2\n2,5\n3,4\n"))
	require.NoError(t, err)
	assert.Contains(t, readReport(t, out), "## Dataset Overview\n"+ai.NoSummary+"\n")
}

func TestRunNarrativeDisabled(t *testing.T) {
	rt := &countingRuntime{}
	out, err := New(Options{OutputRoot: t.TempDir(), Narrator: narratorConfig(""), Runtime: rt}).
		Run(context.Background(), writeCSV(t, "plain.csv", "a\n1\n2\n"))
	require.NoError(t, err)
	assert.Zero(t, rt.calls)
	assert.Contains(t, readReport(t, out), ai.NoSummary)
	assert.Empty(t, out.Images)
}

type countingRuntime struct{ calls int }

func (c *countingRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	c.calls++
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Content: "fake"}}}}, nil
}

func TestRunLatin1(t *testing.T) {
	raw := []byte("plat,prix\ncaf\xe9,2\ncr\xeape,5\nth\xe9,3\n")
	path := filepath.Join(t.TempDir(), "menu.csv")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	out, err := New(Options{OutputRoot: t.TempDir()}).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Result.BasicInfo.TotalRows)
	assert.Contains(t, readReport(t, out), "# Data Analysis Report: Menu")
}

func TestRunHeaderOnlyFile(t *testing.T) {
	out, err := New(Options{OutputRoot: t.TempDir()}).
		Run(context.Background(), writeCSV(t, "columns.csv", "a,b,c\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Result.BasicInfo.TotalRows)
	assert.Nil(t, out.Result.CorrelationMatrix)
	assert.Empty(t, out.Images)
	assert.Contains(t, readReport(t, out), "- Total Rows: 0\n")
}

func TestRunMissingFile(t *testing.T) {
	_, err := New(Options{OutputRoot: t.TempDir()}).Run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrLoad)
}

func TestRunOutputDirFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := New(Options{OutputRoot: blocker}).Run(context.Background(), writeCSV(t, "data.csv", "a\n1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output dir")
}

func TestRunIDsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := New(Options{OutputRoot: t.TempDir(), Logger: logger})
	csv := writeCSV(t, "data.csv", "a,b\n1,2\n2,3\n")

	first, err := p.Run(context.Background(), csv)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), csv)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Dir, second.Dir)
	assert.Contains(t, buf.String(), "run_id="+first.RunID)
	assert.Contains(t, buf.String(), "run_id="+second.RunID)
}
