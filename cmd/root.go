package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autolysis/internal/ai"
	cfgpkg "github.com/KaramelBytes/autolysis/internal/config"
	"github.com/KaramelBytes/autolysis/internal/logging"
	"github.com/KaramelBytes/autolysis/internal/pipeline"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagLogFile string
	flagEnvFile string
	// Overrides applied on top of the loaded config when set
	flagHTTPTimeoutSec     int
	flagOutputRoot         string
	flagProvider           string
	flagModel              string
	flagNoNarrative        bool
	flagDetectEncoding     bool
	flagDedupeCorrelations bool

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

// errUsage is returned after the usage line has been printed.
var errUsage = errors.New("missing CSV path")

// analysisError marks failures of the analysis run itself.
type analysisError struct{ err error }

func (e *analysisError) Error() string { return e.err.Error() }
func (e *analysisError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "autolysis [flags] <path_to_csv_file>",
	Short: "Autolysis: automated analysis and storytelling for a CSV file",
	Long: `Autolysis loads a CSV file, computes descriptive statistics and correlations,
draws charts, asks a language model for a narrative and writes everything to
<dataset_name>/README.md.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadConfig()
		return nil
	},
	RunE: runAnalysis,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ae *analysisError
		switch {
		case errors.Is(err, errUsage):
		case errors.As(err, &ae):
			fmt.Fprintln(os.Stderr, "✗ Analysis failed:", ae.err)
		default:
			fmt.Fprintln(os.Stderr, "✗ Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.autolysis/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagLogFile, "log-file", "", "write logs to a rotating file instead of stderr")
	pf.StringVar(&flagEnvFile, "env-file", "", "dotenv file holding AI_PROXY_TOKEN (default .env)")

	f := rootCmd.Flags()
	f.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	f.StringVar(&flagOutputRoot, "output-root", "", "directory under which <dataset_name>/ is created (overrides config)")
	f.StringVar(&flagProvider, "provider", "", "narrative provider: openai or ollama (overrides config)")
	f.StringVar(&flagModel, "model", "", "model used for the narrative (overrides config)")
	f.BoolVar(&flagNoNarrative, "no-narrative", false, "skip the AI narrative")
	f.BoolVar(&flagDetectEncoding, "detect-encoding", false, "sniff the file's charset before trying the fixed encodings")
	f.BoolVar(&flagDedupeCorrelations, "dedupe-correlations", false, "report each strongly correlated pair once")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile, flagEnvFile)
	if err != nil {
		cfg, cfgErr = nil, err
		return
	}
	cfg, cfgErr = c, nil
}

// applyFlags copies explicitly set flags onto c.
func applyFlags(cmd *cobra.Command, c *cfgpkg.Global) {
	f := cmd.Flags()
	if debug {
		c.LogLevel = "debug"
	}
	if f.Changed("log-file") {
		c.LogFile = flagLogFile
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("output-root") {
		c.OutputRoot = flagOutputRoot
	}
	if f.Changed("provider") {
		c.Provider = flagProvider
	}
	if f.Changed("model") {
		c.Model = flagModel
	}
	if flagNoNarrative {
		c.Narrative = false
	}
	if flagDetectEncoding {
		c.DetectEncoding = true
	}
	if flagDedupeCorrelations {
		c.DedupeCorrelations = true
	}
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(cmd.OutOrStdout(), "Usage: autolysis <path_to_csv_file>")
		return errUsage
	}
	if cfgErr != nil {
		return fmt.Errorf("load config: %w", cfgErr)
	}
	c := *cfg
	applyFlags(cmd, &c)
	if err := cfgpkg.Validate(&c); err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = c.LogLevel
	logCfg.FilePath = c.LogFile
	logCfg.MaxSizeMB = c.LogMaxSizeMB
	logCfg.MaxBackups = c.LogMaxBackups
	logCfg.MaxAgeDays = c.LogMaxAgeDays
	if c.LogFile == "" {
		logCfg.Writer = cmd.ErrOrStderr()
	}
	logger, closeLog, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	p := pipeline.New(pipeline.Options{
		OutputRoot:         c.OutputRoot,
		DetectEncoding:     c.DetectEncoding,
		DedupeCorrelations: c.DedupeCorrelations,
		Narrative:          c.Narrative,
		Narrator: ai.NarratorConfig{
			Provider:     c.Provider,
			APIToken:     c.APIToken,
			BaseURL:      c.BaseURL,
			OllamaHost:   c.OllamaHost,
			Model:        c.Model,
			SystemPrompt: c.SystemPrompt,
			MaxTokens:    c.MaxTokens,
			Temperature:  c.Temperature,
			HTTPTimeout:  time.Duration(c.HTTPTimeoutSec) * time.Second,
		},
		Logger: logger,
	})
	out, err := p.Run(cmd.Context(), args[0])
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return &analysisError{err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Analysis complete. Check the %s directory.\n", out.Dir)
	return nil
}
