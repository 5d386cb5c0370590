package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autolysis/internal/ai"
	cfgpkg "github.com/KaramelBytes/autolysis/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set autolysis configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return fmt.Errorf("load config: %w", cfgErr)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "api_token: %s\n", mask(cfg.APIToken))
		fmt.Fprintf(w, "provider: %s\n", cfg.Provider)
		fmt.Fprintf(w, "base_url: %s\n", cfg.BaseURL)
		fmt.Fprintf(w, "model: %s\n", cfg.Model)
		fmt.Fprintf(w, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(w, "temperature: %.3f\n", cfg.Temperature)
		fmt.Fprintf(w, "narrative: %t\n", cfg.Narrative)
		fmt.Fprintf(w, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		if cfg.Provider == ai.ProviderOllama {
			fmt.Fprintf(w, "ollama_host: %s\n", cfg.OllamaHost)
		}
		fmt.Fprintf(w, "output_root: %s\n", cfg.OutputRoot)
		fmt.Fprintf(w, "env_file: %s\n", cfg.EnvFile)
		fmt.Fprintf(w, "detect_encoding: %t\n", cfg.DetectEncoding)
		fmt.Fprintf(w, "dedupe_correlations: %t\n", cfg.DedupeCorrelations)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		if cfg.LogFile != "" {
			fmt.Fprintf(w, "log_file: %s\n", cfg.LogFile)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgErr != nil {
			return fmt.Errorf("load config: %w", cfgErr)
		}
		c := *cfg
		if err := setKey(&c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Validate(&c); err != nil {
			return err
		}
		if err := cfgpkg.Save(&c, cfgFile); err != nil {
			return err
		}
		cfg = &c
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "api_token":
		c.APIToken = val
	case "provider":
		c.Provider = strings.ToLower(val)
	case "base_url":
		c.BaseURL = val
	case "model":
		c.Model = val
	case "system_prompt":
		c.SystemPrompt = val
	case "ollama_host":
		c.OllamaHost = val
	case "output_root":
		c.OutputRoot = val
	case "env_file":
		c.EnvFile = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_file":
		c.LogFile = val
	case "max_tokens", "http_timeout_sec", "log_max_size_mb", "log_max_backups", "log_max_age_days":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		switch key {
		case "max_tokens":
			c.MaxTokens = i
		case "http_timeout_sec":
			c.HTTPTimeoutSec = i
		case "log_max_size_mb":
			c.LogMaxSizeMB = i
		case "log_max_backups":
			c.LogMaxBackups = i
		case "log_max_age_days":
			c.LogMaxAgeDays = i
		}
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for temperature: %w", err)
		}
		c.Temperature = f
	case "narrative", "detect_encoding", "dedupe_correlations":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		switch key {
		case "narrative":
			c.Narrative = b
		case "detect_encoding":
			c.DetectEncoding = b
		case "dedupe_correlations":
			c.DedupeCorrelations = b
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
