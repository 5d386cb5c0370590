package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default narrative endpoint settings.
const (
	DefaultBaseURL      = "https://aiproxy.sanand.workers.dev/openai/v1"
	DefaultModel        = "gpt-4o-mini"
	DefaultSystemPrompt = "You are a data storyteller. Provide a compelling narrative about the dataset, its insights, and potential implications."
)

// Global configuration structure.
type Global struct {
	APIToken     string  `mapstructure:"api_token" yaml:"api_token"`
	Provider     string  `mapstructure:"provider" yaml:"provider" validate:"oneof=openai ollama"`
	BaseURL      string  `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Model        string  `mapstructure:"model" yaml:"model" validate:"required"`
	SystemPrompt string  `mapstructure:"system_prompt" yaml:"system_prompt" validate:"required"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	// Narrative disables the remote call entirely when false.
	Narrative bool `mapstructure:"narrative" yaml:"narrative"`

	// HTTP configuration
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=0"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host" validate:"omitempty,url"`

	// Output and input handling
	OutputRoot         string `mapstructure:"output_root" yaml:"output_root"`
	EnvFile            string `mapstructure:"env_file" yaml:"env_file"`
	DetectEncoding     bool   `mapstructure:"detect_encoding" yaml:"detect_encoding"`
	DedupeCorrelations bool   `mapstructure:"dedupe_correlations" yaml:"dedupe_correlations"`

	// Logging
	LogLevel      string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb" validate:"gte=0"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups" validate:"gte=0"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days" yaml:"log_max_age_days" validate:"gte=0"`
}

// tokenEnvVars are read, in order, for the bearer token.
var tokenEnvVars = []string{"AUTOLYSIS_API_TOKEN", "AI_PROXY_TOKEN"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.autolysis/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".autolysis")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, a dotenv file, and defaults.
// Precedence: env > dotenv file > config file > defaults. Command-line
// flags are applied by the caller on top of the result.
func Load(cfgFile, envFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AUTOLYSIS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(append([]string{"api_token"}, tokenEnvVars...)...)

	// Defaults
	v.SetDefault("api_token", "")
	v.SetDefault("provider", "openai")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("system_prompt", DefaultSystemPrompt)
	v.SetDefault("max_tokens", 1000)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("narrative", true)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("output_root", ".")
	v.SetDefault("env_file", ".env")
	v.SetDefault("detect_encoding", false)
	v.SetDefault("dedupe_correlations", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".autolysis"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if envFile == "" {
		envFile = v.GetString("env_file")
	}
	if err := mergeDotEnv(v, envFile); err != nil {
		return nil, err
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// mergeDotEnv layers KEY=VALUE pairs from path over the config file values.
// Variables already present in the process environment win, and a token in
// the environment under any accepted name beats every dotenv token. A
// missing file is not an error.
func mergeDotEnv(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file: %w", err)
	}
	for _, k := range dv.AllKeys() {
		envName := strings.ToUpper(k)
		if _, set := os.LookupEnv(envName); set {
			continue
		}
		key, ok := dotEnvKey(envName)
		if !ok {
			continue
		}
		if key == "api_token" && tokenInEnv() {
			continue
		}
		v.Set(key, dv.GetString(k))
	}
	return nil
}

// tokenInEnv reports whether any token variable is set in the process environment.
func tokenInEnv() bool {
	for _, name := range tokenEnvVars {
		if _, set := os.LookupEnv(name); set {
			return true
		}
	}
	return false
}

// dotEnvKey maps a dotenv variable name onto a config key.
func dotEnvKey(name string) (string, bool) {
	for _, tv := range tokenEnvVars {
		if name == tv {
			return "api_token", true
		}
	}
	if rest, ok := strings.CutPrefix(name, "AUTOLYSIS_"); ok && rest != "" {
		return strings.ToLower(rest), true
	}
	return "", false
}

// Validate checks field constraints declared on Global.
func Validate(c *Global) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Provider == "openai" && c.BaseURL == "" {
		return errors.New("invalid config: base_url is required for provider openai")
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
