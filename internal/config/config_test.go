package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears token variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AI_PROXY_TOKEN", "")
	t.Setenv("AUTOLYSIS_API_TOKEN", "")
	os.Unsetenv("AI_PROXY_TOKEN")
	os.Unsetenv("AUTOLYSIS_API_TOKEN")
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	c, err := Load("", filepath.Join(home, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "openai", c.Provider)
	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultModel, c.Model)
	assert.Equal(t, 1000, c.MaxTokens)
	assert.Equal(t, 60, c.HTTPTimeoutSec)
	assert.True(t, c.Narrative)
	assert.Empty(t, c.APIToken)
	require.NoError(t, Validate(c))
}

func TestLoadTokenFromEnvironment(t *testing.T) {
	home := isolate(t)
	t.Setenv("AI_PROXY_TOKEN", "env-token")

	c, err := Load("", filepath.Join(home, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", c.APIToken)
}

func TestLoadTokenFromDotEnv(t *testing.T) {
	home := isolate(t)
	envFile := filepath.Join(home, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AI_PROXY_TOKEN=dotenv-token\nAUTOLYSIS_MODEL=gpt-4o\n"), 0o644))

	c, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", c.APIToken)
	assert.Equal(t, "gpt-4o", c.Model)
}

func TestEnvironmentWinsOverDotEnv(t *testing.T) {
	home := isolate(t)
	envFile := filepath.Join(home, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AI_PROXY_TOKEN=dotenv-token\n"), 0o644))
	t.Setenv("AI_PROXY_TOKEN", "env-token")

	c, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "env-token", c.APIToken)
}

func TestEnvironmentTokenBeatsDotEnvTokenUnderOtherName(t *testing.T) {
	home := isolate(t)
	envFile := filepath.Join(home, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AI_PROXY_TOKEN=dotenv-token\nAUTOLYSIS_MODEL=gpt-4o\n"), 0o644))
	t.Setenv("AUTOLYSIS_API_TOKEN", "env-token")

	c, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "env-token", c.APIToken)
	assert.Equal(t, "gpt-4o", c.Model)
}

func TestSaveAndReload(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "cfg.yaml")

	c, err := Load(path, "")
	require.NoError(t, err)
	c.Model = "gpt-4o"
	c.MaxTokens = 256
	require.NoError(t, Save(c, path))

	again, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", again.Model)
	assert.Equal(t, 256, again.MaxTokens)
}

func TestValidateRejectsBadValues(t *testing.T) {
	home := isolate(t)
	c, err := Load("", filepath.Join(home, "missing.env"))
	require.NoError(t, err)

	bad := *c
	bad.Provider = "carrier-pigeon"
	assert.ErrorContains(t, Validate(&bad), "provider")

	bad = *c
	bad.MaxTokens = 0
	assert.ErrorContains(t, Validate(&bad), "maxtokens")

	bad = *c
	bad.BaseURL = ""
	assert.ErrorContains(t, Validate(&bad), "base_url")

	bad = *c
	bad.Provider = "ollama"
	bad.BaseURL = ""
	assert.NoError(t, Validate(&bad))
}
