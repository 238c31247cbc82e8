package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the variable for the duration of the test.
func clearEnv(t *testing.T, key string) {
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"AGENTLENS_DB_PATH", "AGENTLENS_SCHEMA_PATH", "AGENTLENS_GITHUB_TOKEN",
		"AGENTLENS_SOURCE_URL", "AGENTLENS_SESSION_FILE", "AGENTLENS_LISTEN_ADDR",
		"AGENTLENS_EXTRACT_SCHEDULE",
	} {
		clearEnv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "agentlens.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:7399", cfg.ListenAddr)
	assert.Equal(t, "@every 15m", cfg.ExtractSchedule)
	assert.Empty(t, cfg.SchemaPath)
	assert.False(t, cfg.HasGitHubToken())
	assert.False(t, cfg.HasSource())
}

func TestLoad_ExplicitValues(t *testing.T) {
	t.Setenv("AGENTLENS_DB_PATH", "/var/lib/agentlens/data.db")
	t.Setenv("AGENTLENS_SCHEMA_PATH", "/etc/agentlens/schema.sql")
	t.Setenv("AGENTLENS_GITHUB_TOKEN", "ghp_abc123")
	t.Setenv("AGENTLENS_SOURCE_URL", "https://dashboard.example.com/")
	t.Setenv("AGENTLENS_SESSION_FILE", "/var/lib/agentlens/session")
	t.Setenv("AGENTLENS_LISTEN_ADDR", "0.0.0.0:9000")
	t.Setenv("AGENTLENS_EXTRACT_SCHEDULE", "*/5 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/agentlens/data.db", cfg.DBPath)
	assert.Equal(t, "/etc/agentlens/schema.sql", cfg.SchemaPath)
	assert.True(t, cfg.HasGitHubToken())
	assert.Equal(t, "https://dashboard.example.com", cfg.SourceURL)
	assert.True(t, cfg.HasSource())
	assert.Equal(t, "/var/lib/agentlens/session", cfg.SessionFile)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, "*/5 * * * *", cfg.ExtractSchedule)
}

func TestLoad_InvalidSchedule(t *testing.T) {
	t.Setenv("AGENTLENS_EXTRACT_SCHEDULE", "every now and then")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AGENTLENS_EXTRACT_SCHEDULE")
}

func TestNormalizeDBPath(t *testing.T) {
	cases := map[string]string{
		"agentlens.db":                  "agentlens.db",
		"/data/agentlens.db":            "/data/agentlens.db",
		"sqlite:///agentlens.db":        "agentlens.db",
		"sqlite:////data/agentlens.db":  "/data/agentlens.db",
		"sqlite:agentlens.db":           "agentlens.db",
		"file:///data/agentlens.db":     "/data/agentlens.db",
		"file:agentlens.db":             "agentlens.db",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeDBPath(in), in)
	}
}
