// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath          string
	SchemaPath      string
	GitHubToken     string
	SourceURL       string
	SessionFile     string
	ListenAddr      string
	ExtractSchedule string
}

// HasGitHubToken reports whether a repository API token is configured. Without
// one the app still serves, but enrichment runs unauthenticated against the
// public rate limit.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// HasSource reports whether an upstream dashboard is configured. Without one
// the scheduled extraction loop stays off and the API serves stored data only.
func (c *Config) HasSource() bool {
	return c.SourceURL != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. AGENTLENS_GITHUB_TOKEN and AGENTLENS_SOURCE_URL are optional.
// Optional variables with defaults: AGENTLENS_DB_PATH (agentlens.db),
// AGENTLENS_LISTEN_ADDR (127.0.0.1:7399), AGENTLENS_EXTRACT_SCHEDULE
// (@every 15m). AGENTLENS_SCHEMA_PATH points at an externally supplied schema
// file; AGENTLENS_SESSION_FILE at the stored dashboard session blob.
func Load() (*Config, error) {
	dbPath := "agentlens.db"
	if v, ok := os.LookupEnv("AGENTLENS_DB_PATH"); ok && v != "" {
		dbPath = normalizeDBPath(v)
	}

	listenAddr := "127.0.0.1:7399"
	if v, ok := os.LookupEnv("AGENTLENS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	schedule := "@every 15m"
	if v, ok := os.LookupEnv("AGENTLENS_EXTRACT_SCHEDULE"); ok {
		schedule = v
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("AGENTLENS_EXTRACT_SCHEDULE has invalid schedule %q: %w", schedule, err)
	}

	return &Config{
		DBPath:          dbPath,
		SchemaPath:      os.Getenv("AGENTLENS_SCHEMA_PATH"),
		GitHubToken:     os.Getenv("AGENTLENS_GITHUB_TOKEN"),
		SourceURL:       strings.TrimRight(os.Getenv("AGENTLENS_SOURCE_URL"), "/"),
		SessionFile:     os.Getenv("AGENTLENS_SESSION_FILE"),
		ListenAddr:      listenAddr,
		ExtractSchedule: schedule,
	}, nil
}

// normalizeDBPath accepts plain paths as well as sqlite:/// and file: URL
// forms that other tooling hands around for the same database.
func normalizeDBPath(v string) string {
	for _, prefix := range []string{"sqlite:///", "sqlite://", "sqlite:", "file://", "file:"} {
		if strings.HasPrefix(v, prefix) {
			trimmed := strings.TrimPrefix(v, prefix)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return v
}
