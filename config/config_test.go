package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", " Memory ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 15*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 3, cfg.SyncMaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.SyncRetryBackoff)
	assert.Equal(t, "paper-hub", cfg.CommitPrefix)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.Equal(t, "4242", cfg.HTTPPort)
	assert.NoError(t, cfg.Validate())
}

func TestValidateGitHubRequiresRepository(t *testing.T) {
	cfg := &Config{
		StoreBackend:    BackendGitHub,
		GitHubPath:      "paper-library.json",
		GitHubToken:     "token",
		SyncMaxAttempts: 3,
		StoreTimeout:    time.Second,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_OWNER")
	assert.Contains(t, err.Error(), "GITHUB_REPO")
	assert.NotContains(t, err.Error(), "GITHUB_TOKEN")

	cfg.GitHubOwner = "lab"
	cfg.GitHubRepo = "papers"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackendAndBadAttempts(t *testing.T) {
	cfg := &Config{StoreBackend: "ftp", SyncMaxAttempts: 3, StoreTimeout: time.Second}
	assert.ErrorContains(t, cfg.Validate(), "unknown STORE_BACKEND")

	cfg = &Config{StoreBackend: BackendMemory, SyncMaxAttempts: 0, StoreTimeout: time.Second}
	assert.ErrorContains(t, cfg.Validate(), "SYNC_MAX_ATTEMPTS")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5433, DBUser: "u", DBPassword: "p", DBName: "lib", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=lib port=5433 sslmode=require", cfg.DSN())
}
