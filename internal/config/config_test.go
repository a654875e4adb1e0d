package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 2.0, cfg.Anthropic.RequestsPerSec)
	assert.Equal(t, int64(4), cfg.Anthropic.MaxConcurrent)
	assert.Equal(t, 0.8, cfg.Matching.RuleAcceptThreshold)
	assert.Equal(t, 20, cfg.Matching.MaxCandidates)
	assert.Equal(t, 0.7, cfg.Matching.MinPromoteConfidence)
	assert.Equal(t, 5, cfg.Matching.AgenticMaxTurns)
	assert.Equal(t, 30, cfg.Scrape.TimeoutSecs)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("POLIMATCH_LOG_LEVEL", "debug")
	t.Setenv("POLIMATCH_ANTHROPIC_MODEL", "claude-sonnet-4-5")
	t.Setenv("POLIMATCH_STORE_DATABASE_URL", "postgres://localhost/polimatch_test")
	t.Setenv("POLIMATCH_MATCHING_MIN_PROMOTE_CONFIDENCE", "0.85")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "claude-sonnet-4-5", cfg.Anthropic.Model)
	assert.Equal(t, "postgres://localhost/polimatch_test", cfg.Store.DatabaseURL)
	assert.Equal(t, 0.85, cfg.Matching.MinPromoteConfidence)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
