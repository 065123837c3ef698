package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.StartingBalance)
	assert.Equal(t, "USDT", cfg.QuoteAsset)
	assert.Equal(t, "./data/riskcalc.db", cfg.JournalDBPath)
}

func TestJournalPathEmptyDisablesJournal(t *testing.T) {
	t.Setenv("JOURNAL_DB_PATH", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.JournalDBPath)
}

func TestJournalPathOverride(t *testing.T) {
	t.Setenv("JOURNAL_DB_PATH", "/tmp/custom.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.JournalDBPath)
}

func TestStartingBalanceValidation(t *testing.T) {
	t.Setenv("STARTING_BALANCE", "-50")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("STARTING_BALANCE", "not-a-number")
	_, err = LoadConfig()
	assert.Error(t, err)
}
