package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	t.Run("empty keeps defaults", func(t *testing.T) {
		opts, err := ParseOptions(nil)
		require.NoError(t, err)
		assert.Equal(t, 30, opts.MaxBills)
		assert.Equal(t, 7, opts.RecentChangeThreshold)
		require.NotNil(t, opts.SubstituteMatch)
		assert.True(t, opts.SubstituteMatch.MatchString("HF 5 SUBSTITUTED for SF 9"))
	})

	t.Run("overrides and merges", func(t *testing.T) {
		opts, err := ParseOptions([]byte(`
max_bills: 2
recent_change_threshold: 14
bill_number_format: '^[A-Z]{2} [0-9]+$'
substitute_match: false
field_translations:
  bills:
    companionBill: companion
word_translations:
  upper: Senate Chamber
`))
		require.NoError(t, err)
		assert.Equal(t, 2, opts.MaxBills)
		assert.Equal(t, 14, opts.RecentChangeThreshold)
		assert.Nil(t, opts.SubstituteMatch)
		assert.True(t, opts.BillNumberFormat.MatchString("HF 01"))
		assert.Equal(t, "companion", opts.FieldTranslations["bills"][FieldCompanionBill])
		assert.Equal(t, "conferencebill", opts.FieldTranslations["bills"][FieldConferenceBill])
		assert.Equal(t, "Senate Chamber", opts.Translate("upper"))
		assert.Equal(t, "House", opts.Translate("lower"))
		assert.Equal(t, "other", opts.Translate("other"))
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := ParseOptions([]byte(`max_bills: 0`))
		assert.Error(t, err)

		_, err = ParseOptions([]byte(`substitute_match: true`))
		assert.Error(t, err)

		_, err = ParseOptions([]byte(`bill_number_format: '(['`))
		assert.Error(t, err)
	})
}

func TestLoadOptions(t *testing.T) {
	opts, err := LoadOptions("")
	require.NoError(t, err)
	assert.Equal(t, 30, opts.MaxBills)

	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_bills: 5\n"), 0o644))
	opts, err = LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.MaxBills)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Setenv("TRACKER_STATE", "MN")
	t.Setenv("SESSION", "2023-2024")
	t.Setenv("TRACKER_SHEET_SOURCE", "sheets/Tracker.XLSX")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "mn", cfg.State)
	assert.Equal(t, "2023-2024", cfg.Session)
	assert.True(t, cfg.SheetsFromWorkbook())
	assert.Equal(t, "8080", cfg.Port)
}
