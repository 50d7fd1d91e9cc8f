package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data.csv", conf.Data.CSVPath)
	assert.Equal(t, "mcf_data", conf.Data.Dir)
	assert.Equal(t, 7, conf.Window.Days)
	assert.Equal(t, ":8080", conf.Status.RunAddress)
	assert.Equal(t, "info", conf.Log.Level)
	assert.False(t, conf.Data.ReadOnly)
	assert.Equal(t, filepath.Join("mcf_data", "backups"), conf.BackupDir())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
bot:
  name: "Test Foundation Bot"
  admin_ids: [111, 222]
data:
  csvpath: "roster.csv"
  readonly: true
editwindow:
  days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Foundation Bot", conf.Bot.Name)
	assert.Equal(t, []int64{111, 222}, conf.Bot.AdminIDs)
	assert.Equal(t, "roster.csv", conf.Data.CSVPath)
	assert.True(t, conf.Data.ReadOnly)
	assert.Equal(t, 14, conf.Window.Days)

	// Значения, не заданные в файле, остаются по умолчанию
	assert.Equal(t, ":8080", conf.Status.RunAddress)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "42, 77")
	t.Setenv("CSV_PATH", "/tmp/roster.csv")
	t.Setenv("DATA_DIR", "/tmp/state")
	t.Setenv("CSV_URL", "https://example.com/roster.csv")
	t.Setenv("READ_ONLY", "true")

	conf, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", conf.Bot.Token)
	assert.Equal(t, []int64{42, 77}, conf.Bot.AdminIDs)
	assert.Equal(t, "/tmp/roster.csv", conf.Data.CSVPath)
	assert.Equal(t, "/tmp/state", conf.Data.Dir)
	assert.Equal(t, "https://example.com/roster.csv", conf.Data.RemoteURL)
	assert.True(t, conf.Data.ReadOnly)
}

func TestLoadConfigBadAdminIDs(t *testing.T) {
	t.Setenv("ADMIN_IDS", "42,notanumber")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseAdminIDs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int64
		wantErr  bool
	}{
		{"Single", "123", []int64{123}, false},
		{"Multiple", "1,2,3", []int64{1, 2, 3}, false},
		{"WithSpaces", " 1 , 2 ", []int64{1, 2}, false},
		{"TrailingComma", "1,2,", []int64{1, 2}, false},
		{"Empty", "", nil, false},
		{"Negative", "-5", []int64{-5}, false},
		{"NotANumber", "abc", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := ParseAdminIDs(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}
