package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "INR", cfg.Intake.Currency)
		assert.Equal(t, 70.0, cfg.Intake.ReviewConfidence)
		assert.Equal(t, int64(100), cfg.Intake.DuplicateToleranceMinor)
		assert.Equal(t, 90, cfg.Intake.HistoryLookbackDays)
		assert.Equal(t, "Allocation", cfg.Export.SheetName)
		assert.Equal(t, 60*time.Second, cfg.OpenAI.Timeout)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
intake:
  review_confidence: 80
  max_amount: "50,000"
  history_limit: 50
export:
  sheet_name: Split
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 80.0, cfg.Intake.ReviewConfidence)
		assert.Equal(t, 50, cfg.Intake.HistoryLimit)
		assert.Equal(t, "Split", cfg.Export.SheetName)

		limit, err := cfg.Intake.MaxAmountMoney()
		require.NoError(t, err)
		assert.Equal(t, "50000.00", limit.String())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("EXPENSE_DB_PATH", "/tmp/history.db")
		t.Setenv("INTAKE_HISTORY_LOOKBACK_DAYS", "7")

		cfg, err := Load(writeConfig(t, "database:\n  path: from-file.db\n"))
		require.NoError(t, err)

		assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
		assert.True(t, cfg.OpenAI.Enabled())
		assert.Equal(t, "/tmp/history.db", cfg.Database.Path)
		assert.Equal(t, 7, cfg.Intake.HistoryLookbackDays)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want string
		}{
			{name: "confidence above scale", body: "intake:\n  review_confidence: 120\n", want: "intake.review_confidence"},
			{name: "zero tolerance", body: "intake:\n  duplicate_tolerance_minor: 0\n", want: "intake.duplicate_tolerance_minor"},
			{name: "unparseable limit", body: "intake:\n  max_amount: lots\n", want: "intake.max_amount"},
			{name: "bad port", body: "server:\n  port: 70000\n", want: "server.port"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Load(writeConfig(t, tt.body))
				assert.ErrorContains(t, err, tt.want)
			})
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	const key = "EXPENSE_INTAKE_DOTENV_PROBE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0644))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestIntakeConfig_MaxAmountMoney(t *testing.T) {
	unlimited, err := IntakeConfig{Currency: "INR"}.MaxAmountMoney()
	require.NoError(t, err)
	assert.True(t, unlimited.IsZero())

	_, err = IntakeConfig{Currency: "INR", MaxAmount: "abc"}.MaxAmountMoney()
	assert.Error(t, err)
}
