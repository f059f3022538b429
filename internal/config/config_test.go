package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"BOT_TOKEN", "BOT_PASSWORD", "STORE_DRIVER", "SQLITE_PATH",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"OLLAMA_URL", "OLLAMA_MODEL", "WHISPER_URL",
	"NATIVE_LANGUAGE", "LISTEN_WINDOW", "HISTORY_WINDOW", "FALLBACK_STICKY", "API_ADDR",
}

// clearEnv empties every config key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "test_token")
	t.Setenv("BOT_PASSWORD", "test_password")
	t.Setenv("DB_PASSWORD", "test_db_password")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test_token", cfg.BotToken)
	assert.Equal(t, "test_password", cfg.BotPassword)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "lingocall", cfg.Database.Name)
	assert.Equal(t, "lingocall", cfg.Database.User)
	assert.Equal(t, "http://localhost:11434", cfg.Engines.OllamaURL)
	assert.Equal(t, "ru", cfg.Call.NativeLanguage)
	assert.Equal(t, 8*time.Second, cfg.Call.ListenWindow)
	assert.Equal(t, 20, cfg.Call.HistoryWindow)
	assert.True(t, cfg.Call.StickyFallback)
	assert.Equal(t, ":8080", cfg.APIAddr)
}

func TestLoad_CallSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "test_token")
	t.Setenv("BOT_PASSWORD", "test_password")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/calls.db")
	t.Setenv("NATIVE_LANGUAGE", "de")
	t.Setenv("LISTEN_WINDOW", "1500ms")
	t.Setenv("HISTORY_WINDOW", "6")
	t.Setenv("FALLBACK_STICKY", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/calls.db", cfg.Store.SQLitePath)
	assert.Equal(t, "de", cfg.Call.NativeLanguage)
	assert.Equal(t, 1500*time.Millisecond, cfg.Call.ListenWindow)
	assert.Equal(t, 6, cfg.Call.HistoryWindow)
	assert.False(t, cfg.Call.StickyFallback)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		errorKey string
	}{
		{
			name:     "missing bot token",
			env:      map[string]string{"BOT_PASSWORD": "p", "DB_PASSWORD": "p"},
			errorKey: "BOT_TOKEN",
		},
		{
			name:     "missing bot password",
			env:      map[string]string{"BOT_TOKEN": "t", "DB_PASSWORD": "p"},
			errorKey: "BOT_PASSWORD",
		},
		{
			name:     "missing db password for postgres",
			env:      map[string]string{"BOT_TOKEN": "t", "BOT_PASSWORD": "p"},
			errorKey: "DB_PASSWORD",
		},
		{
			name:     "unknown store driver",
			env:      map[string]string{"BOT_TOKEN": "t", "BOT_PASSWORD": "p", "STORE_DRIVER": "mongo"},
			errorKey: "STORE_DRIVER",
		},
		{
			name:     "bad listen window",
			env:      map[string]string{"BOT_TOKEN": "t", "BOT_PASSWORD": "p", "STORE_DRIVER": "sqlite", "LISTEN_WINDOW": "soon"},
			errorKey: "LISTEN_WINDOW",
		},
		{
			name:     "zero history window",
			env:      map[string]string{"BOT_TOKEN": "t", "BOT_PASSWORD": "p", "STORE_DRIVER": "sqlite", "HISTORY_WINDOW": "0"},
			errorKey: "HISTORY_WINDOW",
		},
		{
			name:     "bad sticky flag",
			env:      map[string]string{"BOT_TOKEN": "t", "BOT_PASSWORD": "p", "STORE_DRIVER": "sqlite", "FALLBACK_STICKY": "maybe"},
			errorKey: "FALLBACK_STICKY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errorKey)
		})
	}
}

func TestLoadStore_DoesNotRequireBot(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := LoadStore()
	require.NoError(t, err)
	assert.Empty(t, cfg.BotToken)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
}
