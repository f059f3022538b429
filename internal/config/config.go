package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	BotToken    string
	BotPassword string
	Store       StoreConfig
	Database    DatabaseConfig
	Engines     EnginesConfig
	Call        CallConfig
	APIAddr     string
}

// StoreConfig selects the durable store
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// EnginesConfig locates the speech and language services
type EnginesConfig struct {
	OllamaURL   string
	OllamaModel string
	WhisperURL  string
}

// CallConfig tunes the conversation loop
type CallConfig struct {
	NativeLanguage string
	ListenWindow   time.Duration
	HistoryWindow  int
	StickyFallback bool
}

// Load reads configuration for running the bot
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required")
	}

	return cfg, nil
}

// LoadStore reads configuration for commands that only touch the store
func LoadStore() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		BotPassword: os.Getenv("BOT_PASSWORD"),
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", DriverPostgres),
			SQLitePath: getEnv("SQLITE_PATH", "data/lingocall.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "lingocall"),
			User:     getEnv("DB_USER", "lingocall"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Engines: EnginesConfig{
			OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel: getEnv("OLLAMA_MODEL", "llama3.2"),
			WhisperURL:  getEnv("WHISPER_URL", "http://localhost:8081"),
		},
		Call: CallConfig{
			NativeLanguage: getEnv("NATIVE_LANGUAGE", "ru"),
		},
		APIAddr: getEnv("API_ADDR", ":8080"),
	}

	var err error
	if cfg.Call.ListenWindow, err = time.ParseDuration(getEnv("LISTEN_WINDOW", "8s")); err != nil {
		return nil, fmt.Errorf("invalid LISTEN_WINDOW: %w", err)
	}
	if cfg.Call.ListenWindow <= 0 {
		return nil, fmt.Errorf("LISTEN_WINDOW must be positive")
	}
	if cfg.Call.HistoryWindow, err = strconv.Atoi(getEnv("HISTORY_WINDOW", "20")); err != nil {
		return nil, fmt.Errorf("invalid HISTORY_WINDOW: %w", err)
	}
	if cfg.Call.HistoryWindow <= 0 {
		return nil, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.Call.StickyFallback, err = strconv.ParseBool(getEnv("FALLBACK_STICKY", "true")); err != nil {
		return nil, fmt.Errorf("invalid FALLBACK_STICKY: %w", err)
	}

	switch cfg.Store.Driver {
	case DriverPostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
