package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Intake   IntakeConfig   `mapstructure:"intake"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds the expense history database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// IntakeConfig holds the tunables of the validation pipeline
type IntakeConfig struct {
	Currency                string  `mapstructure:"currency"`
	ReviewConfidence        float64 `mapstructure:"review_confidence"`         // 0..100
	DuplicateToleranceMinor int64   `mapstructure:"duplicate_tolerance_minor"` // exclusive
	MaxAmount               string  `mapstructure:"max_amount"`                // major units, "" for no limit
	HistoryLookbackDays     int     `mapstructure:"history_lookback_days"`
	HistoryLimit            int     `mapstructure:"history_limit"`
}

// MaxAmountMoney parses the configured draft limit. An empty value means no limit.
func (c IntakeConfig) MaxAmountMoney() (money.Money, error) {
	if strings.TrimSpace(c.MaxAmount) == "" {
		return money.Zero(money.Currency(c.Currency)), nil
	}
	return money.Parse(c.MaxAmount, money.Currency(c.Currency))
}

// OpenAIConfig holds the recognition engine configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxPDFPages int           `mapstructure:"max_pdf_pages"`
}

// Enabled reports whether receipt recognition can be wired
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// ExportConfig holds allocation sheet settings
type ExportConfig struct {
	SheetName string `mapstructure:"sheet_name"`
}

// Load loads configuration from file and environment variables.
// A .env file next to the working directory is applied first when present.
// An empty configPath runs on defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	// Database defaults
	v.SetDefault("database.path", "data/expenses.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Intake defaults
	v.SetDefault("intake.currency", "INR")
	v.SetDefault("intake.review_confidence", 70.0)
	v.SetDefault("intake.duplicate_tolerance_minor", 100)
	v.SetDefault("intake.max_amount", "")
	v.SetDefault("intake.history_lookback_days", 90)
	v.SetDefault("intake.history_limit", 500)

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.max_tokens", 2000)
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("openai.max_pdf_pages", 3)

	// Export defaults
	v.SetDefault("export.sheet_name", "Allocation")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"openai.base_url": "OPENAI_BASE_URL",
		"database.path":   "EXPENSE_DB_PATH",
		"server.port":     "PORT",
		"logger.level":    "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Intake.Currency == "" {
		return fmt.Errorf("intake.currency is required")
	}
	if c.Intake.ReviewConfidence < 0 || c.Intake.ReviewConfidence > 100 {
		return fmt.Errorf("intake.review_confidence must be between 0 and 100, got %.2f", c.Intake.ReviewConfidence)
	}
	if c.Intake.DuplicateToleranceMinor <= 0 {
		return fmt.Errorf("intake.duplicate_tolerance_minor must be positive, got %d", c.Intake.DuplicateToleranceMinor)
	}
	if m, err := c.Intake.MaxAmountMoney(); err != nil || m.IsNegative() {
		return fmt.Errorf("intake.max_amount must be a non-negative amount, got %q", c.Intake.MaxAmount)
	}
	if c.Intake.HistoryLookbackDays <= 0 {
		return fmt.Errorf("intake.history_lookback_days must be positive, got %d", c.Intake.HistoryLookbackDays)
	}
	if c.Intake.HistoryLimit <= 0 {
		return fmt.Errorf("intake.history_limit must be positive, got %d", c.Intake.HistoryLimit)
	}

	if c.OpenAI.Enabled() && c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model is required when openai.api_key is set")
	}

	if c.Export.SheetName == "" {
		return fmt.Errorf("export.sheet_name is required")
	}

	return nil
}
