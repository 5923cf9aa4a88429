// Package container wires the expense intake components and owns their lifecycle.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/config"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/garyjia/expense-intake/internal/duplicate"
	"github.com/garyjia/expense-intake/internal/export"
	"github.com/garyjia/expense-intake/internal/infrastructure/external/openai"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/migrations"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-intake/internal/receipt"
	"github.com/garyjia/expense-intake/internal/validation"
	"github.com/garyjia/expense-intake/pkg/database"
	"go.uber.org/zap"
)

// ProvideDatabase opens the history database and applies pending migrations
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}

	db, err := database.New(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// ProvideHistory creates the expense history source
func ProvideHistory(db *database.DB, logger *zap.Logger) port.ExpenseHistory {
	return repository.NewHistoryRepository(db.DB, logger)
}

// ProvideRecognizer creates the receipt recognizer, or returns nil when no API key is set
func ProvideRecognizer(cfg *config.OpenAIConfig, logger *zap.Logger) port.Recognizer {
	if cfg == nil || !cfg.Enabled() {
		logger.Warn("OpenAI API key not set, receipt recognition disabled")
		return nil
	}
	return openai.NewRecognizer(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		MaxPDFPages: cfg.MaxPDFPages,
	}, logger)
}

// ProvideExporter creates the allocation sheet exporter
func ProvideExporter(cfg *config.ExportConfig, logger *zap.Logger) port.AllocationExporter {
	return export.NewAllocationSheet(cfg.SheetName, logger)
}

// ServiceDeps holds what the intake service is built from
type ServiceDeps struct {
	Config     *config.IntakeConfig
	History    port.ExpenseHistory
	Recognizer port.Recognizer
	Exporter   port.AllocationExporter
	Logger     *zap.Logger
}

// ProvideIntakeService builds the engines from the intake settings and the service over them
func ProvideIntakeService(deps *ServiceDeps) (service.IntakeService, error) {
	if deps == nil || deps.Config == nil {
		return nil, fmt.Errorf("intake config is required")
	}
	cfg := deps.Config

	threshold := receipt.ConfidenceThreshold{ReviewBelow: cfg.ReviewConfidence}
	if err := threshold.Validate(); err != nil {
		return nil, err
	}

	dupCfg := duplicate.Config{AmountTolerance: cfg.DuplicateToleranceMinor}
	if err := dupCfg.Validate(); err != nil {
		return nil, err
	}

	maxAmount, err := cfg.MaxAmountMoney()
	if err != nil {
		return nil, fmt.Errorf("invalid max amount: %w", err)
	}

	engine := allocation.NewEngine()
	validator := validation.NewValidator(engine, duplicate.NewDetector(dupCfg), validation.Limits{MaxAmount: maxAmount})
	extractor := receipt.NewExtractor(money.Currency(cfg.Currency), threshold)

	return service.NewIntakeService(
		engine,
		extractor,
		validator,
		deps.History,
		deps.Recognizer,
		deps.Exporter,
		service.IntakeOptions{
			HistoryLookback: time.Duration(cfg.HistoryLookbackDays) * 24 * time.Hour,
			HistoryLimit:    cfg.HistoryLimit,
		},
		NewZapLogger(deps.Logger),
	), nil
}
