package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/config"
	"github.com/garyjia/expense-intake/pkg/database"
	"go.uber.org/zap"
)

// Container manages the intake pipeline's dependencies.
// Components start in dependency order and close in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	db         *database.DB
	history    port.ExpenseHistory
	recognizer port.Recognizer
	exporter   port.AllocationExporter

	// Application
	intake service.IntakeService

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes the database, the external adapters and the intake service
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	db, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.db = db
	c.history = ProvideHistory(db, c.logger)
	c.logger.Info("Database initialized")

	c.recognizer = ProvideRecognizer(&c.config.OpenAI, c.logger)
	c.exporter = ProvideExporter(&c.config.Export, c.logger)
	c.logger.Info("External adapters initialized", zap.Bool("recognition", c.recognizer != nil))

	intake, err := ProvideIntakeService(&ServiceDeps{
		Config:     &c.config.Intake,
		History:    c.history,
		Recognizer: c.recognizer,
		Exporter:   c.exporter,
		Logger:     c.logger,
	})
	if err != nil {
		c.db.Close()
		c.db = nil
		return fmt.Errorf("failed to initialize intake service: %w", err)
	}
	c.intake = intake

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close shuts down all components in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var closeErr error
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			closeErr = fmt.Errorf("close database: %w", err)
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)
	return closeErr
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health reports the database connection and which optional adapters are wired
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case c.db == nil:
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := c.db.PingContext(pingCtx); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	if c.recognizer != nil {
		status.Components["recognizer"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["recognizer"] = ComponentHealth{Healthy: true, Message: "disabled"}
	}

	if c.intake != nil {
		status.Components["intake"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["intake"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// IntakeService returns the wired intake service; nil before Start
func (c *Container) IntakeService() service.IntakeService {
	return c.intake
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
