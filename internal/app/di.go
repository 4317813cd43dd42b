// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/metric"

	adminService "github.com/allisson/secpolicy/internal/admin/service"
	auditService "github.com/allisson/secpolicy/internal/audit/service"
	auditUseCase "github.com/allisson/secpolicy/internal/audit/usecase"
	"github.com/allisson/secpolicy/internal/config"
	cryptoDomain "github.com/allisson/secpolicy/internal/crypto/domain"
	cryptoService "github.com/allisson/secpolicy/internal/crypto/service"
	cryptoUseCase "github.com/allisson/secpolicy/internal/crypto/usecase"
	csrfUseCase "github.com/allisson/secpolicy/internal/csrf/usecase"
	"github.com/allisson/secpolicy/internal/database"
	"github.com/allisson/secpolicy/internal/http"
	kdfService "github.com/allisson/secpolicy/internal/kdf/service"
	"github.com/allisson/secpolicy/internal/metrics"
	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
	policyUseCase "github.com/allisson/secpolicy/internal/policy/usecase"
	ratelimitUseCase "github.com/allisson/secpolicy/internal/ratelimit/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	gauges          metric.Registration

	// Key derivation and keys
	kmsService     cryptoService.KMSService
	masterSecret   *cryptoDomain.MasterSecret
	keyDeriver     kdfService.KeyDeriver
	passwordHasher kdfService.PasswordHasher
	keyManager     cryptoUseCase.KeyManager
	cipher         cryptoUseCase.Cipher

	// Request policy
	rateLimiter    ratelimitUseCase.RateLimiter
	tokenManager   csrfUseCase.TokenManager
	screener       *policyDomain.Screener
	securityPolicy policyUseCase.SecurityPolicy

	// Audit
	securityEventRepo    auditUseCase.SecurityEventRepository
	eventSigner          auditService.EventSigner
	dispatcher           auditUseCase.Dispatcher
	securityEventUseCase auditUseCase.SecurityEventUseCase

	// Admin
	adminTokenService adminService.TokenService
	adminVerifier     adminService.TokenVerifier

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                       sync.Mutex
	loggerInit               sync.Once
	dbInit                   sync.Once
	txManagerInit            sync.Once
	metricsProviderInit      sync.Once
	businessMetricsInit      sync.Once
	gaugesInit               sync.Once
	kmsServiceInit           sync.Once
	masterSecretInit         sync.Once
	keyDeriverInit           sync.Once
	passwordHasherInit       sync.Once
	keyManagerInit           sync.Once
	cipherInit               sync.Once
	rateLimiterInit          sync.Once
	tokenManagerInit         sync.Once
	screenerInit             sync.Once
	securityPolicyInit       sync.Once
	securityEventRepoInit    sync.Once
	eventSignerInit          sync.Once
	dispatcherInit           sync.Once
	securityEventUseCaseInit sync.Once
	adminTokenServiceInit    sync.Once
	adminVerifierInit        sync.Once
	httpServerInit           sync.Once
	metricsServerInit        sync.Once
	initErrors               map[string]error
	workersStarted           bool
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// RegisterStateGauges registers the observable gauges over the in-memory state. It is a no-op
// when metrics are disabled.
func (c *Container) RegisterStateGauges() error {
	var err error
	c.gaugesInit.Do(func() {
		c.gauges, err = c.initStateGauges()
		if err != nil {
			c.initErrors["gauges"] = err
		}
	})
	if err != nil {
		return err
	}
	if storedErr, exists := c.initErrors["gauges"]; exists {
		return storedErr
	}
	return nil
}

// HTTPServer returns the HTTP server instance with its router set up.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// StartWorkers launches the key rotation timer and the rate limit and CSRF sweepers.
func (c *Container) StartWorkers(ctx context.Context) error {
	keyManager, err := c.KeyManager()
	if err != nil {
		return fmt.Errorf("failed to get key manager: %w", err)
	}
	rateLimiter, err := c.RateLimiter()
	if err != nil {
		return fmt.Errorf("failed to get rate limiter: %w", err)
	}
	tokenManager, err := c.TokenManager()
	if err != nil {
		return fmt.Errorf("failed to get token manager: %w", err)
	}

	if c.config.KeyRotationEnabled {
		keyManager.Start(ctx)
	}
	rateLimiter.Start(ctx)
	tokenManager.Start(ctx)

	c.mu.Lock()
	c.workersStarted = true
	c.mu.Unlock()

	c.Logger().Info("background workers started",
		slog.Bool("key_rotation", c.config.KeyRotationEnabled),
		slog.Duration("rotation_interval", c.config.KeyRotationInterval),
	)
	return nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.workersStarted {
		if c.rateLimiter != nil {
			c.rateLimiter.Stop()
		}
		if c.tokenManager != nil {
			c.tokenManager.Stop()
		}
		c.workersStarted = false
	}

	// Close zeroes key material and stops the rotation timer.
	if c.keyManager != nil {
		c.keyManager.Close()
	}

	// Drain queued events before the sinks go away.
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("security event dispatcher close: %w", err))
		}
	}

	if c.eventSigner != nil {
		c.eventSigner.Close()
	}

	if c.masterSecret != nil {
		c.masterSecret.Close()
	}

	if c.gauges != nil {
		if err := c.gauges.Unregister(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("state gauges unregister: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetricsProvider creates the Prometheus backed provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initStateGauges wires the gauges to the dispatcher, ban policy, token store and key ring.
func (c *Container) initStateGauges() (metric.Registration, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for gauges: %w", err)
	}
	rateLimiter, err := c.RateLimiter()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limiter for gauges: %w", err)
	}
	tokenManager, err := c.TokenManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get token manager for gauges: %w", err)
	}
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for gauges: %w", err)
	}

	return metrics.RegisterStateGauges(provider.MeterProvider(), c.config.MetricsNamespace, metrics.StateSources{
		DroppedEvents:     dispatcher.Dropped,
		PendingEvents:     dispatcher.Pending,
		TrackedIdentities: rateLimiter.Len,
		CsrfTokens:        tokenManager.Len,
		RetainedKeys: func() int {
			stats, err := keyManager.Stats(context.Background())
			if err != nil {
				return 0
			}
			return stats.PendingKeys + stats.ActiveKeys + stats.RetiredKeys
		},
	})
}

// initHTTPServer creates the HTTP server and mounts every handler.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	var db *sql.DB
	if c.config.AuditSink == config.AuditSinkDatabase {
		var err error
		db, err = c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for http server: %w", err)
		}
	}

	deps, err := c.routerDependencies()
	if err != nil {
		return nil, err
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	if err := server.SetupRouter(ctx, c.config, deps); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
