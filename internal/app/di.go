// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/phivault/internal/audit"
	"github.com/allisson/phivault/internal/config"
	cryptoDomain "github.com/allisson/phivault/internal/crypto/domain"
	cryptoService "github.com/allisson/phivault/internal/crypto/service"
	"github.com/allisson/phivault/internal/database"
	keyvaultDomain "github.com/allisson/phivault/internal/keyvault/domain"
	keyvaultRepository "github.com/allisson/phivault/internal/keyvault/repository"
	keyvaultService "github.com/allisson/phivault/internal/keyvault/service"
	keyvaultUsecase "github.com/allisson/phivault/internal/keyvault/usecase"
	"github.com/allisson/phivault/internal/metrics"
	"github.com/allisson/phivault/internal/policy"
	"github.com/allisson/phivault/internal/rbac"
	"github.com/allisson/phivault/internal/records/codec"
	recordsRepository "github.com/allisson/phivault/internal/records/repository"
	recordsUsecase "github.com/allisson/phivault/internal/records/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider

	// Managers
	txManager database.TxManager

	// Audit
	auditSink audit.Sink

	// Key vault
	kmsKeeper       keyvaultDomain.KMSKeeper
	dataKeyRepo     keyvaultUsecase.DataKeyRepository
	dataKeyUseCase  keyvaultUsecase.DataKeyUseCase
	businessMetrics metrics.BusinessMetrics

	// Encryption
	fieldPolicy *policy.FieldPolicy
	fieldEngine *cryptoService.FieldEngine
	codec       *codec.Codec

	// Records
	allowList     *rbac.AllowList
	documentRepo  recordsUsecase.DocumentRepository
	recordUseCase recordsUsecase.RecordUseCase

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	metricsProviderInit sync.Once
	txManagerInit       sync.Once
	auditSinkInit       sync.Once
	kmsKeeperInit       sync.Once
	dataKeyRepoInit     sync.Once
	dataKeyUseCaseInit  sync.Once
	businessMetricsInit sync.Once
	fieldPolicyInit     sync.Once
	fieldEngineInit     sync.Once
	codecInit           sync.Once
	allowListInit       sync.Once
	documentRepoInit    sync.Once
	recordUseCaseInit   sync.Once
	initErrors          map[string]error
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
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider instance.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled in configuration a no-op implementation is returned.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}

		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// AuditSink returns the audit sink. Events are written to the structured
// logger; persistence beyond log shipping is owned by the log pipeline.
func (c *Container) AuditSink() audit.Sink {
	c.auditSinkInit.Do(func() {
		c.auditSink = audit.NewSlogSink(c.Logger())
	})
	return c.auditSink
}

// KMSKeeper returns the keeper for the configured KMS provider.
func (c *Container) KMSKeeper(ctx context.Context) (keyvaultDomain.KMSKeeper, error) {
	c.kmsKeeperInit.Do(func() {
		keeper, err := keyvaultService.NewKMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
		if err != nil {
			c.initErrors["kmsKeeper"] = fmt.Errorf("failed to open KMS keeper: %w", err)
			return
		}
		c.kmsKeeper = keeper
	})
	if storedErr, exists := c.initErrors["kmsKeeper"]; exists {
		return nil, storedErr
	}
	return c.kmsKeeper, nil
}

// DataKeyRepository returns the data key repository instance.
func (c *Container) DataKeyRepository() (keyvaultUsecase.DataKeyRepository, error) {
	c.dataKeyRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["dataKeyRepo"] = fmt.Errorf("failed to get database for data key repository: %w", err)
			return
		}

		// Select the appropriate repository based on the database driver
		switch c.config.DBDriver {
		case "mysql":
			c.dataKeyRepo = keyvaultRepository.NewMySQLDataKeyRepository(db)
		case "postgres":
			c.dataKeyRepo = keyvaultRepository.NewPostgreSQLDataKeyRepository(db)
		default:
			c.initErrors["dataKeyRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["dataKeyRepo"]; exists {
		return nil, storedErr
	}
	return c.dataKeyRepo, nil
}

// DataKeyUseCase returns the data key use case instance.
func (c *Container) DataKeyUseCase(ctx context.Context) (keyvaultUsecase.DataKeyUseCase, error) {
	c.dataKeyUseCaseInit.Do(func() {
		dataKeyRepo, err := c.DataKeyRepository()
		if err != nil {
			c.initErrors["dataKeyUseCase"] = err
			return
		}

		keeper, err := c.KMSKeeper(ctx)
		if err != nil {
			c.initErrors["dataKeyUseCase"] = err
			return
		}

		c.dataKeyUseCase = keyvaultUsecase.NewDataKeyUseCase(
			dataKeyRepo,
			keeper,
			keyvaultDomain.NewDataKeyChain(),
			c.AuditSink(),
		)
	})
	if storedErr, exists := c.initErrors["dataKeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.dataKeyUseCase, nil
}

// FieldPolicy returns the field encryption policy, loaded from the configured
// YAML file when one is set, otherwise the built-in default policy.
func (c *Container) FieldPolicy() (*policy.FieldPolicy, error) {
	c.fieldPolicyInit.Do(func() {
		if c.config.FieldPolicyPath == "" {
			c.fieldPolicy = policy.Default()
			return
		}

		fieldPolicy, err := policy.LoadFile(c.config.FieldPolicyPath)
		if err != nil {
			c.initErrors["fieldPolicy"] = fmt.Errorf("failed to load field policy: %w", err)
			return
		}
		c.fieldPolicy = fieldPolicy
	})
	if storedErr, exists := c.initErrors["fieldPolicy"]; exists {
		return nil, storedErr
	}
	return c.fieldPolicy, nil
}

// AllowList returns the role allow-lists, loaded from the configured YAML
// file when one is set, otherwise the built-in defaults.
func (c *Container) AllowList() (*rbac.AllowList, error) {
	c.allowListInit.Do(func() {
		if c.config.RoleAllowListPath == "" {
			c.allowList = rbac.Default()
			return
		}

		allowList, err := rbac.LoadFile(c.config.RoleAllowListPath)
		if err != nil {
			c.initErrors["allowList"] = fmt.Errorf("failed to load role allow-list: %w", err)
			return
		}
		c.allowList = allowList
	})
	if storedErr, exists := c.initErrors["allowList"]; exists {
		return nil, storedErr
	}
	return c.allowList, nil
}

// FieldEngine returns the field encryption engine. When encryption is
// disabled in configuration the engine runs in passthrough mode and a
// warning is logged once at initialization.
func (c *Container) FieldEngine(ctx context.Context) (*cryptoService.FieldEngine, error) {
	c.fieldEngineInit.Do(func() {
		fieldPolicy, err := c.FieldPolicy()
		if err != nil {
			c.initErrors["fieldEngine"] = err
			return
		}

		dataKeyUseCase, err := c.DataKeyUseCase(ctx)
		if err != nil {
			c.initErrors["fieldEngine"] = err
			return
		}

		randomAlgorithm := cryptoDomain.Algorithm(c.config.RandomAlgorithm)
		if randomAlgorithm != cryptoDomain.AESGCM && randomAlgorithm != cryptoDomain.ChaCha20 {
			c.initErrors["fieldEngine"] = fmt.Errorf(
				"unsupported random encryption algorithm: %s", c.config.RandomAlgorithm)
			return
		}

		if !c.config.EncryptionEnabled {
			c.Logger().Warn("PHI field encryption is DISABLED: governed fields will be stored as plaintext")
		}

		c.fieldEngine = cryptoService.NewFieldEngine(
			cryptoService.FieldEngineConfig{
				KeyAltName:      c.config.DataKeyAltName,
				RandomAlgorithm: randomAlgorithm,
				Disabled:        !c.config.EncryptionEnabled,
			},
			fieldPolicy,
			dataKeyUseCase,
			cryptoService.NewAEADManager(),
			c.AuditSink(),
		)
	})
	if storedErr, exists := c.initErrors["fieldEngine"]; exists {
		return nil, storedErr
	}
	return c.fieldEngine, nil
}

// Codec returns the document codec instance.
func (c *Container) Codec(ctx context.Context) (*codec.Codec, error) {
	c.codecInit.Do(func() {
		engine, err := c.FieldEngine(ctx)
		if err != nil {
			c.initErrors["codec"] = err
			return
		}
		c.codec = codec.New(engine, c.AuditSink())
	})
	if storedErr, exists := c.initErrors["codec"]; exists {
		return nil, storedErr
	}
	return c.codec, nil
}

// DocumentRepository returns the document repository instance.
func (c *Container) DocumentRepository() (recordsUsecase.DocumentRepository, error) {
	c.documentRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["documentRepo"] = fmt.Errorf("failed to get database for document repository: %w", err)
			return
		}

		// Select the appropriate repository based on the database driver
		switch c.config.DBDriver {
		case "mysql":
			c.documentRepo = recordsRepository.NewMySQLDocumentRepository(db)
		case "postgres":
			c.documentRepo = recordsRepository.NewPostgreSQLDocumentRepository(db)
		default:
			c.initErrors["documentRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["documentRepo"]; exists {
		return nil, storedErr
	}
	return c.documentRepo, nil
}

// RecordUseCase returns the record use case instance, decorated with metrics
// when metrics are enabled.
func (c *Container) RecordUseCase(ctx context.Context) (recordsUsecase.RecordUseCase, error) {
	c.recordUseCaseInit.Do(func() {
		documentCodec, err := c.Codec(ctx)
		if err != nil {
			c.initErrors["recordUseCase"] = err
			return
		}

		engine, err := c.FieldEngine(ctx)
		if err != nil {
			c.initErrors["recordUseCase"] = err
			return
		}

		documentRepo, err := c.DocumentRepository()
		if err != nil {
			c.initErrors["recordUseCase"] = err
			return
		}

		allowList, err := c.AllowList()
		if err != nil {
			c.initErrors["recordUseCase"] = err
			return
		}

		useCase := recordsUsecase.NewRecordUseCase(documentCodec, engine, documentRepo, allowList)

		if c.config.MetricsEnabled {
			businessMetrics, err := c.BusinessMetrics()
			if err != nil {
				c.initErrors["recordUseCase"] = err
				return
			}
			useCase = recordsUsecase.NewRecordUseCaseWithMetrics(useCase, businessMetrics)
		}

		c.recordUseCase = useCase
	})
	if storedErr, exists := c.initErrors["recordUseCase"]; exists {
		return nil, storedErr
	}
	return c.recordUseCase, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close KMS keeper if initialized
	if c.kmsKeeper != nil {
		if err := c.kmsKeeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
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
	db, err := database.Connect(database.Config{
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
