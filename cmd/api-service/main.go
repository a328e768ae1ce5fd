package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldhq/pro-dispatch/internal/api/auth"
	"github.com/fieldhq/pro-dispatch/internal/api/handler"
	"github.com/fieldhq/pro-dispatch/internal/api/router"
	"github.com/fieldhq/pro-dispatch/internal/api/storage"
	"github.com/fieldhq/pro-dispatch/internal/config"
	"github.com/fieldhq/pro-dispatch/internal/dispatch"
	"github.com/fieldhq/pro-dispatch/internal/dispatch/geo"
	"github.com/fieldhq/pro-dispatch/shared/logger"
	"github.com/fieldhq/pro-dispatch/shared/postgresql"
	"github.com/fieldhq/pro-dispatch/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	if cfg.Database.Migrate {
		if err := runMigrations(&cfg.Database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		appLogger.Info("Database migrations applied")
	}

	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	// ZIP geocode cache: Redis when configured, in-process otherwise.
	var zipCache geo.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := geo.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		zipCache = redisCache
		appLogger.Info("Redis geocode cache configured")
	} else {
		zipCache = geo.NewMemoryCache()
		appLogger.Warn("No redis URL configured, using in-process geocode cache")
	}

	provider := geo.NewHTTPProvider(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, cfg.Geocoder.Timeout)
	backfill := geo.NewQueueBackfill(rabbitClient, appLogger.Logger)
	geoResolver := geo.NewResolver(zipCache, provider, backfill, appLogger.Logger)

	store := storage.NewStorage(dbClient, cfg.Dispatch.Schema, appLogger.Logger)
	jobResolver := dispatch.NewResolver(store, geoResolver, dispatch.Options{
		StatusWhitelist:    cfg.Dispatch.StatusWhitelist,
		JobLimit:           cfg.Dispatch.JobLimit,
		OrderLimit:         cfg.Dispatch.OrderLimit,
		TakeRate:           cfg.Dispatch.TakeRate,
		GeocodeConcurrency: cfg.Dispatch.GeocodeConcurrency,
		DefaultRadiusMiles: cfg.Dispatch.DefaultRadiusMiles,
	}, appLogger.Logger)

	verifier := auth.NewVerifier(store, appLogger.Logger)

	r := initRouter(cfg.App.Environment, appLogger.Logger, jobResolver, verifier, dbClient)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	cleanup := func() {
		cancel()
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}
	defer cleanup()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// runMigrations applies pending schema migrations before the pool opens
func runMigrations(cfg *config.DatabaseConfig) error {
	path := cfg.MigrationsPath
	if path == "" {
		path = "migrations"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, logger *slog.Logger, resolver *dispatch.Resolver, verifier *auth.Verifier, dbClient *postgresql.Client) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	handlerDeps := &handler.Dependencies{
		Logger:   logger,
		Resolver: resolver,
		Verifier: verifier,
		DB:       dbClient,
	}

	return router.SetupRouter(handlerDeps)
}
