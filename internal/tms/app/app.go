package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/tms/internal/tms/http"
	"github.com/aussiebroadwan/tms/internal/tms/metrics"
	"github.com/aussiebroadwan/tms/internal/tms/security"
	"github.com/aussiebroadwan/tms/internal/tms/service"
	"github.com/aussiebroadwan/tms/internal/tms/store"
	"github.com/aussiebroadwan/tms/internal/tms/store/drivers/redis"
	"github.com/aussiebroadwan/tms/internal/tms/store/drivers/sqlite"
	"github.com/aussiebroadwan/tms/pkg/cryptox"
	"github.com/aussiebroadwan/tms/pkg/httpx"
	"github.com/aussiebroadwan/tms/pkg/jwtx"
	"github.com/aussiebroadwan/tms/pkg/slogx"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the tms service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db            store.Store
	redis         *goredis.Client // nil unless the redis refresh store is selected
	refreshTokens store.RefreshTokens
	refreshPinger httpapi.Pinger
	codec         *jwtx.HS256Codec
	metrics       *metrics.Metrics

	// Services
	directory           *service.UserDirectory
	refreshService      *service.RefreshTokenService
	sessionService      *service.SessionService
	userService         *service.UserService
	taskService         *service.TaskService
	commentService      *service.CommentService
	ownershipService    *service.OwnershipService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tms",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	proxies, err := httpx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	httpx.SetTrustedProxies(proxies)

	codec, err := jwtx.NewHS256Codec(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRefreshStore(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired router.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("tms starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"refresh_store", app.cfg.RefreshStore,
		"refresh_rotation", app.cfg.RefreshRotation,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tms...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("tms stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRefreshStore selects where refresh tokens live.
func (app *Application) initRefreshStore() error {
	switch app.cfg.RefreshStore {
	case RefreshStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := redis.NewClient(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		rs := redis.NewRefreshTokenStore(client,
			redis.WithPrefix(app.cfg.RedisPrefix),
			redis.WithRetention(app.expiredRetention()),
		)

		app.redis = client
		app.refreshTokens = rs
		app.refreshPinger = rs
		app.logger.Info("refresh tokens stored in redis", "prefix", app.cfg.RedisPrefix)
	default:
		app.refreshTokens = app.db.RefreshTokens()
		app.refreshPinger = app.db
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	rotation, err := service.ParseRotationMode(app.cfg.RefreshRotation)
	if err != nil {
		return err
	}
	hasher := cryptox.Argon2Hasher{}

	app.directory = &service.UserDirectory{Users: app.db.Users()}
	app.refreshService = &service.RefreshTokenService{
		Tokens:    app.refreshTokens,
		TTL:       app.cfg.RefreshTokenTTL,
		Retention: app.expiredRetention(),
	}
	app.sessionService = &service.SessionService{
		Directory:     app.directory,
		Authenticator: &service.PasswordAuthenticator{Directory: app.directory, Hasher: hasher},
		Tokens:        app.refreshService,
		Signer:        app.codec,
		AccessTTL:     app.cfg.AccessTokenTTL,
		Rotation:      rotation,
	}
	app.userService = &service.UserService{Store: app.db, Hasher: hasher}
	app.taskService = &service.TaskService{Store: app.db}
	app.commentService = &service.CommentService{Store: app.db}
	app.ownershipService = &service.OwnershipService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.refreshService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return app.seedAdmin()
}

// seedAdmin creates the configured admin account on first start.
func (app *Application) seedAdmin() error {
	if app.cfg.AdminUsername == "" {
		return nil
	}

	password := app.cfg.AdminPassword
	generated := password == ""
	if generated {
		var err error
		if password, err = cryptox.GeneratePassword(); err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	created, err := app.userService.EnsureAdmin(ctx, app.cfg.AdminUsername, app.cfg.AdminEmail, password)
	if err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	switch {
	case created && generated:
		app.logger.Warn("admin account created with generated password, change it",
			"username", app.cfg.AdminUsername, "password", password)
	case created:
		app.logger.Info("admin account created", "username", app.cfg.AdminUsername)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.refreshPinger,
		app.codec,
		app.metrics,
		app.logger,
	)

	// Wire services to router
	router.Gate = &security.Gate{
		Verifier: app.codec,
		Users:    app.directory,
		Sessions: app.refreshService,
		Metrics:  app.metrics,
	}
	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.TaskService = app.taskService
	router.CommentService = app.commentService
	router.OwnershipService = app.ownershipService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// expiredRetention is shared by the sweep and the Redis key TTLs so both
// drivers keep expired tokens equally long.
func (app *Application) expiredRetention() time.Duration {
	if app.cfg.HousekeepingRetention > 0 {
		return app.cfg.HousekeepingRetention
	}
	return service.DefaultExpiredRetention
}
