package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"techtrack/internal/catalog"
	"techtrack/internal/config"
	"techtrack/internal/httpserver"
	"techtrack/internal/httpserver/deps"
	"techtrack/internal/identity"
	"techtrack/internal/kvstore"
	"techtrack/internal/logger"
	"techtrack/internal/redisconn"
	"techtrack/internal/scheduler"
	"techtrack/internal/tracker"
	"techtrack/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       kvstore.Store
	redisClient *goredis.Client
	tracker     *tracker.Tracker
	sync        *scheduler.StoreSync
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize the store backend early - fail fast if unavailable
	var redisClient *goredis.Client
	if cfg.StoreBackend == kvstore.BackendRedis {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redisconn.New(redisconn.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
	}

	store, err := kvstore.New(kvstore.Options{
		Backend:     cfg.StoreBackend,
		SQLitePath:  cfg.SQLitePath,
		RedisClient: redisClient,
	})
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized",
		logger.String("backend", cfg.StoreBackend))

	// Resolve the session owner
	user := identity.NewStatic(cfg.Username, cfg.Ephemeral).Current()

	// Load the catalog once per startup; any failure degrades to the
	// built-in fallback inside the loader.
	loader := catalog.NewLoader(cfg.CatalogURL, cfg.CatalogFile, cfg.CatalogTimeout, loggerClient)
	cat := loader.Load(context.Background())

	// Build the tracker and materialize the working set
	trk := tracker.New(store, loggerClient, user, cat)
	if err := trk.Load(context.Background()); err != nil {
		loggerClient.Errorf("Failed to load working set: %v", err)
		os.Exit(1)
	}

	storeSync := scheduler.NewStoreSync(store, trk, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		TimeNow:   time.Now,
		Tracker:   trk,
		User:      user,
		Catalog:   cat,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		store:       store,
		redisClient: redisClient,
		tracker:     trk,
		sync:        storeSync,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting TechTrack v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("TechTrack %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the store change watcher
	if err := a.sync.Start(ctx); err != nil {
		return fmt.Errorf("failed to start store sync: %w", err)
	}
	a.logger.Info("store sync started",
		logger.String("key", a.tracker.StorageKey()))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.sync.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close store: %v", err)
	} else {
		a.logger.Info("✅ store closed cleanly")
	}

	a.logger.Info("✅ TechTrack stopped cleanly")
	return nil
}
