package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echofm/cache"
	"echofm/config"
	"echofm/logger"
	"echofm/store"
)

// Start wires the stores together from configuration and runs the HTTP
// server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	})

	memory := store.NewMemoryStore()
	var catalog store.CatalogStore = memory
	var media store.MediaStore = memory
	usingMemoryCatalog := true

	if dsn := cfg.MySQLDSN(); dsn != "" {
		mysqlStore, err := store.OpenMySQL(dsn)
		if err != nil {
			logger.Fatal("failed to connect to MySQL", logger.ErrorField(err))
		}
		defer mysqlStore.Close()
		if err := mysqlStore.InitSchema(); err != nil {
			logger.Fatal("failed to initialize catalog schema", logger.ErrorField(err))
		}
		catalog = mysqlStore
		usingMemoryCatalog = false
		logger.Info("using MySQL catalog store", logger.String("host", cfg.DBHost))
	}

	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioMediaStore(store.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Fatal("failed to connect to MinIO", logger.ErrorField(err))
		}
		media = minioStore
		logger.Info("using MinIO media store", logger.String("bucket", cfg.MinioBucket))
	}

	if cfg.RedisAddr != "" {
		if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
		}
		defer cache.CloseRedis()
		logger.Info("play count cache enabled", logger.String("addr", cfg.RedisAddr))
	}

	// The in-memory catalog starts empty on every boot; give it the
	// default admin, playlists and songs.
	if usingMemoryCatalog {
		if err := store.Seed(catalog, media); err != nil {
			logger.Fatal("failed to seed catalog", logger.ErrorField(err))
		}
		logger.Info("seeded in-memory catalog")
	}

	handler := NewAPIHandler(catalog, media, cfg)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      corsMiddleware(handler.Routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}
