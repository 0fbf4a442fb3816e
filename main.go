package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/config"
	"github.com/Amaan007S/piq-sync/internal/api"
	"github.com/Amaan007S/piq-sync/internal/cache"
	"github.com/Amaan007S/piq-sync/internal/identity"
	"github.com/Amaan007S/piq-sync/internal/pi"
	"github.com/Amaan007S/piq-sync/internal/store"
	syncpkg "github.com/Amaan007S/piq-sync/internal/sync"
	"github.com/Amaan007S/piq-sync/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
		Dev:        cfg.LogDev,
	}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Fatal("failed to connect to redis", zap.Error(err))
	}

	localCache, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Log.Fatal("failed to open local cache", zap.Error(err))
	}

	piClient := pi.NewClient(cfg.PiAPIBaseURL, cfg.PiAccessToken, cfg.PiSandbox)
	provider := identity.NewProvider(piClient)
	remote := store.NewRedisStore(client)
	session := syncpkg.NewSession(provider, remote, localCache)

	if err := session.Start(ctx, cfg.FlushInterval); err != nil {
		// Degrade to local-only: slices stay usable, nothing replicates.
		logger.Log.Error("session start failed, running offline", zap.Error(err))
	}
	defer session.Close()

	server := &http.Server{
		Addr:    cfg.DiagAddr,
		Handler: api.NewRouter(session, remote),
	}
	go func() {
		logger.Log.Info("diagnostics endpoint listening", zap.String("addr", cfg.DiagAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("diagnostics endpoint failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Warn("diagnostics shutdown failed", zap.Error(err))
	}
}
