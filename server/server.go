package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Tunebox/cache"
	"Tunebox/config"
	"Tunebox/core/auth"
	"Tunebox/core/composer"
	"Tunebox/db"
	"Tunebox/logger"
	"Tunebox/storage"
)

// Start 初始化依赖并启动 HTTP 服务，收到中断信号后优雅关闭
func Start(cfg *config.Config) error {
	ctx := context.Background()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("Failed to close store", logger.ErrorField(err))
		}
	}()
	logger.Info("Store connected", logger.String("driver", cfg.StoreDriver))

	comp, err := composer.New(store, cfg.QueryTimeout)
	if err != nil {
		return err
	}

	// 初始化 MinIO 媒体存储
	minioHost, err := storage.NewMinioHost(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize MinIO: %w", err)
	}
	media := storage.NewBreakerHost(minioHost, cfg.MediaTimeout)

	var responses *cache.ResponseCache
	if cfg.CacheEnabled {
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		responses = cache.NewResponseCache(cache.NewRedisBackend(client), cfg.CacheTTL)
		logger.Info("Response cache enabled", logger.Duration("ttl", cfg.CacheTTL))
	}

	if err := ensureDirExists(cfg.UploadDir); err != nil {
		return err
	}

	handler := NewHandler(Deps{
		Config:   cfg,
		Store:    store,
		Composer: comp,
		Issuer:   auth.NewIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpireDays)*24*time.Hour),
		Media:    media,
		Cache:    responses,
	})
	defer handler.Close()
	go handler.likes.StartCleanup(10 * time.Minute)
	go handler.logins.StartCleanup(10 * time.Minute)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-stop:
	}
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func ensureDirExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("Creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check directory %s: %w", path, err)
	}
	return nil
}
