package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asset-tracker/internal/backup"
	"asset-tracker/internal/cache"
	"asset-tracker/internal/config"
	"asset-tracker/internal/database"
	"asset-tracker/internal/logger"
	"asset-tracker/internal/metrics"
	"asset-tracker/internal/notifications"
	"asset-tracker/internal/scheduler"
	"asset-tracker/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	store, err := database.Open(cfg, logr)
	if err != nil {
		logr.WithError(err).Fatal("database init failed")
	}

	var c cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		client, err := cache.InitRedis(cfg.RedisAddr)
		if err != nil {
			logr.WithError(err).Warn("redis unavailable, using in-process cache")
		} else {
			defer client.Close()
			c = cache.NewRedis(client)
		}
	}

	m := metrics.New()
	backups := backup.NewService(store, cfg.BackupDir, cfg.MaxBackups, logr)
	notify := notifications.NewService(store)

	app := server.New(server.Deps{
		Config:  cfg,
		Store:   store,
		Log:     logr,
		Metrics: m,
		Cache:   c,
		Backups: backups,
		Notify:  notify,
	})

	sched := scheduler.New(store, backups, notify, logr)
	if err := sched.Register(cfg); err != nil {
		logr.WithError(err).Fatal("scheduler init failed")
	}
	sched.Start()

	go func() {
		addr := ":" + cfg.HTTPPort
		logr.WithField("addr", addr).Info("server listening")
		if err := app.Listen(addr); err != nil {
			logr.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logr.WithError(err).Warn("http shutdown")
	}
	sched.Stop()
	if err := store.Close(); err != nil {
		logr.WithError(err).Warn("close database")
	}
}
