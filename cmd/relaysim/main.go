package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relaylogic/relaysim/internal/api"
	"github.com/relaylogic/relaysim/internal/config"
	"github.com/relaylogic/relaysim/internal/sim"
	"github.com/relaylogic/relaysim/internal/store"
	"github.com/relaylogic/relaysim/internal/web"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (default: search ./relaysim.yaml, data/relaysim.yaml, etc.)")
	flag.Parse()

	cfg, watchConfig, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := newLogger()
	defer logger.Sync()

	history, err := store.OpenRunHistory(cfg.RunHistoryDBPath)
	if err != nil {
		logger.Fatal("run history open failed", zap.Error(err), zap.String("path", cfg.RunHistoryDBPath))
	}

	engineCfg := sim.Config{
		OscillationCap:  cfg.OscillationCap,
		WatchdogTimeout: cfg.WatchdogTimeout,
		Concurrency: sim.ConcurrencyConfig{
			ComponentThreshold: cfg.ParallelThreshold,
			ComponentWorkers:   cfg.ComponentWorkers,
			VNETWorkers:        cfg.VNETWorkers,
		},
	}
	engine := sim.New(engineCfg)

	watchConfig(func(newCfg config.Config) {
		logger.Info("config file changed; the engine keeps the oscillation cap and watchdog timeout it was created with until the process restarts",
			zap.Int("oscillation_cap", newCfg.OscillationCap),
			zap.Duration("watchdog_timeout", newCfg.WatchdogTimeout),
		)
	})

	hub := web.NewHub()
	apiLayer := api.New(engine, history, hub, logger)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/health", apiLayer.Health)
	apiMux.HandleFunc("/api/start", apiLayer.Start)
	apiMux.HandleFunc("/api/interact", apiLayer.Interact)
	apiMux.HandleFunc("/api/stop", apiLayer.Stop)
	apiMux.HandleFunc("/api/snapshot", apiLayer.Snapshot)

	observerMux := http.NewServeMux()
	observerMux.HandleFunc("/ws", hub.HandleWS())

	loggingMW := web.Logging(logger)
	apiSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      loggingMW(apiMux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	observerSrv := &http.Server{
		Addr:         cfg.ObserverAddr,
		Handler:      loggingMW(observerMux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}

	go func() {
		logger.Info("relaysim control API starting", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("control API server error", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("relaysim observer transport starting", zap.String("addr", observerSrv.Addr))
		if err := observerSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("observer transport server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received")

	if engine.State() != sim.Idle {
		if stats, err := engine.Stop(); err != nil {
			logger.Warn("engine stop on shutdown failed", zap.Error(err))
		} else {
			logger.Info("engine stopped on shutdown", zap.String("outcome", string(stats.Outcome)))
		}
	}
	hub.Close()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("control API graceful shutdown failed", zap.Error(err))
		if err := apiSrv.Close(); err != nil {
			logger.Warn("control API close error", zap.Error(err))
		}
	}
	if err := observerSrv.Shutdown(ctxShutdown); err != nil {
		logger.Warn("observer transport graceful shutdown failed", zap.Error(err))
		if err := observerSrv.Close(); err != nil {
			logger.Warn("observer transport close error", zap.Error(err))
		}
	}
	logger.Info("server stopped cleanly")
}

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if isatty.IsTerminal(os.Stdout.Fd()) {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = cfg.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	return logger
}
