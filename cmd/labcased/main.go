package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/core"
	"github.com/yuchen-hong/labcase-tracker/internal/export"
	"github.com/yuchen-hong/labcase-tracker/internal/llm/openai"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
	"github.com/yuchen-hong/labcase-tracker/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.Migrate(ctx, logger); err != nil {
		logger.Error("migrating database", "error", err)
		os.Exit(1)
	}
	if err := db.HealthCheck(ctx, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database health OK")

	users := repository.NewUserRepository(db, logger)
	cases := repository.NewCaseRepository(db, logger)
	reports := repository.NewReportRepository(db, logger)

	extractor := openai.NewClient(openai.FromLLMConfig(cfg.LLM), logger)
	processor := core.NewProcessor(logger, extractor, users, cases, reports)
	exporter := export.NewService(users, cases, reports, logger)

	svc := server.NewService(db, processor, users, cases, reports, exporter, logger)
	e := svc.NewEcho()

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := e.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
