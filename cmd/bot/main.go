package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	h "github.com/veranemoloko/tg-downloader/internal/api/http"
	cfgpkg "github.com/veranemoloko/tg-downloader/internal/config"
	"github.com/veranemoloko/tg-downloader/internal/delivery"
	"github.com/veranemoloko/tg-downloader/internal/extractor"
	repo "github.com/veranemoloko/tg-downloader/internal/repository"
	svc "github.com/veranemoloko/tg-downloader/internal/service"
	"github.com/veranemoloko/tg-downloader/internal/storage"
	"github.com/veranemoloko/tg-downloader/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logger := cfgpkg.SetupLogger(cfg)
	if err := cfgpkg.ApplyTimezone(cfg); err != nil {
		logger.Warn("failed to apply timezone, using system default", "tz", cfg.Timezone, "error", err)
	}
	logger.Info("configuration loaded successfully",
		"download_dir", cfg.DownloadDir,
		"max_concurrent_downloads", cfg.MaxConcurrentDownloads,
		"upload_limit_mb", cfg.UploadLimitMB,
		"upload_limit_bytes", cfg.UploadLimitBytes(),
	)

	files := storage.NewFileStorage(cfg.DownloadDir)
	if err := files.EnsureDir(); err != nil {
		return err
	}

	jobs, err := repo.NewJobStorage(cfg.StateFile, 0)
	if err != nil {
		logger.Error("failed to initialize job registry", "error", err)
		return err
	}

	engine := extractor.NewYTDLP(extractor.OptionsFromConfig(cfg), logger)
	downloadService := svc.NewDownloadService(engine, cfg, logger)
	handler := delivery.NewHandler(downloadService, files, jobs, cfg, logger)

	bot, err := telegram.NewBot(cfg, handler, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recovered, err := handler.RecoverInterrupted(ctx, bot.Messenger)
	if err != nil {
		logger.Error("failed to recover interrupted jobs", "error", err)
	} else if recovered > 0 {
		logger.Info("interrupted jobs marked as failed", "count", recovered)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(gctx)
	})

	if cfg.AdminAddr != "" {
		server := &http.Server{
			Addr:    cfg.AdminAddr,
			Handler: h.NewRouter(jobs, logger),
		}

		g.Go(func() error {
			logger.Info("admin server starting", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	runErr := g.Wait()
	logger.Info("shutdown signal received, waiting for in-flight jobs")

	waitCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := bot.Wait(waitCtx); err != nil {
		logger.Warn("in-flight jobs did not finish in time", "error", err)
	} else {
		logger.Info("bot stopped gracefully")
	}

	return runErr
}
