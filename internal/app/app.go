package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "upload-converter/internal/broker/kafka"
	"upload-converter/internal/config"
	upload_h "upload-converter/internal/http-server/handler/upload"
	"upload-converter/internal/http-server/router"
	minio_repo "upload-converter/internal/repository/upload/cloud/minio"
	postgres_repo "upload-converter/internal/repository/upload/db/postgres"
	fs_repo "upload-converter/internal/repository/upload/fs"
	memory_repo "upload-converter/internal/repository/upload/memory"
	"upload-converter/internal/usecase/converter"
	"upload-converter/internal/usecase/converter/codec"
	upload_uc "upload-converter/internal/usecase/upload"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := os.MkdirAll(cfg.Storage.UploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	fileRepo := fs_repo.NewFileRepository()

	encoder := codec.NewWebP()
	conv := converter.NewConverter(fileRepo, encoder, logger, cfg.Debug).WithMaxPixels(cfg.Converter.MaxPixels)
	hook := converter.NewHook(conv, cfg)

	if cfg.Converter.Enabled && !conv.Available() {
		logger.Warn().Msg("Conversion is enabled but the WebP codec is not available in this build")
	}

	var attachments upload_uc.AttachmentRepository
	if cfg.DBEnabled() {
		dbOpts := &dbpg.Options{
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		}

		db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.db = db
		attachments = postgres_repo.NewAttachmentsRepository(db, retries)
	} else {
		logger.Info().Msg("Database is not configured, keeping attachments in memory")
		attachments = memory_repo.NewAttachmentsRepository()
	}

	uploadUsecase := upload_uc.NewUploadUsecase(attachments, fileRepo, hook, logger, upload_uc.Options{
		UploadsDir:    cfg.Storage.UploadsDir,
		BaseURL:       cfg.Storage.BaseURL,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
	})

	if cfg.MinIOEnabled() {
		client, err := minio_repo.NewClient(cfg)
		if err != nil {
			app.closeResources()
			return nil, err
		}
		mirror := minio_repo.NewMirrorRepository(client, cfg.MinIO.Bucket, retries, logger)
		if err := mirror.EnsureBucket(context.Background()); err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to prepare mirror bucket: %w", err)
		}
		uploadUsecase.WithMirror(mirror)
	}

	if cfg.KafkaEnabled() {
		app.producer = kafka_impl.NewProducerClient(cfg)
		uploadUsecase.WithPublisher(app.producer)
	}

	uploadHandler := upload_h.NewUploadHandler(uploadUsecase, logger, cfg.Storage.MaxUploadSize)

	h := &router.Handler{
		UploadHandler: uploadHandler,
		UploadsDir:    cfg.Storage.UploadsDir,
		Logger:        logger,
	}

	mux := router.SetupRouter(h)

	app.server = &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *App) Run() error {
	a.logger.Info().
		Str("addr", a.cfg.Server.Addr).
		Bool("converter_enabled", a.cfg.Converter.Enabled).
		Str("uploads_dir", a.cfg.Storage.UploadsDir).
		Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		a.closeResources()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.closeResources()

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) closeResources() {
	if a.db != nil && a.db.Master != nil {
		if err := a.db.Master.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database")
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close kafka producer")
		}
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
