package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wyngai/internal/auth"
	"wyngai/internal/config"
	"wyngai/internal/detect"
	"wyngai/internal/handler"
	"wyngai/internal/ocr"
	"wyngai/internal/ocr/tesseract"
	"wyngai/internal/ocr/textract"
	"wyngai/internal/ocr/vision"
	"wyngai/internal/port"
	"wyngai/internal/repository/postgres"
	"wyngai/internal/router"
	"wyngai/internal/service"
	s3storage "wyngai/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func registerProviders() {
	ocr.RegisterProvider("vision", func(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
		return vision.NewProvider(cfg), nil
	})
	ocr.RegisterProvider("textract", func(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
		return textract.NewProvider(cfg), nil
	})
	ocr.RegisterProvider("tesseract", func(cfg *config.OCRProviderConfig) (port.OCRProvider, error) {
		return tesseract.NewProvider(cfg), nil
	})
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	caseRepo := postgres.NewCaseRepo(db)
	fileRepo := postgres.NewFileRefRepo(db)
	detectionRepo := postgres.NewDetectionRepo(db)

	// Storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// OCR pipeline
	registerProviders()
	chain, err := ocr.BuildChain(&cfg.OCR)
	if err != nil {
		return fmt.Errorf("failed to build OCR chain: %w", err)
	}
	orchestrator := ocr.NewOrchestrator(chain, ocr.WithMinFreeTextLen(cfg.OCR.MinFreeTextLen))

	// Detection engine
	engine := detect.NewEngine(detect.NewBuiltinRegistry())

	// Services
	issuer := auth.NewTokenIssuer(&cfg.Auth)
	caseSvc := service.NewCaseService(caseRepo, fileRepo, detectionRepo, s3Client, &cfg.S3)
	analysisSvc := service.NewAnalysisService(fileRepo, caseRepo, detectionRepo, s3Client, orchestrator, engine, &cfg.Queue)

	// Handlers
	caseH := handler.NewCaseHandler(caseSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, issuer, caseH, healthH)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Queue worker drains queued cases in the background.
	worker := service.NewAnalysisQueueWorker(caseRepo, analysisSvc, service.AnalysisQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(workerDone)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
	log.Printf("shutdown complete")
	return nil
}
