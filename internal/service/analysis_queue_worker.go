package service

import (
	"context"
	"log"
	"sync"
	"time"

	"wyngai/internal/port"
)

// AnalysisQueueConfig holds settings for the analysis queue worker.
type AnalysisQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// AnalysisQueueWorker polls for queued cases and dispatches them for
// analysis.
type AnalysisQueueWorker struct {
	caseRepo port.CaseRepository
	analysis AnalysisService
	cfg      AnalysisQueueConfig
	wg       sync.WaitGroup
}

// NewAnalysisQueueWorker creates a new AnalysisQueueWorker.
func NewAnalysisQueueWorker(caseRepo port.CaseRepository, analysis AnalysisService, cfg AnalysisQueueConfig) *AnalysisQueueWorker {
	return &AnalysisQueueWorker{
		caseRepo: caseRepo,
		analysis: analysis,
		cfg:      cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight analyses have finished.
func (w *AnalysisQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("analysisQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("analysisQueueWorker: shutting down, waiting for in-flight analyses...")
			w.wg.Wait()
			log.Printf("analysisQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			cases, err := w.caseRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("analysisQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range cases {
				c := cases[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// A fresh context independent of the poll context so
					// in-flight analyses complete even during shutdown.
					analyzeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
					defer cancel()

					log.Printf("analysisQueueWorker: dispatching case %s (attempt %d)", c.ID, c.Attempts)
					w.analysis.AnalyzeCase(analyzeCtx, &c, w.cfg.MaxRetries)
				}()
			}
		}
	}
}
