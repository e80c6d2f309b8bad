package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wyngai/internal/config"
	"wyngai/internal/detect"
	"wyngai/internal/docclass"
	"wyngai/internal/domain"
	"wyngai/internal/extract"
	"wyngai/internal/port"
	"wyngai/internal/score"
)

// OCRPipeline is the slice of the OCR orchestrator the analysis service
// needs. It never fails outright; a failed extraction comes back as an
// unsuccessful result.
type OCRPipeline interface {
	Process(ctx context.Context, input port.ExtractInput) *domain.OCRResult
}

// AnalysisService runs the extraction and detection pipeline for a case.
type AnalysisService interface {
	// AnalyzeCase processes one claimed case end to end and persists the
	// outcome. Errors are recorded on the case, not returned: the queue
	// worker has nothing useful to do with them.
	AnalyzeCase(ctx context.Context, c *domain.AnalysisCase, maxRetries int)

	// AnalyzeFiles runs the same pipeline over in-memory files without
	// touching storage or the database. The CLI path.
	AnalyzeFiles(ctx context.Context, files []NamedFile, benefits *domain.BenefitsContext) *domain.CaseResult
}

// NamedFile is one in-memory input for AnalyzeFiles.
type NamedFile struct {
	ID          uuid.UUID
	Name        string
	ContentType string
	Bytes       []byte
}

type analysisService struct {
	fileRepo      port.FileRefRepository
	caseRepo      port.CaseRepository
	detectionRepo port.DetectionRepository
	storage       port.ObjectStorage
	pipeline      OCRPipeline
	engine        *detect.Engine
	waveSize      int
}

// NewAnalysisService creates a new AnalysisService implementation.
func NewAnalysisService(
	fileRepo port.FileRefRepository,
	caseRepo port.CaseRepository,
	detectionRepo port.DetectionRepository,
	storage port.ObjectStorage,
	pipeline OCRPipeline,
	engine *detect.Engine,
	cfg *config.QueueConfig,
) AnalysisService {
	waveSize := cfg.FileWaveSize
	if waveSize <= 0 {
		waveSize = 1
	}
	return &analysisService{
		fileRepo:      fileRepo,
		caseRepo:      caseRepo,
		detectionRepo: detectionRepo,
		storage:       storage,
		pipeline:      pipeline,
		engine:        engine,
		waveSize:      waveSize,
	}
}

func (s *analysisService) AnalyzeCase(ctx context.Context, c *domain.AnalysisCase, maxRetries int) {
	start := time.Now()
	log.Printf("analysisService.AnalyzeCase: case %s (attempt %d)", c.ID, c.Attempts)

	refs, err := s.fileRepo.ListByCase(ctx, c.ID)
	if err != nil {
		s.fail(ctx, c, maxRetries, fmt.Sprintf("listing files: %v", err))
		return
	}
	if len(refs) == 0 {
		// No files will ever appear; retrying is pointless.
		_ = s.caseRepo.UpdateStatus(ctx, c.ID, domain.CaseStatusFailed, domain.ErrNoFilesInCase.Error())
		return
	}

	files := make([]NamedFile, 0, len(refs))
	var downloadErrs []string
	for i := range refs {
		ref := &refs[i]
		data, err := s.storage.Download(ctx, ref.S3Bucket, ref.S3Key)
		if err != nil {
			downloadErrs = append(downloadErrs, fmt.Sprintf("%s: %v", ref.OriginalName, err))
			continue
		}
		files = append(files, NamedFile{
			ID:          ref.ID,
			Name:        ref.OriginalName,
			ContentType: ref.ContentType,
			Bytes:       data,
		})
	}
	if len(files) == 0 {
		s.fail(ctx, c, maxRetries, "downloading files: "+strings.Join(downloadErrs, "; "))
		return
	}

	result := s.AnalyzeFiles(ctx, files, c.Benefits)
	result.CaseID = c.ID

	if err := s.caseRepo.UpdateResult(ctx, c.ID, result); err != nil {
		s.fail(ctx, c, maxRetries, fmt.Sprintf("saving result: %v", err))
		return
	}
	if err := s.detectionRepo.Insert(ctx, c.ID, result.Detections); err != nil {
		log.Printf("analysisService.AnalyzeCase: case %s: saving detections: %v", c.ID, err)
	}

	log.Printf("analysisService.AnalyzeCase: case %s completed in %s — files=%d, failures=%d, detections=%d, confidence=%.2f",
		c.ID, time.Since(start).Round(time.Millisecond), len(files),
		len(result.OCRFailures), len(result.Detections), result.Confidence)
}

// fail requeues the case when attempts remain, otherwise marks it failed.
func (s *analysisService) fail(ctx context.Context, c *domain.AnalysisCase, maxRetries int, reason string) {
	if c.Attempts < maxRetries {
		log.Printf("analysisService: case %s attempt %d failed, requeueing: %s", c.ID, c.Attempts, reason)
		_ = s.caseRepo.UpdateStatus(ctx, c.ID, domain.CaseStatusQueued, reason)
		return
	}
	log.Printf("analysisService: case %s failed permanently after %d attempts: %s", c.ID, c.Attempts, reason)
	_ = s.caseRepo.UpdateStatus(ctx, c.ID, domain.CaseStatusFailed, reason)
}

// fileOutcome is the per-file product of the OCR and extraction stages.
type fileOutcome struct {
	fileID uuid.UUID
	claim  *domain.ExtractedClaim
	ocrErr string
	ocrAvg float64
}

func (s *analysisService) AnalyzeFiles(ctx context.Context, files []NamedFile, benefits *domain.BenefitsContext) *domain.CaseResult {
	now := time.Now()
	outcomes := s.extractAll(ctx, files, now)

	result := &domain.CaseResult{
		Claims:      make(map[uuid.UUID]*domain.ExtractedClaim),
		OCRFailures: make(map[uuid.UUID]string),
		Detections:  []domain.Detection{},
	}

	var claims []*domain.ExtractedClaim
	var ocrSum float64
	for _, out := range outcomes {
		if out.ocrErr != "" {
			result.OCRFailures[out.fileID] = out.ocrErr
			continue
		}
		result.Claims[out.fileID] = out.claim
		claims = append(claims, out.claim)
		ocrSum += out.ocrAvg
	}
	if len(claims) == 0 {
		result.Confidence = score.Confidence(score.Input{})
		return result
	}
	avgOCR := ocrSum / float64(len(claims))

	summary := buildSummary(claims, len(files))
	result.Summary = summary

	caseCtx := &detect.CaseContext{
		Header:   &summary.Header,
		Lines:    summary.LineItems,
		Remarks:  mergeRemarks(claims),
		Benefits: benefits,
		Now:      now,
	}
	result.Detections = s.engine.Run(caseCtx)

	result.Confidence = score.Confidence(score.Input{
		OCRConfidence: avgOCR,
		Header:        &summary.Header,
		Detections:    result.Detections,
	})
	return result
}

// extractAll runs OCR and extraction over the files in bounded concurrent
// waves. One file's failure never takes down its siblings: a panic or OCR
// failure becomes an entry in OCRFailures.
func (s *analysisService) extractAll(ctx context.Context, files []NamedFile, now time.Time) []fileOutcome {
	outcomes := make([]fileOutcome, len(files))

	for start := 0; start < len(files); start += s.waveSize {
		end := start + s.waveSize
		if end > len(files) {
			end = len(files)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				outcomes[i] = s.extractOne(ctx, &files[i], now)
			}()
		}
		wg.Wait()
	}
	return outcomes
}

func (s *analysisService) extractOne(ctx context.Context, file *NamedFile, now time.Time) (out fileOutcome) {
	out.fileID = file.ID
	defer func() {
		if r := recover(); r != nil {
			log.Printf("analysisService.extractOne: file %s panicked: %v", file.ID, r)
			out.claim = nil
			out.ocrErr = fmt.Sprintf("extraction panicked: %v", r)
		}
	}()

	ocrResult := s.pipeline.Process(ctx, port.ExtractInput{
		FileBytes:   file.Bytes,
		ContentType: file.ContentType,
		FileName:    file.Name,
	})
	if !ocrResult.Success {
		out.ocrErr = ocrResult.Error
		return out
	}

	text := ocrResult.Text()
	classification := docclass.Classify(text, file.Name)
	header := extract.ExtractHeaderAt(file.ID, classification.DocType, text, now)
	lines := extract.NormalizeLinesAt(ocrResult, now)
	remarks := extract.ExtractRemarkCodes(text)

	out.ocrAvg = ocrResult.AvgConfidence()
	out.claim = &domain.ExtractedClaim{
		FileID:     file.ID,
		Header:     header,
		LineItems:  lines,
		Remarks:    remarks,
		Confidence: out.ocrAvg,
	}
	return out
}

// buildSummary merges per-file claims into the case aggregate. The header
// comes from the most informative claim (bills beat EOBs beat the rest);
// line items concatenate in file order with fresh ordinal IDs.
func buildSummary(claims []*domain.ExtractedClaim, totalFiles int) *domain.PricedSummary {
	best := claims[0]
	bestScore := headerScore(best)
	for _, claim := range claims[1:] {
		if sc := headerScore(claim); sc > bestScore {
			best = claim
			bestScore = sc
		}
	}

	summary := &domain.PricedSummary{
		Header: best.Header,
		Totals: best.Header.Totals,
	}
	for _, claim := range claims {
		summary.LineItems = append(summary.LineItems, claim.LineItems...)
	}
	for i := range summary.LineItems {
		summary.LineItems[i].LineID = fmt.Sprintf("line_%03d", i+1)
	}

	if len(claims) < totalFiles {
		summary.Notes = append(summary.Notes,
			fmt.Sprintf("%d of %d files could not be read", totalFiles-len(claims), totalFiles))
	}
	return summary
}

// headerScore counts recovered header facts, with a document-type bonus so
// an itemized bill wins over an equally complete denial letter.
func headerScore(claim *domain.ExtractedClaim) int {
	h := &claim.Header
	pts := 0
	for _, field := range []string{h.ProviderName, h.Payer, h.ClaimID, h.AccountID, h.ProviderNPI} {
		if field != "" {
			pts++
		}
	}
	if h.Totals != nil {
		pts++
	}
	if h.ServiceDates != nil {
		pts++
	}
	pts += len(claim.LineItems)
	switch h.DocType {
	case domain.DocTypeBill:
		pts += 3
	case domain.DocTypeEOB:
		pts += 2
	}
	return pts
}

func mergeRemarks(claims []*domain.ExtractedClaim) []string {
	seen := make(map[string]bool)
	var out []string
	for _, claim := range claims {
		for _, code := range claim.Remarks {
			if !seen[code] {
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	sort.Strings(out)
	return out
}
