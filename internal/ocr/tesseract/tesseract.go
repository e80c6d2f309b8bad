// Package tesseract implements the local OCR provider: tesseract for images,
// pdftotext for PDFs. It produces free text only, no structured rows, with a
// heuristic confidence derived from the text itself.
package tesseract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"wyngai/internal/config"
	"wyngai/internal/domain"
	"wyngai/internal/port"
)

// Provider implements port.OCRProvider by shelling out to local binaries.
type Provider struct {
	tesseractPath string
	pdftotextPath string
}

// NewProvider creates a local OCR provider. Availability is decided by
// whether the tesseract binary resolves on PATH.
func NewProvider(cfg *config.OCRProviderConfig) *Provider {
	binPath := cfg.BinaryPath
	if binPath == "" {
		binPath = "tesseract"
	}
	return &Provider{
		tesseractPath: binPath,
		pdftotextPath: "pdftotext",
	}
}

func (p *Provider) Name() string { return "tesseract" }

func (p *Provider) Available() bool {
	_, err := exec.LookPath(p.tesseractPath)
	return err == nil
}

func (p *Provider) Extract(ctx context.Context, input port.ExtractInput) (*domain.OCRResult, error) {
	start := time.Now()

	var text string
	var pageCount int
	var err error
	switch input.ContentType {
	case "application/pdf":
		text, pageCount, err = p.pdfToText(ctx, input.FileBytes)
	case "image/jpeg", "image/png":
		text, err = p.imageOCR(ctx, input.FileBytes, input.ContentType)
		pageCount = 1
	default:
		return nil, fmt.Errorf("unsupported content type for local OCR: %s", input.ContentType)
	}
	if err != nil {
		return nil, err
	}

	conf := heuristicConfidence(text)
	pageTexts := strings.Split(text, "\f")
	if len(pageTexts) < pageCount {
		pageTexts = []string{text}
	}
	pages := make([]domain.OCRPage, 0, len(pageTexts))
	for i, pt := range pageTexts {
		pt = strings.TrimSpace(pt)
		if pt == "" && len(pageTexts) > 1 {
			continue
		}
		pages = append(pages, domain.OCRPage{
			Number:     i + 1,
			Text:       pt,
			Confidence: conf,
		})
	}

	return &domain.OCRResult{
		Vendor:           p.Name(),
		Pages:            pages,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	}, nil
}

func (p *Provider) imageOCR(ctx context.Context, data []byte, contentType string) (string, error) {
	ext := ".png"
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	path, cleanup, err := writeTemp(data, ext)
	if err != nil {
		return "", err
	}
	defer cleanup()

	// tesseract <file> stdout
	cmd := exec.CommandContext(ctx, p.tesseractPath, path, "stdout")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

func (p *Provider) pdfToText(ctx context.Context, data []byte) (string, int, error) {
	path, cleanup, err := writeTemp(data, ".pdf")
	if err != nil {
		return "", 0, err
	}
	defer cleanup()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	cmd := exec.CommandContext(ctx, p.pdftotextPath, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// pdftotext separates pages with form feeds.
	return text, 1 + strings.Count(text, "\f"), nil
}

func writeTemp(data []byte, ext string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "wyngai-ocr-*")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "input"+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { _ = os.RemoveAll(dir) }, nil
}

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b20\d{2}-\d{2}-\d{2}\b`)
	reAmount = regexp.MustCompile(`\$?\b\d{1,3}(,\d{3})*\.\d{2}\b`)
	reCode   = regexp.MustCompile(`\b\d{5}\b|\b[A-Z]\d{4}\b`)
)

// heuristicConfidence estimates read quality from billing artifacts in the
// text, since tesseract's plain output carries no confidence.
func heuristicConfidence(text string) float64 {
	score := 0.2
	if reDate.MatchString(text) {
		score += 0.2
	}
	if reAmount.MatchString(text) {
		score += 0.2
	}
	if reCode.MatchString(text) {
		score += 0.15
	}
	if len(text) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
