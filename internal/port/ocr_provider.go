package port

import (
	"context"

	"wyngai/internal/domain"
)

// ExtractInput carries the data needed for one OCR extraction attempt.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
	FileName    string
}

// OCRProvider abstracts one backing OCR engine. Providers return a uniform
// OCRResult; they never decide acceptance, the orchestrator does.
type OCRProvider interface {
	// Name identifies the vendor in results and logs.
	Name() string
	// Available reports whether the provider is configured. Unavailable
	// providers are skipped without counting as a failed attempt.
	Available() bool
	// Extract runs OCR on the file. A non-nil error means the attempt
	// failed; the orchestrator falls through to the next provider.
	Extract(ctx context.Context, input ExtractInput) (*domain.OCRResult, error)
}
