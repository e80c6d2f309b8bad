// Package ocr orchestrates multi-vendor OCR extraction with predicate-gated
// fallback: a provider succeeding is not enough, its output must also look
// usable for billing extraction before the chain stops.
package ocr

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"wyngai/internal/domain"
	"wyngai/internal/port"
)

const defaultMinFreeTextLen = 50

// billingKeywords are the domain terms whose presence makes free text
// acceptable even without structured rows.
var billingKeywords = []string{
	"patient", "provider", "claim", "charge", "billed", "allowed",
	"copay", "coinsurance", "deductible", "balance", "amount due",
	"explanation of benefits", "cpt", "procedure", "service date",
	"insurance", "payer", "member", "account",
}

// Orchestrator tries providers in a fixed priority order until one produces
// an acceptable result.
type Orchestrator struct {
	providers      []port.OCRProvider
	minFreeTextLen int
	attemptTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMinFreeTextLen overrides the free-text length floor of the acceptance
// predicate.
func WithMinFreeTextLen(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.minFreeTextLen = n
		}
	}
}

// WithAttemptTimeout bounds each provider attempt. Zero means the attempt
// waits until the provider call settles.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.attemptTimeout = d }
}

// NewOrchestrator creates an Orchestrator over an ordered provider list.
// Adding a vendor means appending to the list.
func NewOrchestrator(providers []port.OCRProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers:      providers,
		minFreeTextLen: defaultMinFreeTextLen,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs the fallback chain for one file. The returned OCRResult always
// reflects the outcome: Success=false with an aggregated error only when
// every configured provider failed or was rejected.
func (o *Orchestrator) Process(ctx context.Context, input port.ExtractInput) *domain.OCRResult {
	var attempts []string

	for _, p := range o.providers {
		if !p.Available() {
			log.Printf("ocr.Orchestrator: skipping %s (not configured)", p.Name())
			continue
		}

		result, err := o.attempt(ctx, p, input)
		if err != nil {
			log.Printf("ocr.Orchestrator: %s failed: %v", p.Name(), err)
			attempts = append(attempts, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		if !result.Success {
			log.Printf("ocr.Orchestrator: %s reported failure: %s", p.Name(), result.Error)
			attempts = append(attempts, fmt.Sprintf("%s: %s", p.Name(), result.Error))
			continue
		}
		if !o.Accept(result) {
			log.Printf("ocr.Orchestrator: %s rejected (no usable billing content)", p.Name())
			attempts = append(attempts, fmt.Sprintf("%s: rejected (no usable billing content)", p.Name()))
			continue
		}
		return result
	}

	errMsg := "no OCR providers configured"
	if len(attempts) > 0 {
		errMsg = fmt.Sprintf("all providers exhausted: %s", strings.Join(attempts, "; "))
	}
	return &domain.OCRResult{
		Vendor:  "none",
		Success: false,
		Error:   errMsg,
	}
}

func (o *Orchestrator) attempt(ctx context.Context, p port.OCRProvider, input port.ExtractInput) (*domain.OCRResult, error) {
	if o.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
		defer cancel()
	}
	start := time.Now()
	result, err := p.Extract(ctx, input)
	if err != nil {
		return nil, err
	}
	if result.ProcessingTimeMs == 0 {
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	return result, nil
}

// Accept is the acceptance predicate: structured output with at least one
// monetary row, or free text long enough to contain billing vocabulary or a
// digit-dense pattern.
func (o *Orchestrator) Accept(result *domain.OCRResult) bool {
	for i := range result.Pages {
		page := &result.Pages[i]
		for j := range page.Rows {
			if page.Rows[j].HasMoney() {
				return true
			}
		}
	}

	text := result.Text()
	if len(text) < o.minFreeTextLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range billingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return digitDense(text)
}

// digitDense reports whether at least 15% of the non-space characters are
// digits, a shape typical of billing tables even when keywords are garbled.
func digitDense(s string) bool {
	var digits, total int
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		total++
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if total == 0 {
		return false
	}
	return float64(digits)/float64(total) >= 0.15
}
