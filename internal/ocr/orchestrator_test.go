package ocr_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyngai/internal/domain"
	"wyngai/internal/ocr"
	"wyngai/internal/port"
)

type fakeProvider struct {
	name      string
	available bool
	result    *domain.OCRResult
	err       error
	calls     int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }
func (f *fakeProvider) Extract(_ context.Context, _ port.ExtractInput) (*domain.OCRResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func textResult(vendor, text string) *domain.OCRResult {
	return &domain.OCRResult{
		Vendor:  vendor,
		Success: true,
		Pages:   []domain.OCRPage{{Number: 1, Text: text, Confidence: 0.9}},
	}
}

func rowResult(vendor string) *domain.OCRResult {
	return &domain.OCRResult{
		Vendor:  vendor,
		Success: true,
		Pages: []domain.OCRPage{{
			Number:     1,
			Text:       "short",
			Confidence: 0.95,
			Rows:       []domain.OCRRow{{Code: "99213", Charge: "$150.00"}},
		}},
	}
}

func TestOrchestrator_FirstAcceptableWins(t *testing.T) {
	a := &fakeProvider{name: "vision", available: true, result: rowResult("vision")}
	b := &fakeProvider{name: "textract", available: true, result: rowResult("textract")}
	o := ocr.NewOrchestrator([]port.OCRProvider{a, b})

	result := o.Process(context.Background(), port.ExtractInput{})
	require.True(t, result.Success)
	assert.Equal(t, "vision", result.Vendor)
	assert.Equal(t, 0, b.calls)
}

func TestOrchestrator_FallsThroughUselessSuccess(t *testing.T) {
	// Provider A fails outright; provider B "succeeds" with content useless
	// for billing extraction (short, no money rows); provider C is the one
	// that must be accepted.
	a := &fakeProvider{name: "vision", available: true, err: errors.New("api error")}
	b := &fakeProvider{name: "textract", available: true, result: textResult("textract", "hello")}
	c := &fakeProvider{name: "tesseract", available: true, result: rowResult("tesseract")}
	o := ocr.NewOrchestrator([]port.OCRProvider{a, b, c})

	result := o.Process(context.Background(), port.ExtractInput{})
	require.True(t, result.Success)
	assert.Equal(t, "tesseract", result.Vendor)
	assert.Equal(t, 1, b.calls)
}

func TestOrchestrator_AllExhausted(t *testing.T) {
	a := &fakeProvider{name: "vision", available: true, err: errors.New("boom")}
	b := &fakeProvider{name: "textract", available: true, result: textResult("textract", "xy")}
	o := ocr.NewOrchestrator([]port.OCRProvider{a, b})

	result := o.Process(context.Background(), port.ExtractInput{})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "vision: boom")
	assert.Contains(t, result.Error, "textract: rejected")
	assert.Empty(t, result.Pages)
}

func TestOrchestrator_SkipsUnconfigured(t *testing.T) {
	a := &fakeProvider{name: "vision", available: false}
	b := &fakeProvider{name: "tesseract", available: true, result: rowResult("tesseract")}
	o := ocr.NewOrchestrator([]port.OCRProvider{a, b})

	result := o.Process(context.Background(), port.ExtractInput{})
	require.True(t, result.Success)
	assert.Equal(t, 0, a.calls)
	// Skipped providers must not appear in the error of a later failure.
	assert.Empty(t, result.Error)
}

func TestOrchestrator_NoProvidersConfigured(t *testing.T) {
	o := ocr.NewOrchestrator([]port.OCRProvider{
		&fakeProvider{name: "vision", available: false},
	})
	result := o.Process(context.Background(), port.ExtractInput{})
	require.False(t, result.Success)
	assert.Equal(t, "no OCR providers configured", result.Error)
}

func TestAccept(t *testing.T) {
	o := ocr.NewOrchestrator(nil)

	t.Run("money_row_accepted", func(t *testing.T) {
		assert.True(t, o.Accept(rowResult("x")))
	})

	t.Run("keyword_text_accepted", func(t *testing.T) {
		r := textResult("x", "Explanation of Benefits for your recent claim, allowed amount shown below")
		assert.True(t, o.Accept(r))
	})

	t.Run("digit_dense_accepted", func(t *testing.T) {
		r := textResult("x", strings.Repeat("12345 abcde ", 10))
		assert.True(t, o.Accept(r))
	})

	t.Run("short_text_rejected", func(t *testing.T) {
		assert.False(t, o.Accept(textResult("x", "claim")))
	})

	t.Run("long_prose_without_signal_rejected", func(t *testing.T) {
		r := textResult("x", strings.Repeat("lorem ipsum dolor sit amet ", 10))
		assert.False(t, o.Accept(r))
	})
}
