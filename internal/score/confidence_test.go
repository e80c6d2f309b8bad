package score_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wyngai/internal/domain"
	"wyngai/internal/score"
)

func cents(v int64) *int64 { return &v }

func fullHeader() *domain.DocumentHeader {
	return &domain.DocumentHeader{
		ProviderName: "General Hospital",
		ClaimID:      "CLM-001234",
		Totals:       &domain.Totals{Billed: cents(50000)},
	}
}

func TestConfidence_CompleteCleanCase(t *testing.T) {
	got := score.Confidence(score.Input{
		OCRConfidence: 0.95,
		Header:        fullHeader(),
	})
	// 0.4*0.95 + 0.3*1.0 + 0.3*1.0 = 0.98
	assert.InDelta(t, 0.98, got, 1e-9)
}

func TestConfidence_NeverAboveCeiling(t *testing.T) {
	got := score.Confidence(score.Input{OCRConfidence: 1.0, Header: fullHeader()})
	assert.LessOrEqual(t, got, 0.98)
}

func TestConfidence_FlooredForEmptyCase(t *testing.T) {
	got := score.Confidence(score.Input{OCRConfidence: 0, Header: nil})
	assert.InDelta(t, 0.30, got, 1e-9)
}

func TestConfidence_HighDetectionsErode(t *testing.T) {
	high := domain.Detection{Severity: domain.SeverityHigh}
	warn := domain.Detection{Severity: domain.SeverityWarn}

	clean := score.Confidence(score.Input{OCRConfidence: 0.9, Header: fullHeader()})
	withHigh := score.Confidence(score.Input{
		OCRConfidence: 0.9,
		Header:        fullHeader(),
		Detections:    []domain.Detection{high, high},
	})
	withWarn := score.Confidence(score.Input{
		OCRConfidence: 0.9,
		Header:        fullHeader(),
		Detections:    []domain.Detection{warn, warn},
	})

	assert.Less(t, withHigh, clean)
	// Warnings do not erode confidence, only high severity does.
	assert.InDelta(t, clean, withWarn, 1e-9)
	// 0.4*0.9 + 0.3*1.0 + 0.3*(1 - 0.2) = 0.90
	assert.InDelta(t, 0.90, withHigh, 1e-9)
}

func TestConfidence_DetectionErosionBottomsOut(t *testing.T) {
	many := make([]domain.Detection, 20)
	for i := range many {
		many[i] = domain.Detection{Severity: domain.SeverityHigh}
	}
	got := score.Confidence(score.Input{
		OCRConfidence: 0.9,
		Header:        fullHeader(),
		Detections:    many,
	})
	// Detection confidence floors at 0.3: 0.36 + 0.3 + 0.09 = 0.75.
	assert.InDelta(t, 0.75, got, 1e-9)
}

func TestConfidence_PartialCompleteness(t *testing.T) {
	headerNoTotals := &domain.DocumentHeader{ProviderName: "Clinic", AccountID: "ACCT-12"}
	got := score.Confidence(score.Input{OCRConfidence: 0.8, Header: headerNoTotals})
	// 0.4*0.8 + 0.3*0.5 + 0.3*1.0 = 0.77
	assert.InDelta(t, 0.77, got, 1e-9)
}
