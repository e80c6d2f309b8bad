// Package score aggregates OCR quality, extraction completeness and
// detection severity into one bounded confidence value for a case.
package score

import "wyngai/internal/domain"

// The confidence floor and ceiling. A result is never presented as certain
// and never as worthless: even an empty extraction carries some signal.
const (
	floor   = 0.30
	ceiling = 0.98

	ocrWeight          = 0.4
	completenessWeight = 0.3
	detectionWeight    = 0.3

	// Each high-severity detection erodes trust in the extraction itself,
	// down to a floor.
	highSeverityPenalty = 0.1
	detectionFloor      = 0.3
)

// Input carries the three signals the scorer combines.
type Input struct {
	OCRConfidence float64
	Header        *domain.DocumentHeader
	Detections    []domain.Detection
}

// Confidence computes the case confidence in [floor, ceiling].
func Confidence(in Input) float64 {
	raw := ocrWeight*in.OCRConfidence +
		completenessWeight*completeness(in.Header) +
		detectionWeight*detectionConfidence(in.Detections)
	return clamp(raw)
}

// completeness scores how much of the claim identity was recovered: half
// for knowing who billed (provider plus a claim or account ID), half for
// having any summary totals.
func completeness(header *domain.DocumentHeader) float64 {
	if header == nil {
		return 0
	}
	score := 0.0
	hasID := header.ClaimID != "" || header.AccountID != ""
	if header.ProviderName != "" && hasID {
		score += 0.5
	}
	if t := header.Totals; t != nil {
		if t.Billed != nil || t.Allowed != nil || t.PlanPaid != nil || t.PatientResp != nil {
			score += 0.5
		}
	}
	return score
}

func detectionConfidence(detections []domain.Detection) float64 {
	high := 0
	for i := range detections {
		if detections[i].Severity == domain.SeverityHigh {
			high++
		}
	}
	conf := 1.0 - highSeverityPenalty*float64(high)
	if conf < detectionFloor {
		conf = detectionFloor
	}
	return conf
}

func clamp(v float64) float64 {
	if v < floor {
		return floor
	}
	if v > ceiling {
		return ceiling
	}
	return v
}
