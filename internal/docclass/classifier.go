// Package docclass labels billing documents by type using deterministic,
// weighted keyword and structure scoring. No randomness, no external calls:
// identical text always classifies identically.
package docclass

import (
	"strings"

	"wyngai/internal/domain"
	"wyngai/internal/validate"
)

// Signal weights per tier. Three strong hits clear the strong-signal
// acceptance threshold on their own.
const (
	strongWeight     = 0.25
	mediumWeight     = 0.10
	weakWeight       = 0.05
	filenameWeight   = 0.15
	structuralWeight = 0.25

	// AcceptThreshold accepts a type outright on a strong signal path.
	AcceptThreshold = 0.70
	// FloorThreshold is the minimum best-of-five score; below it the
	// document is UNKNOWN.
	FloorThreshold = 0.40
)

type signals struct {
	strong   []string
	medium   []string
	weak     []string
	filename []string
}

// candidateOrder fixes the tie-break order so classification is stable.
var candidateOrder = []domain.DocType{
	domain.DocTypeEOB,
	domain.DocTypeBill,
	domain.DocTypeLetter,
	domain.DocTypeInsuranceCard,
	domain.DocTypePortal,
}

var signalSets = map[domain.DocType]signals{
	domain.DocTypeEOB: {
		strong:   []string{"explanation of benefits", "allowed amount", "plan paid", "this is not a bill"},
		medium:   []string{"claim processed", "member responsibility", "amount covered", "benefit period"},
		weak:     []string{"eob", "adjudicat"},
		filename: []string{"eob", "explanation"},
	},
	domain.DocTypeBill: {
		strong:   []string{"amount due", "itemized statement", "statement of account", "please pay"},
		medium:   []string{"balance forward", "payment due", "billing statement", "account summary"},
		weak:     []string{"invoice", "charges"},
		filename: []string{"bill", "statement", "invoice"},
	},
	domain.DocTypeLetter: {
		strong:   []string{"denial", "denied", "appeal rights", "adverse benefit determination"},
		medium:   []string{"determination", "we regret", "upon review"},
		weak:     []string{"sincerely", "dear"},
		filename: []string{"letter", "denial", "appeal"},
	},
	domain.DocTypeInsuranceCard: {
		strong:   []string{"member id", "group number", "rx bin", "rxbin"},
		medium:   []string{"effective date", "pcp copay", "rx pcn"},
		weak:     []string{"copay", "in-network"},
		filename: []string{"card", "insurance"},
	},
	domain.DocTypePortal: {
		strong:   []string{"claims summary", "logged in", "my claims"},
		medium:   []string{"view details", "download eob", "claim status"},
		weak:     []string{"portal", "online"},
		filename: []string{"portal", "screenshot", "screen"},
	},
}

// Result is a classification outcome with per-type scores for debugging.
type Result struct {
	DocType    domain.DocType
	Confidence float64
	Scores     map[domain.DocType]float64
}

// Classify scores the text (and filename hint) against every candidate type
// and picks the best score above the floor.
func Classify(text, filename string) Result {
	lower := strings.ToLower(text)
	lowerName := strings.ToLower(filename)
	hasTable := hasBillingTableLine(text)

	scores := make(map[domain.DocType]float64, len(candidateOrder))
	for _, dt := range scoreOrder() {
		sig := signalSets[dt]
		score := 0.0
		for _, kw := range sig.strong {
			if strings.Contains(lower, kw) {
				score += strongWeight
			}
		}
		for _, kw := range sig.medium {
			if strings.Contains(lower, kw) {
				score += mediumWeight
			}
		}
		for _, kw := range sig.weak {
			if strings.Contains(lower, kw) {
				score += weakWeight
			}
		}
		for _, hint := range sig.filename {
			if lowerName != "" && strings.Contains(lowerName, hint) {
				score += filenameWeight
				break
			}
		}
		// A line carrying both a billing code and a money token is the
		// signature of an itemized billing table.
		if hasTable && (dt == domain.DocTypeBill || dt == domain.DocTypeEOB) {
			score += structuralWeight
		}
		if score > 1.0 {
			score = 1.0
		}
		scores[dt] = score
	}

	best := domain.DocTypeUnknown
	bestScore := 0.0
	for _, dt := range candidateOrder {
		if scores[dt] > bestScore {
			best = dt
			bestScore = scores[dt]
		}
	}

	if bestScore >= FloorThreshold {
		return Result{DocType: best, Confidence: bestScore, Scores: scores}
	}
	return Result{DocType: domain.DocTypeUnknown, Confidence: bestScore, Scores: scores}
}

func scoreOrder() []domain.DocType { return candidateOrder }

// hasBillingTableLine reports whether any line carries both a valid billing
// code and a money token.
func hasBillingTableLine(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		var hasCode, hasMoney bool
		for _, f := range fields {
			if !hasCode {
				if _, system, ok := validate.ValidateCode(f); ok &&
					(system == domain.CodeSystemCPT || system == domain.CodeSystemHCPCS) {
					hasCode = true
				}
			}
			if !hasMoney {
				if _, ok := validate.ParseMoney(f); ok && strings.ContainsAny(f, "$.,") {
					hasMoney = true
				}
			}
		}
		if hasCode && hasMoney {
			return true
		}
	}
	return false
}
