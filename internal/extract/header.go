// Package extract turns classified OCR text into canonical claim headers and
// normalized line items. Every populated field has passed the strict field
// validators; anything ambiguous is omitted rather than guessed.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"wyngai/internal/domain"
	"wyngai/internal/validate"
)

// headerScanLines bounds how deep into the document header patterns are
// searched. Provider and payer identity live at the top of real documents.
const headerScanLines = 30

var (
	providerLabelPattern = regexp.MustCompile(`(?i)^\s*(?:provider|billed by|facility|billing provider|rendering provider)\s*[:\-]\s*(.{3,80})$`)
	payerLabelPattern    = regexp.MustCompile(`(?i)^\s*(?:payer|insurer|insurance|plan|health plan)\s*[:\-]\s*(.{2,60})$`)
	npiPattern           = regexp.MustCompile(`(?i)\bNPI\s*[:#]?\s*(\d{10})\b`)
	tinPattern           = regexp.MustCompile(`(?i)\b(?:TIN|tax\s*id)\s*[:#]?\s*(\d{2}-?\d{7})\b`)
	claimIDPattern       = regexp.MustCompile(`(?i)\bclaim\s*(?:number|no\.?|id|#)?\s*[:#]\s*([A-Za-z0-9\-]{6,30})\b`)
	accountIDPattern     = regexp.MustCompile(`(?i)\b(?:account|acct)\s*(?:number|no\.?|id|#)?\s*[:#]\s*([A-Za-z0-9\-]{4,25})\b`)

	datePattern      = `(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}-\d{1,2}-\d{4}|[A-Za-z]{3,9}\s+\d{1,2},?\s+\d{4})`
	dateRangePattern = regexp.MustCompile(`(?i)(?:service\s*dates?|dates?\s*of\s*service|from)\s*[:]?\s*` + datePattern + `\s*(?:to|through|thru|[-–])\s*` + datePattern)
	singleDatePattern = regexp.MustCompile(`(?i)(?:service\s*date|date\s*of\s*service)\s*[:]?\s*` + datePattern)

	// Four independent regex families for summary totals; first match per
	// category wins.
	billedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btotal\s+charges?\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\b(?:amount|total)\s+billed\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\bbilled\s+amount\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
	}
	allowedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:total\s+)?allowed\s+amount\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\bplan\s+allowed\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
	}
	planPaidPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:plan|insurance|payer)\s+paid\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\bpaid\s+by\s+(?:plan|insurance|payer)\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
	}
	patientRespPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:patient|member)\s+responsibility\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\bamount\s+due\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)\b(?:you|patient)\s+owes?\s*[:]?\s*(\$?[\d,]+(?:\.\d{1,2})?)`),
	}

	// CARC group codes (CO/OA/PI/PR + reason number) and RARC remark codes.
	carcPattern = regexp.MustCompile(`\b(CO|OA|PI|PR)[- ]?(\d{1,3})\b`)
	rarcPattern = regexp.MustCompile(`\b([MN]\d{2,3})\b`)
)

// knownPayers is the dictionary consulted when no explicit payer label is
// present.
var knownPayers = []string{
	"aetna", "cigna", "unitedhealthcare", "united healthcare", "anthem",
	"blue cross", "blue shield", "bcbs", "humana", "kaiser", "medicare",
	"medicaid", "tricare", "centene", "molina", "oscar", "ambetter",
}

// facilityKeywords drive the structural provider fallback.
var facilityKeywords = []string{
	"hospital", "medical center", "clinic", "health system", "physicians",
	"radiology", "laboratory", "surgery center", "urgent care", "imaging",
}

// ExtractHeader pulls claim-level facts out of classified document text.
func ExtractHeader(artifactID uuid.UUID, docType domain.DocType, text string) domain.DocumentHeader {
	return ExtractHeaderAt(artifactID, docType, text, time.Now())
}

// ExtractHeaderAt is ExtractHeader with an explicit reference time for date
// validation.
func ExtractHeaderAt(artifactID uuid.UUID, docType domain.DocType, text string, now time.Time) domain.DocumentHeader {
	header := domain.DocumentHeader{
		ArtifactID: artifactID,
		DocType:    docType,
	}

	lines := strings.Split(text, "\n")
	scan := lines
	if len(scan) > headerScanLines {
		scan = scan[:headerScanLines]
	}

	header.ProviderName = extractProvider(scan)
	header.Payer = extractPayer(scan)

	if m := npiPattern.FindStringSubmatch(text); m != nil {
		if npi, ok := validate.ValidateNPI(m[1]); ok {
			header.ProviderNPI = npi
		}
	}
	if m := tinPattern.FindStringSubmatch(text); m != nil {
		header.ProviderTIN = m[1]
	}
	if m := claimIDPattern.FindStringSubmatch(text); m != nil {
		if id, ok := validate.ValidateClaimID(m[1]); ok {
			header.ClaimID = id
		}
	}
	if m := accountIDPattern.FindStringSubmatch(text); m != nil {
		if id, ok := validate.ValidateAccountID(m[1]); ok {
			header.AccountID = id
		}
	}

	header.ServiceDates = extractServiceDates(text, now)
	header.Totals = extractTotals(text)

	return header
}

func extractProvider(scan []string) string {
	// Explicit label first.
	for _, line := range scan {
		if m := providerLabelPattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	// Structural fallback: a facility-looking line near the top.
	for _, line := range scan {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 4 || len(trimmed) > 80 {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, kw := range facilityKeywords {
			if strings.Contains(lower, kw) {
				return trimmed
			}
		}
	}
	return ""
}

func extractPayer(scan []string) string {
	for _, line := range scan {
		if m := payerLabelPattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, line := range scan {
		lower := strings.ToLower(line)
		for _, payer := range knownPayers {
			if idx := strings.Index(lower, payer); idx >= 0 {
				return strings.TrimSpace(line[idx : idx+len(payer)])
			}
		}
	}
	return ""
}

func extractServiceDates(text string, now time.Time) *domain.ServiceDates {
	if m := dateRangePattern.FindStringSubmatch(text); m != nil {
		start, okStart := validate.NormalizeDateAt(m[1], now)
		end, okEnd := validate.NormalizeDateAt(m[2], now)
		if okStart && okEnd {
			return &domain.ServiceDates{Start: start, End: end}
		}
	}
	if m := singleDatePattern.FindStringSubmatch(text); m != nil {
		if iso, ok := validate.NormalizeDateAt(m[1], now); ok {
			return &domain.ServiceDates{Start: iso, End: iso}
		}
	}
	return nil
}

func extractTotals(text string) *domain.Totals {
	totals := &domain.Totals{
		Billed:      firstMoneyMatch(text, billedPatterns),
		Allowed:     firstMoneyMatch(text, allowedPatterns),
		PlanPaid:    firstMoneyMatch(text, planPaidPatterns),
		PatientResp: firstMoneyMatch(text, patientRespPatterns),
	}
	if totals.Billed == nil && totals.Allowed == nil && totals.PlanPaid == nil && totals.PatientResp == nil {
		return nil
	}
	return totals
}

func firstMoneyMatch(text string, patterns []*regexp.Regexp) *int64 {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if cents, ok := validate.ParseMoney(m[1]); ok {
				return &cents
			}
		}
	}
	return nil
}

// ExtractRemarkCodes collects CARC adjustment codes and RARC remark codes
// from the text, deduplicated in order of first appearance.
func ExtractRemarkCodes(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	for _, m := range carcPattern.FindAllStringSubmatch(text, -1) {
		add(m[1] + "-" + m[2])
	}
	for _, m := range rarcPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return out
}
