package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wyngai/internal/domain"
	"wyngai/internal/validate"
)

var (
	codeWithModPattern = regexp.MustCompile(`^(\d{5}|[A-Z]\d{4})-([A-Z0-9]{2})$`)
	unitsTokenPattern  = regexp.MustCompile(`(?i)^x(\d{1,3})$`)
	dateTokenPattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}-\d{1,2}-\d{4})$`)
	moneyTokenPattern  = regexp.MustCompile(`^\$[\d,]+(?:\.\d{1,2})?$|^[\d,]+\.\d{2}$`)
	alphaModPattern    = regexp.MustCompile(`^[A-Z][A-Z0-9]$|^\d[A-Z]$`)
)

// descPrefixLen is the description prefix length used in the dedup key.
const descPrefixLen = 50

// codeSearchWindow is how many leading tokens are searched for the primary
// code in a free-text line.
const codeSearchWindow = 4

// NormalizeLines converts an accepted OCR result into the canonical ordered
// line-item list. Structured rows are preferred; free-text scanning is the
// fallback when no vendor produced table rows.
func NormalizeLines(result *domain.OCRResult) []domain.LineItem {
	return NormalizeLinesAt(result, time.Now())
}

// NormalizeLinesAt is NormalizeLines with an explicit reference time for
// date validation. Given identical input it always produces an identical
// list: candidate order is preserved and the dedup key is stable.
func NormalizeLinesAt(result *domain.OCRResult, now time.Time) []domain.LineItem {
	var candidates []domain.LineItem

	hasRows := false
	for i := range result.Pages {
		if len(result.Pages[i].Rows) > 0 {
			hasRows = true
			break
		}
	}

	if hasRows {
		for i := range result.Pages {
			page := &result.Pages[i]
			for j := range page.Rows {
				if item, ok := fromRow(&page.Rows[j], page.Confidence, now); ok {
					candidates = append(candidates, item)
				}
			}
		}
	} else {
		for i := range result.Pages {
			page := &result.Pages[i]
			for _, line := range strings.Split(page.Text, "\n") {
				if item, ok := fromTextLine(line, page.Confidence, now); ok {
					candidates = append(candidates, item)
				}
			}
		}
	}

	return dedupe(candidates)
}

// fromRow normalizes one structured vendor row. Only rows carrying a valid
// code or at least one monetary amount are retained.
func fromRow(row *domain.OCRRow, pageConf float64, now time.Time) (domain.LineItem, bool) {
	if len(row.Cells) > 0 && row.Code == "" && !row.HasMoney() {
		// Positional-only vendors go through the token path.
		return fromTextLine(strings.Join(row.Cells, " "), pageConf, now)
	}

	item := domain.LineItem{Confidence: pageConf}
	low := false

	if row.Code != "" {
		if code, system, ok := validate.ValidateCode(row.Code); ok {
			item.Code = code
			item.CodeSystem = system
		} else {
			low = true
		}
	}
	for _, m := range row.Modifiers {
		if mod, ok := validate.ValidateModifier(m); ok {
			item.Modifiers = append(item.Modifiers, mod)
		} else if m != "" {
			low = true
		}
	}
	item.Description = strings.TrimSpace(row.Description)
	if row.Units != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(row.Units)); err == nil && n > 0 {
			item.Units = &n
		} else {
			low = true
		}
	}
	if row.DateOfSvc != "" {
		if iso, ok := validate.NormalizeDateAt(row.DateOfSvc, now); ok {
			item.DateOfService = iso
		} else {
			low = true
		}
	}
	item.Charge, low = parseMoneyField(row.Charge, low)
	item.Allowed, low = parseMoneyField(row.Allowed, low)
	item.PlanPaid, low = parseMoneyField(row.PlanPaid, low)
	item.PatientResp, low = parseMoneyField(row.PatientResp, low)

	item.LowConfidence = low || pageConf < 0.5
	if item.Code == "" && !hasAnyMoney(&item) {
		return domain.LineItem{}, false
	}
	return item, true
}

func parseMoneyField(raw string, low bool) (*int64, bool) {
	if raw == "" {
		return nil, low
	}
	cents, ok := validate.ParseMoney(raw)
	if !ok {
		return nil, true
	}
	return &cents, low
}

// fromTextLine scans one free-text line for billing tokens. The free-text
// path is inherently lower confidence than table rows.
func fromTextLine(line string, pageConf float64, now time.Time) (domain.LineItem, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return domain.LineItem{}, false
	}

	item := domain.LineItem{Confidence: pageConf * 0.9}
	low := false
	used := make([]bool, len(tokens))

	// Primary code among the first few tokens, possibly with an attached
	// modifier (99213-25).
	for i := 0; i < len(tokens) && i < codeSearchWindow; i++ {
		tok := strings.ToUpper(tokens[i])
		if m := codeWithModPattern.FindStringSubmatch(tok); m != nil {
			if code, system, ok := validate.ValidateCode(m[1]); ok {
				item.Code = code
				item.CodeSystem = system
				if mod, ok := validate.ValidateModifier(m[2]); ok {
					item.Modifiers = append(item.Modifiers, mod)
				}
				used[i] = true
				break
			}
		}
		if code, system, ok := validate.ValidateCode(tok); ok &&
			(system == domain.CodeSystemCPT || system == domain.CodeSystemHCPCS) {
			item.Code = code
			item.CodeSystem = system
			used[i] = true
			break
		}
	}

	var moneyValues []int64
	var descParts []string
	for i, tok := range tokens {
		if used[i] {
			continue
		}
		upper := strings.ToUpper(tok)

		if moneyTokenPattern.MatchString(tok) {
			if cents, ok := validate.ParseMoney(tok); ok {
				moneyValues = append(moneyValues, cents)
			} else {
				low = true
			}
			continue
		}
		if dateTokenPattern.MatchString(tok) {
			if item.DateOfService == "" {
				if iso, ok := validate.NormalizeDateAt(tok, now); ok {
					item.DateOfService = iso
				} else {
					low = true
				}
			}
			continue
		}
		if m := unitsTokenPattern.FindStringSubmatch(tok); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && item.Units == nil {
				item.Units = &n
			}
			continue
		}
		// Two-character tokens with a letter are modifiers; bare two-digit
		// tokens are place-of-service, three-digit tokens revenue codes.
		if alphaModPattern.MatchString(upper) {
			if mod, ok := validate.ValidateModifier(upper); ok {
				item.Modifiers = append(item.Modifiers, mod)
				continue
			}
		}
		if item.Code != upper {
			if _, system, ok := validate.ValidateCode(upper); ok {
				switch system {
				case domain.CodeSystemPOS:
					if item.PlaceOfService == "" {
						item.PlaceOfService = upper
						continue
					}
				case domain.CodeSystemRev:
					if item.RevenueCode == "" {
						item.RevenueCode = upper
						continue
					}
				}
			}
		}
		if npi, ok := validate.ValidateNPI(tok); ok && item.ProviderNPI == "" {
			item.ProviderNPI = npi
			continue
		}
		descParts = append(descParts, tok)
	}

	// Positional assignment, first to last: charge, allowed, planPaid,
	// patientResp.
	assign := []**int64{&item.Charge, &item.Allowed, &item.PlanPaid, &item.PatientResp}
	for i, v := range moneyValues {
		if i >= len(assign) {
			break
		}
		val := v
		*assign[i] = &val
	}

	item.Description = strings.Join(descParts, " ")
	item.LowConfidence = low || item.Confidence < 0.5

	// Pure noise rows (headers, totals-only captured elsewhere) are dropped.
	if item.Code == "" && len(moneyValues) == 0 {
		return domain.LineItem{}, false
	}
	return item, true
}

func hasAnyMoney(item *domain.LineItem) bool {
	return item.Charge != nil || item.Allowed != nil || item.PlanPaid != nil || item.PatientResp != nil
}

// dedupe folds rows that collide on (code, description prefix, charge,
// dateOfService) and assigns stable ordinal line IDs.
func dedupe(items []domain.LineItem) []domain.LineItem {
	seen := make(map[string]bool, len(items))
	out := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		key := dedupKey(&item)
		if seen[key] {
			continue
		}
		seen[key] = true
		item.LineID = fmt.Sprintf("line_%03d", len(out)+1)
		out = append(out, item)
	}
	return out
}

func dedupKey(item *domain.LineItem) string {
	desc := item.Description
	if len(desc) > descPrefixLen {
		desc = desc[:descPrefixLen]
	}
	charge := "-"
	if item.Charge != nil {
		charge = strconv.FormatInt(*item.Charge, 10)
	}
	return strings.Join([]string{item.Code, strings.ToLower(desc), charge, item.DateOfService}, "|")
}
