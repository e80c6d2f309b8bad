package detect

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"wyngai/internal/domain"
)

// CaseContext is the read-only input every rule consumes: the extracted
// header, the normalized ordered line items, remark codes and the optional
// caller-supplied benefits record. Rules must not mutate it.
type CaseContext struct {
	Header   *domain.DocumentHeader
	Lines    []domain.LineItem
	Remarks  []string
	Benefits *domain.BenefitsContext
	Now      time.Time
}

// Totals returns the header summary totals, or nil when absent.
func (c *CaseContext) Totals() *domain.Totals {
	if c.Header == nil {
		return nil
	}
	return c.Header.Totals
}

// HasRemark reports whether any remark code starts with the given prefix.
func (c *CaseContext) HasRemark(prefix string) bool {
	for _, r := range c.Remarks {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

// SumLineCharges totals the line charges that survived validation.
func (c *CaseContext) SumLineCharges() (int64, int) {
	var sum int64
	count := 0
	for i := range c.Lines {
		if c.Lines[i].Charge != nil {
			sum += *c.Lines[i].Charge
			count++
		}
	}
	return sum, count
}

// codeNum parses a 5-digit numeric CPT code. HCPCS letter codes return
// false.
func codeNum(code string) (int, bool) {
	if len(code) != 5 {
		return 0, false
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isEMCode reports whether the code is an evaluation-and-management visit
// code (office 99202-99215 or emergency 99281-99285).
func isEMCode(code string) bool {
	n, ok := codeNum(code)
	if !ok {
		return false
	}
	return (n >= 99202 && n <= 99215) || (n >= 99281 && n <= 99285)
}

// isEmergencyCode reports whether the code is an emergency department E/M
// level (99281-99285).
func isEmergencyCode(code string) bool {
	n, ok := codeNum(code)
	return ok && n >= 99281 && n <= 99285
}

// isSurgeryCode reports whether the code falls in the CPT surgery range.
func isSurgeryCode(code string) bool {
	n, ok := codeNum(code)
	return ok && n >= 10021 && n <= 69990
}

// isPreventiveCode reports whether the code is a preventive-medicine visit
// (99381-99397) or a Medicare annual wellness code.
func isPreventiveCode(code string) bool {
	if code == "G0438" || code == "G0439" || code == "G0402" {
		return true
	}
	n, ok := codeNum(code)
	return ok && n >= 99381 && n <= 99397
}

// isAncillaryCode reports whether the code belongs to a specialty the
// patient cannot choose at a facility: anesthesia (00100-01999), radiology
// (70010-79999) or pathology/laboratory (80047-89398).
func isAncillaryCode(code string) bool {
	n, ok := codeNum(code)
	if !ok {
		return false
	}
	switch {
	case n >= 100 && n <= 1999:
		return true
	case n >= 70010 && n <= 79999:
		return true
	case n >= 80047 && n <= 89398:
		return true
	}
	return false
}

// facilityPOS holds the place-of-service codes where surprise-billing
// protections attach.
var facilityPOS = map[string]bool{
	"19": true, // off-campus outpatient hospital
	"21": true, // inpatient hospital
	"22": true, // on-campus outpatient hospital
	"23": true, // emergency room
	"24": true, // ambulatory surgical center
}

// timedTherapyCodes are the 15-minute timed physical/occupational therapy
// codes counted against the daily therapy-time ceiling.
var timedTherapyCodes = map[string]bool{
	"97110": true,
	"97112": true,
	"97116": true,
	"97140": true,
	"97530": true,
	"97535": true,
	"97542": true,
}

// modifierSetKey canonicalizes a line's modifiers for grouping: sorted and
// joined, so modifier order never splits a duplicate group.
func modifierSetKey(line *domain.LineItem) string {
	if len(line.Modifiers) == 0 {
		return ""
	}
	mods := append([]string(nil), line.Modifiers...)
	sort.Strings(mods)
	return strings.Join(mods, ",")
}

func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
