// Package validate holds the pure field validators for billing tokens.
// Every function is total: bad input yields a false ok, never a panic or an
// error. Ambiguous tokens are rejected; the caller decides what rejection
// means for the owning record.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wyngai/internal/domain"
)

var (
	cptPattern   = regexp.MustCompile(`^\d{5}$`)
	hcpcsPattern = regexp.MustCompile(`^[A-Z]\d{4}$`)
	revPattern   = regexp.MustCompile(`^\d{3}$`)
	posPattern   = regexp.MustCompile(`^\d{2}$`)
	npiPattern   = regexp.MustCompile(`^\d{10}$`)
	modPattern   = regexp.MustCompile(`^[A-Z0-9]{2}$`)
	idPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]*$`)
	moneyPattern = regexp.MustCompile(`^\$?\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d{1,2}))?$`)
)

// MaxDateAge bounds how far back a parsed service date may lie. Dates older
// than this relative to "now" are rejected as likely OCR garbage.
const MaxDateAge = 10 * 365 * 24 * time.Hour

// ValidateCode matches a token against the four supported code systems.
// The patterns are mutually exclusive, so at most one system can claim a token.
func ValidateCode(token string) (string, domain.CodeSystem, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case cptPattern.MatchString(t):
		return t, domain.CodeSystemCPT, true
	case hcpcsPattern.MatchString(t):
		return t, domain.CodeSystemHCPCS, true
	case revPattern.MatchString(t):
		return t, domain.CodeSystemRev, true
	case posPattern.MatchString(t):
		return t, domain.CodeSystemPOS, true
	}
	return "", "", false
}

// ParseMoney converts a money token into non-negative integer cents.
// Accepts an optional dollar sign, comma digit groups and up to two decimal
// places; a single decimal digit is treated as tenths and rounded to cents.
func ParseMoney(token string) (int64, bool) {
	t := strings.TrimSpace(token)
	m := moneyPattern.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	whole := strings.ReplaceAll(m[1], ",", "")
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	cents := dollars * 100
	if m[2] != "" {
		frac, err := strconv.ParseFloat("0."+m[2], 64)
		if err != nil {
			return 0, false
		}
		cents += int64(math.Round(frac * 100))
	}
	if cents < 0 {
		return 0, false
	}
	return cents, true
}

// FormatCents renders integer cents as a display money string.
func FormatCents(cents int64) string {
	dollars := cents / 100
	rem := cents % 100
	if rem < 0 {
		rem = -rem
	}
	return fmt.Sprintf("$%s.%02d", groupThousands(dollars), rem)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"01/02/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 02 2006",
	"2 Jan 2006",
}

// NormalizeDate parses a date token into ISO form, rejecting dates in the
// future or older than MaxDateAge relative to the current time.
func NormalizeDate(token string) (string, bool) {
	return NormalizeDateAt(token, time.Now())
}

// NormalizeDateAt is NormalizeDate with an explicit reference time.
func NormalizeDateAt(token string, now time.Time) (string, bool) {
	t := strings.TrimSpace(token)
	if t == "" {
		return "", false
	}
	for _, layout := range dateFormats {
		parsed, err := time.Parse(layout, t)
		if err != nil {
			continue
		}
		if parsed.After(now) {
			return "", false
		}
		if now.Sub(parsed) > MaxDateAge {
			return "", false
		}
		return parsed.Format("2006-01-02"), true
	}
	return "", false
}

// ValidateNPI checks the 10-digit National Provider Identifier shape.
func ValidateNPI(token string) (string, bool) {
	t := strings.TrimSpace(token)
	if !npiPattern.MatchString(t) {
		return "", false
	}
	return t, true
}

// ValidateModifier checks a two-character billing modifier (e.g. 25, TC, GW).
func ValidateModifier(token string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if !modPattern.MatchString(t) {
		return "", false
	}
	return t, true
}

// Claim and account identifiers have no universal checksum; only length
// bounds and a sane charset are enforced.
const (
	minClaimIDLen   = 6
	maxClaimIDLen   = 30
	minAccountIDLen = 4
	maxAccountIDLen = 25
)

// ValidateClaimID bounds-checks a claim identifier token.
func ValidateClaimID(token string) (string, bool) {
	t := strings.TrimSpace(token)
	if len(t) < minClaimIDLen || len(t) > maxClaimIDLen || !idPattern.MatchString(t) {
		return "", false
	}
	return t, true
}

// ValidateAccountID bounds-checks an account identifier token.
func ValidateAccountID(token string) (string, bool) {
	t := strings.TrimSpace(token)
	if len(t) < minAccountIDLen || len(t) > maxAccountIDLen || !idPattern.MatchString(t) {
		return "", false
	}
	return t, true
}
