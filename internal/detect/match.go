package detect

import (
	"fmt"
	"sort"
	"strings"

	"wyngai/internal/domain"
	"wyngai/internal/validate"
)

// MatchRules returns the exact and near-match detection rules.
func MatchRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "duplicate_service_lines", name: "Duplicate service lines",
			sev: domain.SeverityHigh,
			fn:  checkDuplicateServiceLines,
		},
	}
}

// checkDuplicateServiceLines groups code-bearing lines by code, service
// date, charge and modifier set. Any group with two or more members is a
// duplicate: the same service billed more than once.
func checkDuplicateServiceLines(ctx *CaseContext) *domain.Detection {
	groups := make(map[string][]int)
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if line.Code == "" || line.Charge == nil {
			continue
		}
		key := strings.Join([]string{
			line.Code,
			line.DateOfService,
			fmt.Sprintf("%d", *line.Charge),
			modifierSetKey(line),
		}, "|")
		groups[key] = append(groups[key], i)
	}

	var lineRefs []int
	var codes []string
	var amounts []int64
	var dates []string
	seenCode := make(map[string]bool)
	for _, refs := range groups {
		if len(refs) < 2 {
			continue
		}
		lineRefs = append(lineRefs, refs...)
		first := &ctx.Lines[refs[0]]
		if !seenCode[first.Code] {
			seenCode[first.Code] = true
			codes = append(codes, first.Code)
			amounts = append(amounts, *first.Charge)
			if first.DateOfService != "" {
				dates = append(dates, first.DateOfService)
			}
		}
	}
	if len(lineRefs) == 0 {
		return nil
	}
	sort.Ints(lineRefs)
	sort.Strings(codes)

	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"%d lines bill the same code, date, charge and modifiers (%s). Identical lines usually mean the same service was charged more than once.",
			len(lineRefs), strings.Join(codes, ", "),
		),
		Evidence: domain.Evidence{
			LineRefs: lineRefs,
			Codes:    codes,
			Amounts:  amounts,
			Dates:    dates,
		},
		Citations: []domain.Citation{citeClaimsManual},
	}
}

// amountOrZero dereferences a money pointer for evidence building.
func amountOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// formatAmount renders cents for explanations.
func formatAmount(cents int64) string {
	return validate.FormatCents(cents)
}
