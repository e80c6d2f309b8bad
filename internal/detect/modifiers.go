package detect

import (
	"fmt"

	"wyngai/internal/domain"
)

// ModifierRules returns the contextual-modifier rules: a modifier used
// without the companion condition that justifies it.
func ModifierRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "modifier_25_without_procedure", name: "Modifier 25 without a same-day procedure",
			sev: domain.SeverityWarn,
			fn:  checkModifier25WithoutProcedure,
		},
		{
			key: "preventive_with_cost_share", name: "Preventive visit with patient cost share",
			sev: domain.SeverityWarn,
			fn:  checkPreventiveWithCostShare,
		},
	}
}

// checkModifier25WithoutProcedure fires when an E/M line carries modifier
// 25 (significant, separately identifiable visit) but no other procedure
// was billed on that date, so there is nothing to be separate from.
func checkModifier25WithoutProcedure(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if !isEMCode(line.Code) || !line.HasModifier("25") {
			continue
		}
		if hasSameDayProcedure(ctx, i) {
			continue
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"Visit code %s carries modifier 25, which asserts a separate procedure was performed the same day, but no procedure line exists for that date.",
				line.Code,
			),
			Evidence: domain.Evidence{
				LineRefs: []int{i},
				Codes:    []string{line.Code},
				Dates:    nonEmpty(line.DateOfService),
			},
			Citations: []domain.Citation{citeModifierDefs},
		}
	}
	return nil
}

func hasSameDayProcedure(ctx *CaseContext, emRef int) bool {
	date := ctx.Lines[emRef].DateOfService
	for j := range ctx.Lines {
		if j == emRef {
			continue
		}
		other := &ctx.Lines[j]
		if other.Code == "" || isEMCode(other.Code) {
			continue
		}
		if other.DateOfService == date {
			return true
		}
	}
	return false
}

// checkPreventiveWithCostShare fires when a preventive-medicine visit shows
// patient responsibility. In-network preventive care must be covered
// without cost sharing.
func checkPreventiveWithCostShare(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if !isPreventiveCode(line.Code) {
			continue
		}
		if line.PatientResp == nil || *line.PatientResp <= 0 {
			continue
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"Preventive visit %s shows %s patient responsibility. In-network preventive services are covered without cost sharing.",
				line.Code, formatAmount(*line.PatientResp),
			),
			Evidence: domain.Evidence{
				LineRefs: []int{i},
				Codes:    []string{line.Code},
				Amounts:  []int64{*line.PatientResp},
			},
			Citations: []domain.Citation{citeACAPreventive},
		}
	}
	return nil
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
