package detect

import (
	"fmt"

	"wyngai/internal/domain"
)

// WindowRules returns the date-window comparison rules.
func WindowRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "global_surgical_package_violation", name: "Visit billed inside a surgical global period",
			sev: domain.SeverityWarn,
			fn:  checkGlobalSurgicalPackage,
		},
	}
}

// checkGlobalSurgicalPackage fires when an E/M visit falls inside the
// post-operative global period of a surgery on the same claim and carries
// no modifier 24 (unrelated visit) or 79 (unrelated procedure). Routine
// post-op care is already paid for by the surgery fee.
func checkGlobalSurgicalPackage(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		surgery := &ctx.Lines[i]
		if !isSurgeryCode(surgery.Code) || surgery.DateOfService == "" {
			continue
		}
		surgeryDate, ok := parseISODate(surgery.DateOfService)
		if !ok {
			continue
		}
		for j := range ctx.Lines {
			visit := &ctx.Lines[j]
			if !isEMCode(visit.Code) || visit.DateOfService == "" {
				continue
			}
			if visit.HasModifier("24") || visit.HasModifier("79") {
				continue
			}
			visitDate, ok := parseISODate(visit.DateOfService)
			if !ok {
				continue
			}
			days := int(visitDate.Sub(surgeryDate).Hours() / 24)
			if days <= 0 || days > globalSurgeryDays {
				continue
			}
			return &domain.Detection{
				Explanation: fmt.Sprintf(
					"Visit %s falls %d days after surgery %s, inside its %d-day global period, without modifier 24 or 79. Routine follow-up care is included in the surgical fee.",
					visit.Code, days, surgery.Code, globalSurgeryDays,
				),
				Evidence: domain.Evidence{
					LineRefs: []int{i, j},
					Codes:    []string{surgery.Code, visit.Code},
					Dates:    []string{surgery.DateOfService, visit.DateOfService},
				},
				Citations: []domain.Citation{citeGlobalSurgery},
			}
		}
	}
	return nil
}
