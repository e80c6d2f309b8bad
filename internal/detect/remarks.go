package detect

import (
	"fmt"

	"wyngai/internal/domain"
)

// RemarkRules returns the rules driven by CARC/RARC remark codes and the
// optional benefits context.
func RemarkRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "timely_filing_violation", name: "Claim denied for late filing",
			sev: domain.SeverityHigh,
			fn:  checkTimelyFiling,
		},
		{
			key: "cob_not_applied", name: "Secondary coverage not coordinated",
			sev: domain.SeverityWarn,
			fn:  checkCOBNotApplied,
		},
	}
}

// checkTimelyFiling fires on adjustment code 29 (the time limit for filing
// has expired). A provider's late filing is not the patient's debt.
func checkTimelyFiling(ctx *CaseContext) *domain.Detection {
	var matched []string
	for _, code := range []string{"CO-29", "OA-29", "PI-29"} {
		if ctx.HasRemark(code) {
			matched = append(matched, code)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"The claim carries adjustment code %s: it was denied because the provider filed it past the payer's deadline. Providers may not bill the patient for their own late filing.",
			matched[0],
		),
		Evidence: domain.Evidence{
			Codes: matched,
		},
		Citations: []domain.Citation{citeCARC},
	}
}

// checkCOBNotApplied fires when the caller's benefits record says secondary
// coverage exists but the claim still leaves patient responsibility and
// shows no coordination-of-benefits adjustment (OA-23).
func checkCOBNotApplied(ctx *CaseContext) *domain.Detection {
	if ctx.Benefits == nil || !ctx.Benefits.SecondaryCoverage {
		return nil
	}
	if ctx.HasRemark("OA-23") {
		return nil
	}

	var exposure int64
	if t := ctx.Totals(); t != nil {
		exposure = amountOrZero(t.PatientResp)
	}
	var refs []int
	for i := range ctx.Lines {
		if amountOrZero(ctx.Lines[i].PatientResp) > 0 {
			refs = append(refs, i)
			if exposure == 0 {
				exposure += *ctx.Lines[i].PatientResp
			}
		}
	}
	if exposure <= 0 {
		return nil
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"Secondary coverage is on file but the claim shows %s of patient responsibility and no coordination-of-benefits adjustment. The balance should have been routed to the secondary plan.",
			formatAmount(exposure),
		),
		Evidence: domain.Evidence{
			LineRefs: refs,
			Amounts:  []int64{exposure},
		},
		Citations: []domain.Citation{citeCOB},
	}
}
