package detect

import (
	"fmt"

	"wyngai/internal/domain"
)

// ArithmeticRules returns the rules that reconcile amounts against each
// other.
func ArithmeticRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "math_error_billed_total", name: "Line charges do not sum to the billed total",
			sev: domain.SeverityWarn,
			fn:  checkMathErrorBilledTotal,
		},
		{
			key: "eob_posting_error", name: "Bill disagrees with the EOB patient responsibility",
			sev: domain.SeverityHigh,
			fn:  checkEOBPostingError,
		},
	}
}

// checkMathErrorBilledTotal fires when the summed line charges differ from
// the reported billed total by more than the tolerance. The tolerance is a
// dollar of rounding per charge line, since each OCR'd amount can be off by
// cents independently.
func checkMathErrorBilledTotal(ctx *CaseContext) *domain.Detection {
	totals := ctx.Totals()
	if totals == nil || totals.Billed == nil {
		return nil
	}
	sum, count := ctx.SumLineCharges()
	if count == 0 {
		return nil
	}
	diff := sum - *totals.Billed
	if diff < 0 {
		diff = -diff
	}
	if diff <= mathToleranceCents*int64(count) {
		return nil
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"The %d line charges sum to %s but the statement reports a billed total of %s, a %s discrepancy.",
			count, formatAmount(sum), formatAmount(*totals.Billed), formatAmount(diff),
		),
		Evidence: domain.Evidence{
			Amounts: []int64{sum, *totals.Billed},
		},
		Citations: []domain.Citation{citePatientBilling},
	}
}

// checkEOBPostingError fires when the EOB says the patient owes nothing yet
// a line still shows patient responsibility: the provider has not posted
// the plan's adjudication.
func checkEOBPostingError(ctx *CaseContext) *domain.Detection {
	totals := ctx.Totals()
	if totals == nil || totals.PatientResp == nil || *totals.PatientResp != 0 {
		return nil
	}
	var refs []int
	var amounts []int64
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if line.PatientResp != nil && *line.PatientResp > 0 {
			refs = append(refs, i)
			amounts = append(amounts, *line.PatientResp)
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"The plan adjudicated patient responsibility to $0.00 but %d line(s) still bill the patient. The payment was likely never posted.",
			len(refs),
		),
		Evidence: domain.Evidence{
			LineRefs: refs,
			Amounts:  amounts,
		},
		Citations: []domain.Citation{citeRemittance},
	}
}
