package detect

import (
	"fmt"
	"strings"

	"wyngai/internal/domain"
)

// BillingSurfaceRules returns the rules about what is on the bill rather
// than how it adds up: surprise fees, missing detail, setting mismatches.
func BillingSurfaceRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "facility_fee_surprise", name: "Unexpected clinic facility fee",
			sev: domain.SeverityWarn,
			fn:  checkFacilityFeeSurprise,
		},
		{
			key: "nsa_ancillary_protection", name: "Ancillary provider cost share at a facility",
			sev: domain.SeverityWarn,
			fn:  checkNSAAncillaryProtection,
		},
		{
			key: "non_provider_admin_fees", name: "Administrative fees billed as care",
			sev: domain.SeverityInfo,
			fn:  checkNonProviderAdminFees,
		},
		{
			key: "missing_itemized_bill", name: "Large balance with no itemization",
			sev: domain.SeverityInfo,
			fn:  checkMissingItemizedBill,
		},
		{
			key: "observation_inpatient_mismatch", name: "Observation stay billed as inpatient",
			sev: domain.SeverityWarn,
			fn:  checkObservationInpatientMismatch,
		},
	}
}

// checkFacilityFeeSurprise fires on a clinic facility-fee line (revenue
// code 510-519 or an explicit facility-fee description) with a charge. The
// fee is often billable but patients are rarely told it is coming.
func checkFacilityFeeSurprise(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		clinicRev := line.RevenueCode >= "510" && line.RevenueCode <= "519"
		feeDesc := strings.Contains(strings.ToLower(line.Description), "facility fee")
		if !clinicRev && !feeDesc {
			continue
		}
		if amountOrZero(line.Charge) <= 0 {
			continue
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"A %s clinic facility fee is billed on top of the visit. Hospital-owned clinics may charge it, but it is frequently reducible or waivable on appeal, and disclosure rules apply.",
				formatAmount(*line.Charge),
			),
			Evidence: domain.Evidence{
				LineRefs: []int{i},
				Amounts:  []int64{*line.Charge},
			},
			Citations: []domain.Citation{citeHospitalPrice},
		}
	}
	return nil
}

// checkNSAAncillaryProtection fires when an ancillary specialty the patient
// cannot choose (anesthesia, radiology, pathology) bills cost share at a
// facility place of service. These providers must bill at in-network rates.
func checkNSAAncillaryProtection(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if !isAncillaryCode(line.Code) || !facilityPOS[line.PlaceOfService] {
			continue
		}
		resp := amountOrZero(line.PatientResp)
		if resp <= 0 {
			continue
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"Ancillary service %s at a facility left %s of patient responsibility. Patients cannot choose these providers, so surprise-billing protection caps their cost share at in-network levels.",
				line.Code, formatAmount(resp),
			),
			Evidence: domain.Evidence{
				LineRefs: []int{i},
				Codes:    []string{line.Code},
				Amounts:  []int64{resp},
			},
			Citations: []domain.Citation{citeNSAAncillary},
		}
	}
	return nil
}

// checkNonProviderAdminFees fires on charges for billing overhead:
// statement fees, processing fees, finance charges.
func checkNonProviderAdminFees(ctx *CaseContext) *domain.Detection {
	var refs []int
	var amounts []int64
	var total int64
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		desc := strings.ToLower(line.Description)
		charge := amountOrZero(line.Charge)
		if charge <= 0 {
			continue
		}
		for _, kw := range adminFeeKeywords {
			if strings.Contains(desc, kw) {
				refs = append(refs, i)
				amounts = append(amounts, charge)
				total += charge
				break
			}
		}
	}
	if len(refs) == 0 {
		return nil
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"%d line(s) totaling %s bill administrative overhead rather than care. These fees are routinely waived when challenged.",
			len(refs), formatAmount(total),
		),
		Evidence: domain.Evidence{
			LineRefs: refs,
			Amounts:  amounts,
		},
		Citations: []domain.Citation{citePatientBilling},
	}
}

// checkMissingItemizedBill fires when a large billed total arrives with no
// code-bearing line detail at all: the first step of any dispute is
// requesting the itemized bill.
func checkMissingItemizedBill(ctx *CaseContext) *domain.Detection {
	totals := ctx.Totals()
	if totals == nil || totals.Billed == nil || *totals.Billed < itemizedBillFloorCents {
		return nil
	}
	for i := range ctx.Lines {
		if ctx.Lines[i].Code != "" {
			return nil
		}
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"The statement reports %s billed with no coded line items. Request an itemized bill before paying; summary-only balances of this size routinely shrink once itemized.",
			formatAmount(*totals.Billed),
		),
		Evidence: domain.Evidence{
			Amounts: []int64{*totals.Billed},
		},
		Citations: []domain.Citation{citePatientBilling},
	}
}

// checkObservationInpatientMismatch needs the room-and-board revenue-code
// mapping (0762 observation vs 011x-016x inpatient) to distinguish the two
// settings reliably; without it any firing would be a guess.
// TODO: add the revenue-code mapping table and implement the comparison
// against the documented admission status.
func checkObservationInpatientMismatch(_ *CaseContext) *domain.Detection {
	return nil
}
