package detect

import (
	"fmt"
	"sort"
	"strings"

	"wyngai/internal/domain"
)

// ThresholdRules returns the numeric-sanity rules: a value outside a
// plausible range.
func ThresholdRules() []*BuiltinRule {
	return []*BuiltinRule{
		{
			key: "drug_units_sanity_check", name: "Implausible drug units",
			sev: domain.SeverityWarn,
			fn:  checkDrugUnitsSanity,
		},
		{
			key: "therapy_time_excessive", name: "Excessive therapy time",
			sev: domain.SeverityWarn,
			fn:  checkTherapyTimeExcessive,
		},
		{
			key: "nsa_emergency_protection", name: "Emergency cost share above surprise-billing threshold",
			sev: domain.SeverityHigh,
			fn:  checkNSAEmergencyProtection,
		},
	}
}

// checkDrugUnitsSanity fires on a drug line (HCPCS J code) whose unit count
// exceeds the ceiling. Unit inflation on drug lines is one of the most
// common keying errors.
func checkDrugUnitsSanity(ctx *CaseContext) *domain.Detection {
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if !strings.HasPrefix(line.Code, "J") || line.Units == nil {
			continue
		}
		if *line.Units <= drugUnitsCeiling {
			continue
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"Drug line %s bills %d units, above the %d-unit plausibility ceiling. Check whether units were keyed as milligrams.",
				line.Code, *line.Units, drugUnitsCeiling,
			),
			Evidence: domain.Evidence{
				LineRefs: []int{i},
				Codes:    []string{line.Code},
			},
			Citations: []domain.Citation{citeMUE},
		}
	}
	return nil
}

// checkTherapyTimeExcessive sums the timed 15-minute therapy units per
// service date and fires when the implied time exceeds the daily ceiling.
func checkTherapyTimeExcessive(ctx *CaseContext) *domain.Detection {
	minutesByDate := make(map[string]int)
	refsByDate := make(map[string][]int)
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		if !timedTherapyCodes[line.Code] {
			continue
		}
		units := 1
		if line.Units != nil {
			units = *line.Units
		}
		minutesByDate[line.DateOfService] += units * therapyUnitMinutes
		refsByDate[line.DateOfService] = append(refsByDate[line.DateOfService], i)
	}

	var dates []string
	for d := range minutesByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		minutes := minutesByDate[d]
		if minutes <= therapyMinutesCeiling {
			continue
		}
		refs := refsByDate[d]
		var codes []string
		for _, r := range refs {
			codes = append(codes, ctx.Lines[r].Code)
		}
		return &domain.Detection{
			Explanation: fmt.Sprintf(
				"Timed therapy lines imply %d minutes of treatment in one day, above the %d-minute ceiling.",
				minutes, therapyMinutesCeiling,
			),
			Evidence: domain.Evidence{
				LineRefs: refs,
				Codes:    codes,
				Dates:    nonEmpty(d),
			},
			Citations: []domain.Citation{citeClaimsManual},
		}
	}
	return nil
}

// checkNSAEmergencyProtection fires when an emergency visit leaves the
// patient with cost share above the exposure threshold. Emergency services
// carry federal balance-billing protection regardless of network status.
func checkNSAEmergencyProtection(ctx *CaseContext) *domain.Detection {
	var refs []int
	var codes []string
	var exposure int64
	for i := range ctx.Lines {
		line := &ctx.Lines[i]
		emergency := isEmergencyCode(line.Code) || line.PlaceOfService == "23"
		if !emergency {
			continue
		}
		refs = append(refs, i)
		if line.Code != "" {
			codes = append(codes, line.Code)
		}
		exposure += amountOrZero(line.PatientResp)
	}
	if len(refs) == 0 {
		return nil
	}
	if exposure == 0 {
		if t := ctx.Totals(); t != nil {
			exposure = amountOrZero(t.PatientResp)
		}
	}
	if exposure <= emergencyExposureCents {
		return nil
	}
	return &domain.Detection{
		Explanation: fmt.Sprintf(
			"Emergency care left %s of patient responsibility, above the %s review threshold. The No Surprises Act limits emergency cost share to in-network levels.",
			formatAmount(exposure), formatAmount(emergencyExposureCents),
		),
		Evidence: domain.Evidence{
			LineRefs: refs,
			Codes:    codes,
			Amounts:  []int64{exposure},
		},
		Citations: []domain.Citation{citeNSAEmergency},
	}
}
