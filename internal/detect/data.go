package detect

import "wyngai/internal/domain"

// Thresholds used by the numeric-sanity rules. These come straight from the
// operating playbook rather than a single regulation, so they live here as
// named constants instead of scattered literals.
const (
	// mathToleranceCents is the allowed rounding gap per charge line between
	// the summed line charges and the reported billed total.
	mathToleranceCents = int64(100)

	// emergencyExposureCents is the patient cost-share above which an
	// emergency visit warrants a No Surprises Act review.
	emergencyExposureCents = int64(50000)

	// globalSurgeryDays is the post-operative window of the major-surgery
	// global package.
	globalSurgeryDays = 90

	// therapyMinutesCeiling caps believable billed therapy time per service
	// date.
	therapyMinutesCeiling = 480

	// therapyUnitMinutes is the length of one timed therapy unit.
	therapyUnitMinutes = 15

	// drugUnitsCeiling caps believable units on a single drug line.
	drugUnitsCeiling = 1000

	// itemizedBillFloorCents is the billed total above which a summary-only
	// statement should be challenged with an itemized-bill request.
	itemizedBillFloorCents = int64(50000)
)

// unbundlingModifiers are the modifiers that legitimately override an NCCI
// edit when the services were genuinely distinct.
var unbundlingModifiers = map[string]bool{
	"59": true,
	"XE": true,
	"XP": true,
	"XS": true,
	"XU": true,
}

// codePair is one NCCI procedure-to-procedure edit: column2 is considered
// part of column1 and must not be billed separately without an unbundling
// modifier.
type codePair struct {
	column1 string
	column2 string
}

// ncciPairs is a curated subset of common column1/column2 edits. The full
// CMS table has hundreds of thousands of rows; these are the pairs that
// show up repeatedly in patient-submitted bills.
var ncciPairs = []codePair{
	{"80053", "80048"}, // comprehensive metabolic panel includes basic panel
	{"80053", "84520"}, // CMP includes BUN
	{"80061", "82465"}, // lipid panel includes total cholesterol
	{"80061", "84478"}, // lipid panel includes triglycerides
	{"93000", "93005"}, // complete ECG includes tracing
	{"93000", "93010"}, // complete ECG includes interpretation
	{"29881", "29877"}, // knee meniscectomy includes chondroplasty
	{"43239", "43235"}, // EGD with biopsy includes diagnostic EGD
	{"45380", "45378"}, // colonoscopy with biopsy includes diagnostic scope
	{"97530", "97110"}, // dynamic activities overlap therapeutic exercise
}

// adminFeeKeywords mark charges for billing overhead rather than care.
var adminFeeKeywords = []string{
	"statement fee",
	"billing fee",
	"processing fee",
	"administrative fee",
	"admin fee",
	"finance charge",
	"payment plan fee",
	"paper statement",
}

// Citations shared across rules.
var (
	citeNCCI = domain.Citation{
		Title:     "National Correct Coding Initiative Policy Manual",
		Authority: "CMS",
		Section:   "Chapter I",
	}
	citeModifierDefs = domain.Citation{
		Title:     "CPT Modifier Definitions",
		Authority: "AMA CPT",
		Section:   "Appendix A",
	}
	citeGlobalSurgery = domain.Citation{
		Title:     "Global Surgery Booklet",
		Authority: "CMS MLN",
		Section:   "MLN907166",
	}
	citeClaimsManual = domain.Citation{
		Title:     "Medicare Claims Processing Manual",
		Authority: "CMS",
		Section:   "Chapter 12",
	}
	citeMUE = domain.Citation{
		Title:     "Medically Unlikely Edits",
		Authority: "CMS NCCI",
		Section:   "MUE Table",
	}
	citeNSAEmergency = domain.Citation{
		Title:     "No Surprises Act, emergency services",
		Authority: "45 CFR",
		Section:   "149.410",
	}
	citeNSAAncillary = domain.Citation{
		Title:     "No Surprises Act, non-emergency services at in-network facilities",
		Authority: "45 CFR",
		Section:   "149.420",
	}
	citeACAPreventive = domain.Citation{
		Title:     "Coverage of preventive health services",
		Authority: "45 CFR",
		Section:   "147.130",
	}
	citeCARC = domain.Citation{
		Title:     "Claim Adjustment Reason Codes",
		Authority: "X12",
		Section:   "CARC 29",
	}
	citeRemittance = domain.Citation{
		Title:     "Health Care Claim Payment/Advice (835)",
		Authority: "X12",
		Section:   "005010X221",
	}
	citeCOB = domain.Citation{
		Title:     "Coordination of Benefits Model Regulation",
		Authority: "NAIC",
		Section:   "MDL-120",
	}
	citePatientBilling = domain.Citation{
		Title:     "Patient Financial Communications Best Practices",
		Authority: "HFMA",
	}
	citeHospitalPrice = domain.Citation{
		Title:     "Hospital price transparency",
		Authority: "45 CFR",
		Section:   "180.50",
	}
)
