package domain

import (
	"time"

	"github.com/google/uuid"
)

// FileRef stores metadata about an uploaded document file. Created once at
// upload time and never mutated afterward.
type FileRef struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	CaseID       uuid.UUID  `db:"case_id" json:"case_id"`
	FileName     string     `db:"file_name" json:"file_name"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FileType     FileType   `db:"file_type" json:"file_type"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	S3Bucket     string     `db:"s3_bucket" json:"s3_bucket"`
	S3Key        string     `db:"s3_key" json:"s3_key"`
	ContentType  string     `db:"content_type" json:"content_type"`
	Status       FileStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// BoundingBox locates a line of text on a page, in page-relative coordinates.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OCRRow is one structured table row from a vendor that emits tables.
// Semantic fields are raw vendor strings; nothing here is validated yet.
// Cells carries the positional cell text for vendors that only align columns.
type OCRRow struct {
	Code        string   `json:"code,omitempty"`
	Modifiers   []string `json:"modifiers,omitempty"`
	Description string   `json:"description,omitempty"`
	Units       string   `json:"units,omitempty"`
	DateOfSvc   string   `json:"date_of_service,omitempty"`
	Charge      string   `json:"charge,omitempty"`
	Allowed     string   `json:"allowed,omitempty"`
	PlanPaid    string   `json:"plan_paid,omitempty"`
	PatientResp string   `json:"patient_resp,omitempty"`
	Cells       []string `json:"cells,omitempty"`
}

// HasMoney reports whether any monetary-looking field is populated.
func (r *OCRRow) HasMoney() bool {
	return r.Charge != "" || r.Allowed != "" || r.PlanPaid != "" || r.PatientResp != ""
}

// OCRPage is one page of vendor OCR output normalized to the canonical shape.
type OCRPage struct {
	Number     int           `json:"number"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Rows       []OCRRow      `json:"rows,omitempty"`
	Boxes      []BoundingBox `json:"boxes,omitempty"`
}

// OCRResult is the outcome of one (file, provider) extraction attempt.
// Pages is empty when Success is false.
type OCRResult struct {
	Vendor           string    `json:"vendor"`
	Pages            []OCRPage `json:"pages"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
}

// Text concatenates the text of all pages.
func (r *OCRResult) Text() string {
	var out string
	for i := range r.Pages {
		if i > 0 {
			out += "\n"
		}
		out += r.Pages[i].Text
	}
	return out
}

// AvgConfidence returns the mean page confidence, or 0 for an empty result.
func (r *OCRResult) AvgConfidence() float64 {
	if len(r.Pages) == 0 {
		return 0
	}
	var sum float64
	for i := range r.Pages {
		sum += r.Pages[i].Confidence
	}
	return sum / float64(len(r.Pages))
}

// LineItem is one normalized, validated billing line. Monetary fields are
// non-negative integer cents; a nil pointer means the field was absent or
// failed validation. Write-once: built by the normalizer, read by the rules.
type LineItem struct {
	LineID         string     `json:"line_id"`
	Code           string     `json:"code,omitempty"`
	CodeSystem     CodeSystem `json:"code_system,omitempty"`
	Modifiers      []string   `json:"modifiers,omitempty"`
	Description    string     `json:"description,omitempty"`
	Units          *int       `json:"units,omitempty"`
	DateOfService  string     `json:"date_of_service,omitempty"`
	PlaceOfService string     `json:"place_of_service,omitempty"`
	RevenueCode    string     `json:"revenue_code,omitempty"`
	ProviderNPI    string     `json:"provider_npi,omitempty"`
	Charge         *int64     `json:"charge,omitempty"`
	Allowed        *int64     `json:"allowed,omitempty"`
	PlanPaid       *int64     `json:"plan_paid,omitempty"`
	PatientResp    *int64     `json:"patient_resp,omitempty"`
	Confidence     float64    `json:"confidence"`
	LowConfidence  bool       `json:"low_confidence"`
}

// HasModifier reports whether the line carries the given modifier.
func (li *LineItem) HasModifier(mod string) bool {
	for _, m := range li.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// ServiceDates is an inclusive service-date range in ISO form.
type ServiceDates struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Totals holds summary amounts reported by the document, in cents.
// Nil means the document did not report that category.
type Totals struct {
	Billed      *int64 `json:"billed,omitempty"`
	Allowed     *int64 `json:"allowed,omitempty"`
	PlanPaid    *int64 `json:"plan_paid,omitempty"`
	PatientResp *int64 `json:"patient_resp,omitempty"`
}

// DocumentHeader carries the claim-level facts extracted from one document.
type DocumentHeader struct {
	ArtifactID   uuid.UUID     `json:"artifact_id"`
	DocType      DocType       `json:"doc_type"`
	ProviderName string        `json:"provider_name,omitempty"`
	ProviderNPI  string        `json:"provider_npi,omitempty"`
	ProviderTIN  string        `json:"provider_tin,omitempty"`
	Payer        string        `json:"payer,omitempty"`
	ClaimID      string        `json:"claim_id,omitempty"`
	AccountID    string        `json:"account_id,omitempty"`
	ServiceDates *ServiceDates `json:"service_dates,omitempty"`
	Totals       *Totals       `json:"totals,omitempty"`
}

// ExtractedClaim is the per-file extraction product handed to collaborators.
type ExtractedClaim struct {
	FileID     uuid.UUID      `json:"file_id"`
	Header     DocumentHeader `json:"header"`
	LineItems  []LineItem     `json:"line_items"`
	Remarks    []string       `json:"remarks,omitempty"`
	Confidence float64        `json:"confidence"`
}

// PricedSummary is the read-only per-case aggregate: header facts, totals and
// the ordered line items, built once after extraction.
type PricedSummary struct {
	Header    DocumentHeader `json:"header"`
	Totals    *Totals        `json:"totals,omitempty"`
	LineItems []LineItem     `json:"line_items"`
	Notes     []string       `json:"notes,omitempty"`
}

// BenefitsContext is an optional caller-supplied benefits record consumed
// only by the detection rules that accept it.
type BenefitsContext struct {
	PlanType          PlanType `json:"plan_type,omitempty"`
	DeductibleCents   *int64   `json:"deductible_cents,omitempty"`
	SecondaryCoverage bool     `json:"secondary_coverage,omitempty"`
}

// Citation names an authority a detection leans on.
type Citation struct {
	Title     string `json:"title"`
	Authority string `json:"authority"`
	Section   string `json:"section,omitempty"`
}

// Evidence holds the references that let a human verify a detection without
// re-reading the whole document.
type Evidence struct {
	LineRefs []int    `json:"line_refs,omitempty"`
	Codes    []string `json:"codes,omitempty"`
	Amounts  []int64  `json:"amounts,omitempty"`
	Dates    []string `json:"dates,omitempty"`
}

// Detection is one anomaly finding. Immutable once produced.
type Detection struct {
	RuleKey     string     `json:"rule_key"`
	Severity    Severity   `json:"severity"`
	Explanation string     `json:"explanation"`
	Evidence    Evidence   `json:"evidence"`
	Citations   []Citation `json:"citations"`
}

// AnalysisCase groups the uploaded files of one billing question and carries
// the pipeline outcome.
type AnalysisCase struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Status        CaseStatus       `db:"status" json:"status"`
	Benefits      *BenefitsContext `db:"-" json:"benefits,omitempty"`
	Confidence    float64          `db:"confidence" json:"confidence"`
	Error         string           `db:"error" json:"error,omitempty"`
	Attempts      int              `db:"attempts" json:"attempts"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}

// CaseResult is the full analysis output for one case.
type CaseResult struct {
	CaseID     uuid.UUID                  `json:"case_id"`
	Claims     map[uuid.UUID]*ExtractedClaim `json:"claims"`
	OCRFailures map[uuid.UUID]string      `json:"ocr_failures,omitempty"`
	Summary    *PricedSummary             `json:"summary,omitempty"`
	Detections []Detection                `json:"detections"`
	Confidence float64                    `json:"confidence"`
}
