package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// FileStatus represents the lifecycle of an uploaded file.
type FileStatus string

const (
	FileStatusPending  FileStatus = "pending"
	FileStatusUploaded FileStatus = "uploaded"
	FileStatusFailed   FileStatus = "failed"
	FileStatusDeleted  FileStatus = "deleted"
)

// DocType labels the kind of billing document extracted text came from.
type DocType string

const (
	DocTypeBill          DocType = "BILL"
	DocTypeEOB           DocType = "EOB"
	DocTypeLetter        DocType = "LETTER"
	DocTypePortal        DocType = "PORTAL"
	DocTypeInsuranceCard DocType = "INSURANCE_CARD"
	DocTypeUnknown       DocType = "UNKNOWN"
)

// CodeSystem identifies the billing code system a token was validated against.
type CodeSystem string

const (
	CodeSystemCPT   CodeSystem = "CPT"
	CodeSystemHCPCS CodeSystem = "HCPCS"
	CodeSystemRev   CodeSystem = "REV"
	CodeSystemPOS   CodeSystem = "POS"
)

// Severity ranks a detection finding.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
	SeverityHigh Severity = "high"
)

// CaseStatus represents the lifecycle of an analysis case.
type CaseStatus string

const (
	CaseStatusDraft      CaseStatus = "draft"
	CaseStatusQueued     CaseStatus = "queued"
	CaseStatusProcessing CaseStatus = "processing"
	CaseStatusCompleted  CaseStatus = "completed"
	CaseStatusFailed     CaseStatus = "failed"
)

// PlanType categorizes the benefits plan supplied in an optional benefits context.
type PlanType string

const (
	PlanTypeHMO      PlanType = "HMO"
	PlanTypePPO      PlanType = "PPO"
	PlanTypeEPO      PlanType = "EPO"
	PlanTypeHDHP     PlanType = "HDHP"
	PlanTypeMedicare PlanType = "MEDICARE"
	PlanTypeMedicaid PlanType = "MEDICAID"
	PlanTypeOther    PlanType = "OTHER"
)
