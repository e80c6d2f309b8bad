package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wyngai/internal/domain"
	"wyngai/internal/export"
	"wyngai/internal/service"
)

// CaseHandler handles analysis case endpoints.
type CaseHandler struct {
	caseService service.CaseService
}

// NewCaseHandler creates a new CaseHandler.
func NewCaseHandler(caseService service.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

// createCaseRequest is the body for POST /api/v1/cases. The benefits block
// is optional; rules that need it simply stay silent without it.
type createCaseRequest struct {
	Benefits *domain.BenefitsContext `json:"benefits,omitempty"`
}

// Create handles POST /api/v1/cases
func (h *CaseHandler) Create(c *gin.Context) {
	var req createCaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
			return
		}
	}

	created, err := h.caseService.Create(c.Request.Context(), req.Benefits)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, created)
}

// GetByID handles GET /api/v1/cases/:id
func (h *CaseHandler) GetByID(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := h.caseService.GetByID(c.Request.Context(), caseID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, found)
}

// AttachFile handles POST /api/v1/cases/:id/files
func (h *CaseHandler) AttachFile(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	ref, err := h.caseService.AttachFile(c.Request.Context(), service.FileUploadInput{
		CaseID: caseID,
		File:   file,
		Header: header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, ref)
}

// ListFiles handles GET /api/v1/cases/:id/files
func (h *CaseHandler) ListFiles(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	refs, err := h.caseService.ListFiles(c.Request.Context(), caseID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, refs)
}

// GetFileURL handles GET /api/v1/cases/:id/files/:fileID/url
func (h *CaseHandler) GetFileURL(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseIDParam(c, "fileID")
	if !ok {
		return
	}

	url, err := h.caseService.GetFileURL(c.Request.Context(), caseID, fileID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Submit handles POST /api/v1/cases/:id/submit
func (h *CaseHandler) Submit(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.caseService.Submit(c.Request.Context(), caseID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": string(domain.CaseStatusQueued)})
}

// GetResult handles GET /api/v1/cases/:id/result
func (h *CaseHandler) GetResult(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.caseService.GetResult(c.Request.Context(), caseID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// GetDetections handles GET /api/v1/cases/:id/detections
func (h *CaseHandler) GetDetections(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detections, err := h.caseService.GetDetections(c.Request.Context(), caseID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detections)
}

// Export handles GET /api/v1/cases/:id/export?format=xlsx|lines|detections
func (h *CaseHandler) Export(c *gin.Context) {
	caseID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.caseService.GetResult(c.Request.Context(), caseID)
	if err != nil {
		HandleError(c, err)
		return
	}

	label := "case_" + caseID.String()[:8]
	switch c.DefaultQuery("format", "xlsx") {
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(label, "xlsx")+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteXLSX(c.Writer, result); err != nil {
			HandleError(c, err)
		}
	case "lines":
		var items []domain.LineItem
		if result.Summary != nil {
			items = result.Summary.LineItems
		}
		h.writeCSV(c, label, func(w *export.Writer) error {
			return w.WriteLineItems(items)
		})
	case "detections":
		h.writeCSV(c, label, func(w *export.Writer) error {
			return w.WriteDetections(result.Detections)
		})
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx, lines, or detections")
	}
}

func (h *CaseHandler) writeCSV(c *gin.Context, label string, write func(*export.Writer) error) {
	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename(label, "csv")+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	_, _ = c.Writer.Write(export.BOM)

	w := export.NewWriter(c.Writer)
	if err := write(w); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
}

// parseIDParam parses a UUID path parameter, writing the error response on
// failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", name+" is not a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
