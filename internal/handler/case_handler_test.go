package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wyngai/internal/domain"
	"wyngai/internal/handler"
	"wyngai/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCaseRequest(t *testing.T, method, path string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var err error
	if body != nil {
		c.Request, err = http.NewRequest(method, path, bytes.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request, err = http.NewRequest(method, path, nil)
	}
	require.NoError(t, err)
	return w, c
}

func TestCaseHandler_Create_WithBenefits(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	created := &domain.AnalysisCase{ID: uuid.New(), Status: domain.CaseStatusDraft}
	caseSvc.On("Create", mock.Anything, mock.MatchedBy(func(b *domain.BenefitsContext) bool {
		return b != nil && b.PlanType == domain.PlanTypePPO && b.SecondaryCoverage
	})).Return(created, nil)

	body, _ := json.Marshal(map[string]interface{}{
		"benefits": map[string]interface{}{
			"plan_type":          "PPO",
			"secondary_coverage": true,
		},
	})
	w, c := newCaseRequest(t, http.MethodPost, "/api/v1/cases", body)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	caseSvc.AssertExpectations(t)
}

func TestCaseHandler_Create_EmptyBodyAllowed(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	created := &domain.AnalysisCase{ID: uuid.New(), Status: domain.CaseStatusDraft}
	caseSvc.On("Create", mock.Anything, (*domain.BenefitsContext)(nil)).Return(created, nil)

	w, c := newCaseRequest(t, http.MethodPost, "/api/v1/cases", nil)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	caseSvc.AssertExpectations(t)
}

func TestCaseHandler_GetByID_InvalidUUID(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	w, c := newCaseRequest(t, http.MethodGet, "/api/v1/cases/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.GetByID(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	caseSvc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCaseHandler_GetByID_NotFound(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	caseID := uuid.New()
	caseSvc.On("GetByID", mock.Anything, caseID).Return(nil, domain.ErrNotFound)

	w, c := newCaseRequest(t, http.MethodGet, "/api/v1/cases/"+caseID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestCaseHandler_Submit_AlreadySubmitted(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	caseID := uuid.New()
	caseSvc.On("Submit", mock.Anything, caseID).Return(domain.ErrCaseNotSubmittable)

	w, c := newCaseRequest(t, http.MethodPost, "/api/v1/cases/"+caseID.String()+"/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.Submit(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCaseHandler_Submit_NoFiles(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	caseID := uuid.New()
	caseSvc.On("Submit", mock.Anything, caseID).Return(domain.ErrNoFilesInCase)

	w, c := newCaseRequest(t, http.MethodPost, "/api/v1/cases/"+caseID.String()+"/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseHandler_GetDetections(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	caseID := uuid.New()
	caseSvc.On("GetDetections", mock.Anything, caseID).Return([]domain.Detection{{
		RuleKey:  "duplicate_service_lines",
		Severity: domain.SeverityHigh,
	}}, nil)

	w, c := newCaseRequest(t, http.MethodGet, "/api/v1/cases/"+caseID.String()+"/detections", nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.GetDetections(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate_service_lines")
}

func TestCaseHandler_Export_LinesCSV(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	charge := int64(15000)
	caseID := uuid.New()
	caseSvc.On("GetResult", mock.Anything, caseID).Return(&domain.CaseResult{
		CaseID: caseID,
		Summary: &domain.PricedSummary{
			LineItems: []domain.LineItem{{LineID: "line_001", Code: "99213", Charge: &charge}},
		},
	}, nil)

	w, c := newCaseRequest(t, http.MethodGet, "/api/v1/cases/"+caseID.String()+"/export?format=lines", nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "99213")
	// BOM prefix for Excel.
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
}

func TestCaseHandler_Export_InvalidFormat(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	caseID := uuid.New()
	caseSvc.On("GetResult", mock.Anything, caseID).Return(&domain.CaseResult{CaseID: caseID}, nil)

	w, c := newCaseRequest(t, http.MethodGet, "/api/v1/cases/"+caseID.String()+"/export?format=pdf", nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseHandler_Export_ResultNotReady(t *testing.T) {
	caseSvc := new(mocks.MockCaseService)
	h := handler.NewCaseHandler(caseSvc)

	caseID := uuid.New()
	caseSvc.On("GetResult", mock.Anything, caseID).Return(nil, domain.ErrNotFound)

	w, c := newCaseRequest(t, http.MethodGet, "/api/v1/cases/"+caseID.String()+"/export", nil)
	c.Params = gin.Params{{Key: "id", Value: caseID.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
