package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wyngai/internal/config"
	"wyngai/internal/detect"
	"wyngai/internal/domain"
	"wyngai/internal/port"
	"wyngai/internal/service"
	"wyngai/mocks"
)

const billText = `ACME MEDICAL CENTER
Statement of Account
Account Number: ACCT-4521
Total Charges: $350.00
99213 Office visit 150.00
80053 Metabolic panel 200.00`

func goodOCRResult(text string) *domain.OCRResult {
	return &domain.OCRResult{
		Vendor:  "vision",
		Success: true,
		Pages:   []domain.OCRPage{{Number: 1, Text: text, Confidence: 0.92}},
	}
}

func failedOCRResult(reason string) *domain.OCRResult {
	return &domain.OCRResult{Vendor: "vision", Success: false, Error: reason}
}

func newAnalysisService(
	fileRepo *mocks.MockFileRefRepo,
	caseRepo *mocks.MockCaseRepo,
	detectionRepo *mocks.MockDetectionRepo,
	storage *mocks.MockObjectStorage,
	pipeline *mocks.MockOCRPipeline,
) service.AnalysisService {
	engine := detect.NewEngine(detect.NewBuiltinRegistry())
	cfg := &config.QueueConfig{FileWaveSize: 2}
	return service.NewAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline, engine, cfg)
}

func TestAnalysisService_AnalyzeCase_Success(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	c := &domain.AnalysisCase{ID: uuid.New(), Status: domain.CaseStatusProcessing, Attempts: 1}
	fileID := uuid.New()

	fileRepo.On("ListByCase", mock.Anything, c.ID).Return([]domain.FileRef{{
		ID: fileID, CaseID: c.ID, OriginalName: "bill.pdf",
		S3Bucket: "test-bucket", S3Key: "cases/x/bill.pdf", ContentType: "application/pdf",
	}}, nil)
	storage.On("Download", mock.Anything, "test-bucket", "cases/x/bill.pdf").
		Return([]byte("%PDF-1.4 fake"), nil)
	pipeline.On("Process", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(goodOCRResult(billText))

	var saved *domain.CaseResult
	caseRepo.On("UpdateResult", mock.Anything, c.ID, mock.AnythingOfType("*domain.CaseResult")).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).(*domain.CaseResult)
		}).Return(nil)
	detectionRepo.On("Insert", mock.Anything, c.ID, mock.AnythingOfType("[]domain.Detection")).Return(nil)

	svc.AnalyzeCase(context.Background(), c, 3)

	require.NotNil(t, saved)
	assert.Equal(t, c.ID, saved.CaseID)
	assert.Len(t, saved.Claims, 1)
	assert.Empty(t, saved.OCRFailures)
	assert.Greater(t, saved.Confidence, 0.0)
	require.NotNil(t, saved.Summary)
	assert.NotEmpty(t, saved.Summary.LineItems)

	caseRepo.AssertExpectations(t)
	detectionRepo.AssertExpectations(t)
	caseRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisService_AnalyzeCase_NoFilesFailsPermanently(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	c := &domain.AnalysisCase{ID: uuid.New(), Attempts: 1}

	fileRepo.On("ListByCase", mock.Anything, c.ID).Return([]domain.FileRef{}, nil)
	caseRepo.On("UpdateStatus", mock.Anything, c.ID, domain.CaseStatusFailed, domain.ErrNoFilesInCase.Error()).
		Return(nil)

	// A case with no files must not burn retries; it can never succeed.
	svc.AnalyzeCase(context.Background(), c, 3)

	caseRepo.AssertExpectations(t)
	caseRepo.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisService_AnalyzeCase_DownloadFailureRequeues(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	c := &domain.AnalysisCase{ID: uuid.New(), Attempts: 1}

	fileRepo.On("ListByCase", mock.Anything, c.ID).Return([]domain.FileRef{{
		ID: uuid.New(), CaseID: c.ID, OriginalName: "bill.pdf",
		S3Bucket: "test-bucket", S3Key: "k",
	}}, nil)
	storage.On("Download", mock.Anything, "test-bucket", "k").
		Return(nil, errors.New("connection reset"))
	caseRepo.On("UpdateStatus", mock.Anything, c.ID, domain.CaseStatusQueued, mock.AnythingOfType("string")).
		Return(nil)

	svc.AnalyzeCase(context.Background(), c, 3)

	caseRepo.AssertExpectations(t)
}

func TestAnalysisService_AnalyzeCase_RetriesExhaustedFails(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	c := &domain.AnalysisCase{ID: uuid.New(), Attempts: 3}

	fileRepo.On("ListByCase", mock.Anything, c.ID).Return([]domain.FileRef{{
		ID: uuid.New(), CaseID: c.ID, S3Bucket: "b", S3Key: "k",
	}}, nil)
	storage.On("Download", mock.Anything, "b", "k").Return(nil, errors.New("gone"))
	caseRepo.On("UpdateStatus", mock.Anything, c.ID, domain.CaseStatusFailed, mock.AnythingOfType("string")).
		Return(nil)

	svc.AnalyzeCase(context.Background(), c, 3)

	caseRepo.AssertExpectations(t)
}

func TestAnalysisService_AnalyzeFiles_OCRFailureIsolated(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	goodID := uuid.New()
	badID := uuid.New()
	files := []service.NamedFile{
		{ID: goodID, Name: "bill.pdf", ContentType: "application/pdf", Bytes: []byte("good")},
		{ID: badID, Name: "blurry.jpg", ContentType: "image/jpeg", Bytes: []byte("bad")},
	}

	pipeline.On("Process", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.FileName == "bill.pdf"
	})).Return(goodOCRResult(billText))
	pipeline.On("Process", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.FileName == "blurry.jpg"
	})).Return(failedOCRResult("all providers failed"))

	result := svc.AnalyzeFiles(context.Background(), files, nil)

	assert.Len(t, result.Claims, 1)
	assert.Contains(t, result.Claims, goodID)
	require.Len(t, result.OCRFailures, 1)
	assert.Equal(t, "all providers failed", result.OCRFailures[badID])
	require.NotNil(t, result.Summary)
	assert.Contains(t, result.Summary.Notes, "1 of 2 files could not be read")
}

func TestAnalysisService_AnalyzeFiles_AllFailuresFloorConfidence(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	files := []service.NamedFile{
		{ID: uuid.New(), Name: "a.pdf", ContentType: "application/pdf", Bytes: []byte("x")},
	}
	pipeline.On("Process", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(failedOCRResult("unreadable"))

	result := svc.AnalyzeFiles(context.Background(), files, nil)

	assert.Empty(t, result.Claims)
	assert.Len(t, result.OCRFailures, 1)
	assert.Nil(t, result.Summary)
	assert.Empty(t, result.Detections)
	assert.InDelta(t, 0.30, result.Confidence, 0.0001)
}

func TestAnalysisService_AnalyzeFiles_LineIDsRenumberedAcrossFiles(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	files := []service.NamedFile{
		{ID: uuid.New(), Name: "one.pdf", ContentType: "application/pdf", Bytes: []byte("1")},
		{ID: uuid.New(), Name: "two.pdf", ContentType: "application/pdf", Bytes: []byte("2")},
	}

	pipeline.On("Process", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.FileName == "one.pdf"
	})).Return(goodOCRResult("Statement of Account\n99213 Office visit 150.00"))
	pipeline.On("Process", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		return in.FileName == "two.pdf"
	})).Return(goodOCRResult("Statement of Account\n80053 Metabolic panel 200.00"))

	result := svc.AnalyzeFiles(context.Background(), files, nil)

	require.NotNil(t, result.Summary)
	require.Len(t, result.Summary.LineItems, 2)
	assert.Equal(t, "line_001", result.Summary.LineItems[0].LineID)
	assert.Equal(t, "line_002", result.Summary.LineItems[1].LineID)
}

func TestAnalysisService_AnalyzeFiles_MergesRemarksSorted(t *testing.T) {
	fileRepo := new(mocks.MockFileRefRepo)
	caseRepo := new(mocks.MockCaseRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	pipeline := new(mocks.MockOCRPipeline)
	svc := newAnalysisService(fileRepo, caseRepo, detectionRepo, storage, pipeline)

	eobText := `Explanation of Benefits
This is not a bill
Claim Number: CLM-9987
Remark Codes: CO-29
Total Billed: $350.00`

	files := []service.NamedFile{
		{ID: uuid.New(), Name: "eob.pdf", ContentType: "application/pdf", Bytes: []byte("1")},
	}
	pipeline.On("Process", mock.Anything, mock.AnythingOfType("port.ExtractInput")).
		Return(goodOCRResult(eobText))

	result := svc.AnalyzeFiles(context.Background(), files, nil)

	require.Len(t, result.Claims, 1)
	// CO-29 is a timely-filing denial; the rule must see the merged remark.
	found := false
	for _, d := range result.Detections {
		if d.RuleKey == "timely_filing_violation" {
			found = true
		}
	}
	assert.True(t, found, "expected timely_filing_violation from merged remarks")
}
