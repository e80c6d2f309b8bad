package service_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wyngai/internal/config"
	"wyngai/internal/domain"
	"wyngai/internal/port"
	"wyngai/internal/service"
	"wyngai/mocks"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Region:        "us-east-1",
		Bucket:        "test-bucket",
		MaxFileSizeMB: 50,
		PresignExpiry: 3600,
	}
}

// createMultipartFile creates a fake multipart file header and content for testing.
func createMultipartFile(filename string, content []byte, contentType string) (multipart.File, *multipart.FileHeader) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, _ := writer.CreatePart(h)
	_, _ = part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content) + 1024))
	file, _ := form.File["file"][0].Open()
	return file, form.File["file"][0]
}

// pdfContent returns minimal valid PDF bytes.
func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}

func newCaseService(
	caseRepo *mocks.MockCaseRepo,
	fileRepo *mocks.MockFileRefRepo,
	detectionRepo *mocks.MockDetectionRepo,
	storage *mocks.MockObjectStorage,
) (service.CaseService, *config.S3Config) {
	cfg := testS3Config()
	return service.NewCaseService(caseRepo, fileRepo, detectionRepo, storage, &cfg), &cfg
}

func TestCaseService_Create_StartsAsDraft(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.AnalysisCase")).Return(nil)

	benefits := &domain.BenefitsContext{PlanType: domain.PlanTypePPO, SecondaryCoverage: true}
	c, err := svc.Create(context.Background(), benefits)

	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusDraft, c.Status)
	assert.Equal(t, benefits, c.Benefits)
	caseRepo.AssertExpectations(t)
}

func TestCaseService_AttachFile_Success(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID, Status: domain.CaseStatusDraft}, nil)
	fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileRef")).Return(nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{Location: "https://test-bucket.s3.amazonaws.com/x", ETag: "abc"}, nil)
	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusUploaded).
		Return(nil)

	file, header := createMultipartFile("bill.pdf", pdfContent(), "application/pdf")
	defer file.Close()

	ref, err := svc.AttachFile(context.Background(), service.FileUploadInput{
		CaseID: caseID, File: file, Header: header,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusUploaded, ref.Status)
	assert.Equal(t, domain.FileTypePDF, ref.FileType)
	assert.Equal(t, "bill.pdf", ref.OriginalName)
	assert.Equal(t, caseID, ref.CaseID)
	fileRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestCaseService_AttachFile_RejectsUnsupportedExtension(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID}, nil)

	file, header := createMultipartFile("notes.txt", []byte("plain text"), "text/plain")
	defer file.Close()

	_, err := svc.AttachFile(context.Background(), service.FileUploadInput{
		CaseID: caseID, File: file, Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	fileRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCaseService_AttachFile_RejectsMismatchedContent(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID}, nil)

	// PDF extension but plain-text bytes; the sniff must win.
	file, header := createMultipartFile("fake.pdf", []byte("just some words, no pdf magic"), "application/pdf")
	defer file.Close()

	_, err := svc.AttachFile(context.Background(), service.FileUploadInput{
		CaseID: caseID, File: file, Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestCaseService_AttachFile_RejectsOversizedFile(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID}, nil)

	file, header := createMultipartFile("huge.pdf", pdfContent(), "application/pdf")
	defer file.Close()
	header.Size = 200 * 1024 * 1024

	_, err := svc.AttachFile(context.Background(), service.FileUploadInput{
		CaseID: caseID, File: file, Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestCaseService_AttachFile_UploadFailureMarksFileFailed(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID}, nil)
	fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileRef")).Return(nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, errors.New("s3 unavailable"))
	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusFailed).
		Return(nil)

	file, header := createMultipartFile("bill.pdf", pdfContent(), "application/pdf")
	defer file.Close()

	_, err := svc.AttachFile(context.Background(), service.FileUploadInput{
		CaseID: caseID, File: file, Header: header,
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	fileRepo.AssertExpectations(t)
}

func TestCaseService_Submit_QueuesDraftWithUploadedFile(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID, Status: domain.CaseStatusDraft}, nil)
	fileRepo.On("ListByCase", mock.Anything, caseID).Return([]domain.FileRef{
		{ID: uuid.New(), CaseID: caseID, Status: domain.FileStatusUploaded},
		{ID: uuid.New(), CaseID: caseID, Status: domain.FileStatusFailed},
	}, nil)
	caseRepo.On("UpdateStatus", mock.Anything, caseID, domain.CaseStatusQueued, "").Return(nil)

	err := svc.Submit(context.Background(), caseID)

	require.NoError(t, err)
	caseRepo.AssertExpectations(t)
}

func TestCaseService_Submit_RejectsNonDraftCase(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID, Status: domain.CaseStatusCompleted}, nil)

	err := svc.Submit(context.Background(), caseID)

	assert.ErrorIs(t, err, domain.ErrCaseNotSubmittable)
	caseRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCaseService_Submit_RejectsCaseWithoutUploadedFiles(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	caseRepo.On("GetByID", mock.Anything, caseID).
		Return(&domain.AnalysisCase{ID: caseID, Status: domain.CaseStatusDraft}, nil)
	fileRepo.On("ListByCase", mock.Anything, caseID).Return([]domain.FileRef{
		{ID: uuid.New(), CaseID: caseID, Status: domain.FileStatusPending},
	}, nil)

	err := svc.Submit(context.Background(), caseID)

	assert.ErrorIs(t, err, domain.ErrNoFilesInCase)
	caseRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCaseService_GetFileURL_Success(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, cfg := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	caseID := uuid.New()
	fileID := uuid.New()
	fileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.FileRef{
		ID: fileID, CaseID: caseID, S3Bucket: "test-bucket", S3Key: "cases/x/bill.pdf",
	}, nil)
	storage.On("GetPresignedURL", mock.Anything, "test-bucket", "cases/x/bill.pdf", cfg.PresignExpiry).
		Return("https://signed.example/bill.pdf", nil)

	url, err := svc.GetFileURL(context.Background(), caseID, fileID)

	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/bill.pdf", url)
}

func TestCaseService_GetFileURL_WrongCaseIsNotFound(t *testing.T) {
	caseRepo := new(mocks.MockCaseRepo)
	fileRepo := new(mocks.MockFileRefRepo)
	detectionRepo := new(mocks.MockDetectionRepo)
	storage := new(mocks.MockObjectStorage)
	svc, _ := newCaseService(caseRepo, fileRepo, detectionRepo, storage)

	fileID := uuid.New()
	fileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.FileRef{
		ID: fileID, CaseID: uuid.New(), S3Bucket: "b", S3Key: "k",
	}, nil)

	_, err := svc.GetFileURL(context.Background(), uuid.New(), fileID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	storage.AssertNotCalled(t, "GetPresignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
