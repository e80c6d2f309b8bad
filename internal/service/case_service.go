package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"wyngai/internal/config"
	"wyngai/internal/domain"
	"wyngai/internal/port"
)

// FileUploadInput is the DTO for attaching a document to a case.
type FileUploadInput struct {
	CaseID uuid.UUID
	File   multipart.File
	Header *multipart.FileHeader
}

// CaseService manages the analysis case lifecycle: create, attach files,
// submit for analysis, read results.
type CaseService interface {
	Create(ctx context.Context, benefits *domain.BenefitsContext) (*domain.AnalysisCase, error)
	GetByID(ctx context.Context, caseID uuid.UUID) (*domain.AnalysisCase, error)
	AttachFile(ctx context.Context, input FileUploadInput) (*domain.FileRef, error)
	ListFiles(ctx context.Context, caseID uuid.UUID) ([]domain.FileRef, error)
	Submit(ctx context.Context, caseID uuid.UUID) error
	GetResult(ctx context.Context, caseID uuid.UUID) (*domain.CaseResult, error)
	GetDetections(ctx context.Context, caseID uuid.UUID) ([]domain.Detection, error)
	GetFileURL(ctx context.Context, caseID, fileID uuid.UUID) (string, error)
}

type caseService struct {
	caseRepo      port.CaseRepository
	fileRepo      port.FileRefRepository
	detectionRepo port.DetectionRepository
	storage       port.ObjectStorage
	cfg           *config.S3Config
}

// NewCaseService creates a new CaseService implementation.
func NewCaseService(
	caseRepo port.CaseRepository,
	fileRepo port.FileRefRepository,
	detectionRepo port.DetectionRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
) CaseService {
	return &caseService{
		caseRepo:      caseRepo,
		fileRepo:      fileRepo,
		detectionRepo: detectionRepo,
		storage:       storage,
		cfg:           cfg,
	}
}

func (s *caseService) Create(ctx context.Context, benefits *domain.BenefitsContext) (*domain.AnalysisCase, error) {
	// Cases start as drafts, invisible to the queue workers, until Submit
	// flips them to queued. A case with zero files must never be claimed.
	c := &domain.AnalysisCase{
		ID:       uuid.New(),
		Status:   domain.CaseStatusDraft,
		Benefits: benefits,
	}
	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating case: %w", err)
	}
	log.Printf("caseService.Create: case %s created", c.ID)
	return c, nil
}

func (s *caseService) GetByID(ctx context.Context, caseID uuid.UUID) (*domain.AnalysisCase, error) {
	return s.caseRepo.GetByID(ctx, caseID)
}

func (s *caseService) AttachFile(ctx context.Context, input FileUploadInput) (*domain.FileRef, error) {
	if _, err := s.caseRepo.GetByID(ctx, input.CaseID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte sniff; the extension alone is not trusted.
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, validContent := domain.AllowedContentTypes[detectedType]; !validContent {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	fileID := uuid.New()
	s3Key := fmt.Sprintf("cases/%s/files/%s/%s", input.CaseID, fileID, input.Header.Filename)
	contentType := domain.AllowedFileTypes[fileType]

	ref := &domain.FileRef{
		ID:           fileID,
		CaseID:       input.CaseID,
		FileName:     fileID.String() + "." + ext,
		OriginalName: input.Header.Filename,
		FileType:     fileType,
		FileSize:     input.Header.Size,
		S3Bucket:     s.cfg.Bucket,
		S3Key:        s3Key,
		ContentType:  contentType,
		Status:       domain.FileStatusPending,
	}

	log.Printf("caseService.AttachFile: uploading %s (%s, %d bytes) to case %s",
		input.Header.Filename, contentType, input.Header.Size, input.CaseID)

	if err := s.fileRepo.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("creating file ref: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         s3Key,
		Body:        input.File,
		ContentType: contentType,
		Size:        input.Header.Size,
	})
	if err != nil {
		log.Printf("caseService.AttachFile: S3 upload failed for file %s: %v", ref.ID, err)
		_ = s.fileRepo.UpdateStatus(ctx, ref.ID, domain.FileStatusFailed)
		return nil, domain.ErrUploadFailed
	}

	if err := s.fileRepo.UpdateStatus(ctx, ref.ID, domain.FileStatusUploaded); err != nil {
		return nil, fmt.Errorf("updating file status: %w", err)
	}
	ref.Status = domain.FileStatusUploaded
	return ref, nil
}

func (s *caseService) ListFiles(ctx context.Context, caseID uuid.UUID) ([]domain.FileRef, error) {
	return s.fileRepo.ListByCase(ctx, caseID)
}

// Submit moves a draft case with at least one uploaded file into the queue.
func (s *caseService) Submit(ctx context.Context, caseID uuid.UUID) error {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if c.Status != domain.CaseStatusDraft {
		return domain.ErrCaseNotSubmittable
	}
	refs, err := s.fileRepo.ListByCase(ctx, caseID)
	if err != nil {
		return err
	}
	uploaded := 0
	for i := range refs {
		if refs[i].Status == domain.FileStatusUploaded {
			uploaded++
		}
	}
	if uploaded == 0 {
		return domain.ErrNoFilesInCase
	}
	if err := s.caseRepo.UpdateStatus(ctx, caseID, domain.CaseStatusQueued, ""); err != nil {
		return fmt.Errorf("queueing case: %w", err)
	}
	log.Printf("caseService.Submit: case %s queued with %d files", caseID, uploaded)
	return nil
}

func (s *caseService) GetResult(ctx context.Context, caseID uuid.UUID) (*domain.CaseResult, error) {
	return s.caseRepo.GetResult(ctx, caseID)
}

func (s *caseService) GetDetections(ctx context.Context, caseID uuid.UUID) ([]domain.Detection, error) {
	return s.detectionRepo.ListByCase(ctx, caseID)
}

func (s *caseService) GetFileURL(ctx context.Context, caseID, fileID uuid.UUID) (string, error) {
	ref, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if ref.CaseID != caseID {
		return "", domain.ErrNotFound
	}
	return s.storage.GetPresignedURL(ctx, ref.S3Bucket, ref.S3Key, s.cfg.PresignExpiry)
}
