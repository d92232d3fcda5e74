package service

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"klens/internal/dto"
	"klens/internal/models"
	"klens/internal/repository"
	"klens/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	variantComprehensive = "comprehensive"
	variantBasic         = "basic"

	fallbackSummaryChars = 500
	basicSummaryChars    = 800

	noTextPlaceholder = "No text content could be extracted from this file."
)

// Upload is one file received from a client.
type Upload struct {
	Name     string
	MimeType string
	Reader   io.Reader
}

type storedFile struct {
	ID         string
	StoredName string
	Path       string
	Size       int64
	Extension  string

	// MimeType is the declared type, else one derived from the extension or
	// content. DeclaredMimeType alone decides whether text is read.
	MimeType         string
	DeclaredMimeType string
}

type IngestionService struct {
	paths      *storage.Paths
	store      repository.DocumentStore
	classifier *ClassifierService
	extractor  *TextExtractor
	logger     *zap.Logger
	now        func() time.Time
}

// NewIngestionService wires the pipeline. store may be nil when no metadata
// database is configured.
func NewIngestionService(
	paths *storage.Paths,
	store repository.DocumentStore,
	classifier *ClassifierService,
	extractor *TextExtractor,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		paths:      paths,
		store:      store,
		classifier: classifier,
		extractor:  extractor,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessDocument stores one file, classifies its text when possible and
// returns the full document record. Only a storage failure is fatal.
func (s *IngestionService) ProcessDocument(ctx context.Context, upload *Upload) (*models.Document, error) {
	if upload == nil || upload.Reader == nil {
		return nil, ErrNoFile
	}

	file, err := s.storeUpload(upload)
	if err != nil {
		ingestionFailures.WithLabelValues(variantComprehensive).Inc()
		s.logger.Error("Failed to store document", zap.String("file", upload.Name), zap.Error(err))
		return nil, err
	}

	text, hasText := s.extractor.Extract(file.Path, file.DeclaredMimeType, file.Extension)

	source := "model"
	var classification *models.Classification
	if hasText {
		if c, ok := s.classifier.Classify(ctx, text, upload.Name); ok {
			classification = c
		}
	}
	if classification == nil {
		fallback := FallbackClassification(upload.Name, text, hasText)
		classification = &fallback
		source = "fallback"
	}

	doc := &models.Document{
		ID:             file.ID,
		OriginalName:   upload.Name,
		StoredPath:     file.Path,
		SizeBytes:      file.Size,
		Extension:      file.Extension,
		MimeType:       file.MimeType,
		Summary:        classification.ContentSummary,
		FileURL:        fileURL(file.StoredName),
		Classification: *classification,
		CreatedAt:      s.now().UnixMilli(),
	}

	s.persist(ctx, doc)
	documentsIngested.WithLabelValues(variantComprehensive, source).Inc()

	s.logger.Info("Document processed",
		zap.String("id", doc.ID),
		zap.String("file", doc.OriginalName),
		zap.Int64("size", doc.SizeBytes),
		zap.String("classification", source),
	)

	return doc, nil
}

// UploadFiles stores every file and attaches a plain summary to each. A
// storage failure aborts the remaining files; files already stored are kept.
func (s *IngestionService) UploadFiles(ctx context.Context, uploads []*Upload) ([]dto.UploadedFileResponse, error) {
	valid := make([]*Upload, 0, len(uploads))
	for _, upload := range uploads {
		if upload != nil && upload.Reader != nil {
			valid = append(valid, upload)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoFile
	}

	files := make([]dto.UploadedFileResponse, 0, len(valid))
	for _, upload := range valid {
		file, err := s.storeUpload(upload)
		if err != nil {
			ingestionFailures.WithLabelValues(variantBasic).Inc()
			s.logger.Error("Failed to store upload", zap.String("file", upload.Name), zap.Error(err))
			return nil, err
		}

		text, hasText := s.extractor.Extract(file.Path, file.DeclaredMimeType, file.Extension)

		source := "fallback"
		var summary string
		if hasText {
			if generated, ok := s.classifier.Summarize(ctx, text); ok {
				summary = generated
				source = "model"
			} else {
				summary = excerpt(text, basicSummaryChars)
			}
		}

		doc := &models.Document{
			ID:             file.ID,
			OriginalName:   upload.Name,
			StoredPath:     file.Path,
			SizeBytes:      file.Size,
			Extension:      file.Extension,
			MimeType:       file.MimeType,
			Summary:        summary,
			FileURL:        fileURL(file.StoredName),
			Classification: FallbackClassification(upload.Name, text, hasText),
			CreatedAt:      s.now().UnixMilli(),
		}
		s.persist(ctx, doc)
		documentsIngested.WithLabelValues(variantBasic, source).Inc()

		files = append(files, dto.UploadedFileResponse{
			Name:     upload.Name,
			Size:     file.Size,
			Ext:      file.Extension,
			MimeType: file.MimeType,
			Summary:  summary,
		})
	}

	s.logger.Info("Files uploaded", zap.Int("count", len(files)))
	return files, nil
}

// FallbackClassification is the classification used whenever the model
// produced none. It depends only on its arguments.
func FallbackClassification(originalName, text string, hasText bool) models.Classification {
	title := stripExtension(originalName)
	if title == "" {
		title = baseName(originalName)
	}
	if title == "" {
		title = "Untitled document"
	}

	summary := noTextPlaceholder
	if hasText {
		summary = excerpt(text, fallbackSummaryChars)
	}

	return models.Classification{
		Title:              title,
		Department:         models.DepartmentGeneral,
		DocumentType:       models.DocumentTypeOther,
		Language:           models.LanguageEnglish,
		Priority:           models.PriorityMedium,
		ContentSummary:     summary,
		ActionItems:        []models.ActionItem{},
		KeyInsights:        []string{"Document uploaded successfully"},
		Tags:               []string{"uploaded"},
		ComplianceDeadline: nil,
	}
}

func (s *IngestionService) storeUpload(upload *Upload) (*storedFile, error) {
	id := uuid.NewString()
	ext := fileExtension(upload.Name)
	storedName := storage.StoredName(id, upload.Name)

	stagedPath, size, err := s.paths.Stage(upload.Reader)
	if err != nil {
		return nil, &IngestionError{Op: "stage upload", Err: err}
	}

	finalPath, err := s.paths.MoveToFinal(stagedPath, storedName)
	if err != nil {
		os.Remove(stagedPath)
		return nil, &IngestionError{Op: "move upload", Err: err}
	}

	return &storedFile{
		ID:               id,
		StoredName:       storedName,
		Path:             finalPath,
		Size:             size,
		Extension:        ext,
		MimeType:         detectMimeType(upload.MimeType, ext, finalPath),
		DeclaredMimeType: strings.TrimSpace(upload.MimeType),
	}, nil
}

// persist writes the record when a store is configured. Failures are logged
// and swallowed: the upload itself already succeeded.
func (s *IngestionService) persist(ctx context.Context, doc *models.Document) {
	if s.store == nil {
		return
	}
	if err := s.store.Insert(ctx, doc); err != nil {
		metadataWriteFailures.Inc()
		s.logger.Warn("Failed to save document metadata",
			zap.String("id", doc.ID),
			zap.String("path", doc.StoredPath),
			zap.Error(err),
		)
	}
}

func fileURL(storedName string) string {
	return "/files/" + storedName
}

// detectMimeType prefers the client's declaration, then the extension, then
// the file's leading bytes.
func detectMimeType(declared, ext, path string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ext != "" {
		if byExt := mime.TypeByExtension("." + ext); byExt != "" {
			return byExt
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "application/octet-stream"
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	return http.DetectContentType(head[:n])
}
