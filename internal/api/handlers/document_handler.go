package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"klens/internal/dto"
	"klens/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const noFileMessage = "No file uploaded"

type DocumentHandler struct {
	ingestion *service.IngestionService
	logger    *zap.Logger
}

func NewDocumentHandler(ingestion *service.IngestionService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestion: ingestion,
		logger:    logger,
	}
}

// ProcessDocument godoc
// @Summary Ingest and classify one document
// @Description Stores the file, extracts its text where possible and classifies it. Falls back to default metadata when the classifier is unavailable.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Success 200 {object} dto.ProcessDocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/process-document [post]
func (h *DocumentHandler) ProcessDocument(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, noFileMessage)
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.String("file", file.Filename), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, err.Error())
	}
	defer src.Close()

	doc, err := h.ingestion.ProcessDocument(c.Context(), newUpload(file, src))
	if err != nil {
		return h.ingestionError(c, err)
	}

	return c.JSON(dto.ProcessDocumentResponse{
		OK:       true,
		Document: doc,
	})
}

// UploadFiles godoc
// @Summary Upload one or more files
// @Description Stores every file and attaches a plain summary to each.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/upload [post]
func (h *DocumentHandler) UploadFiles(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return errorResponse(c, fiber.StatusBadRequest, noFileMessage)
	}

	headers := form.File["files"]
	uploads := make([]*service.Upload, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			h.logger.Error("Failed to open uploaded file", zap.String("file", header.Filename), zap.Error(err))
			return errorResponse(c, fiber.StatusInternalServerError, err.Error())
		}
		defer src.Close()
		uploads = append(uploads, newUpload(header, src))
	}

	files, err := h.ingestion.UploadFiles(c.Context(), uploads)
	if err != nil {
		return h.ingestionError(c, err)
	}

	return c.JSON(dto.UploadResponse{
		OK:    true,
		Files: files,
	})
}

func (h *DocumentHandler) ingestionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNoFile) {
		return errorResponse(c, fiber.StatusBadRequest, noFileMessage)
	}
	h.logger.Error("Ingestion failed", zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, err.Error())
}

func newUpload(header *multipart.FileHeader, src io.Reader) *service.Upload {
	return &service.Upload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   src,
	}
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{
		OK:    false,
		Error: message,
	})
}
