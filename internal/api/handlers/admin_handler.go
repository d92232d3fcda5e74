package handlers

import (
	"errors"

	"klens/internal/dto"
	"klens/internal/repository"
	"klens/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler serves the token-protected maintenance routes.
type AdminHandler struct {
	store     repository.DocumentStore
	retention *service.RetentionService
	logger    *zap.Logger
}

func NewAdminHandler(store repository.DocumentStore, retention *service.RetentionService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

// ListDocuments godoc
// @Summary List stored documents
// @Description Newest first.
// @Tags admin
// @Produce json
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.DocumentListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/documents [get]
func (h *AdminHandler) ListDocuments(c *fiber.Ctx) error {
	if h.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Metadata store is not configured")
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.store.List(c.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list documents")
	}

	return c.JSON(dto.DocumentListResponse{
		OK:        true,
		Documents: docs,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetDocument godoc
// @Summary Get a stored document
// @Tags admin
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/documents/{id} [get]
func (h *AdminHandler) GetDocument(c *fiber.Ctx) error {
	if h.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Metadata store is not configured")
	}

	doc, err := h.store.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Document not found")
	}
	if err != nil {
		h.logger.Error("Failed to get document", zap.String("id", c.Params("id")), zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to get document")
	}

	return c.JSON(dto.DocumentResponse{
		OK:       true,
		Document: doc,
	})
}

// RunRetention godoc
// @Summary Run a retention sweep now
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.SweepResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/admin/retention/run [post]
func (h *AdminHandler) RunRetention(c *fiber.Ctx) error {
	result := h.retention.RunOnce(c.Context())

	h.logger.Info("Manual retention sweep",
		zap.Any("subject", c.Locals("subject")),
		zap.Int("deleted", result.Deleted),
	)

	return c.JSON(dto.SweepResponse{
		OK:         true,
		Scanned:    result.Scanned,
		Deleted:    result.Deleted,
		Errors:     result.Errors,
		DurationMS: result.Duration.Milliseconds(),
	})
}
