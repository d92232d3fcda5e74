package handlers

import (
	"klens/internal/dto"
	"klens/internal/repository"
	"klens/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SystemHandler struct {
	classifier *service.ClassifierService
	store      repository.DocumentStore
}

func NewSystemHandler(classifier *service.ClassifierService, store repository.DocumentStore) *SystemHandler {
	return &SystemHandler{
		classifier: classifier,
		store:      store,
	}
}

// Index godoc
// @Summary Liveness
// @Tags system
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *SystemHandler) Index(c *fiber.Ctx) error {
	return c.SendString("K-Lens document service is running")
}

// Health godoc
// @Summary Service health
// @Description Reports which optional collaborators are available.
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		OK:            true,
		Classifier:    h.classifier.Enabled(),
		MetadataStore: h.store != nil,
	})
}
