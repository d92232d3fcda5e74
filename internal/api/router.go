package api

import (
	"errors"

	"klens/docs"
	"klens/internal/api/handlers"
	"klens/internal/dto"
	"klens/pkg/auth"
	"klens/pkg/config"
	"klens/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter builds the HTTP surface. Admin routes are mounted only when
// both jwtManager and adminHandler are non-nil.
func SetupRouter(
	serverCfg *config.ServerConfig,
	filesDir string,
	docHandler *handlers.DocumentHandler,
	systemHandler *handlers.SystemHandler,
	adminHandler *handlers.AdminHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "K-Lens",
		BodyLimit:    serverCfg.BodyLimit,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse{
				OK:    false,
				Error: err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: serverCfg.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/", systemHandler.Index)
	app.Get("/health", systemHandler.Health)

	appLogger.Info("Serving stored files", zap.String("path", filesDir))
	app.Static("/files", filesDir)

	api := app.Group("/api")
	api.Post("/process-document", docHandler.ProcessDocument)
	api.Post("/upload", docHandler.UploadFiles)

	if jwtManager == nil || adminHandler == nil {
		appLogger.Info("Admin routes disabled: ADMIN_JWT_SECRET is not set")
		return app
	}

	authRequired := middleware.AuthMiddleware(jwtManager, appLogger)
	api.Get("/documents", authRequired, adminHandler.ListDocuments)
	api.Get("/documents/:id", authRequired, adminHandler.GetDocument)
	api.Post("/admin/retention/run", authRequired, adminHandler.RunRetention)

	return app
}
