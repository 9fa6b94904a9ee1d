package handlers

import (
	"github.com/Ryuu-x/File-Sharing-App/internal/db"
	"github.com/Ryuu-x/File-Sharing-App/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Handler holds the HTTP handlers and their injected dependencies.
type Handler struct {
	files *services.FileService
	auth  *services.AuthService
	mongo *db.Mongo
}

func New(files *services.FileService, auth *services.AuthService, mongo *db.Mongo) *Handler {
	return &Handler{files: files, auth: auth, mongo: mongo}
}

// Health reports process and database status.
func (h *Handler) Health(c *fiber.Ctx) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.mongo.Ping(c.Context()); err != nil {
		status = "degraded"
		dbStatus = err.Error()
	}

	return c.JSON(fiber.Map{
		"status":   status,
		"database": dbStatus,
	})
}
