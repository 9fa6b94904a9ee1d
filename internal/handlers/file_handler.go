package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/Ryuu-x/File-Sharing-App/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Upload handles POST /upload. It expects a multipart body with a "file"
// part and returns the record id plus the shareable download URL.
func (h *Handler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	files := form.File["file"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	if len(files) > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Multiple files are not allowed. Upload a single file."})
	}
	fileHeader := files[0]

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open uploaded file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read uploaded file"})
	}

	name := fileHeader.Filename
	if name == "" {
		name = c.FormValue("name")
	}

	result, err := h.files.Upload(c.Context(), name, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// Download handles GET /file/:fileId. It streams the object back as an
// attachment named after the original upload.
func (h *Handler) Download(c *fiber.Ctx) error {
	result, err := h.files.Download(c.Context(), c.Params("fileId"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.Name))
	if result.ContentType != "" {
		c.Set(fiber.HeaderContentType, result.ContentType)
	}
	return c.SendStream(result.Body)
}
