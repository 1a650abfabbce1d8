package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"exportapi/internal/config"
	"exportapi/internal/http/respond"
	"exportapi/internal/service"
)

// createExportRequest is the body of POST /exports.
type createExportRequest struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic; downloads delegate the
// buffered/streaming distinction to the respond package.
func RegisterRoutes(app *fiber.App, db *sql.DB, expSvc service.ExportService, expCfg config.ExportConfig) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Create export definition
	app.Post("/exports", func(c *fiber.Ctx) error {
		var body createExportRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		exp, err := expSvc.Create(c.UserContext(), body.Name, body.Rows)
		if err != nil {
			if errors.Is(err, service.ErrNameRequired) {
				return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "name is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(exp)
	})

	// List exports with limit & offset
	app.Get("/exports", func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := expSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Get export by ID
	app.Get("/exports/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		exp, err := expSvc.Get(c.UserContext(), id)
		if err != nil {
			return exportError(c, err)
		}
		return c.JSON(exp)
	})

	// Delete export by ID
	app.Delete("/exports/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := expSvc.Delete(c.UserContext(), id); err != nil {
			return exportError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Buffered download: the whole body is built in memory first, so the
	// response carries a Content-Length and the client sees nothing until
	// the final row has been generated.
	app.Get("/exports/:id/csv", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		exp, body, err := expSvc.Render(c.UserContext(), id)
		if err != nil {
			return exportError(c, err)
		}
		setAttachment(c, exp.Name)
		return respond.Buffered(c, fiber.StatusOK, exp.ContentType, body)
	})

	// Streaming download: rows are generated one chunk at a time and leave
	// with chunked transfer encoding; the first byte goes out before the
	// second row exists.
	app.Get("/exports/:id/csv/stream", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		exp, src, err := expSvc.Open(c.UserContext(), id)
		if err != nil {
			return exportError(c, err)
		}
		setAttachment(c, exp.Name)
		return respond.Stream(c, fiber.StatusOK, exp.ContentType, src)
	})

	// Archive: render into object storage and record the artifact
	app.Post("/exports/:id/artifact", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		exp, err := expSvc.Archive(c.UserContext(), id)
		if err != nil {
			return exportError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(exp)
	})

	// Stream the archived artifact back out of object storage
	app.Get("/exports/:id/artifact", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		exp, rc, info, err := expSvc.OpenArtifact(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNoArtifact) {
				return writeError(c, fiber.StatusNotFound, "NO_ARTIFACT", "export has no archived artifact")
			}
			return exportError(c, err)
		}
		setAttachment(c, exp.Name)
		contentType := info.ContentType
		if contentType == "" {
			contentType = exp.ContentType
		}
		return respond.StreamReader(c, fiber.StatusOK, contentType, rc, expCfg.ReadChunkBytes)
	})
}

// exportError maps service errors to standardized responses.
func exportError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "export not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// filenameSanitizer drops characters that would break the quoted-string
// syntax of the Content-Disposition filename parameter.
var filenameSanitizer = strings.NewReplacer(`"`, "", `\`, "")

func setAttachment(c *fiber.Ctx, name string) {
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.csv"`, filenameSanitizer.Replace(name)))
}
