package handler

import (
	"context"
	"strconv"
	"time"

	"database/sql"

	"github.com/gofiber/fiber/v2"

	"ocrapi/internal/service"
	"ocrapi/internal/storage"
)

// uploadResponse is the wire shape of a completed OCR run.
type uploadResponse struct {
	Filename string      `json:"filename"`
	Output   string      `json:"output"`
	Tokens   tokenCounts `json:"tokens"`
	Cost     float64     `json:"cost"`
}

type tokenCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parse, delegate to the service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.OCRService, store storage.ArtifactStore) {
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

	// Submit page
	app.Get("/", IndexPage())

	// Health endpoint: checks DB connectivity only
	app.Get("/health", HealthCheck(db))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	// Run OCR on an uploaded image (multipart: file, intent, model)
	app.Post("/upload", Upload(svc))

	// List completed interactions, most recent first
	app.Get("/results", Results(svc))

	// Aggregate usage statistics
	app.Get("/stats", Stats(svc))

	// Chat thread for one interaction
	app.Get("/chat/:id", ChatHistory(svc))
	app.Post("/chat/:id", SendChat(svc))

	// Serve stored artifacts read-only
	app.Get("/uploads/:name", ServeArtifact(store))
}

// HealthCheck pings the database with a short timeout.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always reports OK.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Upload runs the full OCR flow for a multipart upload.
func Upload(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		if fh.Filename == "" {
			return writeError(c, fiber.StatusBadRequest, "EMPTY_FILENAME", "no file selected")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		intent := c.FormValue("intent")
		modelID := c.FormValue("model")

		in, err := svc.ProcessUpload(c.UserContext(), f, fh.Filename, intent, modelID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(uploadResponse{
			Filename: in.Filename,
			Output:   in.Output,
			Tokens:   tokenCounts{Input: in.InputTokens, Output: in.OutputTokens},
			Cost:     in.EstimatedCost,
		})
	}
}

// Results lists interactions with limit/offset pagination.
func Results(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.Results(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// Stats reports the usage aggregate.
func Stats(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(stats)
	}
}

// ChatHistory returns the chat thread of an interaction. An unknown id is
// 404; an existing interaction with no messages is an empty list.
func ChatHistory(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		msgs, err := svc.Messages(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"messages": msgs})
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// SendChat runs one follow-up chat turn against an interaction.
func SendChat(svc service.OCRService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		reply, err := svc.Chat(c.UserContext(), id, req.Message)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"response": reply})
	}
}

// ServeArtifact serves a stored upload read-only. Name resolution rejects
// traversal and unknown names.
func ServeArtifact(store storage.ArtifactStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path, err := store.Path(c.Params("name"))
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "artifact not found")
		}
		return c.SendFile(path)
	}
}
