package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ocrapi/internal/engine"
	"ocrapi/internal/http/middleware"
	"ocrapi/internal/service"
	"ocrapi/internal/storage"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "ENGINE_TIMEOUT")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates service and engine errors into the response
// taxonomy. Every engine failure kind keeps a distinguishable code so a
// caller can tell "model missing" from "model took too long" from "model
// errored".
func writeServiceError(c *fiber.Ctx, err error) error {
	var engErr *engine.EngineError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "interaction not found")
	case errors.Is(err, service.ErrMessageRequired):
		return writeError(c, fiber.StatusBadRequest, "MESSAGE_REQUIRED", "message is required")
	case errors.Is(err, storage.ErrEmptyName):
		return writeError(c, fiber.StatusBadRequest, "EMPTY_FILENAME", "no file selected")
	case errors.Is(err, engine.ErrUnavailable):
		return writeError(c, fiber.StatusInternalServerError, "ENGINE_UNAVAILABLE", "engine not found; ensure it is installed and in PATH")
	case errors.Is(err, engine.ErrTimeout):
		return writeError(c, fiber.StatusInternalServerError, "ENGINE_TIMEOUT", "processing timed out")
	case errors.As(err, &engErr):
		return writeError(c, fiber.StatusInternalServerError, "ENGINE_ERROR", engErr.Error())
	case isInvocationError(err):
		return writeError(c, fiber.StatusInternalServerError, "INVOCATION_ERROR", "engine invocation failed")
	case errors.Is(err, storage.ErrArtifactNotFound):
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "stored artifact is missing")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func isInvocationError(err error) bool {
	var inv *engine.InvocationError
	return errors.As(err, &inv)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body exceeds the upload limit")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
