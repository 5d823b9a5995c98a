package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/memgraph/pkg/query"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// errNotFound marks lookups of unknown memories.
var errNotFound = errors.New("memory not found")

// badRequest marks malformed input outside the query language.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string {
	return e.msg
}

// errorHandler maps handler errors to status codes: query and request errors
// are 400, unknown memories 404, everything else 500.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			queryErr *query.Error
			badReq   *badRequest
			fiberErr *fiber.Error
		)

		status := fiber.StatusInternalServerError
		switch {
		case errors.As(err, &queryErr), errors.As(err, &badReq):
			status = fiber.StatusBadRequest
		case errors.Is(err, errNotFound):
			status = fiber.StatusNotFound
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}

		return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
	}
}
