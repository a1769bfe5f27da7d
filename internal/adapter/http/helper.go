package http

import (
	"errors"
	"net/http"

	"prescreen-engine/internal/domain/actor"
	"prescreen-engine/internal/domain/batch"
	"prescreen-engine/internal/domain/lead"
	"prescreen-engine/internal/domain/program"
	"prescreen-engine/pkg/fieldcrypt"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ---- helpers ----

// writeError maps domain errors onto the HTTP surface. Decryption failures
// deliberately collapse into a generic 500; the response never says whether
// a ciphertext was malformed, tampered with, or keyed differently.
func writeError(c echo.Context, err error) error {
	var fieldErr *fieldcrypt.ValidationError
	switch {
	case errors.As(err, &fieldErr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: fieldErr.Field, Message: fieldErr.Message}},
		})
	case isValidationErrors(err):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	case errors.Is(err, actor.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin role required"})
	case errors.Is(err, lead.ErrNotFound), errors.Is(err, batch.ErrNotFound), errors.Is(err, program.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, lead.ErrNoPlainField):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "field is not set for this lead"})
	case errors.Is(err, lead.ErrDismissed), errors.Is(err, batch.ErrInvalidTransition), errors.Is(err, batch.ErrRecoverInProgress):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, batch.ErrNoEligibleLeads):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, fieldcrypt.ErrDecrypt):
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func isValidationErrors(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}
