package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/okojic12722rn/banka-provisioning/internal/application/dto"
	"github.com/okojic12722rn/banka-provisioning/internal/domain"
)

// errorStatus traduce un error de dominio a status HTTP y cuerpo.
func errorStatus(err error) (int, dto.ErrorResponse) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
		if vErr.Field != "" {
			resp.Details = map[string]string{vErr.Field: vErr.Reason}
		}
		return fiber.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrRemoteWrite):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "REMOTE_WRITE", Message: err.Error()}
	case errors.Is(err, domain.ErrMissingIdentifier):
		return fiber.StatusBadGateway, dto.ErrorResponse{Code: "MISSING_IDENTIFIER", Message: err.Error()}
	case errors.Is(err, domain.ErrStepInFlight):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "STEP_IN_FLIGHT", Message: err.Error()}
	case errors.Is(err, domain.ErrWorkflowClosed):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "WORKFLOW_CLOSED", Message: err.Error()}
	case errors.Is(err, domain.ErrCancelled):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CANCELLED", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "sesión no encontrada"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "la sesión pertenece a otro operador"}
	default:
		return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := errorStatus(err)
	return c.Status(status).JSON(body)
}

// errorBody cuerpo de error para incrustar en el snapshot (nil si no hay error).
func errorBody(err error) *dto.ErrorResponse {
	if err == nil {
		return nil
	}
	_, body := errorStatus(err)
	return &body
}
