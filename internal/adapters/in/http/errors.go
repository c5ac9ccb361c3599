package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/ingestion"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// writeError maps domain and application errors onto HTTP status codes.
// Anything unrecognized is a 500 with a generic message, so internals never
// leak to clients.
func writeError(ctx echo.Context, err error) error {
	code := statusFor(err)

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal error"
	}

	return ctx.JSON(code, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func statusFor(err error) int {
	var notFound *errs.ObjectNotFoundError
	var malformed *ingestion.MalformedSampleError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSchedulingConflict),
		errors.Is(err, order.ErrTransitionNotAllowed),
		errors.Is(err, order.ErrOrderIsTerminal),
		errors.Is(err, services.ErrDriverNotFound):
		return http.StatusConflict
	case errors.Is(err, commands.ErrDriverNotDispatchable),
		errors.Is(err, commands.ErrOrderHasNoDriver),
		errors.Is(err, commands.ErrDriverHasActiveOrders),
		errors.Is(err, commands.ErrCannotChangeDriverOfPendingOrder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ingestion.ErrOverloaded):
		return http.StatusTooManyRequests
	case errors.Is(err, ingestion.ErrPipelineClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &malformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// badRequest reports a malformed or invalid request payload.
func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}
