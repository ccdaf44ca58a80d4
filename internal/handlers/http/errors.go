package http

import (
	stderrors "errors"
	"net/http"

	"camwatch/internal/core/domain"
	"camwatch/pkg/errors"
)

// mapError translates service errors into AppErrors for ErrorHandlerMiddleware.
func mapError(err error) *errors.AppError {
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case stderrors.Is(err, domain.ErrInvalidInput):
		return errors.NewInvalidInputError(err.Error())
	case stderrors.Is(err, domain.ErrCameraNotFound):
		return errors.NewNotFoundError("camera")
	case stderrors.Is(err, domain.ErrUsernameTaken):
		// Duplicate registration is reported as a bad request.
		return errors.NewAppError(errors.ErrCodeConflict, "username already exists", http.StatusBadRequest)
	case stderrors.Is(err, domain.ErrInvalidCredentials):
		return errors.NewUnauthorizedError("invalid username or password")
	default:
		return errors.NewInternalError(err)
	}
}
