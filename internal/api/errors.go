package api

import (
	"errors"
	"net/http"

	"github.com/yourorg/catalogdash/internal/apperrors"
	"github.com/yourorg/catalogdash/internal/dashboard"
	"github.com/yourorg/catalogdash/internal/prompt"
)

var errValidationFailed = errors.New("validation_failed")

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var notFoundErr *apperrors.NotFoundError
	if errors.As(err, &notFoundErr) {
		NotFound(w, r, err, err.Error())
		return
	}

	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		BadRequest(w, r, err, err.Error(), validationErr.Field)
		return
	}

	var fetchErr *apperrors.FetchError
	if errors.As(err, &fetchErr) {
		BadGateway(w, r, err, "failed to load products")
		return
	}

	var cancelledErr *apperrors.CancelledError
	if errors.As(err, &cancelledErr) {
		ConflictError(w, r, err, err.Error())
		return
	}

	var timeoutErr *apperrors.TimeoutError
	if errors.As(err, &timeoutErr) {
		GatewayTimeout(w, r, err, err.Error())
		return
	}

	var unavailableErr *apperrors.ServiceUnavailableError
	if errors.As(err, &unavailableErr) {
		ServiceUnavailable(w, r, err, err.Error())
		return
	}

	if errors.Is(err, dashboard.ErrDialogClosed) {
		ConflictError(w, r, err, err.Error())
		return
	}

	if errors.Is(err, prompt.ErrUnknownPrompt) {
		NotFound(w, r, err, err.Error())
		return
	}

	InternalError(w, r, err, "internal server error")
}
