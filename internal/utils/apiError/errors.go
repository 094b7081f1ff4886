package apiError

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/karstforge/speleosync/internal/logging"
)

var ErrApiBadRequest = errors.New("bad request")
var ErrApiUnsupportedMediaType = errors.New("unsupported media type")
var ErrApiUnauthorized = errors.New("unauthorized")

var ErrApiNotFound = errors.New("not found")
var ErrApiProjectNotFound = fmt.Errorf("project not found: %w", ErrApiNotFound)

// ErrApiArchiveUnavailable maps to 422: the project or its archive does not
// exist on the backend.
var ErrApiArchiveUnavailable = errors.New("project archive unavailable")

// ErrApiLockConflict maps to 409: the lease is held by another user.
var ErrApiLockConflict = errors.New("project locked by another user")

// ErrApiNotLockHolder maps to 403: the caller does not hold the lease.
var ErrApiNotLockHolder = errors.New("project lock not held by caller")

func HandleHttpError(w http.ResponseWriter, err error) {
	var code int

	switch {
	case errors.Is(err, ErrApiBadRequest):
		code = http.StatusBadRequest

	case errors.Is(err, ErrApiUnauthorized):
		code = http.StatusUnauthorized

	case errors.Is(err, ErrApiNotLockHolder):
		code = http.StatusForbidden

	case errors.Is(err, ErrApiNotFound):
		code = http.StatusNotFound

	case errors.Is(err, ErrApiLockConflict):
		code = http.StatusConflict

	case errors.Is(err, ErrApiUnsupportedMediaType):
		code = http.StatusUnsupportedMediaType

	case errors.Is(err, ErrApiArchiveUnavailable):
		code = http.StatusUnprocessableEntity

	default:
		code = http.StatusInternalServerError
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "internal server error"
	}

	logging.Logger.Errorf("HTTP Error: %d %s", code, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
