package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/karstforge/speleosync/api"
)

// Error taxonomy of the client engine. Expected business outcomes (lock
// conflict, release of a lock we do not hold) are reported as booleans by the
// operations themselves; everything here is a failure.
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAuthentication = errors.New("authentication failed")
var ErrNotAuthenticated = errors.New("not authenticated")
var ErrNetwork = errors.New("network failure")
var ErrTimeout = fmt.Errorf("request timed out: %w", ErrNetwork)
var ErrProjectNotFound = errors.New("project not found")
var ErrUpload = errors.New("upload failed")
var ErrDownload = errors.New("download failed")
var ErrLockRequired = errors.New("project lock not held by this client")
var ErrChecksumMismatch = errors.New("archive checksum mismatch")

// StatusError carries a non-2xx backend response. Statuses >= 500 are
// classified retryable, everything else is surfaced on first occurrence.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}

	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// newStatusError drains the response body for the backend's error message.
func newStatusError(resp *http.Response) *StatusError {
	var payload api.ErrorResponse
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		_ = json.Unmarshal(body, &payload)
	}

	message := payload.Error
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &StatusError{
		Status:  resp.StatusCode,
		Message: message,
	}
}
