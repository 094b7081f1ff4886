package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/middlewares"
	"github.com/karstforge/speleosync/internal/utils/apiError"
)

// AcquireLock grants or refreshes the project lease for the calling user.
// The lease lives in the kv store with a TTL; a holder that stops refreshing
// loses it on expiry without any cleanup pass.
func (h *Handler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := h.lockRequest(r)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	holder, held, err := h.Kv.Get(r.Context(), lockKey(projectID))
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}
	if held && holder != user {
		apiError.HandleHttpError(w, fmt.Errorf("project %s is locked by %s: %w", projectID, holder, apiError.ErrApiLockConflict))
		return
	}

	err = h.Kv.Set(r.Context(), lockKey(projectID), user, kv.WithExpiration(h.LockTtl))
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	writeJson(w, http.StatusOK, api.LockResponse{
		ProjectID: projectID,
		ExpiresAt: h.Clock.Now().Add(h.LockTtl),
	})
}

// ReleaseLock gives the lease back. A caller that does not hold the lease
// gets a 403 and the lease is left untouched; there is no force-unlock.
func (h *Handler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	user, projectID, err := h.lockRequest(r)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	holder, held, err := h.Kv.Get(r.Context(), lockKey(projectID))
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}
	if !held || holder != user {
		apiError.HandleHttpError(w, fmt.Errorf("cannot release project %s: %w", projectID, apiError.ErrApiNotLockHolder))
		return
	}

	err = h.Kv.Delete(r.Context(), lockKey(projectID))
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	writeJson(w, http.StatusOK, api.LockResponse{ProjectID: projectID})
}

func (h *Handler) lockRequest(r *http.Request) (user, projectID string, err error) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		return "", "", fmt.Errorf("no authenticated user on request: %w", apiError.ErrApiUnauthorized)
	}

	projectID = mux.Vars(r)["project"]
	_, found, err := h.Store.Project(projectID)
	if err != nil {
		return "", "", err
	}
	if !found {
		return "", "", apiError.ErrApiProjectNotFound
	}

	return user, projectID, nil
}
