package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/karstforge/speleosync/internal/utils"
	"github.com/karstforge/speleosync/internal/utils/apiError"
)

const maxArchiveBytes = 256 << 20

// UploadArchive accepts the multipart upload of a project archive. The
// caller must hold the project lease; the check here is the authoritative
// one, whatever the client believes locally.
func (h *Handler) UploadArchive(w http.ResponseWriter, r *http.Request) {
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
		apiError.HandleHttpError(w, fmt.Errorf("upload requires the project lock: %w", apiError.ErrApiNotLockHolder))
		return
	}

	err = r.ParseMultipartForm(maxArchiveBytes)
	if err != nil {
		apiError.HandleHttpError(w, fmt.Errorf("invalid multipart body: %s: %w", err, apiError.ErrApiBadRequest))
		return
	}

	file, _, err := r.FormFile("artifact")
	if err != nil {
		apiError.HandleHttpError(w, fmt.Errorf("missing artifact part: %w", apiError.ErrApiBadRequest))
		return
	}
	defer utils.IgnoreError(file.Close)

	data, err := io.ReadAll(file)
	if err != nil {
		apiError.HandleHttpError(w, fmt.Errorf("failed to read artifact: %w", err))
		return
	}

	err = h.Archives.Put(projectID, data)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	err = h.Store.TouchProject(projectID, h.Clock.Now())
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	project, _, err := h.Store.Project(projectID)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	writeJson(w, http.StatusOK, project)
}

// DownloadArchive streams the stored archive. Both an unknown project and a
// project that never had an upload answer 422, matching what desktop clients
// expect from the production backend.
func (h *Handler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["project"]

	_, found, err := h.Store.Project(projectID)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	var data []byte
	ok := false
	if found {
		data, ok, err = h.Archives.Get(projectID)
		if err != nil {
			apiError.HandleHttpError(w, err)
			return
		}
	}
	if !found || !ok {
		apiError.HandleHttpError(w, fmt.Errorf("no archive for project %s: %w", projectID, apiError.ErrApiArchiveUnavailable))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", projectID+".tml"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
