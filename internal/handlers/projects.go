package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/utils/apiError"
	"github.com/karstforge/speleosync/internal/utils/decoding"
	"github.com/karstforge/speleosync/internal/utils/validate"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.Projects()
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	writeJson(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var dto api.CreateProjectRequest
	err := decoding.HttpBodyAsJson(w, r, &dto)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	err = validate.Validate(dto)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	project := api.Project{
		ID:           uuid.NewString(),
		Name:         dto.Name,
		Description:  dto.Description,
		CountryCode:  dto.CountryCode,
		Latitude:     dto.Latitude,
		Longitude:    dto.Longitude,
		ModifiedDate: h.Clock.Now(),
	}

	err = h.Store.InsertProject(project)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	writeJson(w, http.StatusCreated, project)
}
