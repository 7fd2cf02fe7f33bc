package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chimu/internal/api/middleware"
	"chimu/internal/app/service"
	"chimu/internal/common"
	"chimu/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/", h.createProject)
	r.Get("/{projectID}", h.getProject)
	r.Get("/jam/{jamID}", h.listByJam)
	r.Post("/{projectID}/submit", h.submit)
	r.Post("/{projectID}/return-to-draft", h.returnToDraft)
	r.Post("/{projectID}/start-review", h.startReview)
	r.Post("/{projectID}/publish", h.publish)
	r.Post("/{projectID}/disqualify", h.disqualify)
}

// versionRequest carries the optimistic version the client last saw; a stale
// value is rejected with 409 instead of silently overwriting.
type versionRequest struct {
	Version int `json:"version"`
}

func (h *ProjectHandler) createProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), userID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projectService.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) listByJam(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListByJam(r.Context(), chi.URLParam(r, "jamID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req versionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	project, err := h.projectService.Submit(r.Context(), chi.URLParam(r, "projectID"), req.Version, userID, time.Now().UTC())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) returnToDraft(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, h.projectService.ReturnToDraft)
}

func (h *ProjectHandler) startReview(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, h.projectService.StartReview)
}

func (h *ProjectHandler) publish(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, h.projectService.Publish)
}

func (h *ProjectHandler) disqualify(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, h.projectService.Disqualify)
}

type projectTransitionFunc func(ctx context.Context, projectID string, version int, requesterID, requesterRole string) (*model.Project, error)

func (h *ProjectHandler) adminTransition(w http.ResponseWriter, r *http.Request, fn projectTransitionFunc) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req versionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	project, err := fn(r.Context(), chi.URLParam(r, "projectID"), req.Version, userID, role)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, project)
}
