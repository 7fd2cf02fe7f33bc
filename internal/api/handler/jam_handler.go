package handler

import (
	"encoding/json"
	"net/http"

	"chimu/internal/api/middleware"
	"chimu/internal/app/service"
	"chimu/internal/common"
	"chimu/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type JamHandler struct {
	jamService         *service.JamService
	leaderboardService *service.LeaderboardService
}

func NewJamHandler(jamService *service.JamService, leaderboardService *service.LeaderboardService) *JamHandler {
	return &JamHandler{jamService: jamService, leaderboardService: leaderboardService}
}

func (h *JamHandler) RegisterRoutes(r chi.Router) {
	// Public reads
	r.Get("/", h.listJams)
	r.Get("/{jamID}", h.getJam)
	r.Get("/{jamID}/leaderboard", h.getLeaderboard)
	r.Get("/{jamID}/judges", h.listJudges)

	// Authenticated writes
	r.Group(func(auth chi.Router) {
		auth.Use(middleware.Authenticator)
		auth.Post("/", h.createJam)
		auth.Patch("/{jamID}", h.updateJam)
		auth.Post("/{jamID}/cancel", h.cancelJam)
		auth.Post("/{jamID}/criteria", h.addCriteria)
		auth.Patch("/criteria/{criteriaID}", h.updateCriteria)
		auth.Delete("/criteria/{criteriaID}", h.deleteCriteria)
		auth.Post("/{jamID}/judges/{judgeID}", h.assignJudge)
		auth.Delete("/{jamID}/judges/{judgeID}", h.removeJudge)
	})
}

func (h *JamHandler) createJam(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CreateJamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	jam, err := h.jamService.CreateJam(r.Context(), userID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, jam)
}

func (h *JamHandler) getJam(w http.ResponseWriter, r *http.Request) {
	jam, err := h.jamService.GetJam(r.Context(), chi.URLParam(r, "jamID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, jam)
}

func (h *JamHandler) listJams(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	status := model.JamStatus(r.URL.Query().Get("status"))

	jams, total, err := h.jamService.ListJams(r.Context(), limit, offset, status)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"jams":  jams,
		"total": total,
	})
}

func (h *JamHandler) updateJam(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.UpdateJamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	jam, err := h.jamService.UpdateJam(r.Context(), chi.URLParam(r, "jamID"), userID, role, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, jam)
}

func (h *JamHandler) cancelJam(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	jam, err := h.jamService.CancelJam(r.Context(), chi.URLParam(r, "jamID"), userID, role)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, jam)
}

func (h *JamHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboardService.ComputeLeaderboard(r.Context(), chi.URLParam(r, "jamID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, lb)
}

func (h *JamHandler) addCriteria(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CriteriaInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	c, err := h.jamService.AddCriteria(r.Context(), chi.URLParam(r, "jamID"), userID, role, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, c)
}

func (h *JamHandler) updateCriteria(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req service.CriteriaInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	c, err := h.jamService.UpdateCriteria(r.Context(), chi.URLParam(r, "criteriaID"), userID, role, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, c)
}

func (h *JamHandler) deleteCriteria(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.jamService.DeleteCriteria(r.Context(), chi.URLParam(r, "criteriaID"), userID, role); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JamHandler) assignJudge(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	jj, err := h.jamService.AssignJudge(r.Context(), chi.URLParam(r, "jamID"), chi.URLParam(r, "judgeID"), userID, role)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, jj)
}

func (h *JamHandler) removeJudge(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.jamService.RemoveJudge(r.Context(), chi.URLParam(r, "jamID"), chi.URLParam(r, "judgeID"), userID, role); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JamHandler) listJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := h.jamService.ListJudges(r.Context(), chi.URLParam(r, "jamID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, judges)
}
