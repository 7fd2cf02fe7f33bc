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

type RegistrationHandler struct {
	regService *service.RegistrationService
}

func NewRegistrationHandler(regService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{regService: regService}
}

func (h *RegistrationHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Post("/{jamID}/teams/{teamID}", h.register)
	r.Post("/{jamID}/teams/{teamID}/withdraw", h.withdraw)
	r.Patch("/{jamID}/teams/{teamID}", h.updateStatus)
	r.Get("/{jamID}", h.listByJam)
}

func (h *RegistrationHandler) register(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reg, err := h.regService.Register(r.Context(), chi.URLParam(r, "jamID"), chi.URLParam(r, "teamID"), userID, role)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, reg)
}

func (h *RegistrationHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	reg, err := h.regService.Withdraw(r.Context(), chi.URLParam(r, "jamID"), chi.URLParam(r, "teamID"), userID, role)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, reg)
}

func (h *RegistrationHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := requesterFromContext(r)
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req struct {
		Status model.RegistrationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	reg, err := h.regService.UpdateStatus(r.Context(), chi.URLParam(r, "jamID"), chi.URLParam(r, "teamID"), req.Status, userID, role)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, reg)
}

func (h *RegistrationHandler) listByJam(w http.ResponseWriter, r *http.Request) {
	regs, err := h.regService.ListByJam(r.Context(), chi.URLParam(r, "jamID"))
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, regs)
}
