package handler

import (
	"net/http"
	"time"

	"chimu/internal/api/middleware"
	"chimu/internal/app/service"
	"chimu/internal/common"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	lifecycleService *service.LifecycleService
}

func NewAdminHandler(lifecycleService *service.LifecycleService) *AdminHandler {
	return &AdminHandler{lifecycleService: lifecycleService}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.AdminOnly)
	r.Post("/lifecycle/sweep", h.runSweep)
}

// runSweep forces a lifecycle sweep outside the worker's schedule, e.g. right
// after an organizer shortened a jam's timeline.
func (h *AdminHandler) runSweep(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycleService.RunLifecycleSweep(r.Context(), time.Now().UTC()); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "sweep completed"})
}
