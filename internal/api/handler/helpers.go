package handler

import (
	"net/http"
	"strconv"

	"chimu/internal/api/middleware"
)

func requesterFromContext(r *http.Request) (userID, role string, ok bool) {
	userID, ok = middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	role, ok = middleware.GetUserRoleFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	return userID, role, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return fallback
}
