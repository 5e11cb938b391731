package web

import (
	"net/http"

	"stockbook/internal/core"
)

// listUsers handles GET /api/users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// createUser handles POST /api/users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req core.NewUserInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// updateUser handles PUT /api/users/{username}.
func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req core.UpdateUserInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateUser(r.Context(), urlParam(r, "username"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// deleteUser handles DELETE /api/users/{username}.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), urlParam(r, "username")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changeOwnPassword handles POST /api/users/me/password — self-service
// password change for the authenticated user.
func (h *Handler) changeOwnPassword(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.Username, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
