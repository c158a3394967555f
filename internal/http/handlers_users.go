package httpx

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/levelup/storefront/internal/domain/model"
	"github.com/levelup/storefront/internal/service"
)

// UserHandlers handles admin user directory requests.
type UserHandlers struct {
	Svc *service.UserService
}

// List handles GET /api/users.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := 0, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = n
		}
	}

	users, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if users == nil {
		users = []*model.UserRecord{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Get handles GET /api/users/{email}.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.Svc.GetByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// Create handles POST /api/users.
func (h *UserHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.UserRecord
	if !DecodeJSON(w, r, &req) {
		return
	}

	created, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/users/{email}.
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	updated, err := h.Svc.Update(r.Context(), r.PathValue("email"), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/users/{email}.
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Svc.Delete(r.Context(), r.PathValue("email"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errNotFound("user"),
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func errNotFound(what string) error {
	return fmt.Errorf("%s not found", what)
}
