package httpx

import (
	"net/http"

	domainsession "github.com/levelup/storefront/internal/domain/session"
	"github.com/levelup/storefront/internal/ports"
	"github.com/levelup/storefront/internal/service"
)

// SessionHandlers handles session lifecycle requests.
type SessionHandlers struct {
	Registry *service.StoreRegistry
}

type sessionResponse struct {
	Active bool `json:"active"`
	domainsession.Session
}

func newSessionResponse(sess domainsession.Session) sessionResponse {
	return sessionResponse{Active: sess.Active(), Session: sess}
}

func (h *SessionHandlers) store(r *http.Request) *service.SessionCartStore {
	return h.Registry.ForClient(r.Context(), ClientIDFromRequest(r))
}

// Get handles GET /api/session.
func (h *SessionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, newSessionResponse(h.store(r).Session()))
}

// Login handles POST /api/session/login.
func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req ports.Credentials
	if !DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.store(r).Login(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, newSessionResponse(sess))
}

// Logout handles POST /api/session/logout.
func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store(r).Logout(r.Context()); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
