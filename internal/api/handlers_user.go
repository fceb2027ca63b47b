package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/krishisahai/sahai/internal/api/respond"
	"github.com/krishisahai/sahai/internal/api/validate"
	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

// CreateUser handles POST /v0/users. Sign-up is the one unauthenticated
// write in the API.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Location  string `json:"location"`
		AvatarURL string `json:"avatarUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CreateUser(in.Name, in.Email, in.Location); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.CreateUser(r.Context(), &model.User{
		Name:      in.Name,
		Email:     in.Email,
		Location:  in.Location,
		AvatarURL: in.AvatarURL,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetUser handles GET /v0/users/{userId}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// Me handles GET /v0/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, actorFrom(r.Context()))
}

// ListUsers handles GET /v0/users. Admin only.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r.Context()).IsAdmin {
		respond.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}
	list, err := h.svc.ListUsers(r.Context())
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"users": list, "count": len(list)})
}

// DeleteUser handles DELETE /v0/users/{userId}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), actorFrom(r.Context()), mux.Vars(r)["userId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
