package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/service"
)

// UserHandler exposes the user use cases. Responses always go through
// model.UserView, so password hashes never leave the service.
type UserHandler struct {
	resource
}

func NewUserHandler(facade *service.Facade, logger *slog.Logger) *UserHandler {
	return &UserHandler{resource{facade: facade, logger: logger}}
}

type createUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
}

// updateUserRequest uses pointers so an absent key is distinguishable from
// an empty value.
type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	IsAdmin   *bool   `json:"is_admin"`
}

// HandleCreate registers a user.
//
// HTTP: POST /api/v1/users
// The route uses OptionalAuth: the very first user needs no token.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.facade.CreateUser(r.Context(), auth.ActorFromContext(r.Context()), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, u.PublicView())
}

// HandleUpdate changes a user.
//
// HTTP: PUT /api/v1/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.facade.UpdateUser(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u.PublicView())
}

// HTTP: GET /api/v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.facade.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u.PublicView())
}

// HTTP: GET /api/v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.facade.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.UserViews(users))
}

// HTTP: GET /api/v1/users/{id}/places
func (h *UserHandler) HandleListPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := h.facade.ListUserPlaces(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

// HTTP: GET /api/v1/users/{id}/reviews
func (h *UserHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.facade.ListUserReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
