package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/service"
)

type AmenityHandler struct {
	resource
}

func NewAmenityHandler(facade *service.Facade, logger *slog.Logger) *AmenityHandler {
	return &AmenityHandler{resource{facade: facade, logger: logger}}
}

type amenityRequest struct {
	Name *string `json:"name"`
}

// HTTP: POST /api/v1/amenities
func (h *AmenityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req amenityRequest
	if !h.decode(w, r, &req) {
		return
	}

	var name string
	if req.Name != nil {
		name = *req.Name
	}

	a, err := h.facade.CreateAmenity(r.Context(), auth.ActorFromContext(r.Context()), service.CreateAmenityInput{Name: name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HTTP: PUT /api/v1/amenities/{id}
func (h *AmenityHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req amenityRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.facade.UpdateAmenity(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateAmenityInput{Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HTTP: GET /api/v1/amenities/{id}
func (h *AmenityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.facade.GetAmenity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HTTP: GET /api/v1/amenities
func (h *AmenityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	amenities, err := h.facade.ListAmenities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amenities)
}
