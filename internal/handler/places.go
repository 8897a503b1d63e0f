package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/service"
)

type PlaceHandler struct {
	resource
}

func NewPlaceHandler(facade *service.Facade, logger *slog.Logger) *PlaceHandler {
	return &PlaceHandler{resource{facade: facade, logger: logger}}
}

type createPlaceRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	OwnerID     string   `json:"owner_id"`
	Amenities   []string `json:"amenities"`
}

type updatePlaceRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	OwnerID     *string   `json:"owner_id"`
	Amenities   *[]string `json:"amenities"`
}

type placeAmenitiesRequest struct {
	Amenities []string `json:"amenities"`
}

// HandleCreate creates a place and links the listed amenities.
//
// HTTP: POST /api/v1/places
// REQUEST BODY: {"title":"Loft","price":120.5,"latitude":48.85,"longitude":2.35,"amenities":["<id>"]}
func (h *PlaceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.facade.CreatePlace(r.Context(), auth.ActorFromContext(r.Context()), service.CreatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		OwnerID:     req.OwnerID,
		AmenityIDs:  req.Amenities,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HTTP: PUT /api/v1/places/{id}
func (h *PlaceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updatePlaceRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.facade.UpdatePlace(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		OwnerID:     req.OwnerID,
		AmenityIDs:  req.Amenities,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleAddAmenities links more amenities to a place and returns its detail.
//
// HTTP: POST /api/v1/places/{id}/amenities
// REQUEST BODY: {"amenities":["<id>","<id>"]}
func (h *PlaceHandler) HandleAddAmenities(w http.ResponseWriter, r *http.Request) {
	var req placeAmenitiesRequest
	if !h.decode(w, r, &req) {
		return
	}

	detail, err := h.facade.AddPlaceAmenities(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), req.Amenities)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HTTP: DELETE /api/v1/places/{id}
// 204 No Content on success.
func (h *PlaceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.facade.DeletePlace(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet returns the place with its owner, amenities and reviews.
//
// HTTP: GET /api/v1/places/{id}
func (h *PlaceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.facade.GetPlace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HTTP: GET /api/v1/places
func (h *PlaceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	places, err := h.facade.ListPlaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

// HTTP: GET /api/v1/places/{id}/reviews
func (h *PlaceHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.facade.ListPlaceReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
