package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/service"
)

type ReviewHandler struct {
	resource
}

func NewReviewHandler(facade *service.Facade, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{resource{facade: facade, logger: logger}}
}

type createReviewRequest struct {
	Text    string `json:"text"`
	Rating  int    `json:"rating"`
	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
}

type updateReviewRequest struct {
	Text    *string `json:"text"`
	Rating  *int    `json:"rating"`
	PlaceID *string `json:"place_id"`
	UserID  *string `json:"user_id"`
}

// HTTP: POST /api/v1/reviews
// REQUEST BODY: {"text":"Great stay","rating":5,"place_id":"<id>"}
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	rev, err := h.facade.CreateReview(r.Context(), auth.ActorFromContext(r.Context()), service.CreateReviewInput{
		Text:    req.Text,
		Rating:  req.Rating,
		PlaceID: req.PlaceID,
		UserID:  req.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

// HTTP: PUT /api/v1/reviews/{id}
func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	rev, err := h.facade.UpdateReview(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id"), service.UpdateReviewInput{
		Text:    req.Text,
		Rating:  req.Rating,
		PlaceID: req.PlaceID,
		UserID:  req.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// HTTP: DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.facade.DeleteReview(r.Context(), auth.ActorFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HTTP: GET /api/v1/reviews/{id}
func (h *ReviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rev, err := h.facade.GetReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// HTTP: GET /api/v1/reviews
func (h *ReviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.facade.ListReviews(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
