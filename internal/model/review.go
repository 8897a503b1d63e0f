package model

import "strings"

// Review is a rating left by a user on a place. PlaceID and UserID never
// change after creation.
type Review struct {
	CommonFields
	Text    string `json:"text" validate:"required,max=500"`
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	PlaceID string `json:"place_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

func NewReview(text string, rating int, placeID, userID string) (*Review, error) {
	r := &Review{
		CommonFields: newCommonFields(),
		Text:         strings.TrimSpace(text),
		Rating:       rating,
		PlaceID:      strings.TrimSpace(placeID),
		UserID:       strings.TrimSpace(userID),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Review) Validate() error {
	return check(r)
}

type ReviewSummary struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	UserID string `json:"user_id"`
}

func (r Review) Summary() ReviewSummary {
	return ReviewSummary{ID: r.ID, Text: r.Text, Rating: r.Rating, UserID: r.UserID}
}
