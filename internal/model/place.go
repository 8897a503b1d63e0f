package model

import "strings"

// Place is a rental listing owned by exactly one user.
type Place struct {
	CommonFields
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	OwnerID     string  `json:"owner_id" validate:"required"`
}

func NewPlace(title, description string, price, latitude, longitude float64, ownerID string) (*Place, error) {
	p := &Place{
		CommonFields: newCommonFields(),
		Title:        strings.TrimSpace(title),
		Description:  strings.TrimSpace(description),
		Price:        price,
		Latitude:     latitude,
		Longitude:    longitude,
		OwnerID:      strings.TrimSpace(ownerID),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Place) Validate() error {
	return check(p)
}

// PlaceDetail is the read model returned for a single place: the place with
// its owner, amenities and reviews resolved.
type PlaceDetail struct {
	Place
	Owner     *UserSummary     `json:"owner"`
	Amenities []AmenitySummary `json:"amenities"`
	Reviews   []ReviewSummary  `json:"reviews"`
}

// Detail assembles a PlaceDetail. owner may be nil if the owner row is gone.
func (p Place) Detail(owner *User, amenities []Amenity, reviews []Review) PlaceDetail {
	d := PlaceDetail{
		Place:     p,
		Amenities: make([]AmenitySummary, 0, len(amenities)),
		Reviews:   make([]ReviewSummary, 0, len(reviews)),
	}
	if owner != nil {
		s := owner.Summary()
		d.Owner = &s
	}
	for _, a := range amenities {
		d.Amenities = append(d.Amenities, a.Summary())
	}
	for _, r := range reviews {
		d.Reviews = append(d.Reviews, r.Summary())
	}
	return d
}
