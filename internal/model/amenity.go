package model

import "strings"

// Amenity is a named feature ("Wi-Fi", "Pool") that places can offer.
// Names are unique; the service layer enforces that.
type Amenity struct {
	CommonFields
	Name string `json:"name" validate:"required,max=50"`
}

func NewAmenity(name string) (*Amenity, error) {
	a := &Amenity{
		CommonFields: newCommonFields(),
		Name:         strings.TrimSpace(name),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Amenity) Validate() error {
	return check(a)
}

type AmenitySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (a Amenity) Summary() AmenitySummary {
	return AmenitySummary{ID: a.ID, Name: a.Name}
}
