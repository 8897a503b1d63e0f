// Package repository defines the persistence contracts the service layer
// depends on. Implementations live in the sqlite and memory sub-packages.
package repository

import (
	"context"

	"github.com/sakif/listings/internal/model"
)

// Fields is a partial set of column values for Update, keyed by column name.
type Fields map[string]any

// Repository is the generic persistence contract shared by every entity.
//
// Missing ids are reported as apperror.ErrNotFound by Get, Update, Delete and
// GetByAttribute. Attribute names must be known columns of the entity.
type Repository[T any] interface {
	Add(ctx context.Context, entity *T) error
	Get(ctx context.Context, id string) (*T, error)
	GetAll(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	GetByAttribute(ctx context.Context, name string, value any) (*T, error)
	ListByAttribute(ctx context.Context, name string, value any) ([]T, error)
	Count(ctx context.Context) (int, error)
}

// PlaceAmenityRepository stores the place/amenity join facts.
type PlaceAmenityRepository interface {
	// Link is idempotent: linking an existing pair is a no-op.
	Link(ctx context.Context, placeID, amenityID string) error
	AmenityIDs(ctx context.Context, placeID string) ([]string, error)
	UnlinkPlace(ctx context.Context, placeID string) error
}

// Store groups the repositories of one backing store.
//
// WithinTx runs fn with a Store whose repositories all share one
// transaction: if fn returns an error nothing it wrote is kept.
type Store interface {
	Users() Repository[model.User]
	Amenities() Repository[model.Amenity]
	Places() Repository[model.Place]
	Reviews() Repository[model.Review]
	PlaceAmenities() PlaceAmenityRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
