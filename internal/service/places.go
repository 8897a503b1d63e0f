package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/policy"
	"github.com/sakif/listings/internal/repository"
)

// CreatePlaceInput describes a new listing. An empty OwnerID means the
// actor owns the place.
type CreatePlaceInput struct {
	Title       string
	Description string
	Price       float64
	Latitude    float64
	Longitude   float64
	OwnerID     string
	AmenityIDs  []string
}

// UpdatePlaceInput carries the fields to change. AmenityIDs, when set, are
// added to the place's existing amenities.
type UpdatePlaceInput struct {
	Title       *string
	Description *string
	Price       *float64
	Latitude    *float64
	Longitude   *float64
	OwnerID     *string
	AmenityIDs  *[]string
}

// CreatePlace stores a place together with its amenity links. Either all of
// it is stored or, on any failure, none of it.
func (f *Facade) CreatePlace(ctx context.Context, actor *policy.Actor, in CreatePlaceInput) (*model.Place, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	ownerID := strings.TrimSpace(in.OwnerID)
	if ownerID == "" {
		ownerID = actor.ID
	}
	if err := authorize(actor, policy.CreatePlace, policy.Target{OwnerID: ownerID}); err != nil {
		return nil, err
	}

	p, err := model.NewPlace(in.Title, in.Description, in.Price, in.Latitude, in.Longitude, ownerID)
	if err != nil {
		return nil, err
	}

	var linked int
	err = f.store.WithinTx(ctx, func(s repository.Store) error {
		if _, err := resolve(ctx, s.Users(), ownerID, apperror.ErrOwnerNotFound, "owner_id"); err != nil {
			return err
		}
		amenityIDs, err := resolveAmenities(ctx, s, in.AmenityIDs)
		if err != nil {
			return err
		}
		if err := s.Places().Add(ctx, p); err != nil {
			return err
		}
		linked = len(amenityIDs)
		return linkAmenities(ctx, s, p.ID, amenityIDs)
	})
	if err != nil {
		return nil, f.fail("create place", err)
	}

	f.logger.Info("place created",
		slog.String("id", p.ID),
		slog.String("owner_id", p.OwnerID),
		slog.Int("amenities", linked),
	)
	return p, nil
}

// UpdatePlace changes a place. Only admins may hand a place to another
// owner. The new values are validated before anything is written, so a
// rejected update leaves the stored place as it was.
func (f *Facade) UpdatePlace(ctx context.Context, actor *policy.Actor, id string, in UpdatePlaceInput) (*model.Place, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	var updated *model.Place

	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		p, err := s.Places().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(actor, policy.UpdatePlace, policy.Target{OwnerID: p.OwnerID}); err != nil {
			return err
		}

		next := *p
		fields := repository.Fields{}

		if in.OwnerID != nil {
			ownerID := strings.TrimSpace(*in.OwnerID)
			if ownerID != p.OwnerID {
				if !actor.IsAdmin {
					return apperror.ForbiddenField("owner_id")
				}
				if _, err := resolve(ctx, s.Users(), ownerID, apperror.ErrOwnerNotFound, "owner_id"); err != nil {
					return err
				}
				next.OwnerID = ownerID
				fields["owner_id"] = ownerID
			}
		}
		if in.Title != nil {
			next.Title = strings.TrimSpace(*in.Title)
			fields["title"] = next.Title
		}
		if in.Description != nil {
			next.Description = strings.TrimSpace(*in.Description)
			fields["description"] = next.Description
		}
		if in.Price != nil {
			next.Price = *in.Price
			fields["price"] = next.Price
		}
		if in.Latitude != nil {
			next.Latitude = *in.Latitude
			fields["latitude"] = next.Latitude
		}
		if in.Longitude != nil {
			next.Longitude = *in.Longitude
			fields["longitude"] = next.Longitude
		}

		if err := next.Validate(); err != nil {
			return err
		}

		var amenityIDs []string
		if in.AmenityIDs != nil {
			if amenityIDs, err = resolveAmenities(ctx, s, *in.AmenityIDs); err != nil {
				return err
			}
		}

		if len(fields) > 0 {
			if err := s.Places().Update(ctx, id, fields); err != nil {
				return err
			}
		}
		if err := linkAmenities(ctx, s, id, amenityIDs); err != nil {
			return err
		}

		updated, err = s.Places().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, f.fail("update place", err)
	}

	f.logger.Info("place updated", slog.String("id", updated.ID))
	return updated, nil
}

// AddPlaceAmenities links amenities to a place. Links that already exist are
// left alone; an unknown amenity id rejects the whole batch.
func (f *Facade) AddPlaceAmenities(ctx context.Context, actor *policy.Actor, id string, amenityIDs []string) (*model.PlaceDetail, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if len(amenityIDs) == 0 {
		return nil, apperror.ValidationFailed("amenities", "amenities must list at least one amenity id")
	}

	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		p, err := s.Places().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(actor, policy.LinkAmenities, policy.Target{OwnerID: p.OwnerID}); err != nil {
			return err
		}
		ids, err := resolveAmenities(ctx, s, amenityIDs)
		if err != nil {
			return err
		}
		return linkAmenities(ctx, s, id, ids)
	})
	if err != nil {
		return nil, f.fail("add place amenities", err)
	}

	return f.GetPlace(ctx, id)
}

// DeletePlace removes a place, its reviews and its amenity links in one
// transaction.
func (f *Facade) DeletePlace(ctx context.Context, actor *policy.Actor, id string) error {
	if err := authenticated(actor); err != nil {
		return err
	}

	var removedReviews int
	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		p, err := s.Places().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(actor, policy.DeletePlace, policy.Target{OwnerID: p.OwnerID}); err != nil {
			return err
		}

		reviews, err := s.Reviews().ListByAttribute(ctx, "place_id", id)
		if err != nil {
			return err
		}
		for _, r := range reviews {
			if err := s.Reviews().Delete(ctx, r.ID); err != nil {
				return err
			}
		}
		removedReviews = len(reviews)

		if err := s.PlaceAmenities().UnlinkPlace(ctx, id); err != nil {
			return err
		}
		return s.Places().Delete(ctx, id)
	})
	if err != nil {
		return f.fail("delete place", err)
	}

	f.logger.Info("place deleted",
		slog.String("id", id),
		slog.Int("reviews_removed", removedReviews),
	)
	return nil
}

// GetPlace returns the place with its owner, amenities and reviews. An owner
// or amenity that has since disappeared is left out of the projection.
func (f *Facade) GetPlace(ctx context.Context, id string) (*model.PlaceDetail, error) {
	p, err := f.store.Places().Get(ctx, id)
	if err != nil {
		return nil, f.fail("get place", err)
	}

	owner, err := f.store.Users().Get(ctx, p.OwnerID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, f.fail("get place", err)
	}

	amenityIDs, err := f.store.PlaceAmenities().AmenityIDs(ctx, id)
	if err != nil {
		return nil, f.fail("get place", err)
	}
	amenities := make([]model.Amenity, 0, len(amenityIDs))
	for _, aid := range amenityIDs {
		a, err := f.store.Amenities().Get(ctx, aid)
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, f.fail("get place", err)
		}
		amenities = append(amenities, *a)
	}

	reviews, err := f.store.Reviews().ListByAttribute(ctx, "place_id", id)
	if err != nil {
		return nil, f.fail("get place", err)
	}

	detail := p.Detail(owner, amenities, reviews)
	return &detail, nil
}

func (f *Facade) ListPlaces(ctx context.Context) ([]model.Place, error) {
	places, err := f.store.Places().GetAll(ctx)
	if err != nil {
		return nil, f.fail("list places", err)
	}
	return places, nil
}

// ListPlaceReviews returns the reviews of placeID.
func (f *Facade) ListPlaceReviews(ctx context.Context, placeID string) ([]model.Review, error) {
	if _, err := f.store.Places().Get(ctx, placeID); err != nil {
		return nil, f.fail("list place reviews", err)
	}
	reviews, err := f.store.Reviews().ListByAttribute(ctx, "place_id", placeID)
	if err != nil {
		return nil, f.fail("list place reviews", err)
	}
	return reviews, nil
}
