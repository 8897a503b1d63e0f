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

type CreateAmenityInput struct {
	Name string
}

type UpdateAmenityInput struct {
	Name *string
}

// CreateAmenity adds an amenity to the catalogue. Admin only; names are
// unique.
func (f *Facade) CreateAmenity(ctx context.Context, actor *policy.Actor, in CreateAmenityInput) (*model.Amenity, error) {
	var created *model.Amenity

	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		if err := authorize(actor, policy.CreateAmenity, policy.Target{}); err != nil {
			return err
		}

		a, err := model.NewAmenity(in.Name)
		if err != nil {
			return err
		}
		if err := ensureAmenityNameFree(ctx, s, a.Name, ""); err != nil {
			return err
		}
		if err := s.Amenities().Add(ctx, a); err != nil {
			return duplicateName(err)
		}

		created = a
		return nil
	})
	if err != nil {
		return nil, f.fail("create amenity", err)
	}

	f.logger.Info("amenity created",
		slog.String("id", created.ID),
		slog.String("name", created.Name),
	)
	return created, nil
}

// UpdateAmenity renames an amenity. Admin only.
func (f *Facade) UpdateAmenity(ctx context.Context, actor *policy.Actor, id string, in UpdateAmenityInput) (*model.Amenity, error) {
	var updated *model.Amenity

	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		if err := authorize(actor, policy.UpdateAmenity, policy.Target{}); err != nil {
			return err
		}

		a, err := s.Amenities().Get(ctx, id)
		if err != nil {
			return err
		}

		if in.Name != nil {
			next := *a
			next.Name = strings.TrimSpace(*in.Name)
			if err := next.Validate(); err != nil {
				return err
			}
			if next.Name != a.Name {
				if err := ensureAmenityNameFree(ctx, s, next.Name, a.ID); err != nil {
					return err
				}
				if err := s.Amenities().Update(ctx, id, repository.Fields{"name": next.Name}); err != nil {
					return duplicateName(err)
				}
			}
		}

		updated, err = s.Amenities().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, f.fail("update amenity", err)
	}

	f.logger.Info("amenity updated", slog.String("id", updated.ID))
	return updated, nil
}

func (f *Facade) GetAmenity(ctx context.Context, id string) (*model.Amenity, error) {
	a, err := f.store.Amenities().Get(ctx, id)
	if err != nil {
		return nil, f.fail("get amenity", err)
	}
	return a, nil
}

func (f *Facade) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	amenities, err := f.store.Amenities().GetAll(ctx)
	if err != nil {
		return nil, f.fail("list amenities", err)
	}
	return amenities, nil
}

func ensureAmenityNameFree(ctx context.Context, s repository.Store, name, selfID string) error {
	existing, err := s.Amenities().GetByAttribute(ctx, "name", name)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return apperror.Conflict(apperror.ErrDuplicateName, "name", "amenity name already in use")
	}
	return nil
}

func duplicateName(err error) error {
	if errors.Is(err, apperror.ErrConflict) && !errors.Is(err, apperror.ErrDuplicateName) {
		return apperror.Conflict(apperror.ErrDuplicateName, "name", "amenity name already in use")
	}
	return err
}
