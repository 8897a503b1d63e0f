// Package service contains the business logic of the listing backend.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → authorizes, validates, orchestrates
//	Repository (Data layer)  → reads/writes entities
//
// Facade is the only component that combines entities, repositories and the
// authorization policy. It is built once in server.go and handed to the
// handlers; there is no package-level instance.
//
// TRANSACTIONS:
// Every mutating use case runs inside Store.WithinTx, so read-check-write
// sequences (email uniqueness, duplicate reviews, first-user bootstrap) and
// multi-row writes (place + amenity links, place delete + reviews) either
// land completely or not at all.
//
// ERRORS:
// Use cases return *apperror.AppError values. Anything else coming out of a
// repository is logged here and replaced by apperror.Internal, so handlers
// never leak driver messages.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/policy"
	"github.com/sakif/listings/internal/repository"
)

// Facade implements the use cases of the listing backend.
type Facade struct {
	store     repository.Store
	passwords model.PasswordHasher
	logger    *slog.Logger
}

// New creates a Facade over store. passwords hashes and verifies user
// passwords (auth.PasswordService in production).
func New(store repository.Store, passwords model.PasswordHasher, logger *slog.Logger) *Facade {
	return &Facade{
		store:     store,
		passwords: passwords,
		logger:    logger,
	}
}

// fail passes domain errors through and turns everything else into an
// opaque internal error after logging it. A domain error joined with a
// storage failure (a rollback that did not complete) counts as a storage
// failure.
func (f *Facade) fail(op string, err error) error {
	if err == nil || (apperror.IsKnown(err) && !storageFault(err)) {
		return err
	}
	f.logger.Error("use case failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return apperror.Internal(op, err)
}

// storageFault reports whether err joins any error that carries no domain
// kind. The search stops at each *apperror.AppError.
func storageFault(err error) bool {
	if _, ok := err.(*apperror.AppError); ok {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !apperror.IsKnown(e) || storageFault(e) {
				return true
			}
		}
		return false
	}
	if inner := errors.Unwrap(err); inner != nil {
		return storageFault(inner)
	}
	return false
}

// authorize applies the policy and returns the denial as an AppError.
func authorize(actor *policy.Actor, action policy.Action, target policy.Target) error {
	return policy.Decide(actor, action, target).Err()
}

// authenticated rejects anonymous callers before any data is read.
func authenticated(actor *policy.Actor) error {
	if actor == nil || actor.ID == "" {
		return apperror.Unauthorized("authentication required")
	}
	return nil
}

// resolve converts a NotFound from a lookup into the reference-specific
// sub-reason (owner, place, user, amenity).
func resolve[T any](ctx context.Context, repo repository.Repository[T], id string, reason error, field string) (*T, error) {
	e, err := repo.Get(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Missing(reason, field, id)
	}
	return e, err
}

// resolveAmenities checks every id exists and returns them deduplicated in
// first-seen order.
func resolveAmenities(ctx context.Context, s repository.Store, ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := resolve(ctx, s.Amenities(), id, apperror.ErrInvalidAmenity, "amenity_ids"); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func linkAmenities(ctx context.Context, s repository.Store, placeID string, amenityIDs []string) error {
	for _, id := range amenityIDs {
		if err := s.PlaceAmenities().Link(ctx, placeID, id); err != nil {
			return err
		}
	}
	return nil
}
