package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/policy"
	"github.com/sakif/listings/internal/repository"
)

// CreateReviewInput describes a new review. An empty UserID means the actor
// is the author.
type CreateReviewInput struct {
	Text    string
	Rating  int
	PlaceID string
	UserID  string
}

// UpdateReviewInput carries the fields to change. PlaceID and UserID are
// accepted only when they repeat the stored values.
type UpdateReviewInput struct {
	Text    *string
	Rating  *int
	PlaceID *string
	UserID  *string
}

// CreateReview stores a review.
//
// CHECK ORDER:
//  1. the place exists            (ErrPlaceNotFound)
//  2. the author exists           (ErrUserNotFound)
//  3. the policy allows it        (ErrNotOwner, ErrSelfReview)
//  4. no earlier review by author (ErrDuplicateReview, not applied to admins)
func (f *Facade) CreateReview(ctx context.Context, actor *policy.Actor, in CreateReviewInput) (*model.Review, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	placeID := strings.TrimSpace(in.PlaceID)
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = actor.ID
	}

	var created *model.Review
	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		place, err := resolve(ctx, s.Places(), placeID, apperror.ErrPlaceNotFound, "place_id")
		if err != nil {
			return err
		}
		if _, err := resolve(ctx, s.Users(), userID, apperror.ErrUserNotFound, "user_id"); err != nil {
			return err
		}
		target := policy.Target{AuthorID: userID, OwnerID: place.OwnerID}
		if err := authorize(actor, policy.CreateReview, target); err != nil {
			return err
		}

		if !actor.IsAdmin {
			existing, err := s.Reviews().ListByAttribute(ctx, "place_id", placeID)
			if err != nil {
				return err
			}
			for _, r := range existing {
				if r.UserID == userID {
					return apperror.Forbidden(apperror.ErrDuplicateReview, "you have already reviewed this place")
				}
			}
		}

		r, err := model.NewReview(in.Text, in.Rating, placeID, userID)
		if err != nil {
			return err
		}
		if err := s.Reviews().Add(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, f.fail("create review", err)
	}

	f.logger.Info("review created",
		slog.String("id", created.ID),
		slog.String("place_id", created.PlaceID),
		slog.String("user_id", created.UserID),
	)
	return created, nil
}

// UpdateReview changes a review's text or rating. A review never moves to
// another place or author, whoever asks.
func (f *Facade) UpdateReview(ctx context.Context, actor *policy.Actor, id string, in UpdateReviewInput) (*model.Review, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	var updated *model.Review
	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		r, err := s.Reviews().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(actor, policy.UpdateReview, policy.Target{AuthorID: r.UserID}); err != nil {
			return err
		}

		if in.PlaceID != nil && strings.TrimSpace(*in.PlaceID) != r.PlaceID {
			return apperror.ImmutableField("place_id")
		}
		if in.UserID != nil && strings.TrimSpace(*in.UserID) != r.UserID {
			return apperror.ImmutableField("user_id")
		}

		next := *r
		fields := repository.Fields{}
		if in.Text != nil {
			next.Text = strings.TrimSpace(*in.Text)
			fields["text"] = next.Text
		}
		if in.Rating != nil {
			next.Rating = *in.Rating
			fields["rating"] = next.Rating
		}
		if err := next.Validate(); err != nil {
			return err
		}

		if len(fields) > 0 {
			if err := s.Reviews().Update(ctx, id, fields); err != nil {
				return err
			}
		}

		updated, err = s.Reviews().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, f.fail("update review", err)
	}

	f.logger.Info("review updated", slog.String("id", updated.ID))
	return updated, nil
}

func (f *Facade) DeleteReview(ctx context.Context, actor *policy.Actor, id string) error {
	if err := authenticated(actor); err != nil {
		return err
	}

	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		r, err := s.Reviews().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(actor, policy.DeleteReview, policy.Target{AuthorID: r.UserID}); err != nil {
			return err
		}
		return s.Reviews().Delete(ctx, id)
	})
	if err != nil {
		return f.fail("delete review", err)
	}

	f.logger.Info("review deleted", slog.String("id", id))
	return nil
}

func (f *Facade) GetReview(ctx context.Context, id string) (*model.Review, error) {
	r, err := f.store.Reviews().Get(ctx, id)
	if err != nil {
		return nil, f.fail("get review", err)
	}
	return r, nil
}

func (f *Facade) ListReviews(ctx context.Context) ([]model.Review, error) {
	reviews, err := f.store.Reviews().GetAll(ctx)
	if err != nil {
		return nil, f.fail("list reviews", err)
	}
	return reviews, nil
}
