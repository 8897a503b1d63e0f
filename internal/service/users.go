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

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	IsAdmin   bool
}

// UpdateUserInput carries the fields to change. A nil pointer leaves the
// stored value alone.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	IsAdmin   *bool
}

// CreateUser registers a user.
//
// BOOTSTRAP:
// While the user table is empty anyone may create a user, and that first
// user is always an admin. From then on only admins create users.
func (f *Facade) CreateUser(ctx context.Context, actor *policy.Actor, in CreateUserInput) (*model.User, error) {
	// Hashing happens outside the transaction so the write lock is not held
	// for it. Callers that can never succeed are turned away first.
	n, err := f.store.Users().Count(ctx)
	if err != nil {
		return nil, f.fail("create user", err)
	}
	if n > 0 {
		if err := authorize(actor, policy.CreateUser, policy.Target{}); err != nil {
			return nil, err
		}
	}

	u, err := model.NewUser(in.FirstName, in.LastName, in.Email, in.Password, in.IsAdmin, f.passwords)
	if err != nil {
		return nil, f.fail("create user", err)
	}

	err = f.store.WithinTx(ctx, func(s repository.Store) error {
		n, err := s.Users().Count(ctx)
		if err != nil {
			return err
		}

		if n == 0 {
			u.IsAdmin = true
		} else if err := authorize(actor, policy.CreateUser, policy.Target{}); err != nil {
			return err
		}

		if err := ensureEmailFree(ctx, s, u.Email, ""); err != nil {
			return err
		}
		if err := s.Users().Add(ctx, u); err != nil {
			return duplicateEmail(err)
		}
		return nil
	})
	if err != nil {
		return nil, f.fail("create user", err)
	}

	f.logger.Info("user created",
		slog.String("id", u.ID),
		slog.Bool("is_admin", u.IsAdmin),
	)
	return u, nil
}

// UpdateUser changes a user's profile.
//
// Users may edit their own names. Email, password and the admin flag are
// admin-only: a non-admin sending a different value (or any password) gets
// ErrForbiddenField.
func (f *Facade) UpdateUser(ctx context.Context, actor *policy.Actor, id string, in UpdateUserInput) (*model.User, error) {
	var updated *model.User

	// Only admins may send a password; hash it before taking the write lock.
	// A hashing error is reported at the point the password is applied.
	var newHash string
	var hashErr error
	if in.Password != nil && actor != nil && actor.IsAdmin {
		var scratch model.User
		hashErr = scratch.SetPassword(*in.Password, f.passwords)
		newHash = scratch.PasswordHash
	}

	err := f.store.WithinTx(ctx, func(s repository.Store) error {
		if err := authorize(actor, policy.UpdateUser, policy.Target{ID: id}); err != nil {
			return err
		}

		u, err := s.Users().Get(ctx, id)
		if err != nil {
			return err
		}

		var email string
		if in.Email != nil {
			email = model.NormalizeEmail(*in.Email)
		}

		if !actor.IsAdmin {
			switch {
			case in.Email != nil && email != u.Email:
				return apperror.ForbiddenField("email")
			case in.Password != nil:
				return apperror.ForbiddenField("password")
			case in.IsAdmin != nil && *in.IsAdmin != u.IsAdmin:
				return apperror.ForbiddenField("is_admin")
			}
		}

		next := *u
		fields := repository.Fields{}

		if in.FirstName != nil {
			next.FirstName = strings.TrimSpace(*in.FirstName)
			fields["first_name"] = next.FirstName
		}
		if in.LastName != nil {
			next.LastName = strings.TrimSpace(*in.LastName)
			fields["last_name"] = next.LastName
		}
		if in.Email != nil && email != u.Email {
			next.Email = email
			fields["email"] = email
		}
		if in.IsAdmin != nil && *in.IsAdmin != u.IsAdmin {
			next.IsAdmin = *in.IsAdmin
			fields["is_admin"] = next.IsAdmin
		}

		if err := next.Validate(); err != nil {
			return err
		}
		if _, ok := fields["email"]; ok {
			if err := ensureEmailFree(ctx, s, next.Email, u.ID); err != nil {
				return err
			}
		}
		if in.Password != nil {
			if hashErr != nil {
				return hashErr
			}
			next.PasswordHash = newHash
			fields["password_hash"] = newHash
		}

		if len(fields) > 0 {
			if err := s.Users().Update(ctx, id, fields); err != nil {
				return duplicateEmail(err)
			}
		}

		updated, err = s.Users().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, f.fail("update user", err)
	}

	f.logger.Info("user updated", slog.String("id", updated.ID))
	return updated, nil
}

func (f *Facade) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := f.store.Users().Get(ctx, id)
	if err != nil {
		return nil, f.fail("get user", err)
	}
	return u, nil
}

func (f *Facade) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := f.store.Users().GetAll(ctx)
	if err != nil {
		return nil, f.fail("list users", err)
	}
	return users, nil
}

// ListUserPlaces returns the places owned by userID.
func (f *Facade) ListUserPlaces(ctx context.Context, userID string) ([]model.Place, error) {
	if _, err := f.store.Users().Get(ctx, userID); err != nil {
		return nil, f.fail("list user places", err)
	}
	places, err := f.store.Places().ListByAttribute(ctx, "owner_id", userID)
	if err != nil {
		return nil, f.fail("list user places", err)
	}
	return places, nil
}

// ListUserReviews returns the reviews written by userID.
func (f *Facade) ListUserReviews(ctx context.Context, userID string) ([]model.Review, error) {
	if _, err := f.store.Users().Get(ctx, userID); err != nil {
		return nil, f.fail("list user reviews", err)
	}
	reviews, err := f.store.Reviews().ListByAttribute(ctx, "user_id", userID)
	if err != nil {
		return nil, f.fail("list user reviews", err)
	}
	return reviews, nil
}

// ensureEmailFree fails with ErrDuplicateEmail when another user (not
// selfID) already holds email.
func ensureEmailFree(ctx context.Context, s repository.Store, email, selfID string) error {
	existing, err := s.Users().GetByAttribute(ctx, "email", email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return apperror.Conflict(apperror.ErrDuplicateEmail, "email", "email already registered")
	}
	return nil
}

// duplicateEmail maps a storage-level unique violation on users onto the
// email sub-reason. Ids are generated, so email is the only column that can
// collide.
func duplicateEmail(err error) error {
	if errors.Is(err, apperror.ErrConflict) && !errors.Is(err, apperror.ErrDuplicateEmail) {
		return apperror.Conflict(apperror.ErrDuplicateEmail, "email", "email already registered")
	}
	return err
}
