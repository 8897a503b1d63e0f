// Package policy decides whether an actor may perform an action.
//
// Decide is a pure function of (actor, action, target): it never loads data.
// The service layer fetches whatever the target needs (owner id, author id)
// and layers field-level restrictions on top of the decision.
package policy

import (
	"github.com/sakif/listings/internal/apperror"
)

// Actor is the authenticated caller. A nil *Actor is an anonymous caller.
type Actor struct {
	ID      string
	IsAdmin bool
}

type Action string

const (
	CreateUser    Action = "user:create"
	UpdateUser    Action = "user:update"
	CreateAmenity Action = "amenity:create"
	UpdateAmenity Action = "amenity:update"
	CreatePlace   Action = "place:create"
	UpdatePlace   Action = "place:update"
	DeletePlace   Action = "place:delete"
	LinkAmenities Action = "place:link-amenities"
	CreateReview  Action = "review:create"
	UpdateReview  Action = "review:update"
	DeleteReview  Action = "review:delete"
)

// Target describes the entity an action applies to. Only the fields the
// action needs are read:
//
//	UpdateUser                                   ID (the user being edited)
//	CreatePlace, UpdatePlace, DeletePlace,
//	LinkAmenities                                OwnerID
//	CreateReview                                 AuthorID, OwnerID (of the place)
//	UpdateReview, DeleteReview                   AuthorID
type Target struct {
	ID       string
	OwnerID  string
	AuthorID string
}

// Decision is the outcome of Decide. Reason is nil when Allowed and
// otherwise a sentinel from apperror (ErrUnauthorized or an ErrForbidden
// sub-reason).
type Decision struct {
	Allowed bool
	Reason  error
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason error) Decision { return Decision{Reason: reason} }

// Decide applies the authorization matrix.
func Decide(actor *Actor, action Action, target Target) Decision {
	if actor == nil || actor.ID == "" {
		return deny(apperror.ErrUnauthorized)
	}
	if actor.IsAdmin {
		return allow()
	}

	switch action {
	case CreateUser, CreateAmenity, UpdateAmenity:
		return deny(apperror.ErrAdminRequired)

	case UpdateUser:
		return allowIf(actor.ID == target.ID)

	case CreatePlace, UpdatePlace, DeletePlace, LinkAmenities:
		return allowIf(actor.ID == target.OwnerID)

	case CreateReview:
		if actor.ID != target.AuthorID {
			return deny(apperror.ErrNotOwner)
		}
		if target.AuthorID == target.OwnerID {
			return deny(apperror.ErrSelfReview)
		}
		return allow()

	case UpdateReview, DeleteReview:
		return allowIf(actor.ID == target.AuthorID)
	}

	return deny(apperror.ErrForbidden)
}

func allowIf(ok bool) Decision {
	if ok {
		return allow()
	}
	return deny(apperror.ErrNotOwner)
}

// Err converts a denial into an *apperror.AppError with a readable message,
// or returns nil when the decision allows.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == apperror.ErrUnauthorized {
		return apperror.Unauthorized("authentication required")
	}
	return apperror.Forbidden(d.Reason, messages[d.Reason])
}

var messages = map[error]string{
	apperror.ErrAdminRequired: "admin privileges required",
	apperror.ErrNotOwner:      "unauthorized action",
	apperror.ErrSelfReview:    "you cannot review your own place",
	apperror.ErrForbidden:     "action not permitted",
}
