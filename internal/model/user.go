package model

import (
	"strings"

	"github.com/sakif/listings/internal/apperror"
)

// PasswordHasher is the password primitive the User entity depends on.
// auth.PasswordService satisfies it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// User is a registered account. A user owns places and authors reviews.
//
// PasswordHash is tagged json:"-" so no serialization of a User can leak it;
// use PublicView for API responses anyway, it is the documented projection.
type User struct {
	CommonFields
	FirstName    string `json:"first_name" validate:"required,max=50"`
	LastName     string `json:"last_name" validate:"required,max=50"`
	Email        string `json:"email" validate:"required,email,max=120"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin"`
}

// NewUser builds a validated user and hashes password with hasher.
// The email is stored trimmed and lower-cased.
func NewUser(firstName, lastName, email, password string, isAdmin bool, hasher PasswordHasher) (*User, error) {
	u := &User{
		CommonFields: newCommonFields(),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        NormalizeEmail(email),
		IsAdmin:      isAdmin,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := u.SetPassword(password, hasher); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Validate() error {
	return check(u)
}

// SetPassword replaces the stored hash. An empty password is rejected.
func (u *User) SetPassword(password string, hasher PasswordHasher) error {
	if password == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string, hasher PasswordHasher) bool {
	if u.PasswordHash == "" || password == "" {
		return false
	}
	return hasher.Verify(u.PasswordHash, password) == nil
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserView is the public projection of a User.
type UserView struct {
	CommonFields
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
}

func (u User) PublicView() UserView {
	return UserView{
		CommonFields: u.CommonFields,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		IsAdmin:      u.IsAdmin,
	}
}

// UserSummary is the nested form used inside other entities' views.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// UserViews projects a slice of users.
func UserViews(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.PublicView())
	}
	return views
}
