package repository

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/sakif/listings/internal/model"
)

// Schema maps an entity onto named columns. Bind returns pointers to the
// entity's fields in Columns order, which serves both as scan destinations
// and as the source of column values.
type Schema[T any] struct {
	Resource string
	Table    string
	Columns  []string
	Bind     func(*T) []any
}

var UserSchema = Schema[model.User]{
	Resource: "user",
	Table:    "users",
	Columns:  []string{"id", "created_at", "updated_at", "first_name", "last_name", "email", "password_hash", "is_admin"},
	Bind: func(u *model.User) []any {
		return []any{&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.IsAdmin}
	},
}

var AmenitySchema = Schema[model.Amenity]{
	Resource: "amenity",
	Table:    "amenities",
	Columns:  []string{"id", "created_at", "updated_at", "name"},
	Bind: func(a *model.Amenity) []any {
		return []any{&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.Name}
	},
}

var PlaceSchema = Schema[model.Place]{
	Resource: "place",
	Table:    "places",
	Columns:  []string{"id", "created_at", "updated_at", "title", "description", "price", "latitude", "longitude", "owner_id"},
	Bind: func(p *model.Place) []any {
		return []any{&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Title, &p.Description, &p.Price, &p.Latitude, &p.Longitude, &p.OwnerID}
	},
}

var ReviewSchema = Schema[model.Review]{
	Resource: "review",
	Table:    "reviews",
	Columns:  []string{"id", "created_at", "updated_at", "text", "rating", "place_id", "user_id"},
	Bind: func(r *model.Review) []any {
		return []any{&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.Text, &r.Rating, &r.PlaceID, &r.UserID}
	},
}

// HasColumn reports whether name is a column of the entity.
func (s Schema[T]) HasColumn(name string) bool {
	return slices.Contains(s.Columns, name)
}

// CheckFields rejects unknown column names and any attempt to rewrite the id.
func (s Schema[T]) CheckFields(fields Fields) error {
	for name := range fields {
		if name == "id" || !s.HasColumn(name) {
			return fmt.Errorf("repository: %s has no updatable column %q", s.Resource, name)
		}
	}
	return nil
}

// Record returns every column value of e.
func (s Schema[T]) Record(e *T) Fields {
	ptrs := s.Bind(e)
	rec := make(Fields, len(ptrs))
	for i, p := range ptrs {
		rec[s.Columns[i]] = reflect.ValueOf(p).Elem().Interface()
	}
	return rec
}

// Value returns a single column value of e.
func (s Schema[T]) Value(e *T, column string) (any, error) {
	i := slices.Index(s.Columns, column)
	if i < 0 {
		return nil, fmt.Errorf("repository: %s has no column %q", s.Resource, column)
	}
	return reflect.ValueOf(s.Bind(e)[i]).Elem().Interface(), nil
}

// Set assigns value to a column of e. Numeric values convert between kinds
// (an int rating may arrive as float64 from JSON); anything else must be
// assignable as is.
func (s Schema[T]) Set(e *T, column string, value any) error {
	i := slices.Index(s.Columns, column)
	if i < 0 {
		return fmt.Errorf("repository: %s has no column %q", s.Resource, column)
	}
	dst := reflect.ValueOf(s.Bind(e)[i]).Elem()
	v, err := coerce(value, dst.Type())
	if err != nil {
		return fmt.Errorf("repository: %s.%s: %w", s.Resource, column, err)
	}
	dst.Set(v)
	return nil
}

// Equal reports whether column of e holds value, after the same coercion Set
// applies.
func (s Schema[T]) Equal(e *T, column string, value any) (bool, error) {
	current, err := s.Value(e, column)
	if err != nil {
		return false, err
	}
	v, err := coerce(value, reflect.TypeOf(current))
	if err != nil {
		return false, nil
	}
	if t, ok := current.(time.Time); ok {
		return t.Equal(v.Interface().(time.Time)), nil
	}
	return v.Interface() == current, nil
}

// Apply sets every field on e. It stops at the first failure.
func (s Schema[T]) Apply(e *T, fields Fields) error {
	for name, value := range fields {
		if err := s.Set(e, name, value); err != nil {
			return err
		}
	}
	return nil
}

func coerce(value any, to reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Value{}, fmt.Errorf("nil value for %s", to)
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(to):
		return v, nil
	case isNumber(v.Kind()) && isNumber(to.Kind()):
		return v.Convert(to), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", value, to)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
