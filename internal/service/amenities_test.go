package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/listings/internal/apperror"
)

func TestCreateAmenity_AdminOnly(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")

	_, err := fx.f.CreateAmenity(fx.ctx, alice, CreateAmenityInput{Name: "Pool"})
	assertKind(t, err, apperror.ErrAdminRequired, apperror.ErrForbidden)

	_, err = fx.f.CreateAmenity(fx.ctx, nil, CreateAmenityInput{Name: "Pool"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	assert.Zero(t, fx.count(fx.store.Amenities().Count))
}

func TestCreateAmenity_DuplicateName(t *testing.T) {
	fx := newFixture(t)
	fx.amenity("WiFi")

	_, err := fx.f.CreateAmenity(fx.ctx, fx.admin, CreateAmenityInput{Name: " WiFi "})

	assertKind(t, err, apperror.ErrDuplicateName, apperror.ErrConflict)
	assertField(t, err, "name")
	assert.Equal(t, 1, fx.count(fx.store.Amenities().Count))
}

func TestCreateAmenity_Validation(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.f.CreateAmenity(fx.ctx, fx.admin, CreateAmenityInput{Name: "   "})

	require.ErrorIs(t, err, apperror.ErrValidation)
	assertField(t, err, "name")
}

func TestUpdateAmenity(t *testing.T) {
	fx := newFixture(t)
	wifi := fx.amenity("WiFi")
	fx.amenity("Pool")
	alice := fx.user("alice")

	t.Run("rename", func(t *testing.T) {
		a, err := fx.f.UpdateAmenity(fx.ctx, fx.admin, wifi.ID, UpdateAmenityInput{Name: ptr("Wi-Fi")})
		require.NoError(t, err)
		assert.Equal(t, "Wi-Fi", a.Name)
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		_, err := fx.f.UpdateAmenity(fx.ctx, fx.admin, wifi.ID, UpdateAmenityInput{Name: ptr("Wi-Fi")})
		assert.NoError(t, err)
	})

	t.Run("name taken", func(t *testing.T) {
		_, err := fx.f.UpdateAmenity(fx.ctx, fx.admin, wifi.ID, UpdateAmenityInput{Name: ptr("Pool")})
		assertKind(t, err, apperror.ErrDuplicateName, apperror.ErrConflict)
	})

	t.Run("non-admin", func(t *testing.T) {
		_, err := fx.f.UpdateAmenity(fx.ctx, alice, wifi.ID, UpdateAmenityInput{Name: ptr("Free WiFi")})
		assertKind(t, err, apperror.ErrAdminRequired, apperror.ErrForbidden)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := fx.f.UpdateAmenity(fx.ctx, fx.admin, "ghost", UpdateAmenityInput{Name: ptr("X")})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	stored, err := fx.f.GetAmenity(fx.ctx, wifi.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wi-Fi", stored.Name)

	all, err := fx.f.ListAmenities(fx.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
