package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/listings/internal/apperror"
)

// =========================================================================
// CreatePlace TESTS
// =========================================================================

func TestCreatePlace_WithAmenities(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	wifi := fx.amenity("WiFi")
	pool := fx.amenity("Pool")

	p := fx.place(alice, wifi.ID, pool.ID, wifi.ID)

	assert.Equal(t, alice.ID, p.OwnerID, "owner defaults to the actor")

	ids, err := fx.store.PlaceAmenities().AmenityIDs(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{wifi.ID, pool.ID}, ids)
}

func TestCreatePlace_UnknownAmenityPersistsNothing(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	wifi := fx.amenity("WiFi")

	_, err := fx.f.CreatePlace(fx.ctx, alice, CreatePlaceInput{
		Title: "Loft", Price: 50, AmenityIDs: []string{wifi.ID, "nope"},
	})

	assertKind(t, err, apperror.ErrInvalidAmenity, apperror.ErrNotFound)
	assertField(t, err, "amenity_ids")
	assert.Zero(t, fx.count(fx.store.Places().Count))
}

func TestCreatePlace_NonPositivePricePersistsNothing(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")

	for _, price := range []float64{0, -1} {
		_, err := fx.f.CreatePlace(fx.ctx, alice, CreatePlaceInput{Title: "Loft", Price: price})
		require.ErrorIs(t, err, apperror.ErrValidation)
		assertField(t, err, "price")
	}
	assert.Zero(t, fx.count(fx.store.Places().Count))
}

func TestCreatePlace_Ownership(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")

	_, err := fx.f.CreatePlace(fx.ctx, alice, CreatePlaceInput{Title: "Loft", Price: 50, OwnerID: bob.ID})
	assertKind(t, err, apperror.ErrNotOwner, apperror.ErrForbidden)

	p, err := fx.f.CreatePlace(fx.ctx, fx.admin, CreatePlaceInput{Title: "Loft", Price: 50, OwnerID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, p.OwnerID)

	_, err = fx.f.CreatePlace(fx.ctx, fx.admin, CreatePlaceInput{Title: "Loft", Price: 50, OwnerID: "ghost"})
	assertKind(t, err, apperror.ErrOwnerNotFound, apperror.ErrNotFound)

	_, err = fx.f.CreatePlace(fx.ctx, nil, CreatePlaceInput{Title: "Loft", Price: 50})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

// =========================================================================
// UpdatePlace TESTS
// =========================================================================

func TestUpdatePlace_InvalidPriceKeepsStoredPrice(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	p, err := fx.f.CreatePlace(fx.ctx, alice, CreatePlaceInput{
		Title: "Flat", Price: 120.5, Latitude: 48.8566, Longitude: 2.3522,
	})
	require.NoError(t, err)

	_, err = fx.f.UpdatePlace(fx.ctx, alice, p.ID, UpdatePlaceInput{Title: ptr("Cheap"), Price: ptr(-10.0)})
	require.ErrorIs(t, err, apperror.ErrValidation)

	stored, err := fx.f.GetPlace(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.5, stored.Price)
	assert.Equal(t, "Flat", stored.Title)
}

func TestUpdatePlace_Fields(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	wifi := fx.amenity("WiFi")
	p := fx.place(alice, wifi.ID)
	pool := fx.amenity("Pool")

	updated, err := fx.f.UpdatePlace(fx.ctx, alice, p.ID, UpdatePlaceInput{
		Description: ptr("sunny"),
		Latitude:    ptr(-90.0),
		AmenityIDs:  ptr([]string{wifi.ID, pool.ID}),
	})

	require.NoError(t, err)
	assert.Equal(t, "sunny", updated.Description)
	assert.Equal(t, -90.0, updated.Latitude)
	assert.Equal(t, p.Title, updated.Title)

	ids, err := fx.store.PlaceAmenities().AmenityIDs(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestUpdatePlace_OwnerChange(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")
	p := fx.place(alice)

	_, err := fx.f.UpdatePlace(fx.ctx, alice, p.ID, UpdatePlaceInput{OwnerID: ptr(bob.ID)})
	assertKind(t, err, apperror.ErrForbiddenField, apperror.ErrForbidden)
	assertField(t, err, "owner_id")

	_, err = fx.f.UpdatePlace(fx.ctx, alice, p.ID, UpdatePlaceInput{OwnerID: ptr(alice.ID)})
	assert.NoError(t, err, "repeating the current owner is not a change")

	_, err = fx.f.UpdatePlace(fx.ctx, fx.admin, p.ID, UpdatePlaceInput{OwnerID: ptr("ghost")})
	assertKind(t, err, apperror.ErrOwnerNotFound, apperror.ErrNotFound)

	moved, err := fx.f.UpdatePlace(fx.ctx, fx.admin, p.ID, UpdatePlaceInput{OwnerID: ptr(bob.ID)})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, moved.OwnerID)
}

func TestUpdatePlace_NonOwner(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")
	p := fx.place(alice)

	_, err := fx.f.UpdatePlace(fx.ctx, bob, p.ID, UpdatePlaceInput{Title: ptr("Mine now")})
	assertKind(t, err, apperror.ErrNotOwner, apperror.ErrForbidden)

	_, err = fx.f.UpdatePlace(fx.ctx, bob, "ghost", UpdatePlaceInput{Title: ptr("X")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdatePlace_UnknownAmenityWritesNothing(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	p := fx.place(alice)

	_, err := fx.f.UpdatePlace(fx.ctx, alice, p.ID, UpdatePlaceInput{
		Title:      ptr("Renamed"),
		AmenityIDs: ptr([]string{"nope"}),
	})
	assertKind(t, err, apperror.ErrInvalidAmenity, apperror.ErrNotFound)

	stored, err := fx.f.GetPlace(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loft", stored.Title)
}

// =========================================================================
// AddPlaceAmenities TESTS
// =========================================================================

func TestAddPlaceAmenities(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")
	wifi := fx.amenity("WiFi")
	pool := fx.amenity("Pool")
	p := fx.place(alice, wifi.ID)

	detail, err := fx.f.AddPlaceAmenities(fx.ctx, alice, p.ID, []string{wifi.ID, pool.ID})
	require.NoError(t, err)
	assert.Len(t, detail.Amenities, 2)

	detail, err = fx.f.AddPlaceAmenities(fx.ctx, alice, p.ID, []string{pool.ID})
	require.NoError(t, err)
	assert.Len(t, detail.Amenities, 2, "linking twice is idempotent")

	_, err = fx.f.AddPlaceAmenities(fx.ctx, bob, p.ID, []string{pool.ID})
	assertKind(t, err, apperror.ErrNotOwner, apperror.ErrForbidden)

	_, err = fx.f.AddPlaceAmenities(fx.ctx, alice, p.ID, []string{"nope"})
	assertKind(t, err, apperror.ErrInvalidAmenity, apperror.ErrNotFound)
}

func TestAddPlaceAmenities_RejectsEmptyList(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	wifi := fx.amenity("WiFi")
	p := fx.place(alice, wifi.ID)

	for _, ids := range [][]string{nil, {}} {
		_, err := fx.f.AddPlaceAmenities(fx.ctx, alice, p.ID, ids)
		assertKind(t, err, apperror.ErrValidation, apperror.ErrValidation)
		assertField(t, err, "amenities")
	}

	detail, err := fx.f.GetPlace(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Amenities, 1)
}

// =========================================================================
// DeletePlace TESTS
// =========================================================================

func TestDeletePlace_CascadesReviewsAndLinks(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	wifi := fx.amenity("WiFi")
	p := fx.place(alice, wifi.ID)
	other := fx.place(alice)
	for _, name := range []string{"bob", "carol", "dave"} {
		fx.review(fx.user(name), p.ID)
	}
	kept := fx.review(fx.user("erin"), other.ID)

	require.NoError(t, fx.f.DeletePlace(fx.ctx, alice, p.ID))

	_, err := fx.f.GetPlace(fx.ctx, p.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	left, err := fx.store.Reviews().ListByAttribute(fx.ctx, "place_id", p.ID)
	require.NoError(t, err)
	assert.Empty(t, left)

	ids, err := fx.store.PlaceAmenities().AmenityIDs(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = fx.f.GetReview(fx.ctx, kept.ID)
	assert.NoError(t, err, "reviews of other places survive")

	_, err = fx.f.GetAmenity(fx.ctx, wifi.ID)
	assert.NoError(t, err, "amenities survive")
}

func TestDeletePlace_Authorization(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")
	p := fx.place(alice)

	err := fx.f.DeletePlace(fx.ctx, bob, p.ID)
	assertKind(t, err, apperror.ErrNotOwner, apperror.ErrForbidden)

	assert.ErrorIs(t, fx.f.DeletePlace(fx.ctx, nil, p.ID), apperror.ErrUnauthorized)
	assert.NoError(t, fx.f.DeletePlace(fx.ctx, fx.admin, p.ID))
	assert.ErrorIs(t, fx.f.DeletePlace(fx.ctx, fx.admin, p.ID), apperror.ErrNotFound)
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGetPlace_Detail(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")
	wifi := fx.amenity("WiFi")
	p := fx.place(alice, wifi.ID)
	r := fx.review(bob, p.ID)

	first, err := fx.f.GetPlace(fx.ctx, p.ID)
	require.NoError(t, err)
	second, err := fx.f.GetPlace(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated reads give equal projections")

	require.NotNil(t, first.Owner)
	assert.Equal(t, alice.ID, first.Owner.ID)
	require.Len(t, first.Amenities, 1)
	assert.Equal(t, "WiFi", first.Amenities[0].Name)
	require.Len(t, first.Reviews, 1)
	assert.Equal(t, r.ID, first.Reviews[0].ID)
}

func TestListPlacesAndPlaceReviews(t *testing.T) {
	fx := newFixture(t)
	alice := fx.user("alice")
	bob := fx.user("bob")
	p := fx.place(alice)
	fx.place(bob)
	fx.review(bob, p.ID)

	places, err := fx.f.ListPlaces(fx.ctx)
	require.NoError(t, err)
	assert.Len(t, places, 2)

	reviews, err := fx.f.ListPlaceReviews(fx.ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	_, err = fx.f.ListPlaceReviews(fx.ctx, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
