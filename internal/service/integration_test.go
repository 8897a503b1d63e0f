package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/auth"
	"github.com/sakif/listings/internal/repository/sqlite"
)

// The scenarios below run the facade against a real SQLite file with real
// bcrypt hashing (at minimum cost).

func newSQLiteFacade(t *testing.T) (*Facade, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "listings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, auth.NewPasswordServiceForTest(), testLogger()), db
}

func TestScenario_BootstrapAdminAndAmenityPermission(t *testing.T) {
	ctx := context.Background()
	f, _ := newSQLiteFacade(t)

	u1, err := f.CreateUser(ctx, nil, CreateUserInput{
		FirstName: "Una", LastName: "One", Email: "u1@example.com", Password: "first-pass",
	})
	require.NoError(t, err)
	require.True(t, u1.IsAdmin)

	u2, err := f.CreateUser(ctx, actorOf(u1), CreateUserInput{
		FirstName: "Dos", LastName: "Two", Email: "u2@example.com", Password: "second-pass", IsAdmin: false,
	})
	require.NoError(t, err)
	require.False(t, u2.IsAdmin)
	assert.True(t, u2.VerifyPassword("second-pass", auth.NewPasswordServiceForTest()))

	_, err = f.CreateAmenity(ctx, actorOf(u2), CreateAmenityInput{Name: "Sauna"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestScenario_SelfReviewAndAdminBypass(t *testing.T) {
	ctx := context.Background()
	f, _ := newSQLiteFacade(t)

	u1, err := f.CreateUser(ctx, nil, CreateUserInput{FirstName: "A", LastName: "Admin", Email: "u1@example.com", Password: "pw1"})
	require.NoError(t, err)
	u2, err := f.CreateUser(ctx, actorOf(u1), CreateUserInput{FirstName: "B", LastName: "Host", Email: "u2@example.com", Password: "pw2"})
	require.NoError(t, err)

	p, err := f.CreatePlace(ctx, actorOf(u1), CreatePlaceInput{Title: "Cabin", Price: 80, OwnerID: u2.ID})
	require.NoError(t, err)
	require.Equal(t, u2.ID, p.OwnerID)

	_, err = f.CreateReview(ctx, actorOf(u2), CreateReviewInput{Text: "so good", Rating: 5, PlaceID: p.ID})
	assert.ErrorIs(t, err, apperror.ErrSelfReview)

	r, err := f.CreateReview(ctx, actorOf(u1), CreateReviewInput{Text: "checked", Rating: 4, PlaceID: p.ID, UserID: u2.ID})
	require.NoError(t, err)
	assert.Equal(t, u2.ID, r.UserID)
}

func TestScenario_RejectedPriceUpdateKeepsRow(t *testing.T) {
	ctx := context.Background()
	f, _ := newSQLiteFacade(t)

	u1, err := f.CreateUser(ctx, nil, CreateUserInput{FirstName: "A", LastName: "Admin", Email: "u1@example.com", Password: "pw1"})
	require.NoError(t, err)

	p, err := f.CreatePlace(ctx, actorOf(u1), CreatePlaceInput{
		Title: "Paris flat", Price: 120.5, Latitude: 48.8566, Longitude: 2.3522,
	})
	require.NoError(t, err)

	_, err = f.UpdatePlace(ctx, actorOf(u1), p.ID, UpdatePlaceInput{Price: ptr(-10.0)})
	require.ErrorIs(t, err, apperror.ErrValidation)

	detail, err := f.GetPlace(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.5, detail.Price)
	assert.Equal(t, 48.8566, detail.Latitude)
}

func TestScenario_DuplicateAmenityName(t *testing.T) {
	ctx := context.Background()
	f, _ := newSQLiteFacade(t)

	u1, err := f.CreateUser(ctx, nil, CreateUserInput{FirstName: "A", LastName: "Admin", Email: "u1@example.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.CreateAmenity(ctx, actorOf(u1), CreateAmenityInput{Name: "WiFi"})
	require.NoError(t, err)

	_, err = f.CreateAmenity(ctx, actorOf(u1), CreateAmenityInput{Name: "WiFi"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.ErrorIs(t, err, apperror.ErrDuplicateName)
}

func TestSQLite_CreatePlaceRollsBackOnUnknownAmenity(t *testing.T) {
	ctx := context.Background()
	f, db := newSQLiteFacade(t)

	u1, err := f.CreateUser(ctx, nil, CreateUserInput{FirstName: "A", LastName: "Admin", Email: "u1@example.com", Password: "pw1"})
	require.NoError(t, err)
	wifi, err := f.CreateAmenity(ctx, actorOf(u1), CreateAmenityInput{Name: "WiFi"})
	require.NoError(t, err)

	_, err = f.CreatePlace(ctx, actorOf(u1), CreatePlaceInput{
		Title: "Loft", Price: 10, AmenityIDs: []string{wifi.ID, "missing"},
	})
	require.ErrorIs(t, err, apperror.ErrInvalidAmenity)

	n, err := db.Places().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_DeletePlaceCascade(t *testing.T) {
	ctx := context.Background()
	f, db := newSQLiteFacade(t)

	u1, err := f.CreateUser(ctx, nil, CreateUserInput{FirstName: "A", LastName: "Admin", Email: "u1@example.com", Password: "pw1"})
	require.NoError(t, err)
	host, err := f.CreateUser(ctx, actorOf(u1), CreateUserInput{FirstName: "H", LastName: "Host", Email: "host@example.com", Password: "pw"})
	require.NoError(t, err)
	wifi, err := f.CreateAmenity(ctx, actorOf(u1), CreateAmenityInput{Name: "WiFi"})
	require.NoError(t, err)
	p, err := f.CreatePlace(ctx, actorOf(host), CreatePlaceInput{Title: "Loft", Price: 10, AmenityIDs: []string{wifi.ID}})
	require.NoError(t, err)

	for i, email := range []string{"g1@example.com", "g2@example.com"} {
		g, err := f.CreateUser(ctx, actorOf(u1), CreateUserInput{FirstName: "G", LastName: "Guest", Email: email, Password: "pw"})
		require.NoError(t, err)
		_, err = f.CreateReview(ctx, actorOf(g), CreateReviewInput{Text: "nice", Rating: i + 3, PlaceID: p.ID})
		require.NoError(t, err)
	}

	require.NoError(t, f.DeletePlace(ctx, actorOf(host), p.ID))

	reviews, err := db.Reviews().ListByAttribute(ctx, "place_id", p.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	ids, err := db.PlaceAmenities().AmenityIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
