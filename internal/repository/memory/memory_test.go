package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/repository"
)

func newPlace(t *testing.T, title, ownerID string) *model.Place {
	t.Helper()
	p, err := model.NewPlace(title, "", 50, 0, 0, ownerID)
	require.NoError(t, err)
	return p
}

// =========================================================================
// GENERIC TABLE
// =========================================================================

func TestTable_AddGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPlace(t, "Loft", "o1")

	require.NoError(t, s.Places().Add(ctx, p))

	got, err := s.Places().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loft", got.Title)

	err = s.Places().Add(ctx, p)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "duplicate id should conflict, got %v", err)
}

func TestTable_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPlace(t, "Loft", "o1")
	require.NoError(t, s.Places().Add(ctx, p))

	p.Title = "mutated after add"
	got, _ := s.Places().Get(ctx, p.ID)
	got.Title = "mutated after get"

	again, _ := s.Places().Get(ctx, p.ID)
	assert.Equal(t, "Loft", again.Title)
}

func TestTable_MissingIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Users().Get(ctx, "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = s.Users().Update(ctx, "nope", repository.Fields{"first_name": "x"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	err = s.Users().Delete(ctx, "nope")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestTable_UpdateMergesAndTouches(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPlace(t, "Loft", "o1")
	require.NoError(t, s.Places().Add(ctx, p))
	time.Sleep(time.Millisecond)

	require.NoError(t, s.Places().Update(ctx, p.ID, repository.Fields{"price": 75.0, "title": "Attic"}))

	got, _ := s.Places().Get(ctx, p.ID)
	assert.Equal(t, 75.0, got.Price)
	assert.Equal(t, "Attic", got.Title)
	assert.Equal(t, "o1", got.OwnerID, "untouched fields are kept")
	assert.True(t, got.UpdatedAt.After(p.UpdatedAt))
}

func TestTable_UpdateRejectsUnknownColumns(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPlace(t, "Loft", "o1")
	require.NoError(t, s.Places().Add(ctx, p))

	assert.Error(t, s.Places().Update(ctx, p.ID, repository.Fields{"nope": 1}))
	assert.Error(t, s.Places().Update(ctx, p.ID, repository.Fields{"price": "free"}))

	got, _ := s.Places().Get(ctx, p.ID)
	assert.Equal(t, 50.0, got.Price)
}

func TestTable_Attributes(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := newPlace(t, "A", "o1")
	b := newPlace(t, "B", "o2")
	c := newPlace(t, "C", "o1")
	for _, p := range []*model.Place{a, b, c} {
		require.NoError(t, s.Places().Add(ctx, p))
	}

	owned, err := s.Places().ListByAttribute(ctx, "owner_id", "o1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, a.ID, owned[0].ID, "ordered by creation")
	assert.Equal(t, c.ID, owned[1].ID)

	got, err := s.Places().GetByAttribute(ctx, "title", "B")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = s.Places().GetByAttribute(ctx, "title", "Z")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = s.Places().ListByAttribute(ctx, "nope", "x")
	assert.Error(t, err)

	n, err := s.Places().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// =========================================================================
// PLACE AMENITIES
// =========================================================================

func TestPlaceAmenities_LinkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	pa := s.PlaceAmenities()

	require.NoError(t, pa.Link(ctx, "p1", "a2"))
	require.NoError(t, pa.Link(ctx, "p1", "a1"))
	require.NoError(t, pa.Link(ctx, "p1", "a1"))
	require.NoError(t, pa.Link(ctx, "p2", "a1"))

	ids, err := pa.AmenityIDs(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids)

	require.NoError(t, pa.UnlinkPlace(ctx, "p1"))
	ids, _ = pa.AmenityIDs(ctx, "p1")
	assert.Empty(t, ids)
	ids, _ = pa.AmenityIDs(ctx, "p2")
	assert.Equal(t, []string{"a1"}, ids)
}

// =========================================================================
// TRANSACTIONS
// =========================================================================

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	kept := newPlace(t, "Kept", "o1")
	require.NoError(t, s.Places().Add(ctx, kept))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Places().Add(ctx, newPlace(t, "Lost", "o1")))
		require.NoError(t, tx.Places().Delete(ctx, kept.ID))
		require.NoError(t, tx.PlaceAmenities().Link(ctx, kept.ID, "a1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, _ := s.Places().GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)
	ids, _ := s.PlaceAmenities().AmenityIDs(ctx, kept.ID)
	assert.Empty(t, ids)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPlace(t, "Loft", "o1")

	err := s.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Places().Add(ctx, p); err != nil {
			return err
		}
		// nested transactions join the outer one
		return tx.WithinTx(ctx, func(inner repository.Store) error {
			return inner.PlaceAmenities().Link(ctx, p.ID, "a1")
		})
	})
	require.NoError(t, err)

	_, err = s.Places().Get(ctx, p.ID)
	assert.NoError(t, err)
	ids, _ := s.PlaceAmenities().AmenityIDs(ctx, p.ID)
	assert.Equal(t, []string{"a1"}, ids)
}

func TestWithinTx_Serializes(t *testing.T) {
	ctx := context.Background()
	s := New()

	// Each tx reads the count and inserts only when it is zero; exactly one
	// of the concurrent callers may win.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithinTx(ctx, func(tx repository.Store) error {
				n, err := tx.Amenities().Count(ctx)
				if err != nil || n > 0 {
					return err
				}
				a, err := model.NewAmenity("Wi-Fi")
				if err != nil {
					return err
				}
				return tx.Amenities().Add(ctx, a)
			})
		}()
	}
	wg.Wait()

	n, _ := s.Amenities().Count(ctx)
	assert.Equal(t, 1, n)
}
