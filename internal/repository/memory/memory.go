// Package memory implements repository.Store with maps held in process.
//
// It backs the service tests and the server when STORAGE_DRIVER=memory. All
// tables share one mutex; WithinTx holds it for the whole callback and puts
// the previous contents back if the callback fails.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type link struct {
	placeID   string
	amenityID string
}

type tables struct {
	users     map[string]model.User
	amenities map[string]model.Amenity
	places    map[string]model.Place
	reviews   map[string]model.Review
	links     map[link]struct{}
}

func newTables() *tables {
	return &tables{
		users:     make(map[string]model.User),
		amenities: make(map[string]model.Amenity),
		places:    make(map[string]model.Place),
		reviews:   make(map[string]model.Review),
		links:     make(map[link]struct{}),
	}
}

// clone copies every map. Entities hold no references, so value copies are
// deep copies.
func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.amenities {
		c.amenities[k] = v
	}
	for k, v := range t.places {
		c.places[k] = v
	}
	for k, v := range t.reviews {
		c.reviews[k] = v
	}
	for k := range t.links {
		c.links[k] = struct{}{}
	}
	return c
}

// Store is an in-memory repository.Store. The zero value is not usable; call New.
type Store struct {
	mu   *sync.Mutex
	data *tables
	inTx bool
}

func New() *Store {
	return &Store{mu: &sync.Mutex{}, data: newTables()}
}

// lock is a no-op inside WithinTx, where the mutex is already held.
func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *Store) Users() repository.Repository[model.User] {
	return &table[model.User]{store: s, schema: repository.UserSchema,
		rows: func(t *tables) map[string]model.User { return t.users }}
}

func (s *Store) Amenities() repository.Repository[model.Amenity] {
	return &table[model.Amenity]{store: s, schema: repository.AmenitySchema,
		rows: func(t *tables) map[string]model.Amenity { return t.amenities }}
}

func (s *Store) Places() repository.Repository[model.Place] {
	return &table[model.Place]{store: s, schema: repository.PlaceSchema,
		rows: func(t *tables) map[string]model.Place { return t.places }}
}

func (s *Store) Reviews() repository.Repository[model.Review] {
	return &table[model.Review]{store: s, schema: repository.ReviewSchema,
		rows: func(t *tables) map[string]model.Review { return t.reviews }}
}

func (s *Store) PlaceAmenities() repository.PlaceAmenityRepository {
	return &placeAmenities{store: s}
}

// WithinTx serializes fn against every other caller and rolls back on error.
// A nested call joins the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.data = *snapshot
			panic(p)
		}
		if err != nil {
			*s.data = *snapshot
		}
	}()

	return fn(&Store{mu: s.mu, data: s.data, inTx: true})
}

type placeAmenities struct {
	store *Store
}

func (p *placeAmenities) Link(_ context.Context, placeID, amenityID string) error {
	p.store.lock()
	defer p.store.unlock()
	p.store.data.links[link{placeID, amenityID}] = struct{}{}
	return nil
}

func (p *placeAmenities) AmenityIDs(_ context.Context, placeID string) ([]string, error) {
	p.store.lock()
	defer p.store.unlock()

	ids := make([]string, 0)
	for l := range p.store.data.links {
		if l.placeID == placeID {
			ids = append(ids, l.amenityID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (p *placeAmenities) UnlinkPlace(_ context.Context, placeID string) error {
	p.store.lock()
	defer p.store.unlock()
	for l := range p.store.data.links {
		if l.placeID == placeID {
			delete(p.store.data.links, l)
		}
	}
	return nil
}
