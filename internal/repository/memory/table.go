package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/repository"
)

// table is the generic repository over one map of the store. rows selects
// the map from the current tables so a rollback that swaps the contents is
// seen by every table value.
type table[T any] struct {
	store  *Store
	schema repository.Schema[T]
	rows   func(*tables) map[string]T
}

func (t *table[T]) id(e *T) string {
	v, _ := t.schema.Value(e, "id")
	id, _ := v.(string)
	return id
}

func (t *table[T]) Add(_ context.Context, entity *T) error {
	t.store.lock()
	defer t.store.unlock()

	id := t.id(entity)
	if id == "" {
		return fmt.Errorf("memory: adding %s: id must be assigned", t.schema.Resource)
	}
	rows := t.rows(t.store.data)
	if _, exists := rows[id]; exists {
		return apperror.Conflict(apperror.ErrConflict, "id",
			fmt.Sprintf("%s already exists with id %s", t.schema.Resource, id))
	}
	rows[id] = *entity
	return nil
}

func (t *table[T]) Get(_ context.Context, id string) (*T, error) {
	t.store.lock()
	defer t.store.unlock()

	e, ok := t.rows(t.store.data)[id]
	if !ok {
		return nil, apperror.NotFound(t.schema.Resource, id)
	}
	return &e, nil
}

func (t *table[T]) GetAll(_ context.Context) ([]T, error) {
	t.store.lock()
	defer t.store.unlock()

	return t.sorted(func(*T) (bool, error) { return true, nil })
}

func (t *table[T]) Update(_ context.Context, id string, fields repository.Fields) error {
	if err := t.schema.CheckFields(fields); err != nil {
		return err
	}

	t.store.lock()
	defer t.store.unlock()

	rows := t.rows(t.store.data)
	e, ok := rows[id]
	if !ok {
		return apperror.NotFound(t.schema.Resource, id)
	}
	if err := t.schema.Apply(&e, fields); err != nil {
		return err
	}
	if _, set := fields["updated_at"]; !set {
		if err := t.schema.Set(&e, "updated_at", time.Now().UTC()); err != nil {
			return err
		}
	}
	rows[id] = e
	return nil
}

func (t *table[T]) Delete(_ context.Context, id string) error {
	t.store.lock()
	defer t.store.unlock()

	rows := t.rows(t.store.data)
	if _, ok := rows[id]; !ok {
		return apperror.NotFound(t.schema.Resource, id)
	}
	delete(rows, id)
	return nil
}

func (t *table[T]) GetByAttribute(ctx context.Context, name string, value any) (*T, error) {
	matches, err := t.ListByAttribute(ctx, name, value)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, apperror.NotFoundBy(t.schema.Resource, name, value)
	}
	return &matches[0], nil
}

func (t *table[T]) ListByAttribute(_ context.Context, name string, value any) ([]T, error) {
	if !t.schema.HasColumn(name) {
		return nil, fmt.Errorf("memory: %s has no column %q", t.schema.Resource, name)
	}

	t.store.lock()
	defer t.store.unlock()

	return t.sorted(func(e *T) (bool, error) { return t.schema.Equal(e, name, value) })
}

func (t *table[T]) Count(_ context.Context) (int, error) {
	t.store.lock()
	defer t.store.unlock()
	return len(t.rows(t.store.data)), nil
}

// sorted returns the rows accepted by keep, ordered by creation time then id
// to match the SQL implementation.
func (t *table[T]) sorted(keep func(*T) (bool, error)) ([]T, error) {
	out := make([]T, 0)
	for _, e := range t.rows(t.store.data) {
		ok, err := keep(&e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}

	slices.SortFunc(out, func(a, b T) int {
		ca, _ := t.schema.Value(&a, "created_at")
		cb, _ := t.schema.Value(&b, "created_at")
		if c := ca.(time.Time).Compare(cb.(time.Time)); c != 0 {
			return c
		}
		ia, ib := t.id(&a), t.id(&b)
		switch {
		case ia < ib:
			return -1
		case ia > ib:
			return 1
		}
		return 0
	})
	return out, nil
}
