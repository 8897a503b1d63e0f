package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	driver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/listings/internal/apperror"
	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/repository"
)

// table is the generic repository over one SQL table. Column names and
// scan order come from the schema.
type table[T any] struct {
	q      querier
	schema repository.Schema[T]
}

func (t *table[T]) columns() []any {
	cols := make([]any, len(t.schema.Columns))
	for i, c := range t.schema.Columns {
		cols[i] = c
	}
	return cols
}

// selectAll is SELECT <columns> FROM <table> ORDER BY created_at, id.
func (t *table[T]) selectAll() *goqu.SelectDataset {
	return dialect.From(t.schema.Table).
		Select(t.columns()...).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Prepared(true)
}

func (t *table[T]) Add(ctx context.Context, entity *T) error {
	query, args, err := dialect.Insert(t.schema.Table).
		Rows(goqu.Record(t.schema.Record(entity))).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building insert into %s: %w", t.schema.Table, err)
	}

	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(apperror.ErrConflict, "",
				fmt.Sprintf("%s violates a uniqueness constraint", t.schema.Resource))
		}
		return fmt.Errorf("sqlite: inserting %s: %w", t.schema.Resource, err)
	}
	return nil
}

func (t *table[T]) Get(ctx context.Context, id string) (*T, error) {
	query, args, err := t.selectAll().Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building select from %s: %w", t.schema.Table, err)
	}

	var e T
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(t.schema.Bind(&e)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(t.schema.Resource, id)
		}
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", t.schema.Resource, id, err)
	}
	return &e, nil
}

func (t *table[T]) GetAll(ctx context.Context) ([]T, error) {
	return t.list(ctx, t.selectAll())
}

func (t *table[T]) GetByAttribute(ctx context.Context, name string, value any) (*T, error) {
	if !t.schema.HasColumn(name) {
		return nil, fmt.Errorf("sqlite: %s has no column %q", t.schema.Resource, name)
	}

	rows, err := t.list(ctx, t.selectAll().Where(goqu.C(name).Eq(value)).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFoundBy(t.schema.Resource, name, value)
	}
	return &rows[0], nil
}

func (t *table[T]) ListByAttribute(ctx context.Context, name string, value any) ([]T, error) {
	if !t.schema.HasColumn(name) {
		return nil, fmt.Errorf("sqlite: %s has no column %q", t.schema.Resource, name)
	}
	return t.list(ctx, t.selectAll().Where(goqu.C(name).Eq(value)))
}

// Update writes only the given columns and bumps updated_at.
func (t *table[T]) Update(ctx context.Context, id string, fields repository.Fields) error {
	if err := t.schema.CheckFields(fields); err != nil {
		return err
	}

	record := goqu.Record{}
	for name, value := range fields {
		record[name] = value
	}
	if _, set := record["updated_at"]; !set {
		record["updated_at"] = model.Now()
	}

	query, args, err := dialect.Update(t.schema.Table).
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building update of %s: %w", t.schema.Table, err)
	}

	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(apperror.ErrConflict, "",
				fmt.Sprintf("%s violates a uniqueness constraint", t.schema.Resource))
		}
		return fmt.Errorf("sqlite: updating %s %s: %w", t.schema.Resource, id, err)
	}
	return requireAffected(res, t.schema.Resource, id)
}

func (t *table[T]) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete(t.schema.Table).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building delete from %s: %w", t.schema.Table, err)
	}

	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %s: %w", t.schema.Resource, id, err)
	}
	return requireAffected(res, t.schema.Resource, id)
}

func (t *table[T]) Count(ctx context.Context) (int, error) {
	query, args, err := dialect.From(t.schema.Table).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("sqlite: building count of %s: %w", t.schema.Table, err)
	}

	var n int
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting %s: %w", t.schema.Table, err)
	}
	return n, nil
}

func (t *table[T]) list(ctx context.Context, ds *goqu.SelectDataset) ([]T, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building select from %s: %w", t.schema.Table, err)
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var e T
		if err := rows.Scan(t.schema.Bind(&e)...); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", t.schema.Resource, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s rows: %w", t.schema.Table, err)
	}
	return out, nil
}

// requireAffected turns "no row matched the id" into a NotFound.
func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *driver.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	// connections without extended result codes only report the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
