// Package sqlite implements repository.Store on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so no C compiler is needed and
// cross-compilation just works.
//
// QUERY BUILDING:
// SQL text is produced by goqu's sqlite3 dialect in prepared mode (every value
// becomes a ? placeholder) and executed through database/sql. Repositories
// never concatenate caller input into SQL; column names are checked against
// repository.Schema first.
//
// TRANSACTIONS:
// Every repository runs its statements through a querier, which is either the
// pool (*sql.DB) or a transaction (*sql.Tx). WithinTx hands the callback a DB
// whose querier is the transaction, so all five repositories share it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	// registers the "sqlite3" goqu dialect (backtick quoting, ? placeholders)
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/sakif/listings/internal/model"
	"github.com/sakif/listings/internal/repository"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

var _ repository.Store = (*DB)(nil)

var dialect = goqu.Dialect("sqlite3")

// querier is the subset of *sql.DB and *sql.Tx the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB connection pool and provides the repositories.
type DB struct {
	conn *sql.DB
	q    querier
	inTx bool
}

// connection parameters applied by the driver to EVERY pooled connection.
// A PRAGMA run with Exec would only reach whichever connection served it.
//
//   - foreign_keys: SQLite ships with them off
//   - busy_timeout: wait for a competing writer instead of failing at once
//   - journal_mode=WAL: readers are not blocked while a write is in progress
//   - _txlock=immediate: BEGIN takes the write lock, so read-check-write
//     sequences inside WithinTx cannot interleave
//   - _time_format=sqlite: timestamps are written in a sortable text format
const dsnParams = "_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_txlock=immediate" +
	"&_time_format=sqlite"

// New opens the database at dbPath and applies pending migrations.
//
// dbPath examples:
//   - "data/listings.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database, pinned to one connection
//     because every new connection would otherwise see an empty database
func New(dbPath string) (*DB, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}

	conn, err := sql.Open("sqlite", dbPath+sep+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := newDB(conn)
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func newDB(conn *sql.DB) *DB {
	return &DB{conn: conn, q: conn}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() repository.Repository[model.User] {
	return &table[model.User]{q: db.q, schema: repository.UserSchema}
}

func (db *DB) Amenities() repository.Repository[model.Amenity] {
	return &table[model.Amenity]{q: db.q, schema: repository.AmenitySchema}
}

func (db *DB) Places() repository.Repository[model.Place] {
	return &table[model.Place]{q: db.q, schema: repository.PlaceSchema}
}

func (db *DB) Reviews() repository.Repository[model.Review] {
	return &table[model.Review]{q: db.q, schema: repository.ReviewSchema}
}

func (db *DB) PlaceAmenities() repository.PlaceAmenityRepository {
	return &placeAmenities{q: db.q}
}

// WithinTx runs fn inside one transaction. It commits if fn returns nil and
// rolls back otherwise, including when fn panics. Nested calls join the
// outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("sqlite: rolling back: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cErr)
		}
	}()

	return fn(&DB{conn: db.conn, q: tx, inTx: true})
}
