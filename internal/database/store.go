package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound  = errors.New("database: row not found")
	ErrDuplicate = errors.New("database: duplicate key")
)

// Row is one result row keyed by column name. Text columns are strings,
// never byte slices.
type Row map[string]any

type ListQuery struct {
	Filters map[string]any // equality filters, column -> value
	OrderBy string         // trusted SQL fragment, e.g. "rank ASC, id ASC"
	Limit   int
	Offset  int
}

// SQLStore runs single-statement reads and writes against any table. Every
// statement is written with ? placeholders and rebound for the driver.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Insert(ctx context.Context, table string, values map[string]any) (Row, error) {
	query, args := insertQuery(table, values)
	row, err := s.queryOne(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return row, nil
}

func (s *SQLStore) Get(ctx context.Context, table string, id int64) (Row, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = ?", quote(table))
	row, err := s.queryOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", table, id, err)
	}
	return row, nil
}

func (s *SQLStore) Update(ctx context.Context, table string, id int64, values map[string]any) (Row, error) {
	query, args := updateQuery(table, id, values)
	row, err := s.queryOne(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %d: %w", table, id, err)
	}
	return row, nil
}

// Delete removes the row and returns it as it was, in one statement.
func (s *SQLStore) Delete(ctx context.Context, table string, id int64) (Row, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? RETURNING *", quote(table))
	row, err := s.queryOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s %d: %w", table, id, err)
	}
	return row, nil
}

// Upsert writes the row with the given id, inserting it when absent.
func (s *SQLStore) Upsert(ctx context.Context, table string, id int64, values map[string]any) (Row, error) {
	query, args := upsertQuery(table, id, values)
	row, err := s.queryOne(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s %d: %w", table, id, err)
	}
	return row, nil
}

func (s *SQLStore) List(ctx context.Context, table string, q ListQuery) ([]Row, error) {
	query, args := listQuery(table, q)
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return rows, nil
}

// Column returns every non-empty value of a text column.
func (s *SQLStore) Column(ctx context.Context, table, column string) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL AND %s <> ''",
		quote(column), quote(table), quote(column), quote(column))
	var values []string
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", table, column, err)
	}
	return values, nil
}

func (s *SQLStore) queryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		out = append(out, Row(m))
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if IsDuplicate(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// IsDuplicate reports whether err is a unique-constraint violation on either
// supported driver.
func IsDuplicate(err error) bool {
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
