package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound signals that no row has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidData wraps constraint and data violations reported by the database.
	ErrInvalidData = errors.New("invalid data")
	// ErrUnknownEntity indicates a table the store does not manage.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownColumn indicates a filter or write naming a column the entity lacks.
	ErrUnknownColumn = errors.New("unknown column")
)

// Row is a single record keyed by column name. A nil value is NULL.
type Row map[string]any

// Filter holds equality constraints keyed by column. A nil value matches NULL.
type Filter map[string]any

// Backend is the query surface the application needs from a relational store.
type Backend interface {
	Find(ctx context.Context, entity Entity, filter Filter, limit int) ([]Row, error)
	Insert(ctx context.Context, entity Entity, fields Row) (Row, error)
	Update(ctx context.Context, entity Entity, id int64, fields Row) (Row, error)
	Delete(ctx context.Context, entity Entity, id int64) error
	Count(ctx context.Context, entity Entity, filter Filter) (int, error)
}

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Find returns rows matching every filter constraint ordered by id. A limit of
// zero or less returns all matches.
func (s *Store) Find(ctx context.Context, entity Entity, filter Filter, limit int) ([]Row, error) {
	t, err := tableFor(entity)
	if err != nil {
		return nil, err
	}

	where, args, err := t.where(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY id ASC", t.selectList(), t.name, where)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, classify(err))
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}

	return result, nil
}

// Insert writes a single row and returns it as stored, including its assigned id.
func (s *Store) Insert(ctx context.Context, entity Entity, fields Row) (Row, error) {
	t, err := tableFor(entity)
	if err != nil {
		return nil, err
	}

	columns, args, err := t.writable(fields)
	if err != nil {
		return nil, err
	}

	var query string
	if len(columns) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", t.name, t.selectList())
	} else {
		placeholders := make([]string, len(columns))
		for i := range columns {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		query = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			t.name, strings.Join(columns, ", "), strings.Join(placeholders, ", "), t.selectList(),
		)
	}

	row, err := t.scan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.name, classify(err))
	}
	return row, nil
}

// Update applies fields to the row with the given id and returns the stored result.
func (s *Store) Update(ctx context.Context, entity Entity, id int64, fields Row) (Row, error) {
	t, err := tableFor(entity)
	if err != nil {
		return nil, err
	}

	columns, args, err := t.writable(fields)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("update %s: no columns provided", t.name)
	}

	assignments := make([]string, len(columns))
	for i, col := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		t.name, strings.Join(assignments, ", "), len(args), t.selectList(),
	)

	row, err := t.scan(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", t.name, classify(err))
	}
	return row, nil
}

// Delete removes the row with the given id.
func (s *Store) Delete(ctx context.Context, entity Entity, id int64) error {
	t, err := tableFor(entity)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.name), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, classify(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of rows matching the filter.
func (s *Store) Count(ctx context.Context, entity Entity, filter Filter) (int, error) {
	t, err := tableFor(entity)
	if err != nil {
		return 0, err
	}

	where, args, err := t.where(filter)
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s%s", t.name, where), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, classify(err))
	}
	return count, nil
}

// where renders the filter as a WHERE clause with columns in lexical order so
// generated SQL is stable.
func (t *table) where(filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(filter)
	var (
		clauses []string
		args    []any
	)
	for _, col := range keys {
		if !t.has(col) {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.name, col)
		}
		if filter[col] == nil {
			clauses = append(clauses, col+" IS NULL")
			continue
		}
		args = append(args, filter[col])
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// writable validates fields against the column whitelist. The id column is
// store-assigned and never written.
func (t *table) writable(fields Row) ([]string, []any, error) {
	keys := sortedKeys(fields)
	columns := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, col := range keys {
		if col == "id" || !t.has(col) {
			return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.name, col)
		}
		columns = append(columns, col)
		args = append(args, fields[col])
	}
	return columns, args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (t *table) scan(scanner rowScanner) (Row, error) {
	values := make([]any, len(t.columns))
	dest := make([]any, len(t.columns))
	for i := range values {
		dest[i] = &values[i]
	}

	if err := scanner.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}

	row := make(Row, len(t.columns))
	for i, col := range t.columns {
		row[col] = t.normalize(col, values[i])
	}
	return row, nil
}

// classify maps Postgres integrity (class 23) and data exception (class 22)
// errors to ErrInvalidData while keeping the driver message intact.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "23") || strings.HasPrefix(pgErr.Code, "22") {
			return fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
	}
	return err
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
