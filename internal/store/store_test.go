package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

const songColumns = "id, name, project_name, path, url, rating, in_album, due_date, release_date, artist_id, album_id, genre, status"

func songRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "project_name", "path", "url", "rating", "in_album",
		"due_date", "release_date", "artist_id", "album_id", "genre", "status",
	})
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestFindByNameWithLimit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM artists WHERE name = $1 ORDER BY id ASC LIMIT $2`)).
		WithArgs("Skrillex", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(4), "Skrillex"))

	rows, err := s.Find(context.Background(), Artists, Filter{"name": "Skrillex"}, 1)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["id"] != int64(4) || rows[0]["name"] != "Skrillex" {
		t.Fatalf("unexpected row: %#v", rows[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindOrdersFilterColumnsAndHandlesNull(t *testing.T) {
	s, mock := newMockStore(t)

	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + songColumns + ` FROM songs WHERE album_id IS NULL AND artist_id = $1 ORDER BY id ASC`)).
		WithArgs(int64(3)).
		WillReturnRows(songRows().AddRow(
			int64(9), "Bangarang", nil, nil, nil, int64(5), false,
			due, nil, int64(3), nil, nil, int64(2),
		))

	rows, err := s.Find(context.Background(), Songs, Filter{"artist_id": int64(3), "album_id": nil}, 0)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["due_date"] != "2024-03-01" {
		t.Fatalf("expected date column formatted, got %#v", rows[0]["due_date"])
	}

	song := SongFromRow(rows[0])
	if song.Name != "Bangarang" || song.Rating == nil || *song.Rating != 5 || song.AlbumID != nil {
		t.Fatalf("unexpected song: %+v", song)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindRejectsUnknownColumn(t *testing.T) {
	s, _ := newMockStore(t)

	_, err := s.Find(context.Background(), Artists, Filter{"nickname": "x"}, 0)
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestSelectListJoinsColumns(t *testing.T) {
	if got := tables[Songs].selectList(); got != songColumns {
		t.Fatalf("unexpected select list %q", got)
	}
	if got := tables[Genres].selectList(); got != "id, name" {
		t.Fatalf("unexpected select list %q", got)
	}
}

func TestInsertReturnsStoredRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO artists (name) VALUES ($1) RETURNING id, name`)).
		WithArgs("Skrillex").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(12), "Skrillex"))

	row, err := s.Insert(context.Background(), Artists, Row{"name": "Skrillex"})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if ref := ReferenceFromRow(row); ref.ID != 12 || ref.Name != "Skrillex" {
		t.Fatalf("unexpected reference: %+v", ref)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertClassifiesConstraintViolations(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "foreign key", code: "23503", want: true},
		{name: "not null", code: "23502", want: true},
		{name: "bad date", code: "22007", want: true},
		{name: "connection failure", code: "08006", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			pgErr := &pgconn.PgError{Code: tc.code, Message: "boom"}
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO songs (artist_id, name) VALUES ($1, $2) RETURNING ` + songColumns)).
				WithArgs(int64(99), "Song").
				WillReturnError(pgErr)

			_, err := s.Insert(context.Background(), Songs, Row{"name": "Song", "artist_id": int64(99)})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, ErrInvalidData); got != tc.want {
				t.Fatalf("errors.Is(ErrInvalidData) = %v, want %v (err=%v)", got, tc.want, err)
			}
			var target *pgconn.PgError
			if !errors.As(err, &target) {
				t.Fatalf("expected driver error to stay in the chain: %v", err)
			}
		})
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE songs SET name = $1, rating = $2 WHERE id = $3 RETURNING ` + songColumns)).
		WithArgs("Renamed", int64(3), int64(404)).
		WillReturnRows(songRows())

	_, err := s.Update(context.Background(), Songs, 404, Row{"rating": int64(3), "name": "Renamed"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateRejectsIDColumn(t *testing.T) {
	s, _ := newMockStore(t)

	_, err := s.Update(context.Background(), Songs, 1, Row{"id": int64(2)})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM songs WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM songs WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Delete(context.Background(), Songs, 7); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := s.Delete(context.Background(), Songs, 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM song_statuses`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(6)))

	count, err := s.Count(context.Background(), Statuses, nil)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
