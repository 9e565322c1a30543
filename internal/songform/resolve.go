package songform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DiegoVF1391/music-tracker/internal/logging"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

// CreateTokenPrefix marks a reference value as a request to insert a new row.
const CreateTokenPrefix = "new:"

// Kind names a reference entity in the created report.
type Kind string

const (
	KindArtist Kind = "artist"
	KindAlbum  Kind = "album"
	KindGenre  Kind = "genre"
	KindStatus Kind = "status"
)

// CreatedRef is a reference row inserted while resolving a request.
type CreatedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Created maps each kind to the row created for it.
type Created map[Kind]CreatedRef

// ReferenceStore is the subset of store.Backend the resolver needs.
type ReferenceStore interface {
	Find(ctx context.Context, entity store.Entity, filter store.Filter, limit int) ([]store.Row, error)
	Insert(ctx context.Context, entity store.Entity, fields store.Row) (store.Row, error)
}

type reference struct {
	kind   Kind
	entity store.Entity
	column string
	// keys are checked in order; the first present one supplies the value.
	keys []string
	// createOnMiss inserts the name when a lookup finds nothing.
	createOnMiss bool
}

var references = []reference{
	{kind: KindArtist, entity: store.Artists, column: "artist_id", keys: []string{"artist_id", "artist"}, createOnMiss: true},
	{kind: KindAlbum, entity: store.Albums, column: "album_id", keys: []string{"album_id", "album"}},
	{kind: KindGenre, entity: store.Genres, column: "genre", keys: []string{"genre"}},
	{kind: KindStatus, entity: store.Statuses, column: "status", keys: []string{"status"}},
}

// Resolver maps reference tokens to ids, inserting rows when asked.
type Resolver struct {
	store ReferenceStore
}

// NewResolver returns a Resolver over s.
func NewResolver(s ReferenceStore) *Resolver {
	return &Resolver{store: s}
}

// Resolve writes the id for every reference field present in bag into fields.
// Each field is resolved independently. Rows created along the way are
// returned even when another field fails, in which case the error is a
// *ResolveError and the failed fields are left out of fields.
func (r *Resolver) Resolve(ctx context.Context, bag map[string]any, fields Fields) (Created, error) {
	created := Created{}
	var failures []*FieldError

	for _, ref := range references {
		value, ok := ref.lookup(bag)
		if !ok {
			continue
		}

		id, made, err := r.resolve(ctx, ref, value)
		if err != nil {
			failures = append(failures, &FieldError{Field: ref.kind, Err: err})
			continue
		}
		if made != nil {
			created[ref.kind] = *made
		}
		fields[ref.column] = id
	}

	if len(failures) > 0 {
		return created, &ResolveError{Fields: failures}
	}
	return created, nil
}

func (ref reference) lookup(bag map[string]any) (any, bool) {
	for _, key := range ref.keys {
		if v, ok := bag[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// resolve returns the id for one value: nil for empty input or an
// unresolvable name, otherwise an int64.
func (r *Resolver) resolve(ctx context.Context, ref reference, value any) (any, *CreatedRef, error) {
	if isFalsy(value) {
		return nil, nil, nil
	}

	if s, ok := value.(string); ok && strings.HasPrefix(s, CreateTokenPrefix) {
		name := strings.TrimSpace(strings.TrimPrefix(s, CreateTokenPrefix))
		if name == "" {
			return nil, nil, nil
		}
		return r.create(ctx, ref, name)
	}

	if id, ok := directID(value); ok {
		return id, nil, nil
	}

	name, ok := value.(string)
	if !ok {
		return nil, nil, nil
	}

	rows, err := r.store.Find(ctx, ref.entity, store.Filter{"name": name}, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("find %s by name: %w", ref.kind, err)
	}
	if len(rows) > 0 {
		id, ok := store.Int64Value(rows[0]["id"])
		if !ok {
			return nil, nil, fmt.Errorf("find %s by name: unexpected id %v", ref.kind, rows[0]["id"])
		}
		return id, nil, nil
	}

	if !ref.createOnMiss {
		return nil, nil, nil
	}
	return r.create(ctx, ref, name)
}

func (r *Resolver) create(ctx context.Context, ref reference, name string) (any, *CreatedRef, error) {
	row, err := r.store.Insert(ctx, ref.entity, store.Row{"name": name})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", ref.kind, err)
	}
	created := store.ReferenceFromRow(row)

	logging.WithContext(ctx).Info().
		Str("kind", string(ref.kind)).
		Int64("id", created.ID).
		Str("name", created.Name).
		Msg("Created reference")

	return created.ID, &CreatedRef{ID: created.ID, Name: created.Name}, nil
}

// directID reports whether value is an integer id: an integral JSON number or
// a string holding a base-10 integer.
func directID(value any) (int64, bool) {
	if s, ok := value.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	return store.Int64Value(value)
}

// FieldError is a failure resolving one reference field.
type FieldError struct {
	Field Kind
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ResolveError aggregates field failures from a single Resolve call.
type ResolveError struct {
	Fields []*FieldError
}

func (e *ResolveError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "resolve references: " + strings.Join(parts, "; ")
}

func (e *ResolveError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}

// ErrNoValidFields is returned when a request carries nothing to write.
var ErrNoValidFields = errors.New("No valid fields to update provided.")
