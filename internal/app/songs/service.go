package songs

import (
	"context"
	"errors"

	"github.com/DiegoVF1391/music-tracker/internal/logging"
	"github.com/DiegoVF1391/music-tracker/internal/songform"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

// Listing is a song together with the names of the rows it references.
type Listing struct {
	store.Song
	ArtistName *string `json:"artist_name"`
	AlbumName  *string `json:"album_name"`
	GenreName  *string `json:"genre_name"`
	StatusName *string `json:"status_name"`
}

// Filter narrows List to songs referencing the given rows.
type Filter struct {
	ArtistID *int64
	AlbumID  *int64
	Genre    *int64
	Status   *int64
}

// Result is the outcome of a create or edit. Created is populated even when
// the write fails, since reference rows are not rolled back.
type Result struct {
	Song    store.Song
	Created songform.Created
}

// Service exposes song-centric operations.
type Service interface {
	List(ctx context.Context, filter Filter) ([]Listing, error)
	Get(ctx context.Context, id int64) (Listing, error)
	Create(ctx context.Context, sub songform.Submission) (Result, error)
	Update(ctx context.Context, id int64, sub songform.Submission) (Result, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	backend  store.Backend
	resolver *songform.Resolver
}

// New constructs a song Service backed by the provided store.
func New(backend store.Backend) Service {
	return &service{
		backend:  backend,
		resolver: songform.NewResolver(backend),
	}
}

func (s *service) List(ctx context.Context, filter Filter) ([]Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.backend.Find(ctx, store.Songs, filter.toStore(), 0)
	if err != nil {
		return nil, err
	}

	names, err := s.referenceNames(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, names.join(store.SongFromRow(row)))
	}
	return listings, nil
}

func (s *service) Get(ctx context.Context, id int64) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	rows, err := s.backend.Find(ctx, store.Songs, store.Filter{"id": id}, 1)
	if err != nil {
		return Listing{}, err
	}
	if len(rows) == 0 {
		return Listing{}, store.ErrNotFound
	}

	names, err := s.referenceNames(ctx)
	if err != nil {
		return Listing{}, err
	}
	return names.join(store.SongFromRow(rows[0])), nil
}

func (s *service) Create(ctx context.Context, sub songform.Submission) (Result, error) {
	return s.write(ctx, sub, func(fields store.Row) (store.Row, error) {
		return s.backend.Insert(ctx, store.Songs, fields)
	})
}

func (s *service) Update(ctx context.Context, id int64, sub songform.Submission) (Result, error) {
	return s.write(ctx, sub, func(fields store.Row) (store.Row, error) {
		return s.backend.Update(ctx, store.Songs, id, fields)
	})
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.Delete(ctx, store.Songs, id)
}

// write normalizes and resolves sub, then performs exactly one song write.
func (s *service) write(ctx context.Context, sub songform.Submission, apply func(store.Row) (store.Row, error)) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	bag := sub.Bag()
	fields := songform.Normalize(bag)

	created, err := s.resolver.Resolve(ctx, bag, fields)
	result := Result{Created: created}
	if err != nil {
		logging.WithContext(ctx).Error().Err(err).Interface("created", created).Msg("Failed to resolve song references")
		return result, err
	}

	if len(fields) == 0 {
		return result, songform.ErrNoValidFields
	}

	row, err := apply(store.Row(fields))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.WithContext(ctx).Error().Err(err).Interface("created", created).Msg("Failed to write song")
		}
		return result, err
	}

	result.Song = store.SongFromRow(row)
	return result, nil
}

type nameIndex map[store.Entity]map[int64]string

func (s *service) referenceNames(ctx context.Context) (nameIndex, error) {
	index := nameIndex{}
	for _, entity := range []store.Entity{store.Artists, store.Albums, store.Genres, store.Statuses} {
		rows, err := s.backend.Find(ctx, entity, nil, 0)
		if err != nil {
			return nil, err
		}
		names := make(map[int64]string, len(rows))
		for _, row := range rows {
			ref := store.ReferenceFromRow(row)
			names[ref.ID] = ref.Name
		}
		index[entity] = names
	}
	return index, nil
}

func (n nameIndex) join(song store.Song) Listing {
	return Listing{
		Song:       song,
		ArtistName: n.name(store.Artists, song.ArtistID),
		AlbumName:  n.name(store.Albums, song.AlbumID),
		GenreName:  n.name(store.Genres, song.Genre),
		StatusName: n.name(store.Statuses, song.Status),
	}
}

func (n nameIndex) name(entity store.Entity, id *int64) *string {
	if id == nil {
		return nil
	}
	name, ok := n[entity][*id]
	if !ok {
		return nil
	}
	return &name
}

func (f Filter) toStore() store.Filter {
	filter := store.Filter{}
	if f.ArtistID != nil {
		filter["artist_id"] = *f.ArtistID
	}
	if f.AlbumID != nil {
		filter["album_id"] = *f.AlbumID
	}
	if f.Genre != nil {
		filter["genre"] = *f.Genre
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	return filter
}
