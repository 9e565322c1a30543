package songs

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoVF1391/music-tracker/internal/songform"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

// countingBackend records song writes on top of the in-memory store.
type countingBackend struct {
	*store.Memory
	songWrites int
}

func (c *countingBackend) Insert(ctx context.Context, entity store.Entity, fields store.Row) (store.Row, error) {
	if entity == store.Songs {
		c.songWrites++
	}
	return c.Memory.Insert(ctx, entity, fields)
}

func (c *countingBackend) Update(ctx context.Context, entity store.Entity, id int64, fields store.Row) (store.Row, error) {
	if entity == store.Songs {
		c.songWrites++
	}
	return c.Memory.Update(ctx, entity, id, fields)
}

func jsonSub(obj map[string]any) songform.Submission {
	return songform.JSONSubmission{Object: obj}
}

func TestCreateResolvesAndReportsCreated(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: store.NewMemory()}
	svc := New(backend)

	result, err := svc.Create(ctx, songform.FormSubmission{Values: url.Values{
		"name":     {"Bangarang"},
		"artist":   {"new:Skrillex"},
		"rating":   {"five"},
		"in_album": {"yes"},
		"url":      {""},
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.songWrites)
	assert.Equal(t, "Bangarang", result.Song.Name)
	assert.True(t, result.Song.InAlbum)
	assert.Nil(t, result.Song.Rating)
	assert.Nil(t, result.Song.URL)
	require.Contains(t, result.Created, songform.KindArtist)
	require.NotNil(t, result.Song.ArtistID)
	assert.Equal(t, result.Created[songform.KindArtist].ID, *result.Song.ArtistID)

	listing, err := svc.Get(ctx, result.Song.ID)
	require.NoError(t, err)
	require.NotNil(t, listing.ArtistName)
	assert.Equal(t, "Skrillex", *listing.ArtistName)
}

func TestUpdateWithNoFieldsNeverWrites(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: store.NewMemory()}
	svc := New(backend)

	_, err := svc.Update(ctx, 1, jsonSub(map[string]any{"unknown": "x"}))
	assert.ErrorIs(t, err, songform.ErrNoValidFields)
	assert.Zero(t, backend.songWrites)

	_, err = svc.Update(ctx, 1, songform.FormSubmission{Values: url.Values{}})
	assert.ErrorIs(t, err, songform.ErrNoValidFields)
	assert.Zero(t, backend.songWrites)
}

func TestUpdateIsIdempotentWithResolvedIDs(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{Memory: store.NewMemory()}
	svc := New(backend)

	artist, err := backend.Memory.Insert(ctx, store.Artists, store.Row{"name": "Skrillex"})
	require.NoError(t, err)
	created, err := svc.Create(ctx, jsonSub(map[string]any{"name": "Demo"}))
	require.NoError(t, err)

	sub := jsonSub(map[string]any{"artist": "Skrillex", "rating": "4", "due_date": "2024-06-01"})
	first, err := svc.Update(ctx, created.Song.ID, sub)
	require.NoError(t, err)
	second, err := svc.Update(ctx, created.Song.ID, sub)
	require.NoError(t, err)

	assert.Equal(t, first.Song, second.Song)
	assert.Empty(t, second.Created)
	require.NotNil(t, second.Song.ArtistID)
	assert.Equal(t, artist["id"], *second.Song.ArtistID)

	count, err := backend.Count(ctx, store.Artists, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateMissingSongKeepsCreatedReferences(t *testing.T) {
	ctx := context.Background()
	svc := New(store.NewMemory())

	result, err := svc.Update(ctx, 404, jsonSub(map[string]any{"genre": "new:Dubstep"}))
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, result.Created, songform.KindGenre)
}

func TestCreateSurfacesConstraintErrors(t *testing.T) {
	ctx := context.Background()
	svc := New(store.NewMemory())

	result, err := svc.Create(ctx, jsonSub(map[string]any{"name": "Demo", "status": "99", "album": "new:LP"}))
	assert.ErrorIs(t, err, store.ErrInvalidData)
	assert.Contains(t, result.Created, songform.KindAlbum)
}

func TestListFiltersAndJoinsNames(t *testing.T) {
	ctx := context.Background()
	svc := New(store.NewMemory())

	a, err := svc.Create(ctx, jsonSub(map[string]any{"name": "One", "status": "new:Mixing"}))
	require.NoError(t, err)
	_, err = svc.Create(ctx, jsonSub(map[string]any{"name": "Two"}))
	require.NoError(t, err)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	statusID := a.Created[songform.KindStatus].ID
	filtered, err := svc.List(ctx, Filter{Status: &statusID})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "One", filtered[0].Name)
	require.NotNil(t, filtered[0].StatusName)
	assert.Equal(t, "Mixing", *filtered[0].StatusName)
	assert.Nil(t, filtered[0].ArtistName)
}

func TestGetAndDeleteMissingSong(t *testing.T) {
	ctx := context.Background()
	svc := New(store.NewMemory())

	_, err := svc.Get(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 1), store.ErrNotFound)
}
