package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoVF1391/music-tracker/internal/store"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCompute(t *testing.T) {
	today := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
	songs := []store.Song{
		{ID: 1, InAlbum: true, Rating: ptr(int64(4)), Status: ptr(int64(1)), DueDate: ptr("2024-05-30"), ReleaseDate: ptr("2024-06-01")},
		{ID: 2, Rating: ptr(int64(2)), Status: ptr(int64(2)), DueDate: ptr("2024-06-12"), ReleaseDate: ptr("2024-07-01")},
		{ID: 3, DueDate: ptr("2024-06-05")},
		{ID: 4, Status: ptr(int64(99)), DueDate: ptr("garbage")},
	}
	statuses := []store.Reference{{ID: 1, Name: "Writing"}, {ID: 2, Name: "Mixing"}}

	summary := Compute(songs, statuses, today)

	assert.Equal(t, "2024-06-10", summary.Today)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.InAlbum)
	assert.Equal(t, 1, summary.Released)
	assert.Equal(t, 1, summary.Scheduled)
	assert.Equal(t, 2, summary.PendingWithDue)
	assert.Equal(t, 1, summary.Overdue)
	assert.Equal(t, 1, summary.DueSoon)
	assert.Equal(t, 25.0, summary.ReleasedPercent)
	assert.Equal(t, 25.0, summary.OverduePercent)

	require.NotNil(t, summary.AverageRating)
	assert.Equal(t, 3.0, *summary.AverageRating)
	require.NotNil(t, summary.AvgDaysDueToRelease)
	assert.Equal(t, 2.0, *summary.AvgDaysDueToRelease)
	require.NotNil(t, summary.AvgDaysUntilDue)
	assert.Equal(t, 2.0, *summary.AvgDaysUntilDue)

	require.Len(t, summary.ByStatus, 3)
	assert.Equal(t, "Writing", summary.ByStatus[0].Name)
	assert.Equal(t, 1, summary.ByStatus[0].Count)
	assert.Equal(t, 25.0, summary.ByStatus[1].Percent)
	assert.Nil(t, summary.ByStatus[2].ID)
	assert.Equal(t, 2, summary.ByStatus[2].Count)
	assert.Equal(t, 50.0, summary.ByStatus[2].Percent)
}

func TestComputeEmpty(t *testing.T) {
	summary := Compute(nil, nil, time.Now())

	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.ReleasedPercent)
	assert.Nil(t, summary.AverageRating)
	assert.Nil(t, summary.AvgDaysUntilDue)
	assert.Empty(t, summary.ByStatus)
}

func TestServiceSummaryReadsStore(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	status, err := m.Insert(ctx, store.Statuses, store.Row{"name": "Released"})
	require.NoError(t, err)
	_, err = m.Insert(ctx, store.Songs, store.Row{"name": "Out", "status": status["id"], "release_date": "2024-01-01"})
	require.NoError(t, err)

	svc := New(m)
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Released)
	assert.Equal(t, 100.0, summary.ReleasedPercent)
	require.Len(t, summary.ByStatus, 1)
	assert.Equal(t, "Released", summary.ByStatus[0].Name)
}
