package references

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoVF1391/music-tracker/internal/store"
)

func TestListSortsAndFilters(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	for _, name := range []string{"zeds dead", "Skrillex", "Porter Robinson"} {
		_, err := m.Insert(ctx, store.Artists, store.Row{"name": name})
		require.NoError(t, err)
	}

	svc := New(m)

	refs, err := svc.List(ctx, "artists", Filter{})
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, []string{"Porter Robinson", "Skrillex", "zeds dead"}, []string{refs[0].Name, refs[1].Name, refs[2].Name})

	refs, err = svc.List(ctx, "artists", Filter{Name: " rob"})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Porter Robinson", refs[0].Name)
}

func TestListUnknownKind(t *testing.T) {
	_, err := New(store.NewMemory()).List(context.Background(), "labels", Filter{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
