package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoVF1391/music-tracker/internal/config"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

func TestSeedReferenceDataOnlyFillsEmptyTables(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()
	_, err := backend.Insert(ctx, store.Genres, store.Row{"name": "Dubstep"})
	require.NoError(t, err)

	require.NoError(t, seedReferenceData(ctx, backend))
	require.NoError(t, seedReferenceData(ctx, backend))

	statuses, err := backend.Count(ctx, store.Statuses, nil)
	require.NoError(t, err)
	assert.Equal(t, len(defaultStatuses), statuses)

	genres, err := backend.Count(ctx, store.Genres, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, genres)
}

func TestHTTPHandlerServesAPIAndPages(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory

	handler, err := newHTTPHandler(cfg, store.NewMemory())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/songs", strings.NewReader(`{"name":"Demo","status":"new:Idea"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/songs", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Demo")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
