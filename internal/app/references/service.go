package references

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DiegoVF1391/music-tracker/internal/store"
)

// Kinds maps the plural names used in routes to the entities they list.
var Kinds = map[string]store.Entity{
	"artists":  store.Artists,
	"albums":   store.Albums,
	"genres":   store.Genres,
	"statuses": store.Statuses,
}

// Filter narrows the list of returned references.
type Filter struct {
	Name string
}

// Service lists reference rows.
type Service interface {
	List(ctx context.Context, kind string, filter Filter) ([]store.Reference, error)
}

type service struct {
	backend store.Backend
}

// New constructs a reference Service backed by the supplied store.
func New(backend store.Backend) Service {
	return &service{backend: backend}
}

// ErrUnknownKind is returned for a kind missing from Kinds.
var ErrUnknownKind = errors.New("unknown reference kind")

func (s *service) List(ctx context.Context, kind string, filter Filter) ([]store.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entity, ok := Kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	rows, err := s.backend.Find(ctx, entity, nil, 0)
	if err != nil {
		return nil, err
	}

	target := strings.ToLower(strings.TrimSpace(filter.Name))
	refs := make([]store.Reference, 0, len(rows))
	for _, row := range rows {
		ref := store.ReferenceFromRow(row)
		if target != "" && !strings.Contains(strings.ToLower(ref.Name), target) {
			continue
		}
		refs = append(refs, ref)
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return strings.ToLower(refs[i].Name) < strings.ToLower(refs[j].Name)
	})
	return refs, nil
}
