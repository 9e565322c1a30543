package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Backend. It enforces the same column whitelist,
// NOT NULL and foreign-key rules as the Postgres schema.
type Memory struct {
	mu     sync.RWMutex
	rows   map[Entity]map[int64]Row
	nextID map[Entity]int64
}

var _ Backend = (*Memory)(nil)
var _ Backend = (*Store)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	m := &Memory{
		rows:   make(map[Entity]map[int64]Row, len(tables)),
		nextID: make(map[Entity]int64, len(tables)),
	}
	for entity := range tables {
		m.rows[entity] = make(map[int64]Row)
		m.nextID[entity] = 1
	}
	return m
}

// Find returns rows matching every filter constraint ordered by id.
func (m *Memory) Find(ctx context.Context, entity Entity, filter Filter, limit int) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := tableFor(entity)
	if err != nil {
		return nil, err
	}
	for col := range filter {
		if !t.has(col) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, t.name, col)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Row
	for _, id := range m.sortedIDs(entity) {
		row := m.rows[entity][id]
		if !matches(row, filter) {
			continue
		}
		result = append(result, cloneRow(row))
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// Insert stores a new row, filling unspecified columns with their defaults.
func (m *Memory) Insert(ctx context.Context, entity Entity, fields Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := tableFor(entity)
	if err != nil {
		return nil, err
	}
	if _, _, err := t.writable(fields); err != nil {
		return nil, err
	}

	row := make(Row, len(t.columns))
	for _, col := range t.columns {
		row[col] = nil
	}
	if entity == Songs {
		row["in_album"] = false
	}
	for col, v := range fields {
		row[col] = normalizeValue(v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(t, row); err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.name, err)
	}

	id := m.nextID[entity]
	m.nextID[entity]++
	row["id"] = id
	m.rows[entity][id] = row

	return cloneRow(row), nil
}

// Update merges fields into the row with the given id.
func (m *Memory) Update(ctx context.Context, entity Entity, id int64, fields Row) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := tableFor(entity)
	if err != nil {
		return nil, err
	}
	columns, _, err := t.writable(fields)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("update %s: no columns provided", t.name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.rows[entity][id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := cloneRow(existing)
	for col, v := range fields {
		updated[col] = normalizeValue(v)
	}
	if err := m.check(t, updated); err != nil {
		return nil, fmt.Errorf("update %s: %w", t.name, err)
	}

	m.rows[entity][id] = updated
	return cloneRow(updated), nil
}

// Delete removes the row with the given id. Songs pointing at a deleted
// reference have that column cleared.
func (m *Memory) Delete(ctx context.Context, entity Entity, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := tableFor(entity); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[entity][id]; !ok {
		return ErrNotFound
	}
	delete(m.rows[entity], id)

	for col, target := range tables[Songs].references {
		if target != entity {
			continue
		}
		for _, song := range m.rows[Songs] {
			if ref, ok := Int64Value(song[col]); ok && ref == id {
				song[col] = nil
			}
		}
	}
	return nil
}

// Count returns the number of rows matching the filter.
func (m *Memory) Count(ctx context.Context, entity Entity, filter Filter) (int, error) {
	rows, err := m.Find(ctx, entity, filter, 0)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// check enforces NOT NULL, DATE and foreign-key rules. Callers hold the lock.
func (m *Memory) check(t *table, row Row) error {
	for col := range t.required {
		if row[col] == nil {
			return fmt.Errorf("%w: null value in column %q violates not-null constraint", ErrInvalidData, col)
		}
	}
	if t.name == "songs" && row["in_album"] == nil {
		return fmt.Errorf("%w: null value in column %q violates not-null constraint", ErrInvalidData, "in_album")
	}

	for col := range t.dates {
		v := row[col]
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: invalid input syntax for type date: %v", ErrInvalidData, v)
		}
		if _, err := time.Parse(dateLayout, s); err != nil {
			return fmt.Errorf("%w: invalid input syntax for type date: %q", ErrInvalidData, s)
		}
	}

	for col, target := range t.references {
		v := row[col]
		if v == nil {
			continue
		}
		id, ok := Int64Value(v)
		if !ok {
			return fmt.Errorf("%w: invalid input syntax for type bigint: %v", ErrInvalidData, v)
		}
		if _, exists := m.rows[target][id]; !exists {
			return fmt.Errorf("%w: insert or update on table %q violates foreign key constraint on %q: key (%s)=(%d) is not present in table %q",
				ErrInvalidData, t.name, col, col, id, tables[target].name)
		}
	}
	return nil
}

func (m *Memory) sortedIDs(entity Entity) []int64 {
	ids := make([]int64, 0, len(m.rows[entity]))
	for id := range m.rows[entity] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func matches(row Row, filter Filter) bool {
	for col, want := range filter {
		if !reflect.DeepEqual(row[col], normalizeValue(want)) {
			return false
		}
	}
	return true
}

// normalizeValue folds integer types to int64 so comparisons behave like the
// database's.
func normalizeValue(v any) any {
	switch v.(type) {
	case int, int32:
		n, _ := Int64Value(v)
		return n
	}
	return v
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
