package store

import (
	"fmt"
	"strings"
	"time"
)

// Entity names a table the application reads and writes.
type Entity string

const (
	Songs    Entity = "songs"
	Artists  Entity = "artists"
	Albums   Entity = "albums"
	Genres   Entity = "genres"
	Statuses Entity = "song_statuses"
)

// dateLayout is the text form used for DATE columns in rows.
const dateLayout = "2006-01-02"

type table struct {
	name    string
	columns []string
	dates   map[string]bool
	// references maps foreign-key columns to the entity they point at.
	references map[string]Entity
	required   map[string]bool
}

var tables = map[Entity]*table{
	Songs: {
		name: "songs",
		columns: []string{
			"id", "name", "project_name", "path", "url", "rating", "in_album",
			"due_date", "release_date", "artist_id", "album_id", "genre", "status",
		},
		dates: map[string]bool{"due_date": true, "release_date": true},
		references: map[string]Entity{
			"artist_id": Artists,
			"album_id":  Albums,
			"genre":     Genres,
			"status":    Statuses,
		},
		required: map[string]bool{"name": true},
	},
	Artists:  referenceTable("artists"),
	Albums:   referenceTable("albums"),
	Genres:   referenceTable("genres"),
	Statuses: referenceTable("song_statuses"),
}

func referenceTable(name string) *table {
	return &table{
		name:     name,
		columns:  []string{"id", "name"},
		required: map[string]bool{"name": true},
	}
}

func tableFor(entity Entity) (*table, error) {
	t, ok := tables[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, string(entity))
	}
	return t, nil
}

func (t *table) has(column string) bool {
	for _, c := range t.columns {
		if c == column {
			return true
		}
	}
	return false
}

func (t *table) selectList() string {
	return strings.Join(t.columns, ", ")
}

// normalize converts driver values into the plain Go values rows carry:
// text as string, integers as int64 and DATE columns as YYYY-MM-DD strings.
func (t *table) normalize(column string, v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case time.Time:
		if t.dates[column] {
			return val.Format(dateLayout)
		}
		return val.Format(time.RFC3339)
	default:
		return val
	}
}
