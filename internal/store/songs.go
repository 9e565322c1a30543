package store

import (
	"encoding/json"
	"math"
	"strconv"
)

// Song is the typed view of a songs row.
type Song struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ProjectName *string `json:"project_name"`
	Path        *string `json:"path"`
	URL         *string `json:"url"`
	Rating      *int64  `json:"rating"`
	InAlbum     bool    `json:"in_album"`
	DueDate     *string `json:"due_date"`
	ReleaseDate *string `json:"release_date"`
	ArtistID    *int64  `json:"artist_id"`
	AlbumID     *int64  `json:"album_id"`
	Genre       *int64  `json:"genre"`
	Status      *int64  `json:"status"`
}

// Reference is a named lookup row: an artist, album, genre or status.
type Reference struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SongFromRow converts a songs row into a Song. Columns with unexpected types
// are left at their zero value.
func SongFromRow(row Row) Song {
	song := Song{
		ProjectName: stringPtr(row["project_name"]),
		Path:        stringPtr(row["path"]),
		URL:         stringPtr(row["url"]),
		Rating:      int64Ptr(row["rating"]),
		DueDate:     stringPtr(row["due_date"]),
		ReleaseDate: stringPtr(row["release_date"]),
		ArtistID:    int64Ptr(row["artist_id"]),
		AlbumID:     int64Ptr(row["album_id"]),
		Genre:       int64Ptr(row["genre"]),
		Status:      int64Ptr(row["status"]),
	}
	song.ID, _ = Int64Value(row["id"])
	if name, ok := row["name"].(string); ok {
		song.Name = name
	}
	if inAlbum, ok := row["in_album"].(bool); ok {
		song.InAlbum = inAlbum
	}
	return song
}

// ReferenceFromRow converts a reference row into a Reference.
func ReferenceFromRow(row Row) Reference {
	ref := Reference{}
	ref.ID, _ = Int64Value(row["id"])
	if name, ok := row["name"].(string); ok {
		ref.Name = name
	}
	return ref
}

// Int64Value reports the integer held by v. Floats qualify only when they have
// no fractional part.
func Int64Value(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return int64(val), true
		}
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func stringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func int64Ptr(v any) *int64 {
	n, ok := Int64Value(v)
	if !ok {
		return nil
	}
	return &n
}
