package migrations

import (
	"io"
	"strings"
	"testing"
)

func TestEmbeddedSourceStartsAtVersionOne(t *testing.T) {
	src, err := Source()
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected first version 1, got %d", version)
	}

	r, _, err := src.ReadUp(version)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, table := range []string{"artists", "albums", "genres", "song_statuses", "songs"} {
		if !strings.Contains(string(body), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("migration does not create %s", table)
		}
	}
	if strings.Contains(strings.ToUpper(string(body)), "UNIQUE") {
		t.Fatalf("reference names must not be unique")
	}
}
