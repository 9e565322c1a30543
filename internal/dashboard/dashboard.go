// Package dashboard aggregates release progress across songs.
package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/DiegoVF1391/music-tracker/internal/store"
)

const (
	dateLayout  = "2006-01-02"
	dueSoonDays = 7
)

// StatusCount is the number of songs in one workflow status. ID is nil for
// songs without a known status.
type StatusCount struct {
	ID      *int64  `json:"id"`
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary is the dashboard view of all songs relative to a given day.
// AvgDaysDueToRelease is negative when songs ship ahead of their due date.
type Summary struct {
	Today               string        `json:"today"`
	Total               int           `json:"total"`
	InAlbum             int           `json:"in_album"`
	Released            int           `json:"released"`
	Scheduled           int           `json:"scheduled"`
	PendingWithDue      int           `json:"pending_with_due"`
	Overdue             int           `json:"overdue"`
	DueSoon             int           `json:"due_soon"`
	ReleasedPercent     float64       `json:"released_percent"`
	OverduePercent      float64       `json:"overdue_percent"`
	AverageRating       *float64      `json:"average_rating"`
	AvgDaysDueToRelease *float64      `json:"avg_days_due_to_release"`
	AvgDaysUntilDue     *float64      `json:"avg_days_until_due"`
	ByStatus            []StatusCount `json:"by_status"`
}

// Compute builds a Summary in a single pass over songs. Dates that do not
// parse as YYYY-MM-DD are treated as absent.
func Compute(songs []store.Song, statuses []store.Reference, today time.Time) Summary {
	day := truncateDay(today)
	summary := Summary{Today: day.Format(dateLayout), Total: len(songs)}

	var (
		ratingSum, ratingN         float64
		releaseLagSum, releaseLagN float64
		untilDueSum, untilDueN     float64
		statusCounts               = make(map[int64]int, len(statuses))
		noStatus                   int
	)
	known := make(map[int64]bool, len(statuses))
	for _, st := range statuses {
		known[st.ID] = true
	}

	for _, song := range songs {
		if song.InAlbum {
			summary.InAlbum++
		}
		if song.Rating != nil {
			ratingSum += float64(*song.Rating)
			ratingN++
		}
		if song.Status != nil && known[*song.Status] {
			statusCounts[*song.Status]++
		} else {
			noStatus++
		}

		release, hasRelease := parseDate(song.ReleaseDate)
		due, hasDue := parseDate(song.DueDate)
		released := hasRelease && !release.After(day)

		switch {
		case released:
			summary.Released++
			if hasDue {
				releaseLagSum += days(release.Sub(due))
				releaseLagN++
			}
			continue
		case hasRelease:
			summary.Scheduled++
		}

		if !hasDue {
			continue
		}
		summary.PendingWithDue++
		if due.Before(day) {
			summary.Overdue++
			continue
		}
		if !due.After(day.AddDate(0, 0, dueSoonDays)) {
			summary.DueSoon++
		}
		untilDueSum += days(due.Sub(day))
		untilDueN++
	}

	summary.ReleasedPercent = percent(summary.Released, summary.Total)
	summary.OverduePercent = percent(summary.Overdue, summary.Total)
	summary.AverageRating = average(ratingSum, ratingN)
	summary.AvgDaysDueToRelease = average(releaseLagSum, releaseLagN)
	summary.AvgDaysUntilDue = average(untilDueSum, untilDueN)

	summary.ByStatus = make([]StatusCount, 0, len(statuses)+1)
	for _, st := range statuses {
		id := st.ID
		summary.ByStatus = append(summary.ByStatus, StatusCount{
			ID:      &id,
			Name:    st.Name,
			Count:   statusCounts[st.ID],
			Percent: percent(statusCounts[st.ID], summary.Total),
		})
	}
	if noStatus > 0 {
		summary.ByStatus = append(summary.ByStatus, StatusCount{
			Name:    "No status",
			Count:   noStatus,
			Percent: percent(noStatus, summary.Total),
		})
	}

	return summary
}

// Service computes the dashboard from the store.
type Service struct {
	backend store.Backend
	now     func() time.Time
}

// New returns a Service reading from backend.
func New(backend store.Backend) *Service {
	return &Service{backend: backend, now: time.Now}
}

// Summary fetches songs and statuses and computes the dashboard for today.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	songRows, err := s.backend.Find(ctx, store.Songs, nil, 0)
	if err != nil {
		return Summary{}, err
	}
	statusRows, err := s.backend.Find(ctx, store.Statuses, nil, 0)
	if err != nil {
		return Summary{}, err
	}

	songs := make([]store.Song, len(songRows))
	for i, row := range songRows {
		songs[i] = store.SongFromRow(row)
	}
	statuses := make([]store.Reference, len(statusRows))
	for i, row := range statusRows {
		statuses[i] = store.ReferenceFromRow(row)
	}

	return Compute(songs, statuses, s.now()), nil
}

func parseDate(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(n) * 100 / float64(total))
}

func average(sum, n float64) *float64 {
	if n == 0 {
		return nil
	}
	avg := round1(sum / n)
	return &avg
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
