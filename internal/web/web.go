// Package web renders the server-side HTML pages.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/DiegoVF1391/music-tracker/internal/app/references"
	"github.com/DiegoVF1391/music-tracker/internal/app/songs"
	"github.com/DiegoVF1391/music-tracker/internal/dashboard"
	"github.com/DiegoVF1391/music-tracker/internal/logging"
	"github.com/DiegoVF1391/music-tracker/internal/songform"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// SongService is the subset of song operations the pages use.
type SongService interface {
	List(ctx context.Context, filter songs.Filter) ([]songs.Listing, error)
	Create(ctx context.Context, sub songform.Submission) (songs.Result, error)
	Delete(ctx context.Context, id int64) error
}

// ReferenceService lists reference rows by kind.
type ReferenceService interface {
	List(ctx context.Context, kind string, filter references.Filter) ([]store.Reference, error)
}

// DashboardService computes the dashboard summary.
type DashboardService interface {
	Summary(ctx context.Context) (dashboard.Summary, error)
}

// Handler serves the HTML pages.
type Handler struct {
	songs      SongService
	references ReferenceService
	dashboard  DashboardService
	tmpl       *template.Template
}

// New parses the embedded templates and returns a Handler.
func New(songs SongService, references ReferenceService, dashboard DashboardService) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"deref":    deref,
		"selected": selected,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		songs:      songs,
		references: references,
		dashboard:  dashboard,
		tmpl:       tmpl,
	}, nil
}

// Register mounts the pages on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.handleSongs).Methods(http.MethodGet)
	r.HandleFunc("/songs", h.handleSongs).Methods(http.MethodGet)
	r.HandleFunc("/songs/add", h.handleAddForm).Methods(http.MethodGet)
	r.HandleFunc("/songs/add", h.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/songs/delete/{id:[0-9]+}", h.handleDelete).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/artists", h.referencePage("artists", "Artists")).Methods(http.MethodGet)
	r.HandleFunc("/albums", h.referencePage("albums", "Albums")).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", h.handleDashboard).Methods(http.MethodGet)
}

type songsPage struct {
	Title    string
	Songs    []songs.Listing
	Statuses []store.Reference
}

type addPage struct {
	Title    string
	Error    string
	Artists  []store.Reference
	Albums   []store.Reference
	Genres   []store.Reference
	Statuses []store.Reference
}

type referencesPage struct {
	Title      string
	References []store.Reference
}

type dashboardPage struct {
	Title   string
	Summary dashboard.Summary
}

func (h *Handler) handleSongs(w http.ResponseWriter, r *http.Request) {
	listings, err := h.songs.List(r.Context(), songs.Filter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	statuses, err := h.references.List(r.Context(), "statuses", references.Filter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "songs.html", songsPage{Title: "Songs", Songs: listings, Statuses: statuses})
}

func (h *Handler) handleAddForm(w http.ResponseWriter, r *http.Request) {
	page, err := h.addPage(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "add.html", page)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sub, err := songform.DecodeRequest(r)
	if err == nil {
		_, err = h.songs.Create(r.Context(), sub)
	}
	if err == nil {
		http.Redirect(w, r, "/songs", http.StatusSeeOther)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, songform.ErrBodyTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, songform.ErrNoValidFields), errors.Is(err, store.ErrInvalidData):
		status = http.StatusBadRequest
	}

	page, pageErr := h.addPage(r.Context())
	if pageErr != nil {
		h.fail(w, r, pageErr)
		return
	}
	page.Error = err.Error()
	h.render(w, r, status, "add.html", page)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid song id", http.StatusBadRequest)
		return
	}
	if err := h.songs.Delete(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/songs", http.StatusSeeOther)
}

func (h *Handler) referencePage(kind, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := h.references.List(r.Context(), kind, references.Filter{Name: r.URL.Query().Get("name")})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.render(w, r, http.StatusOK, "references.html", referencesPage{Title: title, References: refs})
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboard.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard.html", dashboardPage{Title: "Dashboard", Summary: summary})
}

func (h *Handler) addPage(ctx context.Context) (addPage, error) {
	page := addPage{Title: "Add song"}
	for kind, dest := range map[string]*[]store.Reference{
		"artists":  &page.Artists,
		"albums":   &page.Albums,
		"genres":   &page.Genres,
		"statuses": &page.Statuses,
	} {
		refs, err := h.references.List(ctx, kind, references.Filter{})
		if err != nil {
			return addPage{}, err
		}
		*dest = refs
	}
	return page, nil
}

// render executes into a buffer first so template errors never produce a
// half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.fail(w, r, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Failed to serve page")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func deref(v any) string {
	switch val := v.(type) {
	case *string:
		if val != nil {
			return *val
		}
	case *int64:
		if val != nil {
			return strconv.FormatInt(*val, 10)
		}
	case *float64:
		if val != nil {
			return strconv.FormatFloat(*val, 'f', 1, 64)
		}
	}
	return ""
}

func selected(current *int64, id int64) bool {
	return current != nil && *current == id
}
