package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/DiegoVF1391/music-tracker/internal/app/references"
	"github.com/DiegoVF1391/music-tracker/internal/app/songs"
	"github.com/DiegoVF1391/music-tracker/internal/dashboard"
	"github.com/DiegoVF1391/music-tracker/internal/songform"
	"github.com/DiegoVF1391/music-tracker/internal/store"
)

// SongService coordinates song listing and writes.
type SongService interface {
	List(ctx context.Context, filter songs.Filter) ([]songs.Listing, error)
	Get(ctx context.Context, id int64) (songs.Listing, error)
	Create(ctx context.Context, sub songform.Submission) (songs.Result, error)
	Update(ctx context.Context, id int64, sub songform.Submission) (songs.Result, error)
	Delete(ctx context.Context, id int64) error
}

// ReferenceService lists artists, albums, genres and statuses.
type ReferenceService interface {
	List(ctx context.Context, kind string, filter references.Filter) ([]store.Reference, error)
}

// DashboardService computes the release dashboard.
type DashboardService interface {
	Summary(ctx context.Context) (dashboard.Summary, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	songs      SongService
	references ReferenceService
	dashboard  DashboardService
}

// New configures a Server with the given services.
func New(songs SongService, references ReferenceService, dashboard DashboardService) *Server {
	return &Server{
		songs:      songs,
		references: references,
		dashboard:  dashboard,
	}
}

// Register mounts the JSON API on r.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/songs", s.handleListSongs).Methods(http.MethodGet)
	api.HandleFunc("/songs", s.handleCreateSong).Methods(http.MethodPost)
	api.HandleFunc("/songs/{id:[0-9]+}", s.handleGetSong).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}", s.handleEditSong).Methods(http.MethodPut, http.MethodPatch, http.MethodPost)
	api.HandleFunc("/songs/{id:[0-9]+}", s.handleDeleteSong).Methods(http.MethodDelete)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/{kind:artists|albums|genres|statuses}", s.handleReferences).Methods(http.MethodGet)

	// Legacy edit endpoint used by the song list page.
	r.HandleFunc("/songs/edit/{id:[0-9]+}", s.handleEditSong).Methods(http.MethodPost)
}

// Routes exposes the JSON API as a standalone handler.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Created songform.Created  `json:"created,omitempty"`
}

type dataResponse struct {
	Success bool             `json:"success"`
	Data    any              `json:"data"`
	Created songform.Created `json:"created,omitempty"`
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	refs, err := s.references.List(r.Context(), kind, references.Filter{Name: r.URL.Query().Get("name")})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: refs})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.Summary(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: summary})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, songform.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, songform.ErrNoValidFields):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInvalidData), errors.Is(err, store.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, references.ErrUnknownKind):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err with its message intact. Reference rows created
// before the failure are included so clients can see the partial outcome.
func writeError(w http.ResponseWriter, err error, created songform.Created) {
	resp := errorResponse{Error: err.Error(), Created: created}

	var resolveErr *songform.ResolveError
	if errors.As(err, &resolveErr) {
		resp.Fields = make(map[string]string, len(resolveErr.Fields))
		for _, f := range resolveErr.Fields {
			resp.Fields[string(f.Field)] = f.Err.Error()
		}
	}

	writeJSON(w, statusFor(err), resp)
}

// writeDecodeError reports a body that could not be read as a submission.
func writeDecodeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, songform.ErrBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
