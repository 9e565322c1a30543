package httpapi

import (
	"net/http"
	"strconv"

	"github.com/DiegoVF1391/music-tracker/internal/app/songs"
	"github.com/DiegoVF1391/music-tracker/internal/songform"
)

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	var filter songs.Filter
	query := r.URL.Query()
	for key, target := range map[string]**int64{
		"artist_id": &filter.ArtistID,
		"album_id":  &filter.AlbumID,
		"genre":     &filter.Genre,
		"status":    &filter.Status,
	} {
		raw := query.Get(key)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + key})
			return
		}
		*target = &id
	}

	listings, err := s.songs.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if listings == nil {
		listings = []songs.Listing{}
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: listings})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return
	}

	listing, err := s.songs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: listing})
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	sub, err := songform.DecodeRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := s.songs.Create(r.Context(), sub)
	if err != nil {
		writeError(w, err, result.Created)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: result.Song, Created: result.Created})
}

func (s *Server) handleEditSong(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return
	}

	sub, err := songform.DecodeRequest(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	result, err := s.songs.Update(r.Context(), id, sub)
	if err != nil {
		writeError(w, err, result.Created)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: result.Song, Created: result.Created})
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid song id"})
		return
	}

	if err := s.songs.Delete(r.Context(), id); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
