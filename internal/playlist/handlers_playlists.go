package playlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/krloslao/Listio/internal/auth"
)

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlists, err := s.store.ListByOwner(ctx, userID)
	if err != nil {
		s.log.Error("list playlists", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]PlaylistResponse, 0, len(playlists))
	for _, pl := range playlists {
		out = append(out, toResponse(pl))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreatePlaylist creates a new, empty playlist owned by the caller.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var body createPlaylistRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	title, err := body.validate()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	pl, err := s.store.Create(ctx, Playlist{
		OwnerID: userID,
		Title:   title,
		Tracks:  []Track{},
	})
	if err != nil {
		s.log.Error("create playlist", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	resp := toResponse(pl)
	s.publishEvent(ctx, EventPlaylistCreated, userID, map[string]any{"playlist": resp})

	writeJSON(w, http.StatusCreated, resp)
}

// handleUpdatePlaylist applies a partial update. Only whitelisted fields are
// copied into the patch; an id that matches nothing still answers 204.
func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	var body updatePlaylistRequest
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	patch, err := body.patch()
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if patch.IsEmpty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	matched, err := s.store.Update(ctx, playlistID, userID, patch)
	if err != nil {
		s.log.Error("update playlist", zap.String("playlist_id", playlistID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !matched {
		s.log.Debug("update playlist: no match", zap.String("playlist_id", playlistID), zap.String("user_id", userID))
	} else {
		s.publishEvent(ctx, EventPlaylistUpdated, userID, map[string]any{
			"playlistId": playlistID,
			"title":      *patch.Title,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	deleted, err := s.store.Delete(ctx, playlistID, userID)
	if err != nil {
		s.log.Error("delete playlist", zap.String("playlist_id", playlistID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if deleted {
		s.publishEvent(ctx, EventPlaylistDeleted, userID, map[string]any{"playlistId": playlistID})
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetPlaylistTracks returns the whole aggregate, tracks included.
func (s *Server) handleGetPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist id")
		return
	}

	pl, err := s.store.Get(ctx, playlistID, userID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	if err != nil {
		s.log.Error("get playlist", zap.String("playlist_id", playlistID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(pl))
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request")
}
