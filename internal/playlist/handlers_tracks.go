package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/krloslao/Listio/internal/auth"
)

// handleAddTrack appends a track entry to the end of the playlist.
func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
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

	var body Track
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	track, err := validateTrack(body)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	matched, err := s.store.PushTrack(ctx, playlistID, userID, track)
	if err != nil {
		s.log.Error("add track", zap.String("playlist_id", playlistID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !matched {
		s.log.Debug("add track: no match", zap.String("playlist_id", playlistID), zap.String("user_id", userID))
	} else {
		s.publishEvent(ctx, EventTrackAdded, userID, map[string]any{
			"playlistId": playlistID,
			"track":      track,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveTrack drops every entry whose songId equals {trackId}.
func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	playlistID := chi.URLParam(r, "id")
	songID := pathParam(r, "trackId")
	if playlistID == "" || songID == "" {
		writeError(w, http.StatusBadRequest, "missing playlist or track id")
		return
	}

	matched, err := s.store.PullTracks(ctx, playlistID, userID, songID)
	if err != nil {
		s.log.Error("remove track", zap.String("playlist_id", playlistID), zap.String("song_id", songID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if matched {
		s.publishEvent(ctx, EventTrackRemoved, userID, map[string]any{
			"playlistId": playlistID,
			"songId":     songID,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}
