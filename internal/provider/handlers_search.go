package provider

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxQueryLen = 200

// HandleSearch serves GET /track/{title}. The provider's result is returned
// as is, nothing is cached.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := chi.URLParam(r, "title")
	// chi matches on RawPath when the path had escaped slashes.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(q); err == nil {
			q = unescaped
		}
	}
	q = strings.TrimSpace(q)
	if q == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if utf8.RuneCountInString(q) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "title is too long")
		return
	}

	items, err := s.provider.SearchTracks(r.Context(), q, s.limit)
	if err != nil {
		s.log.Error("search tracks", zap.String("query", q), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query provider")
		return
	}
	if items == nil {
		items = []TrackMetadata{}
	}

	writeJSON(w, http.StatusOK, items)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
