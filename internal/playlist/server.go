package playlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	store   Store
	events  Publisher
	channel string
	log     *zap.Logger
}

// NewServer wires the playlist handlers. events may be nil, in which case
// change notifications are skipped.
func NewServer(store Store, events Publisher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:   store,
		events:  events,
		channel: DefaultEventsChannel,
		log:     log,
	}
}

func (s *Server) WithEventsChannel(channel string) *Server {
	if channel != "" {
		s.channel = channel
	}
	return s
}

// Routes registers the playlist endpoints on r. Authentication is the
// caller's concern: every handler expects a user id in the request context.
func (s *Server) Routes(r chi.Router) {
	r.Get("/playlist", s.handleListPlaylists)
	r.Post("/playlist", s.handleCreatePlaylist)
	r.Put("/playlist/{id}", s.handleUpdatePlaylist)
	r.Delete("/playlist/{id}", s.handleDeletePlaylist)

	r.Get("/playlist/{id}/tracks", s.handleGetPlaylistTracks)
	r.Post("/playlist/{id}/track", s.handleAddTrack)
	r.Delete("/playlist/{id}/track/{trackId}", s.handleRemoveTrack)
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}
	s.Routes(r)
	return r
}
