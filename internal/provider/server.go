package provider

import (
	"context"

	"go.uber.org/zap"
)

const defaultLimit = 10

// Provider searches a third-party catalog by free-text title.
type Provider interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]TrackMetadata, error)
}

type Server struct {
	provider Provider
	limit    int
	log      *zap.Logger
}

func NewServer(p Provider, limit int, log *zap.Logger) *Server {
	if limit <= 0 {
		limit = defaultLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		provider: p,
		limit:    limit,
		log:      log,
	}
}
