package playlist

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EventPlaylistCreated = "playlist.created"
	EventPlaylistUpdated = "playlist.updated"
	EventPlaylistDeleted = "playlist.deleted"
	EventTrackAdded      = "track.added"
	EventTrackRemoved    = "track.removed"
)

// Publisher is the part of *redis.Client used for change notifications.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Event is the envelope published on the events channel. UserID lets the
// realtime fan-out deliver it to the owner only.
type Event struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	Payload any    `json:"payload"`
}

// DefaultEventsChannel is the Redis channel change events go to unless
// WithEventsChannel overrides it.
const DefaultEventsChannel = "broadcast"

// publishEvent is best-effort: failures are logged and never reach the client.
func (s *Server) publishEvent(ctx context.Context, typ, userID string, payload any) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(Event{Type: typ, UserID: userID, Payload: payload})
	if err != nil {
		s.log.Warn("marshal event", zap.String("type", typ), zap.Error(err))
		return
	}
	if err := s.events.Publish(ctx, s.channel, string(data)).Err(); err != nil {
		s.log.Warn("publish event", zap.String("type", typ), zap.Error(err))
	}
}
