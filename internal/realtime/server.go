package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/krloslao/Listio/internal/auth"
)

// Server upgrades authenticated requests to websockets and feeds the hub from
// the Redis events channel.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewServer builds the websocket endpoint. allowedOrigin "*" accepts any
// Origin header; anything else must match exactly.
func NewServer(hub *Hub, allowedOrigin string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
		log: log,
	}
}

// HandleWS expects auth middleware in front of it.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "missing user context", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade", zap.Error(err))
		return
	}

	client := newClient(s.hub, conn, userID)

	// Queued before registering: once the hub owns the client it may close send.
	welcome := map[string]any{
		"type": "welcome",
		"now":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	if !s.hub.add(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

type envelope struct {
	UserID string `json:"userId"`
}

// RunRedisSubscriber forwards every message published on channel to the hub
// until ctx is done.
func (s *Server) RunRedisSubscriber(ctx context.Context, rdb *redis.Client, channel string) {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.route(ctx, msg.Payload)
		}
	}
}

func (s *Server) route(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		s.log.Warn("decode event", zap.Error(err))
		return
	}
	if env.UserID == "" {
		return
	}
	s.hub.Dispatch(ctx, env.UserID, []byte(payload))
}
