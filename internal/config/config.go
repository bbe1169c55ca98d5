package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderSpotify = "spotify"
	ProviderYouTube = "youtube"
)

type Config struct {
	Port string `envconfig:"PORT" default:"3002"`

	MongoURL      string `envconfig:"MONGO_URL" required:"true"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"listio"`
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`

	// Empty disables change events and the websocket endpoint.
	RedisURL      string `envconfig:"REDIS_URL"`
	EventsChannel string `envconfig:"EVENTS_CHANNEL" default:"broadcast"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`

	SearchProvider      string  `envconfig:"SEARCH_PROVIDER" default:"spotify"`
	SearchLimit         int     `envconfig:"SEARCH_LIMIT" default:"10"`
	SpotifyClientID     string  `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string  `envconfig:"SPOTIFY_CLIENT_SECRET"`
	YouTubeAPIKey       string  `envconfig:"YOUTUBE_API_KEY"`
	YouTubeSearchURL    string  `envconfig:"YOUTUBE_SEARCH_URL" default:"https://www.googleapis.com/youtube/v3/search"`
	SearchRatePerSecond float64 `envconfig:"SEARCH_RATE_PER_SECOND" default:"2"`
	SearchRateBurst     int     `envconfig:"SEARCH_RATE_BURST" default:"5"`

	CORSAllowedOrigin string        `envconfig:"CORS_ALLOWED_ORIGIN" default:"*"`
	BodyLimitBytes    int64         `envconfig:"BODY_LIMIT_BYTES" default:"65536"`
	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`

	LogDevelopment bool `envconfig:"LOG_DEVELOPMENT" default:"false"`
}

func NewConfig() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the rules struct tags cannot express.
func (c *Config) Validate() error {
	switch c.SearchProvider {
	case ProviderSpotify:
		if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
			return errors.New("config: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required for the spotify provider")
		}
	case ProviderYouTube:
		if c.YouTubeAPIKey == "" {
			return errors.New("config: YOUTUBE_API_KEY is required for the youtube provider")
		}
	default:
		return fmt.Errorf("config: unknown SEARCH_PROVIDER %q", c.SearchProvider)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 bytes")
	}
	if c.SearchRatePerSecond <= 0 || c.SearchRateBurst <= 0 {
		return errors.New("config: SEARCH_RATE_PER_SECOND and SEARCH_RATE_BURST must be positive")
	}
	if c.BodyLimitBytes <= 0 {
		return errors.New("config: BODY_LIMIT_BYTES must be positive")
	}
	return nil
}
