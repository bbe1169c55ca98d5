package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/krloslao/Listio/internal/auth"
	"github.com/krloslao/Listio/internal/config"
	"github.com/krloslao/Listio/internal/middleware"
	"github.com/krloslao/Listio/internal/playlist"
	"github.com/krloslao/Listio/internal/provider"
	"github.com/krloslao/Listio/internal/realtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		// The logger level depends on config, so fail with a bootstrap logger.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log, err := newLogger(cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return err
	}
	store := playlist.NewMongoStore(mongoClient.Database(cfg.MongoDatabase))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		return err
	}
	log.Info("mongo connected", zap.String("database", cfg.MongoDatabase))

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := auth.AutoMigrate(connectCtx, pool); err != nil {
		return err
	}
	log.Info("postgres connected")

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSrv := auth.NewServer(auth.NewPostgresRepository(pool), tokens, log.Named("auth"))

	var events playlist.Publisher
	if rdb != nil {
		events = rdb
	}
	playlistSrv := playlist.NewServer(store, events, log.Named("playlist")).
		WithEventsChannel(cfg.EventsChannel)

	searchSrv := provider.NewServer(newSearchProvider(ctx, cfg, log), cfg.SearchLimit, log.Named("provider"))

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"listio"}`))
	})

	g, gctx := errgroup.WithContext(ctx)

	if rdb != nil {
		hub := realtime.NewHub()
		rt := realtime.NewServer(hub, cfg.CORSAllowedOrigin, log.Named("realtime"))
		g.Go(func() error {
			hub.Run(gctx)
			return nil
		})
		g.Go(func() error {
			rt.RunRedisSubscriber(gctx, rdb, cfg.EventsChannel)
			return nil
		})
		r.With(auth.RequireBearerOrQuery(tokens)).Get("/ws", rt.HandleWS)
	}

	searchLimiter := middleware.NewRateLimiter(cfg.SearchRatePerSecond, cfg.SearchRateBurst)
	byUser := func(r *http.Request) string {
		id, _ := auth.UserID(r.Context())
		return id
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		r.Use(middleware.BodySizeLimit(cfg.BodyLimitBytes))

		r.Mount("/auth", authSrv.Router())

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireBearer(tokens))
			playlistSrv.Routes(r)
			r.With(searchLimiter.Limit(byUser)).Get("/track/{title}", searchSrv.HandleSearch)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("listio listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newSearchProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) provider.Provider {
	if cfg.SearchProvider == config.ProviderYouTube {
		return provider.NewYouTubeClient(cfg.YouTubeAPIKey, cfg.YouTubeSearchURL, log.Named("youtube"))
	}
	return provider.NewSpotifyClient(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret)
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
