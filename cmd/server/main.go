package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	dashapi "go.pilab.hu/tubedash/api/echo"
	"go.pilab.hu/tubedash/cache"
	redissessions "go.pilab.hu/tubedash/cache/redis"
	"go.pilab.hu/tubedash/config"
	"go.pilab.hu/tubedash/domain"
	"go.pilab.hu/tubedash/internal/audit"
	"go.pilab.hu/tubedash/internal/crypto"
	"go.pilab.hu/tubedash/internal/metrics"
	"go.pilab.hu/tubedash/internal/server"
	applog "go.pilab.hu/tubedash/log"
	"go.pilab.hu/tubedash/mongodb"
	"go.pilab.hu/tubedash/services"
	"go.pilab.hu/tubedash/tokenmgr"
	"go.pilab.hu/tubedash/tracing"
	"go.pilab.hu/tubedash/youtube"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := applog.Setup(cfg.LogLevel, cfg.LogPretty); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}

	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_db_name", cfg.MongoDBName).
		Str("session_backend", cfg.SessionBackend).
		Msg("Starting tubedash server")

	tracerProvider, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize TracerProvider")
	}
	metrics.InitCustomMetrics(prometheus.DefaultRegisterer)

	ctx := context.Background()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	cipher, err := crypto.NewTokenCipherFromString(cfg.TokenCipherKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid TOKEN_CIPHER_KEY")
	}

	credRepo, err := mongodb.NewCredentialRepositoryMongo(ctx, db, cipher)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credential repository")
	}
	userRepo, err := mongodb.NewUserRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user repository")
	}
	noteRepo, err := mongodb.NewNoteRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize note repository")
	}
	eventRepo := mongodb.NewEventLogRepositoryMongo(db)

	// --- Sessions ---
	var sessions domain.SessionStore
	var redisClient *goredis.Client
	switch cfg.SessionBackend {
	case "redis":
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		sessions = redissessions.NewSessionStore(redisClient, "tubedash")
	default:
		sessions = cache.NewMemorySessionStore(cfg.SessionTTL)
	}

	// --- Token lifecycle ---
	refresher := tokenmgr.NewOAuth2Refresher(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		tokenmgr.WithTimeout(cfg.RefreshTimeout),
	)
	tokens := tokenmgr.NewManager(credRepo, refresher)

	// --- Services ---
	recorder := audit.NewRecorder(eventRepo)
	ytClient := youtube.NewClient(youtube.WithBaseURL(cfg.YouTubeAPIBase))
	authSvc := services.NewAuthService(userRepo, credRepo, sessions, cfg.SessionTTL)
	dashboardSvc := services.NewDashboardService(tokens, ytClient, noteRepo, recorder)

	// --- HTTP ---
	api := dashapi.NewDashboardAPI(authSvc, dashboardSvc)
	httpServer := server.NewHTTPServer(cfg, api)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Redis client close error")
		}
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("TracerProvider shutdown error")
	}

	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("MongoDB disconnect error")
	}

	log.Info().Msg("Server gracefully stopped")
}
