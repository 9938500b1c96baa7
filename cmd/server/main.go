package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wezaxes/alias-server-go/internal/config"
	"github.com/wezaxes/alias-server-go/internal/database"
	"github.com/wezaxes/alias-server-go/internal/handler"
	"github.com/wezaxes/alias-server-go/internal/jobs"
	"github.com/wezaxes/alias-server-go/internal/middleware"
	"github.com/wezaxes/alias-server-go/internal/redis"
	"github.com/wezaxes/alias-server-go/internal/repository"
	"github.com/wezaxes/alias-server-go/internal/service"
	"github.com/wezaxes/alias-server-go/internal/sse"
	"github.com/wezaxes/alias-server-go/internal/wordbank"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	var wordRepo repository.WordRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.StorePingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		cancel()
		log.Info().Msg("database connected")

		wordRepo = repository.NewWordRepository(db.DB)
	} else {
		log.Info().Str("file", cfg.WordsFile).Msg("using file word store")
		wordRepo = repository.NewFileWordRepository(cfg.WordsFile)
	}

	bank := wordbank.New(wordRepo)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), config.StorePingTimeout)
	bank.Load(loadCtx)
	loadCancel()

	// Remote rooms are optional: without the shared store the server keeps
	// serving local games and answers 503 on room routes.
	var (
		rooms   *service.RoomService
		broker  *sse.Broker
		limiter middleware.Limiter = middleware.NewMemoryRateLimiter()
	)
	if cfg.RemoteEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), config.StorePingTimeout)
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to redis, remote rooms disabled")
		} else {
			defer redisClient.Close()
			log.Info().Msg("redis connected")

			broker = sse.NewBroker(redisClient)
			defer broker.Close()

			sessionRepo := repository.NewSessionRepository(redisClient.Client, cfg.RoomTTL())
			rooms = service.NewRoomService(sessionRepo, bank, broker)
			limiter = service.NewRateLimiter(redisClient.Client)
		}
	} else {
		log.Warn().Msg("REDIS_URL not set, remote rooms disabled")
	}

	localService := service.NewLocalService(bank)
	wordService := service.NewWordService(bank)

	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	roomCreateLimit := middleware.NewIPRateLimitMiddleware(
		limiter, config.RoomCreateRateLimit, config.RateLimitWindow, "room-create",
	)
	wordAddLimit := middleware.NewIPRateLimitMiddleware(
		limiter, config.WordAddRateLimit, config.RateLimitWindow, "word-add",
	)

	roomHandler := handler.NewRoomHandler(rooms, broker, cfg.PublicBaseURL)
	localHandler := handler.NewLocalHandler(localService)
	wordHandler := handler.NewWordHandler(wordService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", handler.Health(rooms != nil))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/rooms", roomHandler.Routes(roomCreateLimit.Handler))

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

			r.Mount("/local", localHandler.Routes())
			r.Mount("/words", wordHandler.Routes(wordAddLimit.Handler))
		})
	})

	r.NotFound(handler.StaticFileServer(cfg.StaticDir, "").ServeHTTP)

	cleanupJob := jobs.NewCleanupJob(config.CleanupJobInterval).
		Add("local games", func(ctx context.Context) (int64, error) {
			return localService.DeleteIdle(ctx, cfg.LocalGameIdle())
		})
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Bool("remote", rooms != nil).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
