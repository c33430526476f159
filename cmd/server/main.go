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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/so647/study-time-tracker/internal/auth"
	"github.com/so647/study-time-tracker/internal/config"
	"github.com/so647/study-time-tracker/internal/domain"
	"github.com/so647/study-time-tracker/internal/mail"
	"github.com/so647/study-time-tracker/internal/persistence/postgres"
	"github.com/so647/study-time-tracker/internal/queue"
	"github.com/so647/study-time-tracker/internal/storage"
	httptransport "github.com/so647/study-time-tracker/internal/transport/http"
	"github.com/so647/study-time-tracker/internal/web"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(cfg.PostgresURL, migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	users := postgres.NewUserRepository(pool)
	activities := postgres.NewActivityRepository(pool)
	sessions := postgres.NewSessionStore(pool)

	avatars, err := newAvatarStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init avatar store")
	}

	mailer := newMailer(cfg, log)
	enqueuer, closeQueue, err := newEnqueuer(cfg, mailer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init mail queue")
	}
	defer closeQueue()

	tokens := auth.NewResetTokens(cfg.SecretKey, cfg.ResetTokenTTL)
	authSvc := auth.NewService(users, sessions, tokens, enqueuer, auth.Config{
		BaseURL:     cfg.BaseURL,
		SessionTTL:  cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
		BcryptCost:  cfg.BcryptCost,
	}, log)
	authMW := auth.NewMiddleware(sessions, users)

	recorder := domain.NewRecorder(activities)
	reporter := domain.NewReporter(activities)

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("parse templates")
	}
	handlers := web.NewHandlers(renderer, authSvc, recorder, reporter, activities, users, avatars, log)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(web.RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}))
	r.Use(authMW.LoadUser)

	handlers.RegisterRoutes(r, authMW.RequireUser)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/assets/*", web.AssetsHandler())
	if cfg.AvatarDriver == "local" {
		fileServer := http.FileServer(http.Dir(cfg.AvatarDir))
		r.Handle("/static/profile_pics/*", http.StripPrefix("/static/profile_pics/", fileServer))
	}

	srv := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, r)

	go func() {
		log.Info().Str("address", cfg.HTTPAddress).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newAvatarStore(ctx context.Context, cfg config.Config) (storage.AvatarStore, error) {
	if cfg.AvatarDriver == "s3" {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return storage.NewLocalStore(cfg.AvatarDir)
}

func newMailer(cfg config.Config, log zerolog.Logger) mail.Mailer {
	if cfg.SMTPUsername == "" {
		return mail.NewLogMailer(log)
	}
	return mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

// newEnqueuer picks the Redis-backed queue when REDIS_URL is set, and falls
// back to sending reset mail inline otherwise.
func newEnqueuer(cfg config.Config, mailer mail.Mailer, log zerolog.Logger) (auth.ResetEnqueuer, func(), error) {
	if cfg.RedisURL == "" {
		return queue.NewDirectEnqueuer(mailer), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	enqueuer := queue.NewAsynqEnqueuer(asynq.RedisClientOpt{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	}, log)
	return enqueuer, func() { _ = enqueuer.Close() }, nil
}
