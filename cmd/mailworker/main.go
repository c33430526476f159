package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/so647/study-time-tracker/internal/config"
	"github.com/so647/study-time-tracker/internal/mail"
	"github.com/so647/study-time-tracker/internal/queue"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg := config.Load()

	if cfg.RedisURL == "" {
		log.Fatal().Msg("REDIS_URL is required for the mail worker")
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("parse REDIS_URL")
	}

	var mailer mail.Mailer
	if cfg.SMTPUsername == "" {
		mailer = mail.NewLogMailer(log)
	} else {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}

	worker := queue.NewWorker(asynq.RedisClientOpt{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	}, mailer, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		worker.Shutdown()
	}()

	log.Info().Msg("mail worker running")
	if err := worker.Run(); err != nil {
		log.Fatal().Err(err).Msg("mail worker failed")
	}
}
