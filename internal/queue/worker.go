package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/so647/study-time-tracker/internal/mail"
)

// Worker consumes mail tasks and delivers them through a Mailer.
type Worker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	mailer mail.Mailer
	log    zerolog.Logger
}

// NewWorker creates an asynq server and registers task handlers. Call Run to
// start consuming.
func NewWorker(redisOpt asynq.RedisClientOpt, mailer mail.Mailer, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, mailer: mailer, log: log}
	mux.HandleFunc(TypeSendPasswordReset, w.handleSendPasswordReset)
	return w
}

func (w *Worker) handleSendPasswordReset(ctx context.Context, t *asynq.Task) error {
	var p passwordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("password reset task payload invalid")
		return err
	}
	if err := w.mailer.Send(ctx, p.Email, mail.ResetSubject, mail.ResetBody(p.ResetURL)); err != nil {
		w.log.Error().Err(err).Str("email", p.Email).Msg("password reset delivery failed")
		return err
	}
	return nil
}

// Run blocks processing tasks until Shutdown.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
