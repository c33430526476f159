// Package queue hands email delivery off to an asynq worker backed by Redis,
// falling back to inline delivery when Redis is not configured.
package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/so647/study-time-tracker/internal/mail"
	"github.com/so647/study-time-tracker/internal/observability"
)

// TypeSendPasswordReset identifies the password-reset email task.
const TypeSendPasswordReset = "email:password_reset"

// passwordResetPayload is the task payload shared by enqueuer and worker.
type passwordResetPayload struct {
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}

// AsynqEnqueuer enqueues mail tasks onto Redis.
type AsynqEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

// NewAsynqEnqueuer constructs an AsynqEnqueuer.
func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

// Close releases the underlying Redis client.
func (q *AsynqEnqueuer) Close() error {
	return q.client.Close()
}

// EnqueueSendPasswordReset queues a reset email for delivery by the worker.
func (q *AsynqEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	payload, _ := json.Marshal(passwordResetPayload{Email: email, ResetURL: resetURL})
	task := asynq.NewTask(TypeSendPasswordReset, payload)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue password reset email failed")
		return err
	}
	observability.RecordResetEmailEnqueued()
	return nil
}

// DirectEnqueuer delivers mail inline on the request goroutine, for
// deployments without Redis.
type DirectEnqueuer struct {
	mailer mail.Mailer
}

// NewDirectEnqueuer constructs a DirectEnqueuer.
func NewDirectEnqueuer(mailer mail.Mailer) *DirectEnqueuer {
	return &DirectEnqueuer{mailer: mailer}
}

// EnqueueSendPasswordReset sends the reset email immediately.
func (q *DirectEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	if err := q.mailer.Send(ctx, email, mail.ResetSubject, mail.ResetBody(resetURL)); err != nil {
		return err
	}
	observability.RecordResetEmailEnqueued()
	return nil
}
