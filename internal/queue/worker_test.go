package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	to      string
	subject string
	body    string
	calls   int
	err     error
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	m.calls++
	return m.err
}

func newTestWorker(mailer *captureMailer) *Worker {
	return NewWorker(asynq.RedisClientOpt{Addr: "localhost:6379"}, mailer, zerolog.Nop())
}

func TestWorkerDeliversPasswordReset(t *testing.T) {
	mailer := &captureMailer{}
	w := newTestWorker(mailer)

	payload, err := json.Marshal(passwordResetPayload{
		Email:    "a@b.com",
		ResetURL: "http://localhost:8080/reset_password/tok",
	})
	require.NoError(t, err)

	err = w.handleSendPasswordReset(context.Background(), asynq.NewTask(TypeSendPasswordReset, payload))
	require.NoError(t, err)

	require.Equal(t, 1, mailer.calls)
	require.Equal(t, "a@b.com", mailer.to)
	require.Equal(t, "Password Reset Request", mailer.subject)
	require.Contains(t, mailer.body, "http://localhost:8080/reset_password/tok")
	require.Contains(t, mailer.body, "simply ignore this email")
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	mailer := &captureMailer{}
	w := newTestWorker(mailer)

	err := w.handleSendPasswordReset(context.Background(), asynq.NewTask(TypeSendPasswordReset, []byte("{broken")))
	require.Error(t, err)
	require.Zero(t, mailer.calls)
}

func TestWorkerPropagatesDeliveryFailure(t *testing.T) {
	mailer := &captureMailer{err: errors.New("relay down")}
	w := newTestWorker(mailer)

	payload, err := json.Marshal(passwordResetPayload{Email: "a@b.com", ResetURL: "http://x"})
	require.NoError(t, err)

	err = w.handleSendPasswordReset(context.Background(), asynq.NewTask(TypeSendPasswordReset, payload))
	require.Error(t, err)
}

func TestDirectEnqueuerSendsInline(t *testing.T) {
	mailer := &captureMailer{}
	enqueuer := NewDirectEnqueuer(mailer)

	err := enqueuer.EnqueueSendPasswordReset(context.Background(), "a@b.com", "http://x/reset_password/tok")
	require.NoError(t, err)
	require.Equal(t, 1, mailer.calls)
	require.Contains(t, mailer.body, "http://x/reset_password/tok")
}
