package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/so647/study-time-tracker/internal/apperror"
	"github.com/so647/study-time-tracker/internal/domain"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (s *stubUserRepo) Create(_ context.Context, user domain.User) (*domain.User, error) {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = &user
	return &user, nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id int) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserRepo) UpdateProfile(_ context.Context, id int, username, email, imageFile string) error {
	u, err := s.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	delete(s.users, u.Email)
	u.Username, u.Email, u.ImageFile = username, email, imageFile
	s.users[email] = u
	return nil
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	u, err := s.GetByID(context.Background(), id)
	if err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	return nil
}

type stubSessionStore struct {
	sessions map[string]*Session
	lastTTL  time.Duration
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*Session)}
}

func (s *stubSessionStore) Create(_ context.Context, userID int, ttl time.Duration) (*Session, error) {
	s.lastTTL = ttl
	token := strings.Repeat("x", len(s.sessions)+1)
	session := &Session{Token: token, UserID: userID, ExpiresAt: time.Now().Add(ttl)}
	s.sessions[token] = session
	return session, nil
}

func (s *stubSessionStore) Lookup(_ context.Context, token string) (int, error) {
	if session, ok := s.sessions[token]; ok {
		return session.UserID, nil
	}
	return 0, ErrSessionNotFound
}

func (s *stubSessionStore) Delete(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type captureEnqueuer struct {
	email    string
	resetURL string
	calls    int
}

func (c *captureEnqueuer) EnqueueSendPasswordReset(_ context.Context, email, resetURL string) error {
	c.email = email
	c.resetURL = resetURL
	c.calls++
	return nil
}

func newTestService(users domain.UserRepository, sessions SessionStore, enqueuer ResetEnqueuer) *Service {
	return NewService(users, sessions, NewResetTokens("test-secret", 30*time.Minute), enqueuer, Config{
		BaseURL:     "http://localhost:8080",
		SessionTTL:  time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
		BcryptCost:  bcrypt.MinCost,
	}, zerolog.Nop())
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, newStubSessionStore(), &captureEnqueuer{})

	user, err := svc.Register(context.Background(), "alice", "Alice@Example.com", "secret1")
	require.NoError(t, err)

	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.Equal(t, domain.DefaultImageFile, user.ImageFile)
	require.NotEqual(t, "secret1", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
}

func TestRegisterValidation(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, newStubSessionStore(), &captureEnqueuer{})

	_, err := svc.Register(context.Background(), "", "a@b.com", "secret1")
	require.True(t, apperror.IsType(err, apperror.Validation))

	_, err = svc.Register(context.Background(), "alice", "not-an-email", "secret1")
	require.True(t, apperror.IsType(err, apperror.Validation))

	_, err = svc.Register(context.Background(), "alice", "a@b.com", "short")
	require.True(t, apperror.IsType(err, apperror.Validation))

	require.Empty(t, repo.users)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, newStubSessionStore(), &captureEnqueuer{})

	_, err := svc.Register(context.Background(), "alice", "a@b.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "bob", "a@b.com", "secret2")
	require.True(t, apperror.IsType(err, apperror.Validation))
	require.Equal(t, "that email is already registered", apperror.Message(err))
	require.Len(t, repo.users, 1)
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, newStubSessionStore(), &captureEnqueuer{})

	_, err := svc.Register(context.Background(), "alice", "a@b.com", "secret1")
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(context.Background(), "nobody@b.com", "secret1", false)
	_, _, errWrongPass := svc.Login(context.Background(), "a@b.com", "wrong", false)

	require.True(t, apperror.IsType(errUnknown, apperror.Auth))
	require.True(t, apperror.IsType(errWrongPass, apperror.Auth))
	require.Equal(t, apperror.Message(errUnknown), apperror.Message(errWrongPass))
}

func TestLoginRememberExtendsSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionStore()
	svc := newTestService(repo, sessions, &captureEnqueuer{})

	user, err := svc.Register(context.Background(), "alice", "a@b.com", "secret1")
	require.NoError(t, err)

	_, session, err := svc.Login(context.Background(), "a@b.com", "secret1", false)
	require.NoError(t, err)
	require.Equal(t, user.ID, session.UserID)
	require.Equal(t, time.Hour, sessions.lastTTL)

	_, _, err = svc.Login(context.Background(), "a@b.com", "secret1", true)
	require.NoError(t, err)
	require.Equal(t, 30*24*time.Hour, sessions.lastTTL)
}

func TestRequestPasswordResetEnqueuesMail(t *testing.T) {
	repo := newStubUserRepo()
	enqueuer := &captureEnqueuer{}
	svc := newTestService(repo, newStubSessionStore(), enqueuer)

	_, err := svc.Register(context.Background(), "alice", "a@b.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "a@b.com"))
	require.Equal(t, 1, enqueuer.calls)
	require.Equal(t, "a@b.com", enqueuer.email)
	require.Contains(t, enqueuer.resetURL, "http://localhost:8080/reset_password/")
}

func TestRequestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	svc := newTestService(newStubUserRepo(), newStubSessionStore(), enqueuer)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@b.com"))
	require.Zero(t, enqueuer.calls)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	repo := newStubUserRepo()
	enqueuer := &captureEnqueuer{}
	svc := newTestService(repo, newStubSessionStore(), enqueuer)

	user, err := svc.Register(context.Background(), "alice", "a@b.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "a@b.com"))
	token := strings.TrimPrefix(enqueuer.resetURL, "http://localhost:8080/reset_password/")

	require.NoError(t, svc.ResetPassword(context.Background(), token, "newsecret"))

	updated, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret")))

	err = svc.ResetPassword(context.Background(), "bogus", "newsecret")
	require.True(t, apperror.IsType(err, apperror.Token))
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	repo := newStubUserRepo()
	enqueuer := &captureEnqueuer{}
	svc := newTestService(repo, newStubSessionStore(), enqueuer)

	_, err := svc.Register(context.Background(), "alice", "a@b.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "a@b.com"))
	token := strings.TrimPrefix(enqueuer.resetURL, "http://localhost:8080/reset_password/")

	err = svc.ResetPassword(context.Background(), token, "tiny")
	require.True(t, apperror.IsType(err, apperror.Validation))
}
