package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hq/meridian/internal/auth"
	"github.com/meridian-hq/meridian/internal/shared"
	_ "github.com/meridian-hq/meridian/testing"
)

type stubRepo struct {
	cred     *auth.Credential
	sessions []auth.SessionRecord
	deleted  []string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	if s.cred == nil || s.cred.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.cred, nil
}

func (s *stubRepo) FindByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	if s.cred == nil || s.cred.Username != username {
		return nil, shared.ErrNotFound
	}
	return s.cred, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, rec auth.SessionRecord) error {
	s.sessions = append(s.sessions, rec)
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo), sessionManager, csrfManager)
	return handler, sessionManager
}

func doLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.NoError(t, sessionManager.Commit(req.Context(), res, req, sess))
	return res
}

func TestLoginSuccess(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := &stubRepo{cred: &auth.Credential{
		UserID:       "u-1",
		Username:     "jdoe",
		Email:        "jdoe@test.local",
		PasswordHash: string(hashed),
		Role:         "employee",
		IsActive:     true,
	}}
	handler, sessionManager := newAuthHandler(t, repo)

	res := doLogin(t, handler, sessionManager, `{"email":"jdoe@test.local","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "u-1", body["user_id"])
	require.Equal(t, "employee", body["role"])
	require.NotEmpty(t, body["csrf_token"])
	require.Len(t, repo.sessions, 1)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := &stubRepo{cred: &auth.Credential{
		UserID:       "u-1",
		Username:     "jdoe",
		Email:        "jdoe@test.local",
		PasswordHash: string(hashed),
		Role:         "employee",
		IsActive:     true,
	}}
	handler, sessionManager := newAuthHandler(t, repo)

	res := doLogin(t, handler, sessionManager, `{"email":"jdoe@test.local","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, repo.sessions)
}

func TestLoginInactiveAccount(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := &stubRepo{cred: &auth.Credential{
		UserID:       "u-1",
		Username:     "jdoe",
		Email:        "jdoe@test.local",
		PasswordHash: string(hashed),
		Role:         "employee",
		IsActive:     false,
	}}
	handler, sessionManager := newAuthHandler(t, repo)

	res := doLogin(t, handler, sessionManager, `{"email":"jdoe@test.local","password":"correct-horse"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})
	res := doLogin(t, handler, sessionManager, `{"email":`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
