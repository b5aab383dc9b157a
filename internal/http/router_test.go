package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

func newTestRouter(checks map[string]ReadinessCheck, journal *mockFailureJournal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := newAccountService(newMockUserRepo(), &mockEmailSender{}, service.AccountPolicy{})
	var mailH *MailHandler
	if journal != nil {
		mailH = NewMailHandler(zap.NewNop(), journal)
	}
	return NewRouter(zap.NewNop(), NewAccountHandler(zap.NewNop(), svc), mailH, NewHealthHandler(zap.NewNop(), checks))
}

func TestRouter_RequestID(t *testing.T) {
	r := newTestRouter(nil, nil)

	rec := performRequest(r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRouter_Readiness(t *testing.T) {
	healthy := newTestRouter(map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
	}, nil)
	rec := performRequest(healthy, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := newTestRouter(map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}, nil)
	rec = performRequest(failing, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r := newTestRouter(nil, nil)
	performRequest(r, http.MethodGet, "/users", nil)

	rec := performRequest(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "# HELP"))
}

func TestRouter_NoRouteEnvelope(t *testing.T) {
	r := newTestRouter(nil, nil)

	rec := performRequest(r, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "/projects", body["path"])
	assert.Equal(t, "Not Found", body["error"])
}

func TestRouter_MailFailuresOnlyWithJournal(t *testing.T) {
	without := newTestRouter(nil, nil)
	rec := performRequest(without, http.MethodGet, "/mail/failures", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	with := newTestRouter(nil, &mockFailureJournal{})
	rec = performRequest(with, http.MethodGet, "/mail/failures", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RegisterAliases(t *testing.T) {
	r := newTestRouter(nil, nil)

	rec := performRequest(r, http.MethodPost, "/users", aliceBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = performRequest(r, http.MethodPost, "/users/register", aliceBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: service.ErrInvalidEmail, want: http.StatusBadRequest},
		{err: service.ErrInvalidCredentials, want: http.StatusBadRequest},
		{err: service.ErrUsernameTaken, want: http.StatusConflict},
		{err: service.ErrAccountInactive, want: http.StatusConflict},
		{err: service.ErrUserNotFound, want: http.StatusNotFound},
		{err: service.ErrEmailSendFailure, want: http.StatusServiceUnavailable},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
