package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teamtask/common"
	"teamtask/entity"
	"teamtask/middleware"
	"teamtask/testutil"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testTokens = common.NewTokenIssuer("your-secret-key", time.Hour)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWT_Rejects(t *testing.T) {
	st := testutil.NewTestStore(t)
	ghostToken, _, err := testTokens.Issue(9999)
	require.NoError(t, err)

	cases := map[string]string{
		"no header":      "",
		"invalid format": "Token abc123",
		"invalid token":  "Bearer invalid.token.value",
		"unknown user":   "Bearer " + ghostToken,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			called := false

			middleware.JWT(testTokens, st)(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestJWT_ValidToken(t *testing.T) {
	st := testutil.NewTestStore(t)
	u := testutil.CreateUser(t, st, "boss", entity.RoleManager)
	token, _, err := testTokens.Issue(u.ID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	var actor entity.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, _ = common.ActorFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	middleware.JWT(testTokens, st)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, actor.ID)
	assert.True(t, actor.IsManager())
}

func TestRoleGuards(t *testing.T) {
	manager := entity.NewActor(1, "m", []entity.Role{entity.RoleManager})
	employee := entity.NewActor(2, "e", []entity.Role{entity.RoleEmployee})
	roleless := entity.NewActor(3, "r", nil)

	cases := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		actor  *entity.Actor
		status int
	}{
		{"manager passes manager guard", middleware.RequireManager, &manager, http.StatusOK},
		{"employee blocked by manager guard", middleware.RequireManager, &employee, http.StatusForbidden},
		{"employee passes employee guard", middleware.RequireEmployee, &employee, http.StatusOK},
		{"roleless passes employee guard", middleware.RequireEmployee, &roleless, http.StatusOK},
		{"manager blocked by employee guard", middleware.RequireEmployee, &manager, http.StatusForbidden},
		{"anonymous", middleware.RequireManager, nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.actor != nil {
				req = req.WithContext(common.WithActor(req.Context(), *tc.actor))
			}
			rec := httptest.NewRecorder()
			called := false

			tc.guard(okHandler(&called)).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusOK, called)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()
	limiter := middleware.NewRateLimiter(client, 1, time.Hour)
	key := middleware.RateLimitKey(123)

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Hour).SetVal(true)
	mock.ExpectTTL(key).SetVal(time.Hour)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectTTL(key).SetVal(59 * time.Minute)

	called := false
	handler := limiter.Middleware(okHandler(&called))

	req := httptest.NewRequest("GET", "/tasks", nil)
	req = req.WithContext(common.WithActor(req.Context(), entity.NewActor(123, "u", nil)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Rate-Limit-Remaining"))
	assert.Equal(t, "3600", rec.Header().Get("X-Rate-Limit-Reset"))

	called = false
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, called)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimitMiddleware_RedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()
	mock.ExpectIncr(middleware.RateLimitKey(7)).SetErr(errors.New("connection refused"))

	req := httptest.NewRequest("GET", "/tasks", nil)
	req = req.WithContext(common.WithActor(req.Context(), entity.NewActor(7, "u", nil)))
	rec := httptest.NewRecorder()
	called := false

	middleware.NewRateLimiter(client, 10, time.Hour).Middleware(okHandler(&called)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	var limiter *middleware.RateLimiter
	rec := httptest.NewRecorder()
	called := false

	limiter.Middleware(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	middleware.Logging(zap.New(core))(next).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
