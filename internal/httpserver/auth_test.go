package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pulseo/internal/middleware/ratelimit"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

func TestRegister_SetsCookiesAndHidesPassword(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	res := s.register(t, "alice", "alice@x.com")
	assert.True(t, res.Body.Success)

	var data map[string]map[string]any
	res.decode(t, &data)
	assert.NotEmpty(t, data["user"]["id"])
	assert.Equal(t, "alice", data["user"]["username"])
	assert.NotContains(t, data["user"], "password")
	assert.NotContains(t, data["user"], "passwordHash")

	access := res.access()
	require.NotNil(t, access)
	assert.Equal(t, "/", access.Path)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, 3600, access.MaxAge)

	refresh := res.refresh()
	require.NotNil(t, refresh)
	assert.Equal(t, "/api/auth", refresh.Path)
	assert.Equal(t, 2592000, refresh.MaxAge)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	s.register(t, "alice", "alice@x.com")
	res := s.do(t, http.MethodPost, "/api/auth/register", transport.RegisterRequest{
		Username: "alice", Email: "other@x.com", Password: strongPassword,
	})

	assert.Equal(t, http.StatusConflict, res.Code)
	assert.False(t, res.Body.Success)
	require.NotNil(t, res.Body.Error)
	assert.Equal(t, "USERNAME_TAKEN", res.Body.Error.Code)
}

func TestRegister_WeakPassword(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	res := s.do(t, http.MethodPost, "/api/auth/register", transport.RegisterRequest{
		Username: "alice", Email: "alice@x.com", Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	require.NotNil(t, res.Body.Error)
	assert.Equal(t, "WEAK_PASSWORD", res.Body.Error.Code)
}

func TestRegister_NonStringFieldsAreClassified(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]any
		code string
		msg  string
	}{
		{
			name: "numeric username",
			body: map[string]any{"username": 123, "email": "alice@x.com", "password": strongPassword},
			code: "INVALID_USERNAME",
			msg:  "Username is required",
		},
		{
			name: "object email",
			body: map[string]any{"username": "alice", "email": map[string]any{"a": 1}, "password": strongPassword},
			code: "INVALID_EMAIL",
			msg:  "Email is required",
		},
		{
			name: "boolean password",
			body: map[string]any{"username": "alice", "email": "alice@x.com", "password": true},
			code: "WEAK_PASSWORD",
			msg:  "Password is required",
		},
		{
			name: "null username",
			body: map[string]any{"username": nil, "email": "alice@x.com", "password": strongPassword},
			code: "INVALID_USERNAME",
			msg:  "Username is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := s.do(t, http.MethodPost, "/api/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			require.NotNil(t, res.Body.Error)
			assert.Equal(t, tt.code, res.Body.Error.Code)
			assert.Equal(t, tt.msg, res.Body.Error.Message)
		})
	}
}

func TestLogin_RefreshRotation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	s.register(t, "alice", "alice@x.com")

	login := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "ALICE@x.com", Password: strongPassword})
	require.Equal(t, http.StatusOK, login.Code)
	original := login.refresh()
	require.NotNil(t, original)

	rotated := s.do(t, http.MethodPost, "/api/auth/refresh", nil, original)
	require.Equal(t, http.StatusOK, rotated.Code)
	require.NotNil(t, rotated.refresh())
	require.NotNil(t, rotated.access())
	assert.NotEqual(t, original.Value, rotated.refresh().Value)

	replay := s.do(t, http.MethodPost, "/api/auth/refresh", nil, original)
	assert.Equal(t, http.StatusUnauthorized, replay.Code)
	require.NotNil(t, replay.Body.Error)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", replay.Body.Error.Code)
	assert.Equal(t, "Invalid refresh token", replay.Body.Error.Message)

	again := s.do(t, http.MethodPost, "/api/auth/refresh", nil, rotated.refresh())
	assert.Equal(t, http.StatusOK, again.Code, "the rotated token is still live")
}

func TestRefresh_ReuseRevokesEverySession(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	reg := s.register(t, "alice", "alice@x.com")

	other := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "alice@x.com", Password: strongPassword})
	require.Equal(t, http.StatusOK, other.Code)

	rotated := s.do(t, http.MethodPost, "/api/auth/refresh", nil, reg.refresh())
	require.Equal(t, http.StatusOK, rotated.Code)

	stolen := s.do(t, http.MethodPost, "/api/auth/refresh", nil, reg.refresh(), rotated.access())
	assert.Equal(t, http.StatusUnauthorized, stolen.Code)
	require.NotNil(t, stolen.Body.Error)
	assert.Equal(t, "TOKEN_REUSE_DETECTED", stolen.Body.Error.Code)
	require.NotNil(t, stolen.access())
	assert.Equal(t, -1, stolen.access().MaxAge)

	for _, ck := range []*http.Cookie{rotated.refresh(), other.refresh()} {
		res := s.do(t, http.MethodPost, "/api/auth/refresh", nil, ck)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	}
}

func TestRefresh_MissingCookie(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	res := s.do(t, http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	require.NotNil(t, res.Body.Error)
	assert.Equal(t, "Refresh token is missing", res.Body.Error.Message)
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	s.register(t, "alice", "alice@x.com")

	wrong := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "alice@x.com", Password: "Wr0ng!Passw0rd12"})
	missing := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "nobody@x.com", Password: strongPassword})
	empty := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{})

	for _, res := range []*response{wrong, missing, empty} {
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		require.NotNil(t, res.Body.Error)
		assert.Equal(t, *wrong.Body.Error, *res.Body.Error)
	}
	assert.Equal(t, "INVALID_CREDENTIALS", wrong.Body.Error.Code)
}

func TestMeAndLogout(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	reg := s.register(t, "alice", "alice@x.com")

	anon := s.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
	require.NotNil(t, anon.Body.Error)
	assert.Equal(t, "UNAUTHORIZED", anon.Body.Error.Code)

	me := s.do(t, http.MethodGet, "/api/auth/me", nil, reg.access())
	require.Equal(t, http.StatusOK, me.Code)
	var data map[string]map[string]any
	me.decode(t, &data)
	assert.Equal(t, "alice@x.com", data["user"]["email"])
	assert.NotEmpty(t, data["user"]["createdAt"])

	out := s.do(t, http.MethodPost, "/api/auth/logout", nil, reg.refresh())
	assert.Equal(t, http.StatusOK, out.Code)
	assert.True(t, out.Body.Success)
	assert.Equal(t, "null", string(out.Data()))
	require.NotNil(t, out.refresh())
	assert.Equal(t, -1, out.refresh().MaxAge)

	after := s.do(t, http.MethodPost, "/api/auth/refresh", nil, reg.refresh())
	assert.Equal(t, http.StatusUnauthorized, after.Code)

	noCookie := s.do(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, noCookie.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, ratelimit.New(0.001, 2))

	for i := 0; i < 2; i++ {
		res := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "a@b.co", Password: "x"})
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	}
	res := s.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: "a@b.co", Password: "x"})
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	require.NotNil(t, res.Body.Error)
	assert.Equal(t, "RATE_LIMITED", res.Body.Error.Code)

	refresh := s.do(t, http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, refresh.Code, "refresh is not rate limited")
}

func TestHealthAndUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	res := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(res.Raw))

	missing := s.do(t, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.False(t, missing.Body.Success)
	require.NotNil(t, missing.Body.Error)
	assert.Equal(t, "NOT_FOUND", missing.Body.Error.Code)
}
