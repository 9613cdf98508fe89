package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pulseo/internal/events"
	"github.com/Skotchmaster/pulseo/internal/hash"
	"github.com/Skotchmaster/pulseo/internal/middleware/auth"
	"github.com/Skotchmaster/pulseo/internal/middleware/ratelimit"
	"github.com/Skotchmaster/pulseo/internal/repo"
	"github.com/Skotchmaster/pulseo/internal/service"
	"github.com/Skotchmaster/pulseo/internal/testutil"
	"github.com/Skotchmaster/pulseo/internal/tokens"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

const strongPassword = "Str0ng!Passw0rd12"

type testServer struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	events *events.Recorder
}

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()

	r := repo.New(testutil.NewDB(t))
	rec := &events.Recorder{}
	issuer := tokens.NewIssuer([]byte("test-secret"))
	params := hash.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{
			Svc: &service.AuthService{
				Users:    r,
				Sessions: r,
				Hasher:   hash.New(4, params),
				Tokens:   issuer,
				Events:   rec,
			},
		},
		TaskHandler:   &TaskHTTP{Svc: &service.TaskService{Repo: r, Events: rec}},
		ColumnHandler: &ColumnHTTP{Svc: &service.ColumnService{Repo: r}},
		Auth:          auth.NewSimpleAuth(issuer),
		RateLimit:     limiter,
	})
	return &testServer{e: e, repo: r, events: rec}
}

type response struct {
	Code    int
	Cookies map[string]*http.Cookie
	Raw     []byte
	Body    struct {
		Success bool                 `json:"success"`
		Data    json.RawMessage      `json:"data"`
		Error   *transport.ErrorBody `json:"error"`
	}
}

func (r *response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data(), v))
}

func (r *response) Data() []byte { return r.Body.Data }

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *response {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := &response{Code: rec.Code, Cookies: map[string]*http.Cookie{}, Raw: rec.Body.Bytes()}
	for _, c := range rec.Result().Cookies() {
		out.Cookies[c.Name] = c
	}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func (s *testServer) register(t *testing.T, username, email string) *response {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/auth/register", transport.RegisterRequest{
		Username: username, Email: email, Password: strongPassword,
	})
	require.Equal(t, http.StatusCreated, res.Code, "%+v", res.Body.Error)
	return res
}

func (r *response) access() *http.Cookie  { return r.Cookies[transport.AccessCookieName] }
func (r *response) refresh() *http.Cookie { return r.Cookies[transport.RefreshCookieName] }
