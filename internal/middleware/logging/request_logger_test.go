package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pulseo/internal/logging"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  int
		level   string
	}{
		{
			name: "ok",
			handler: func(c echo.Context) error {
				logging.FromContext(c.Request().Context()).Info("inside")
				return c.String(http.StatusOK, "fine")
			},
			status: http.StatusOK,
			level:  "INFO",
		},
		{
			name: "client error",
			handler: func(c echo.Context) error {
				logging.FromContext(c.Request().Context()).Info("inside")
				return echo.NewHTTPError(http.StatusNotFound, "nope")
			},
			status: http.StatusNotFound,
			level:  "WARN",
		},
		{
			name: "server error",
			handler: func(c echo.Context) error {
				logging.FromContext(c.Request().Context()).Info("inside")
				return echo.NewHTTPError(http.StatusInternalServerError, "boom")
			},
			status: http.StatusInternalServerError,
			level:  "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			e := echo.New()
			e.Use(RequestLogger(logging.NewWithWriter("debug", &buf)))
			e.GET("/items/:id", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
			req.Header.Set(echo.HeaderXRequestID, "req-1")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)

			lines := logLines(t, &buf)
			require.Len(t, lines, 2)

			inside, done := lines[0], lines[1]
			assert.Equal(t, "inside", inside["msg"])
			assert.Equal(t, "req-1", inside["request_id"], "handler sees the request logger")

			assert.Equal(t, "request completed", done["msg"])
			assert.Equal(t, tt.level, done["level"])
			assert.Equal(t, float64(tt.status), done["status"])
			assert.Equal(t, "req-1", done["request_id"])
			assert.Equal(t, "/items/:id", done["path"])
			assert.Equal(t, "/items/42", done["url"])
			assert.Equal(t, http.MethodGet, done["method"])
		})
	}
}

func TestRequestLogger_NoRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter("info", &buf)))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "request_id")
	assert.Equal(t, float64(http.StatusNoContent), lines[0]["status"])
}
