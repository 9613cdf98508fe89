package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

// ErrorHandler renders every error returned by a handler or middleware as a
// failure envelope. Internal details are logged, never sent.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := transport.ToAPIError(err)
	l := logging.FromContext(c.Request().Context())
	if apiErr.Status >= http.StatusInternalServerError {
		l.Error("request_failed", "status", apiErr.Status, "code", apiErr.Code, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(apiErr.Status)
	} else {
		werr = c.JSON(apiErr.Status, transport.Fail(apiErr.Code, apiErr.Message))
	}
	if werr != nil {
		l.Error("error_response_failed", "error", werr)
	}
}
