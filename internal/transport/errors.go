package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/service"
)

const msgInternal = "Internal server error"

// APIError is an error that already knows how it is rendered.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %s: %v", e.Status, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, service.CodeValidation, message)
}

func Unauthorized() *APIError {
	return NewAPIError(http.StatusUnauthorized, service.CodeUnauthorized, service.MsgAuthRequired)
}

func statusForKind(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return service.CodeValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return service.CodeUnauthorized
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return service.CodeNotFound
	case http.StatusTooManyRequests:
		return service.CodeRateLimited
	}
	return service.CodeInternal
}

// ToAPIError classifies any handler error. Unknown errors become a 500 with
// no detail.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		status := statusForKind(svcErr)
		msg := svcErr.Message
		if status == http.StatusInternalServerError && msg == "" {
			msg = msgInternal
		}
		return &APIError{Status: status, Code: svcErr.Code, Message: msg, Err: svcErr.Err}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return &APIError{Status: he.Code, Code: service.CodeInternal, Message: msgInternal, Err: err}
		}
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return &APIError{Status: he.Code, Code: codeForStatus(he.Code), Message: msg}
	}

	return &APIError{Status: http.StatusInternalServerError, Code: service.CodeInternal, Message: msgInternal, Err: err}
}
