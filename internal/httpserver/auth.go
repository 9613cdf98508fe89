package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/middleware/auth"
	"github.com/Skotchmaster/pulseo/internal/service"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies transport.Cookies
}

func (h *AuthHTTP) setSession(c echo.Context, sess *service.Session) {
	c.SetCookie(h.Cookies.Access(sess.AccessToken, sess.AccessExp))
	c.SetCookie(h.Cookies.Refresh(sess.RefreshToken, sess.RefreshExp))
}

func (h *AuthHTTP) clearSession(c echo.Context) {
	for _, ck := range h.Cookies.Clear() {
		c.SetCookie(ck)
	}
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var body transport.RegisterBody
	if err := c.Bind(&body); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return transport.BadRequest("Invalid request body")
	}
	req := body.Request()

	sess, err := h.Svc.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.setSession(c, sess)
	return c.JSON(http.StatusCreated, transport.OK(echo.Map{"user": sess.User}))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 401, "error", err)
		return transport.NewAPIError(http.StatusUnauthorized, service.CodeInvalidCredentials, service.MsgInvalidCredentials)
	}

	sess, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSession(c, sess)
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"user": sess.User}))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	res := h.Svc.Refresh(ctx,
		cookieValue(c, transport.RefreshCookieName),
		cookieValue(c, transport.AccessCookieName),
	)

	invalid := func(msg string) error {
		return transport.NewAPIError(http.StatusUnauthorized, service.CodeInvalidRefreshToken, msg)
	}

	switch res.Outcome {
	case service.RefreshRotated:
		h.setSession(c, res.Session)
		return c.JSON(http.StatusOK, transport.OK(echo.Map{"user": res.Session.User}))
	case service.RefreshMissing:
		return invalid("Refresh token is missing")
	case service.RefreshNotFound:
		return invalid("Invalid refresh token")
	case service.RefreshReuseDetected:
		h.clearSession(c)
		return transport.NewAPIError(http.StatusUnauthorized, service.CodeTokenReuseDetected,
			"Potential token theft detected. All sessions have been revoked.")
	case service.RefreshExpired:
		h.clearSession(c)
		return invalid("Refresh token has expired")
	case service.RefreshOrphaned:
		h.clearSession(c)
		return invalid(service.MsgUserNotFound)
	}
	return &transport.APIError{
		Status:  http.StatusInternalServerError,
		Code:    service.CodeInternal,
		Message: "Internal server error",
		Err:     res.Err,
	}
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()

	h.Svc.Logout(ctx, cookieValue(c, transport.RefreshCookieName))
	h.clearSession(c)

	logging.FromContext(ctx).Info("successful_logout", "handler", "auth_logout")
	return c.JSON(http.StatusOK, transport.OK(nil))
}

func (h *AuthHTTP) Me(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return transport.Unauthorized()
	}

	user, err := h.Svc.Me(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"user": user}))
}
