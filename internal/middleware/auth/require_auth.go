package auth

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/tokens"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

const (
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

type SimpleAuth struct {
	Tokens *tokens.Issuer
}

func NewSimpleAuth(issuer *tokens.Issuer) *SimpleAuth {
	return &SimpleAuth{Tokens: issuer}
}

// RequireAuth admits requests carrying a valid access cookie and stores the
// caller's id and claims on the echo context.
func (m *SimpleAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		cookie, err := c.Cookie(transport.AccessCookieName)
		if err != nil || cookie.Value == "" {
			l.Warn("auth_rejected", "status", 401, "reason", "missing access token")
			return transport.Unauthorized()
		}

		claims := m.Tokens.VerifyAccessToken(cookie.Value)
		if claims == nil {
			l.Warn("auth_rejected", "status", 401, "reason", "invalid or expired access token")
			return transport.Unauthorized()
		}

		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxClaims, claims)
		return next(c)
	}
}

func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ctxUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func Claims(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(ctxClaims).(*tokens.AccessClaims)
	return claims
}
