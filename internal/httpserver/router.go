package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/middleware/auth"
	"github.com/Skotchmaster/pulseo/internal/middleware/ratelimit"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	TaskHandler   *TaskHTTP
	ColumnHandler *ColumnHTTP
	Auth          *auth.SimpleAuth
	RateLimit     *ratelimit.Limiter
	Ready         func() error
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")
	api.GET("/health", health)

	authGroup := api.Group("/auth")
	credentials := []echo.MiddlewareFunc{}
	if d.RateLimit.Enabled() {
		credentials = append(credentials, d.RateLimit.Middleware)
	}
	authGroup.POST("/register", d.AuthHandler.Register, credentials...)
	authGroup.POST("/login", d.AuthHandler.Login, credentials...)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/logout", d.AuthHandler.LogOut)
	authGroup.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)

	tasks := api.Group("/tasks", d.Auth.RequireAuth)
	tasks.GET("", d.TaskHandler.List)
	tasks.POST("", d.TaskHandler.Create)
	tasks.GET("/search", d.TaskHandler.Search)
	tasks.POST("/reorder", d.TaskHandler.Reorder)
	tasks.GET("/:id", d.TaskHandler.Get)
	tasks.PUT("/:id", d.TaskHandler.Update)
	tasks.DELETE("/:id", d.TaskHandler.Delete)
	tasks.POST("/:id/restore", d.TaskHandler.Restore)

	columns := api.Group("/columns", d.Auth.RequireAuth)
	columns.GET("", d.ColumnHandler.List)
	columns.POST("", d.ColumnHandler.Create)
	columns.POST("/reorder", d.ColumnHandler.Reorder)
	columns.GET("/:id", d.ColumnHandler.Get)
	columns.PUT("/:id", d.ColumnHandler.Update)
	columns.DELETE("/:id", d.ColumnHandler.Delete)
}
