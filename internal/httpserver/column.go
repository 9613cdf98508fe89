package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/service"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

type ColumnHTTP struct {
	Svc *service.ColumnService
}

func (h *ColumnHTTP) List(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	cols, err := h.Svc.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"columns": cols}))
}

func (h *ColumnHTTP) Get(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgColumnNotFound)
	if err != nil {
		return err
	}
	col, err := h.Svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"column": col}))
}

func (h *ColumnHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := caller(c)
	if err != nil {
		return err
	}

	var req transport.CreateColumnRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("create_column_error", "status", 400, "error", err)
		return transport.BadRequest(msgInvalidBody)
	}

	col, err := h.Svc.Create(ctx, userID, service.CreateColumnInput{
		Name:        req.Name,
		StatusValue: req.StatusValue,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transport.OK(echo.Map{"column": col}))
}

func (h *ColumnHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgColumnNotFound)
	if err != nil {
		return err
	}

	var req transport.UpdateColumnRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("update_column_error", "status", 400, "error", err)
		return transport.BadRequest(msgInvalidBody)
	}

	col, err := h.Svc.Update(ctx, userID, id, service.UpdateColumnInput{
		Name:        req.Name,
		StatusValue: req.StatusValue,
		Color:       req.Color,
		Position:    req.Position,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"column": col}))
}

func (h *ColumnHTTP) Delete(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgColumnNotFound)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(nil))
}

func (h *ColumnHTTP) Reorder(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := caller(c)
	if err != nil {
		return err
	}

	var req transport.ReorderColumnsRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("reorder_columns_error", "status", 400, "error", err)
		return transport.BadRequest("columnIds array is required")
	}

	if err := h.Svc.Reorder(ctx, userID, req.ColumnIDs); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(nil))
}
