package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/middleware/auth"
	"github.com/Skotchmaster/pulseo/internal/service"
	"github.com/Skotchmaster/pulseo/internal/transport"
	"github.com/Skotchmaster/pulseo/internal/util"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

const msgInvalidBody = "Invalid JSON body"

func caller(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.UserID(c)
	if !ok {
		return uuid.Nil, transport.Unauthorized()
	}
	return id, nil
}

// pathID parses :id. A malformed id cannot name any row, so it is reported as
// not found with the resource's usual message.
func pathID(c echo.Context, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, transport.NewAPIError(http.StatusNotFound, service.CodeNotFound, notFound)
	}
	return id, nil
}

func (h *TaskHTTP) List(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.Svc.List(c.Request().Context(), userID, c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"tasks": tasks}))
}

func (h *TaskHTTP) Get(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgTaskNotFound)
	if err != nil {
		return err
	}
	task, err := h.Svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"task": task}))
}

func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := caller(c)
	if err != nil {
		return err
	}

	var req transport.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("create_task_error", "status", 400, "error", err)
		return transport.BadRequest(msgInvalidBody)
	}

	task, err := h.Svc.Create(ctx, userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transport.OK(echo.Map{"task": task}))
}

func (h *TaskHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgTaskNotFound)
	if err != nil {
		return err
	}

	var req transport.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("update_task_error", "status", 400, "error", err)
		return transport.BadRequest(msgInvalidBody)
	}

	task, err := h.Svc.Update(ctx, userID, id, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Position:    req.Position,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"task": task}))
}

func (h *TaskHTTP) Delete(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgTaskNotFound)
	if err != nil {
		return err
	}
	deletedAt, err := h.Svc.Delete(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"deletedAt": deletedAt}))
}

func (h *TaskHTTP) Restore(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, service.MsgTaskNotRestorable)
	if err != nil {
		return err
	}
	task, err := h.Svc.Restore(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(echo.Map{"task": task}))
}

func (h *TaskHTTP) Reorder(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := caller(c)
	if err != nil {
		return err
	}

	var req transport.ReorderTasksRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("reorder_tasks_error", "status", 400, "error", err)
		return transport.BadRequest("taskIds array is required")
	}

	if err := h.Svc.Reorder(ctx, userID, req.TaskIDs, req.Status); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(nil))
}

func (h *TaskHTTP) Search(c echo.Context) error {
	userID, err := caller(c)
	if err != nil {
		return err
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.Search(c.Request().Context(), userID, c.QueryParam("q"), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.OK(res))
}
