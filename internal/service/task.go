package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/events"
	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/models"
	"github.com/Skotchmaster/pulseo/internal/repo"
	"github.com/Skotchmaster/pulseo/internal/search"
	"github.com/Skotchmaster/pulseo/internal/util"
)

const (
	MsgTaskNotFound      = "Task not found"
	MsgTaskNotRestorable = "Task not found or already permanently deleted"
	MsgUnknownStatus     = "Status does not match any column"
	MsgNoColumns         = "No columns exist"
)

type TaskStore interface {
	ListTasks(ctx context.Context, userID uuid.UUID, status string) ([]models.Task, error)
	GetTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, userID uuid.UUID, title string, description *string, status string) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, id uuid.UUID, patch repo.TaskPatch) (*models.Task, error)
	SoftDeleteTask(ctx context.Context, userID, id uuid.UUID) (time.Time, error)
	RestoreTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	ReorderTasks(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, status string) error
	SearchTasks(ctx context.Context, userID uuid.UUID, q string, offset, limit int) ([]models.Task, int64, error)
	FindLiveTasks(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Task, error)
}

type TaskService struct {
	Repo   TaskStore
	Index  search.Index
	Events events.Publisher
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Status      string
}

// UpdateTaskInput leaves nil fields untouched. An empty Description clears it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Position    *int
}

type SearchResult struct {
	Tasks []models.Task `json:"tasks"`
	Meta  util.Meta     `json:"meta"`
}

func (s *TaskService) publish(ctx context.Context, typ string, task models.Task) {
	if s.Events == nil {
		return
	}
	ev := events.TaskEvent{
		Type:      typ,
		UserID:    task.UserID,
		TaskID:    task.ID,
		Status:    task.Status,
		Timestamp: time.Now().UTC(),
	}
	if err := s.Events.Publish(ctx, events.TopicTaskEvents, task.UserID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "topic", events.TopicTaskEvents, "type", typ, "error", err)
	}
}

func (s *TaskService) index(ctx context.Context, tasks ...models.Task) {
	if s.Index == nil {
		return
	}
	for _, t := range tasks {
		if err := s.Index.IndexTask(ctx, t); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "task_id", t.ID, "error", err)
		}
	}
}

func (s *TaskService) unindex(ctx context.Context, id uuid.UUID) {
	if s.Index == nil {
		return
	}
	if err := s.Index.RemoveTask(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("search_remove_failed", "task_id", id, "error", err)
	}
}

func taskStoreError(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return notFoundError(notFoundMsg)
	case errors.Is(err, repo.ErrUnknownStatus):
		return validationError(CodeValidation, MsgUnknownStatus)
	case errors.Is(err, repo.ErrNoColumns):
		return validationError(CodeValidation, MsgNoColumns)
	}
	return internalError(CodeInternal, "Internal server error", err)
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.Task, error) {
	tasks, err := s.Repo.ListTasks(ctx, userID, strings.TrimSpace(status))
	if err != nil {
		return nil, taskStoreError(err, MsgTaskNotFound)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	task, err := s.Repo.GetTask(ctx, userID, id)
	if err != nil {
		return nil, taskStoreError(err, MsgTaskNotFound)
	}
	return task, nil
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*models.Task, error) {
	title, verr := SanitizeTitle(in.Title)
	if verr != nil {
		return nil, verr
	}
	desc, verr := SanitizeDescription(in.Description)
	if verr != nil {
		return nil, verr
	}

	task, err := s.Repo.CreateTask(ctx, userID, title, desc, strings.TrimSpace(in.Status))
	if err != nil {
		return nil, taskStoreError(err, MsgTaskNotFound)
	}

	s.index(ctx, *task)
	s.publish(ctx, events.TaskCreated, *task)
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	if _, err := s.Repo.GetTask(ctx, userID, id); err != nil {
		return nil, taskStoreError(err, MsgTaskNotFound)
	}

	var patch repo.TaskPatch
	if in.Title != nil {
		title, verr := SanitizeTitle(*in.Title)
		if verr != nil {
			return nil, verr
		}
		patch.Title = &title
	}
	if in.Description != nil {
		desc, verr := SanitizeDescription(in.Description)
		if verr != nil {
			return nil, verr
		}
		patch.SetDescription = true
		patch.Description = desc
	}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		patch.Status = &status
	}
	patch.Position = in.Position

	task, err := s.Repo.UpdateTask(ctx, userID, id, patch)
	if err != nil {
		return nil, taskStoreError(err, MsgTaskNotFound)
	}

	s.index(ctx, *task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id uuid.UUID) (time.Time, error) {
	deletedAt, err := s.Repo.SoftDeleteTask(ctx, userID, id)
	if err != nil {
		return time.Time{}, taskStoreError(err, MsgTaskNotFound)
	}

	s.unindex(ctx, id)
	s.publish(ctx, events.TaskDeleted, models.Task{ID: id, UserID: userID})
	return deletedAt, nil
}

func (s *TaskService) Restore(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	task, err := s.Repo.RestoreTask(ctx, userID, id)
	if err != nil {
		return nil, taskStoreError(err, MsgTaskNotRestorable)
	}

	s.index(ctx, *task)
	s.publish(ctx, events.TaskRestored, *task)
	return task, nil
}

// Reorder places the given tasks at positions 0..n-1, optionally moving them
// all into status.
func (s *TaskService) Reorder(ctx context.Context, userID uuid.UUID, rawIDs []string, status string) error {
	ids, verr := parseIDs(rawIDs, "taskIds")
	if verr != nil {
		return verr
	}

	status = strings.TrimSpace(status)
	if err := s.Repo.ReorderTasks(ctx, userID, ids, status); err != nil {
		return taskStoreError(err, MsgTaskNotFound)
	}

	if status != "" && s.Index != nil {
		moved, err := s.Repo.FindLiveTasks(ctx, userID, ids)
		if err != nil {
			logging.FromContext(ctx).Warn("search_reindex_failed", "error", err)
			return nil
		}
		s.index(ctx, moved...)
	}
	return nil
}

// Search finds the user's live tasks matching q. The search index answers
// when configured; the database answers otherwise or when the index fails.
func (s *TaskService) Search(ctx context.Context, userID uuid.UUID, q string, page, size int) (*SearchResult, error) {
	l := logging.FromContext(ctx).With("svc", "task.search")
	q = strings.TrimSpace(q)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}

	if q == "" {
		return &SearchResult{Tasks: []models.Task{}, Meta: util.NewMeta(page, offset, limit, 0)}, nil
	}

	if s.Index != nil {
		total, ids, err := s.Index.SearchTasks(ctx, userID, q, offset, limit)
		if err == nil {
			tasks, err := s.Repo.FindLiveTasks(ctx, userID, ids)
			if err == nil {
				if tasks == nil {
					tasks = []models.Task{}
				}
				return &SearchResult{Tasks: tasks, Meta: util.NewMeta(page, offset, limit, total)}, nil
			}
			l.Warn("search_load_failed", "error", err)
		} else {
			l.Warn("search_index_unavailable", "error", err)
		}
	}

	tasks, total, err := s.Repo.SearchTasks(ctx, userID, q, offset, limit)
	if err != nil {
		return nil, internalError(CodeInternal, "Internal server error", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return &SearchResult{Tasks: tasks, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func parseIDs(raw []string, field string) ([]uuid.UUID, *Error) {
	if raw == nil {
		return nil, validationError(CodeValidation, field+" array is required")
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, validationError(CodeValidation, field+" must contain valid ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
