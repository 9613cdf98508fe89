package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/models"
	"github.com/Skotchmaster/pulseo/internal/repo"
	"github.com/Skotchmaster/pulseo/internal/search"
)

const (
	MsgColumnNotFound = "Column not found"
	MsgColumnLimit    = "Maximum of 10 columns per user"
	MsgStatusTaken    = "Status value already exists"
)

type ColumnStore interface {
	ListColumns(ctx context.Context, userID uuid.UUID) ([]models.Column, error)
	GetColumn(ctx context.Context, userID, id uuid.UUID) (*models.Column, error)
	CreateColumn(ctx context.Context, userID uuid.UUID, name, status string, color *string) (*models.Column, error)
	UpdateColumn(ctx context.Context, userID, id uuid.UUID, patch repo.ColumnPatch) (*models.Column, error)
	DeleteColumn(ctx context.Context, userID, id uuid.UUID) error
	ReorderColumns(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	ListTasks(ctx context.Context, userID uuid.UUID, status string) ([]models.Task, error)
}

// ColumnService keeps Index in step with status renames when it is set.
type ColumnService struct {
	Repo  ColumnStore
	Index search.Index
}

type CreateColumnInput struct {
	Name        string
	StatusValue string
	Color       *string
}

// UpdateColumnInput leaves nil fields untouched. An empty Color clears it.
type UpdateColumnInput struct {
	Name        *string
	StatusValue *string
	Color       *string
	Position    *int
}

func columnStoreError(err error) error {
	var notEmpty *repo.ColumnNotEmptyError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return notFoundError(MsgColumnNotFound)
	case errors.Is(err, repo.ErrColumnLimit):
		return validationError(CodeColumnLimit, MsgColumnLimit)
	case errors.Is(err, repo.ErrStatusTaken):
		return validationError(CodeStatusTaken, MsgStatusTaken)
	case errors.As(err, &notEmpty):
		return validationError(CodeColumnNotEmpty, fmt.Sprintf("Move or delete %d tasks first", notEmpty.Tasks))
	}
	return internalError(CodeInternal, "Internal server error", err)
}

// List returns the user's columns in position order, seeding the defaults for
// a user that has none.
func (s *ColumnService) List(ctx context.Context, userID uuid.UUID) ([]models.Column, error) {
	cols, err := s.Repo.ListColumns(ctx, userID)
	if err != nil {
		return nil, columnStoreError(err)
	}
	if cols == nil {
		cols = []models.Column{}
	}
	return cols, nil
}

func (s *ColumnService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Column, error) {
	col, err := s.Repo.GetColumn(ctx, userID, id)
	if err != nil {
		return nil, columnStoreError(err)
	}
	return col, nil
}

func (s *ColumnService) Create(ctx context.Context, userID uuid.UUID, in CreateColumnInput) (*models.Column, error) {
	name, verr := SanitizeColumnName(in.Name)
	if verr != nil {
		return nil, verr
	}
	status, verr := SanitizeStatusValue(in.StatusValue)
	if verr != nil {
		return nil, verr
	}
	color, verr := SanitizeColor(in.Color)
	if verr != nil {
		return nil, verr
	}

	col, err := s.Repo.CreateColumn(ctx, userID, name, status, color)
	if err != nil {
		return nil, columnStoreError(err)
	}
	return col, nil
}

func (s *ColumnService) Update(ctx context.Context, userID, id uuid.UUID, in UpdateColumnInput) (*models.Column, error) {
	before, err := s.Repo.GetColumn(ctx, userID, id)
	if err != nil {
		return nil, columnStoreError(err)
	}

	var patch repo.ColumnPatch
	if in.Name != nil {
		name, verr := SanitizeColumnName(*in.Name)
		if verr != nil {
			return nil, verr
		}
		patch.Name = &name
	}
	if in.StatusValue != nil {
		status, verr := SanitizeStatusValue(*in.StatusValue)
		if verr != nil {
			return nil, verr
		}
		patch.StatusValue = &status
	}
	if in.Color != nil {
		color, verr := SanitizeColor(in.Color)
		if verr != nil {
			return nil, verr
		}
		patch.SetColor = true
		patch.Color = color
	}
	patch.Position = in.Position

	col, err := s.Repo.UpdateColumn(ctx, userID, id, patch)
	if err != nil {
		return nil, columnStoreError(err)
	}
	if col.StatusValue != before.StatusValue {
		s.reindexStatus(ctx, userID, col.StatusValue)
	}
	return col, nil
}

// reindexStatus rewrites the search documents of tasks moved by a rename.
// Failures are logged and leave the index stale.
func (s *ColumnService) reindexStatus(ctx context.Context, userID uuid.UUID, status string) {
	if s.Index == nil {
		return
	}
	l := logging.FromContext(ctx)

	tasks, err := s.Repo.ListTasks(ctx, userID, status)
	if err != nil {
		l.Warn("search_reindex_failed", "status", status, "error", err)
		return
	}
	for _, t := range tasks {
		if err := s.Index.IndexTask(ctx, t); err != nil {
			l.Warn("search_index_failed", "task_id", t.ID, "error", err)
		}
	}
}

func (s *ColumnService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.Repo.DeleteColumn(ctx, userID, id); err != nil {
		return columnStoreError(err)
	}
	return nil
}

func (s *ColumnService) Reorder(ctx context.Context, userID uuid.UUID, rawIDs []string) error {
	ids, verr := parseIDs(rawIDs, "columnIds")
	if verr != nil {
		return verr
	}
	if err := s.Repo.ReorderColumns(ctx, userID, ids); err != nil {
		return columnStoreError(err)
	}
	return nil
}
