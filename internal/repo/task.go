package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pulseo/internal/models"
)

// TaskPatch carries the fields of an update. Nil pointers leave the field
// untouched; SetDescription with a nil Description clears it.
type TaskPatch struct {
	Title          *string
	SetDescription bool
	Description    *string
	Status         *string
	Position       *int
}

func (r *GormRepo) ListTasks(ctx context.Context, userID uuid.UUID, status string) ([]models.Task, error) {
	q := r.DB.WithContext(ctx).Where("user_id = ? AND deleted_at IS NULL", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var tasks []models.Task
	if err := q.Order("position ASC").Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns the task whether or not it is soft-deleted.
func (r *GormRepo) GetTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// CreateTask appends a task to the end of its status group. An empty status
// means the user's first column, seeding the defaults if the user has none.
func (r *GormRepo) CreateTask(ctx context.Context, userID uuid.UUID, title string, description *string, status string) (*models.Task, error) {
	task := models.Task{
		UserID:      userID,
		Title:       title,
		Description: description,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := seedColumns(tx, userID); err != nil {
			return err
		}

		if status == "" {
			var first models.Column
			if err := tx.Where("user_id = ?", userID).Order("position ASC").Order("created_at ASC").First(&first).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNoColumns
				}
				return err
			}
			status = first.StatusValue
		} else if _, err := columnByStatus(tx, userID, status); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrUnknownStatus
			}
			return err
		}
		task.Status = status

		var maxPos int
		if err := tx.Model(&models.Task{}).
			Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, status).
			Select("COALESCE(MAX(position), -1)").
			Scan(&maxPos).Error; err != nil {
			return err
		}
		task.Position = maxPos + 1

		return tx.Create(&task).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoColumns) || errors.Is(err, ErrUnknownStatus) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// UpdateTask edits a live task. Soft-deleted tasks report ErrNotFound.
func (r *GormRepo) UpdateTask(ctx context.Context, userID, id uuid.UUID, patch TaskPatch) (*models.Task, error) {
	var task models.Task

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).First(&task).Error; err != nil {
			return notFound(err)
		}

		updates := map[string]any{}
		if patch.Status != nil {
			if _, err := columnByStatus(tx, userID, *patch.Status); err != nil {
				if errors.Is(err, ErrNotFound) {
					return ErrUnknownStatus
				}
				return err
			}
			updates["status"] = *patch.Status
		}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.SetDescription {
			updates["description"] = patch.Description
		}
		if patch.Position != nil {
			updates["position"] = *patch.Position
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.Task{}).Where("id = ? AND user_id = ?", id, userID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).First(&task).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownStatus) {
			return nil, err
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// SoftDeleteTask stamps deleted_at on a live task and returns the stamp.
func (r *GormRepo) SoftDeleteTask(ctx context.Context, userID, id uuid.UUID) (time.Time, error) {
	now := r.DB.NowFunc()
	res := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NULL", id, userID).
		UpdateColumn("deleted_at", now)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, ErrNotFound
	}
	return now, nil
}

// RestoreTask clears deleted_at. Live or already purged tasks report ErrNotFound.
func (r *GormRepo) RestoreTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	res := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, userID).
		Updates(map[string]any{"deleted_at": nil, "updated_at": r.DB.NowFunc()})
	if res.Error != nil {
		return nil, fmt.Errorf("restore task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetTask(ctx, userID, id)
}

// ReorderTasks sets each listed task's position to its index and, when status
// is given, moves them all into that status. Ids the user does not own are
// ignored.
func (r *GormRepo) ReorderTasks(ctx context.Context, userID uuid.UUID, ids []uuid.UUID, status string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status != "" {
			if _, err := columnByStatus(tx, userID, status); err != nil {
				if errors.Is(err, ErrNotFound) {
					return ErrUnknownStatus
				}
				return err
			}
		}

		for i, id := range ids {
			updates := map[string]any{"position": i}
			if status != "" {
				updates["status"] = status
			}
			if err := tx.Model(&models.Task{}).
				Where("id = ? AND user_id = ?", id, userID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownStatus) {
			return err
		}
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

// PurgeDeletedTasks permanently removes tasks soft-deleted before cutoff and
// returns their ids.
func (r *GormRepo) PurgeDeletedTasks(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff.UTC()).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Where("id IN ?", ids).Delete(&models.Task{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("purge tasks: %w", err)
	}
	return ids, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchTasks matches q case-insensitively against title and description of
// the user's live tasks.
func (r *GormRepo) SearchTasks(ctx context.Context, userID uuid.UUID, q string, offset, limit int) ([]models.Task, int64, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	base := r.DB.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	if err := base.Session(&gorm.Session{}).
		Order("updated_at DESC").
		Offset(offset).Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// FindLiveTasks loads the user's non-deleted tasks with the given ids, in the
// order of ids.
func (r *GormRepo) FindLiveTasks(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []models.Task
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL AND id IN ?", userID, ids).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Task, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]models.Task, 0, len(found))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
