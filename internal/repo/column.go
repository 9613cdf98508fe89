package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/pulseo/internal/models"
)

const MaxColumnsPerUser = 10

type defaultColumn struct {
	Name        string
	StatusValue string
	Color       string
}

var defaultColumns = []defaultColumn{
	{Name: "Todo", StatusValue: "todo", Color: "#3B82F6"},
	{Name: "In Progress", StatusValue: "in-progress", Color: "#F59E0B"},
	{Name: "Done", StatusValue: "done", Color: "#00D67E"},
}

// ColumnPatch carries the fields of an update. Nil pointers leave the field
// untouched; SetColor with a nil Color clears it.
type ColumnPatch struct {
	Name        *string
	StatusValue *string
	SetColor    bool
	Color       *string
	Position    *int
}

// lockUser serializes per-user multi-row writes on Postgres. SQLite already
// runs every transaction on its single connection.
func lockUser(tx *gorm.DB, userID uuid.UUID) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	var u models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", userID).First(&u).Error
	return notFound(err)
}

func countColumns(tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.Column{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func columnByStatus(tx *gorm.DB, userID uuid.UUID, status string) (*models.Column, error) {
	var col models.Column
	if err := tx.Where("user_id = ? AND status_value = ?", userID, status).First(&col).Error; err != nil {
		return nil, notFound(err)
	}
	return &col, nil
}

func seedColumns(tx *gorm.DB, userID uuid.UUID) error {
	n, err := countColumns(tx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	cols := make([]models.Column, 0, len(defaultColumns))
	for i, d := range defaultColumns {
		color := d.Color
		cols = append(cols, models.Column{
			UserID:      userID,
			Name:        d.Name,
			StatusValue: d.StatusValue,
			Position:    i,
			Color:       &color,
		})
	}
	return tx.Create(&cols).Error
}

// SeedColumns gives a user with no columns the three defaults. It is a no-op
// when the user already has any column.
func (r *GormRepo) SeedColumns(ctx context.Context, userID uuid.UUID) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		return seedColumns(tx, userID)
	})
	if _, dup := uniqueViolation(err); dup {
		// a concurrent request seeded first
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed columns: %w", err)
	}
	return nil
}

func (r *GormRepo) ListColumns(ctx context.Context, userID uuid.UUID) ([]models.Column, error) {
	if err := r.SeedColumns(ctx, userID); err != nil {
		return nil, err
	}

	var cols []models.Column
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").Order("created_at ASC").
		Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

func (r *GormRepo) GetColumn(ctx context.Context, userID, id uuid.UUID) (*models.Column, error) {
	var col models.Column
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&col).Error; err != nil {
		return nil, notFound(err)
	}
	return &col, nil
}

func (r *GormRepo) GetColumnByStatus(ctx context.Context, userID uuid.UUID, status string) (*models.Column, error) {
	return columnByStatus(r.DB.WithContext(ctx), userID, status)
}

func (r *GormRepo) CreateColumn(ctx context.Context, userID uuid.UUID, name, status string, color *string) (*models.Column, error) {
	col := models.Column{
		UserID:      userID,
		Name:        name,
		StatusValue: status,
		Color:       color,
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		n, err := countColumns(tx, userID)
		if err != nil {
			return err
		}
		if n >= MaxColumnsPerUser {
			return ErrColumnLimit
		}

		if _, err := columnByStatus(tx, userID, status); err == nil {
			return ErrStatusTaken
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		var maxPos int
		if err := tx.Model(&models.Column{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MAX(position), -1)").
			Scan(&maxPos).Error; err != nil {
			return err
		}
		col.Position = maxPos + 1

		return tx.Create(&col).Error
	})
	if err != nil {
		if _, dup := uniqueViolation(err); dup {
			return nil, ErrStatusTaken
		}
		if errors.Is(err, ErrColumnLimit) || errors.Is(err, ErrStatusTaken) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create column: %w", err)
	}
	return &col, nil
}

// UpdateColumn applies patch. A changed status value is carried over to every
// task of the user that had the old value, in the same transaction.
func (r *GormRepo) UpdateColumn(ctx context.Context, userID, id uuid.UUID, patch ColumnPatch) (*models.Column, error) {
	var col models.Column

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&col).Error; err != nil {
			return notFound(err)
		}

		updates := map[string]any{}

		if patch.StatusValue != nil && *patch.StatusValue != col.StatusValue {
			var clash int64
			if err := tx.Model(&models.Column{}).
				Where("user_id = ? AND status_value = ? AND id <> ?", userID, *patch.StatusValue, id).
				Count(&clash).Error; err != nil {
				return err
			}
			if clash > 0 {
				return ErrStatusTaken
			}

			if err := tx.Model(&models.Task{}).
				Where("user_id = ? AND status = ?", userID, col.StatusValue).
				Update("status", *patch.StatusValue).Error; err != nil {
				return err
			}
			updates["status_value"] = *patch.StatusValue
		}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.SetColor {
			updates["color"] = patch.Color
		}
		if patch.Position != nil {
			updates["position"] = *patch.Position
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Column{}).Where("id = ? AND user_id = ?", id, userID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).First(&col).Error
	})
	if err != nil {
		if _, dup := uniqueViolation(err); dup {
			return nil, ErrStatusTaken
		}
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStatusTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("update column: %w", err)
	}
	return &col, nil
}

// DeleteColumn removes a column that no live task references. Otherwise it
// returns *ColumnNotEmptyError.
func (r *GormRepo) DeleteColumn(ctx context.Context, userID, id uuid.UUID) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var col models.Column
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&col).Error; err != nil {
			return notFound(err)
		}

		var live int64
		if err := tx.Model(&models.Task{}).
			Where("user_id = ? AND status = ? AND deleted_at IS NULL", userID, col.StatusValue).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return &ColumnNotEmptyError{Tasks: live}
		}

		return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Column{}).Error
	})
	if err != nil {
		var notEmpty *ColumnNotEmptyError
		if errors.Is(err, ErrNotFound) || errors.As(err, &notEmpty) {
			return err
		}
		return fmt.Errorf("delete column: %w", err)
	}
	return nil
}

// ReorderColumns sets each listed column's position to its index. Ids the user
// does not own are ignored.
func (r *GormRepo) ReorderColumns(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.Column{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("position", i).Error; err != nil {
				return fmt.Errorf("reorder columns: %w", err)
			}
		}
		return nil
	})
}
