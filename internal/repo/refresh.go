package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pulseo/internal/models"
)

func (r *GormRepo) StoreRefreshToken(ctx context.Context, id, userID uuid.UUID, hash string, expiresAt time.Time) error {
	token := models.RefreshToken{
		ID:        id,
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := r.DB.WithContext(ctx).Create(&token).Error; err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *GormRepo) FindRefreshByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (r *GormRepo) DeleteRefreshByID(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteRefreshByHash(ctx context.Context, hash string) error {
	return r.DB.WithContext(ctx).Where("token_hash = ?", hash).Delete(&models.RefreshToken{}).Error
}

// DeleteAllRefreshForUser revokes every session of the user and returns how
// many tokens were removed.
func (r *GormRepo) DeleteAllRefreshForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

// ConsumeRefreshToken looks a token up by hash and deletes it in the same
// transaction. Only one caller can consume a given token; the loser of a race
// gets ErrNotFound.
func (r *GormRepo) ConsumeRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_hash = ?", hash).First(&token).Error; err != nil {
			return notFound(err)
		}
		res := tx.Where("id = ?", token.ID).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	return &token, nil
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

// IsExpired treats a token expiring exactly now as expired.
func IsExpired(expiresAt, now time.Time) bool {
	return !expiresAt.After(now)
}
