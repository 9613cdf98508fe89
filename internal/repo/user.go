package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pulseo/internal/models"
)

// CreateUser inserts a user. Username and email uniqueness is case-insensitive
// and enforced by the database; a violation maps to ErrUsernameTaken or
// ErrEmailTaken.
func (r *GormRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	user := models.User{
		Username:     username,
		UsernameKey:  strings.ToLower(username),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
	}

	if err := r.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if which, ok := uniqueViolation(err); ok {
			switch {
			case strings.Contains(which, "username"):
				return nil, ErrUsernameTaken
			case strings.Contains(which, "email"):
				return nil, ErrEmailTaken
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username_key = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
