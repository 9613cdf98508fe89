package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"                                  json:"id"`
	Username     string    `gorm:"size:30;not null"                                      json:"username"`
	UsernameKey  string    `gorm:"size:30;not null;uniqueIndex:idx_users_username_key"   json:"-"`
	Email        string    `gorm:"size:254;not null;uniqueIndex:idx_users_email"         json:"email"`
	PasswordHash string    `gorm:"not null"                                              json:"-"`
	CreatedAt    time.Time `gorm:"not null"                                              json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null"                                              json:"updatedAt"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Columns       []Column       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks         []Task         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (u User) PublicWithTimestamp() PublicUserWithTimestamp {
	return PublicUserWithTimestamp{PublicUser: u.Public(), CreatedAt: u.CreatedAt}
}

type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type PublicUserWithTimestamp struct {
	PublicUser
	CreatedAt time.Time `json:"createdAt"`
}

// RefreshToken stores only the sha256 digest of the secret handed to the client.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                   json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"               json:"userId"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"           json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"                         json:"expiresAt"`
	CreatedAt time.Time `gorm:"not null"                               json:"createdAt"`
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"                          json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_tasks_user_status" json:"userId"`
	Title       string     `gorm:"size:200;not null"                             json:"title"`
	Description *string    `gorm:"size:2000"                                     json:"description"`
	Status      string     `gorm:"size:50;not null;index:idx_tasks_user_status"  json:"status"`
	Position    int        `gorm:"not null;default:0"                            json:"position"`
	CreatedAt   time.Time  `gorm:"not null"                                      json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null"                                      json:"updatedAt"`
	DeletedAt   *time.Time `gorm:"index"                                         json:"deletedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t Task) IsDeleted() bool { return t.DeletedAt != nil }

type Column struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"                                    json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_columns_user_status"  json:"userId"`
	Name        string    `gorm:"size:50;not null"                                        json:"name"`
	StatusValue string    `gorm:"size:50;not null;uniqueIndex:idx_columns_user_status"    json:"statusValue"`
	Position    int       `gorm:"not null;default:0"                                      json:"position"`
	Color       *string   `gorm:"size:20"                                                 json:"color"`
	CreatedAt   time.Time `gorm:"not null"                                                json:"createdAt"`
}

func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
