package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity. Salt and PasswordHash are
// stored separately, both hex-encoded.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"column:username;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	Salt         string    `gorm:"column:salt;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Avatar       *string   `gorm:"column:avatar"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
