package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`

	FirstName string `gorm:"type:varchar(100);not null"`
	LastName  string `gorm:"type:varchar(100);not null"`
	JobTitle  string `gorm:"type:varchar(150)"`

	IsAdmin  bool `gorm:"default:false;not null"`
	IsActive bool `gorm:"default:true;not null"`

	TwoFAEnabled bool    `gorm:"default:false;not null"`
	TwoFASecret  *string `gorm:"type:text"`

	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions []Session
}
