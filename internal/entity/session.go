package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session correlates one issued bearer token to a user. A session is valid
// only while expires_at lies in the future; expired rows are invisible to
// every lookup and are reclaimed by a periodic sweep.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	TokenHash string `gorm:"type:text;not null;uniqueIndex"`

	IPAddress *string `gorm:"type:varchar(45)"`
	UserAgent *string `gorm:"type:text"`

	ExpiresAt      time.Time `gorm:"not null"`
	LastActivityAt time.Time

	CreatedAt time.Time
}
