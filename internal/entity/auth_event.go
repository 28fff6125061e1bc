package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuthAction string

const (
	LoginSuccess    AuthAction = "login_success"
	LoginFailed     AuthAction = "login_failed"
	Logout          AuthAction = "logout"
	PasswordChanged AuthAction = "password_changed"
	TwoFAEnabled    AuthAction = "2fa_enabled"
	TwoFADisabled   AuthAction = "2fa_disabled"
	TwoFAFailed     AuthAction = "2fa_failed"
	SessionsRevoked AuthAction = "sessions_revoked"
)

// AuthEvent is a best-effort audit record of authentication activity.
// Writing one never fails the operation it describes.
type AuthEvent struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string    `gorm:"type:varchar(45)"`
	Action    AuthAction `gorm:"type:varchar(40);not null"`

	Details datatypes.JSON

	CreatedAt time.Time
}
