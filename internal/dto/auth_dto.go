package dto

import (
	"time"

	"perfreview/internal/entity"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is either a completed login (Token set) or a two-factor
// challenge (RequiresTwoFactor set with the user id to present back).
type LoginResponse struct {
	Success           bool          `json:"success,omitempty"`
	Token             string        `json:"token,omitempty"`
	ExpiresIn         int64         `json:"expiresIn,omitempty"`
	User              *UserResponse `json:"user,omitempty"`
	RequiresTwoFactor bool          `json:"requiresTwoFactor,omitempty"`
	UserID            string        `json:"userId,omitempty"`
}

type VerifyTwoFactorRequest struct {
	Token  string `json:"token" validate:"required"`
	Secret string `json:"secret" validate:"omitempty"`
	UserID string `json:"userId" validate:"omitempty,uuid"`
}

type TwoFactorSetupResponse struct {
	Success   bool   `json:"success"`
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qrCodeUrl"`
}

type DisableTwoFactorRequest struct {
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	JobTitle  string `json:"jobTitle" validate:"omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
}

type SessionCheckResponse struct {
	Valid bool     `json:"valid"`
	User  Identity `json:"user"`
}

type Identity struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// SessionInfo describes one live session without exposing its token.
type SessionInfo struct {
	SessionID    string    `json:"sessionId"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	LastActivity time.Time `json:"lastActivity"`
	IPAddress    *string   `json:"ipAddress,omitempty"`
	UserAgent    *string   `json:"userAgent,omitempty"`
}

func SessionInfosFromEntities(sessions []entity.Session) []SessionInfo {
	infos := make([]SessionInfo, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		infos = append(infos, SessionInfo{
			SessionID:    s.ID.String(),
			CreatedAt:    s.CreatedAt,
			ExpiresAt:    s.ExpiresAt,
			LastActivity: s.LastActivityAt,
			IPAddress:    s.IPAddress,
			UserAgent:    s.UserAgent,
		})
	}
	return infos
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UserResponse never carries the password hash or the TOTP secret.
type UserResponse struct {
	UserID       string     `json:"userId"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	JobTitle     string     `json:"jobTitle"`
	IsAdmin      bool       `json:"isAdmin"`
	IsActive     bool       `json:"isActive"`
	TwoFAEnabled bool       `json:"twoFaEnabled"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func UserResponseFromEntity(user *entity.User) *UserResponse {
	return &UserResponse{
		UserID:       user.ID.String(),
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		JobTitle:     user.JobTitle,
		IsAdmin:      user.IsAdmin,
		IsActive:     user.IsActive,
		TwoFAEnabled: user.TwoFAEnabled,
		LastLoginAt:  user.LastLoginAt,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func UserResponsesFromEntities(users []entity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *UserResponseFromEntity(&users[i]))
	}
	return responses
}
