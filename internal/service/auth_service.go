package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"perfreview/internal/entity"
	"perfreview/internal/repository"
	"perfreview/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Verified against a fixed hash when the email is unknown so that lookup
// misses and password mismatches take comparable time.
const dummyPasswordHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	events   repository.AuthEventRepository

	passwordHash PasswordHasher
	tokens       TokenIssuer
	twoFactor    TwoFactorEngine
	clock        Clock
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	events repository.AuthEventRepository,
	passwordHash PasswordHasher,
	tokens TokenIssuer,
	twoFactor TwoFactorEngine,
	clock Clock,
) *AuthService {
	return &AuthService{
		users:        users,
		sessions:     sessions,
		events:       events,
		passwordHash: passwordHash,
		tokens:       tokens,
		twoFactor:    twoFactor,
		clock:        clock,
	}
}

// Authenticate verifies credentials and either completes the login or, for
// accounts with 2FA enabled, returns a challenge. No token is minted and no
// session is created until the second factor is satisfied.
func (s *AuthService) Authenticate(ctx context.Context, email, password string, ipAddress, userAgent *string) (*LoginOutcome, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, password)
		_ = s.logEvent(ctx, nil, ipAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if !s.passwordHash.Verify(user.PasswordHash, password) {
		_ = s.logEvent(ctx, &user.ID, ipAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if user.TwoFAEnabled {
		return &LoginOutcome{Challenge: &TwoFactorChallenge{UserID: user.ID}}, nil
	}

	grant, err := s.createGrant(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	_ = s.logEvent(ctx, &user.ID, ipAddress, entity.LoginSuccess, nil)
	return &LoginOutcome{Grant: grant}, nil
}

// VerifyTwoFactorAndAuthenticate completes the second step of the login
// protocol for an account with 2FA enabled.
func (s *AuthService) VerifyTwoFactorAndAuthenticate(ctx context.Context, userID uuid.UUID, code string, ipAddress, userAgent *string) (*AuthGrant, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.TwoFAEnabled || user.TwoFASecret == nil {
		return nil, ErrInvalid2FASetup
	}

	if !s.twoFactor.ValidateCode(*user.TwoFASecret, code) {
		_ = s.logEvent(ctx, &user.ID, ipAddress, entity.TwoFAFailed, nil)
		return nil, ErrInvalid2FACode
	}

	grant, err := s.createGrant(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	_ = s.logEvent(ctx, &user.ID, ipAddress, entity.LoginSuccess, map[string]any{"2fa": true})
	return grant, nil
}

// Logout deletes the session backing the presented token. A token whose
// session is already gone logs out successfully; the end state is the same.
func (s *AuthService) Logout(ctx context.Context, token string, userID *uuid.UUID, ipAddress *string) error {
	if err := s.sessions.DeleteByTokenHash(ctx, utils.HashToken(token)); err != nil {
		return err
	}
	_ = s.logEvent(ctx, userID, ipAddress, entity.Logout, nil)
	return nil
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		JobTitle:     input.JobTitle,
		IsAdmin:      input.IsAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GenerateTwoFactorSecret returns a fresh secret and provisioning URI without
// persisting either. The secret is only committed once EnableTwoFactor proves
// the user's authenticator produces valid codes for it, so a half-configured
// secret can never authenticate anyone.
func (s *AuthService) GenerateTwoFactorSecret(email string) (*TwoFactorSetup, error) {
	secret, uri, err := s.twoFactor.GenerateSecret(email)
	if err != nil {
		return nil, err
	}
	return &TwoFactorSetup{Secret: secret, ProvisioningURI: uri}, nil
}

func (s *AuthService) EnableTwoFactor(ctx context.Context, userID uuid.UUID, secret, code string) error {
	if strings.TrimSpace(secret) == "" || strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}

	if !s.twoFactor.ValidateCode(secret, code) {
		return ErrInvalid2FACode
	}

	if err := s.users.UpdateTwoFactor(ctx, userID, true, &secret); err != nil {
		return err
	}
	_ = s.logEvent(ctx, &userID, nil, entity.TwoFAEnabled, nil)
	return nil
}

// DisableTwoFactor requires the current password as a re-authentication step
// and revokes every session, since removing the second factor changes the
// account's security posture.
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID uuid.UUID, password string, ipAddress *string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !s.passwordHash.Verify(user.PasswordHash, password) {
		return ErrInvalidPassword
	}

	if err := s.users.UpdateTwoFactor(ctx, userID, false, nil); err != nil {
		return err
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	_ = s.logEvent(ctx, &userID, ipAddress, entity.TwoFADisabled, nil)
	return nil
}

// ChangePassword revokes every session for the user, making all outstanding
// bearer tokens fail the gate's cross-check immediately even though their
// signatures remain valid until natural expiry.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if !s.passwordHash.Verify(user.PasswordHash, currentPassword) {
		return ErrInvalidPassword
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	_ = s.logEvent(ctx, &userID, nil, entity.PasswordChanged, nil)
	return nil
}

// ActiveSessions lists the user's live sessions, most recently used first.
func (s *AuthService) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]entity.Session, error) {
	return s.sessions.ListActiveForUser(ctx, userID)
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.users.ListActive(ctx)
}

// DeactivateUser soft-deletes the account and revokes its sessions.
func (s *AuthService) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	_ = s.logEvent(ctx, &userID, nil, entity.SessionsRevoked, map[string]any{"reason": "deactivated"})
	return nil
}

func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}

func (s *AuthService) createGrant(ctx context.Context, user *entity.User, ipAddress, userAgent *string) (*AuthGrant, error) {
	token, expiresIn, err := s.tokens.IssueToken(user.ID.String(), user.Email, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &entity.Session{
		UserID:         user.ID,
		TokenHash:      utils.HashToken(token),
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		ExpiresAt:      now.Add(expiresIn),
		LastActivityAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return &AuthGrant{Token: token, ExpiresIn: expiresIn, User: user}, nil
}

func (s *AuthService) logEvent(ctx context.Context, userID *uuid.UUID, ipAddress *string, action entity.AuthAction, details map[string]any) error {
	if s.events == nil {
		return nil
	}
	var payload datatypes.JSON
	if details != nil {
		bytes, err := json.Marshal(details)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}
	return s.events.Create(ctx, &entity.AuthEvent{
		UserID:    userID,
		IPAddress: ipAddress,
		Action:    action,
		Details:   payload,
	})
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
