package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"perfreview/api/middleware"
	"perfreview/internal/dto"
	"perfreview/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Logger   *logrus.Logger
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		Service:  svc,
		Validate: validate,
		Logger:   logger,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, "Email and password are required")
	}
	if err := h.validate(req); err != nil {
		return writeInvalidInput(c, "Email and password are required")
	}

	outcome, err := h.Service.Authenticate(
		c.Request().Context(),
		req.Email,
		req.Password,
		stringPtr(c.RealIP()),
		stringPtr(c.Request().UserAgent()),
	)
	if err != nil {
		return h.writeServiceError(c, err)
	}

	if outcome.Challenge != nil {
		return c.JSON(http.StatusOK, dto.LoginResponse{
			RequiresTwoFactor: true,
			UserID:            outcome.Challenge.UserID.String(),
		})
	}
	return c.JSON(http.StatusOK, grantResponse(outcome.Grant))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "No authentication token provided")
	}
	var userID *uuid.UUID
	if id, ok := middleware.UserIDFromContext(c); ok {
		userID = &id
	}
	if err := h.Service.Logout(c.Request().Context(), token, userID, stringPtr(c.RealIP())); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Logged out successfully"})
}

// VerifyTwoFactor serves both halves of the 2FA protocol: enabling 2FA for a
// logged-in user (secret present) and completing a challenged login (userId
// present).
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req dto.VerifyTwoFactorRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, "2FA token is required")
	}
	if err := h.validate(req); err != nil {
		return writeInvalidInput(c, "2FA token is required")
	}

	if req.Secret != "" {
		userID, ok := middleware.UserIDFromContext(c)
		if !ok {
			return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to enable 2FA")
		}
		if err := h.Service.EnableTwoFactor(c.Request().Context(), userID, req.Secret, req.Token); err != nil {
			return h.writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "2FA has been enabled successfully"})
	}

	if req.UserID != "" {
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return writeInvalidInput(c, "Invalid user id")
		}
		grant, err := h.Service.VerifyTwoFactorAndAuthenticate(
			c.Request().Context(),
			userID,
			req.Token,
			stringPtr(c.RealIP()),
			stringPtr(c.Request().UserAgent()),
		)
		if err != nil {
			return h.writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, grantResponse(grant))
	}

	return writeInvalidInput(c, "Either secret (for enabling) or userId (for login) is required")
}

func (h *AuthHandler) SetupTwoFactor(c echo.Context) error {
	_, ok := middleware.UserIDFromContext(c)
	email, emailOK := middleware.EmailFromContext(c)
	if !ok || !emailOK {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to setup 2FA")
	}

	setup, err := h.Service.GenerateTwoFactorSecret(email)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.TwoFactorSetupResponse{
		Success:   true,
		Secret:    setup.Secret,
		QRCodeURL: setup.ProvisioningURI,
	})
}

func (h *AuthHandler) DisableTwoFactor(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to disable 2FA")
	}
	var req dto.DisableTwoFactorRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, "Password is required to disable 2FA")
	}
	if err := h.validate(req); err != nil {
		return writeInvalidInput(c, "Password is required to disable 2FA")
	}

	if err := h.Service.DisableTwoFactor(c.Request().Context(), userID, req.Password, stringPtr(c.RealIP())); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "2FA has been disabled. All sessions have been logged out for security.",
	})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to change your password")
	}
	var req dto.ResetPasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, "Current and new password are required")
	}
	if err := h.validate(req); err != nil {
		return writeInvalidInput(c, "New password must be at least 8 characters long")
	}

	if err := h.Service.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Password changed successfully. Please log in again with your new password.",
	})
}

// ForgotPassword never reveals whether the email is registered. Reset-link
// delivery is out of scope, so this is a fixed acknowledgement.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, "Email is required")
	}
	if err := h.validate(req); err != nil {
		return writeInvalidInput(c, "Email is required")
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
}

func (h *AuthHandler) CheckSession(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	email, emailOK := middleware.EmailFromContext(c)
	if !ok || !emailOK {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return c.JSON(http.StatusOK, dto.SessionCheckResponse{
		Valid: true,
		User: dto.Identity{
			UserID:  userID.String(),
			Email:   email,
			IsAdmin: middleware.IsAdminFromContext(c),
		},
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	user, err := h.Service.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	if user == nil {
		return writeError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func (h *AuthHandler) ListSessions(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	sessions, err := h.Service.ActiveSessions(c.Request().Context(), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SessionInfosFromEntities(sessions))
}

func (h *AuthHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func (h *AuthHandler) writeServiceError(c echo.Context, err error) error {
	return writeServiceError(c, h.Logger, err)
}

func grantResponse(grant *service.AuthGrant) dto.LoginResponse {
	return dto.LoginResponse{
		Success:   true,
		Token:     grant.Token,
		ExpiresIn: int64(grant.ExpiresIn.Seconds()),
		User:      dto.UserResponseFromEntity(grant.User),
	}
}

func decodeJSON(c echo.Context, target any) error {
	return json.NewDecoder(c.Request().Body).Decode(target)
}

func writeError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, dto.NewErrorResponse(code, message))
}

func writeInvalidInput(c echo.Context, message string) error {
	return writeError(c, http.StatusBadRequest, "INVALID_INPUT", message)
}

// writeServiceError is the single point where service failures become
// transport statuses. Business failures map to their codes; anything else is
// a logged 500 with a generic message.
func writeServiceError(c echo.Context, logger *logrus.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return writeInvalidInput(c, "Invalid request")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrAccountInactive):
		return writeError(c, http.StatusForbidden, "ACCOUNT_INACTIVE", "Your account has been deactivated. Please contact an administrator.")
	case errors.Is(err, service.ErrInvalid2FACode):
		return writeError(c, http.StatusUnauthorized, "INVALID_2FA_TOKEN", "Invalid 2FA token. Please try again.")
	case errors.Is(err, service.ErrInvalid2FASetup):
		return writeError(c, http.StatusBadRequest, "INVALID_2FA_SETUP", "2FA is not properly set up for this user")
	case errors.Is(err, service.ErrInvalidPassword):
		return writeError(c, http.StatusUnauthorized, "INVALID_PASSWORD", "Incorrect password")
	case errors.Is(err, service.ErrUserNotFound):
		return writeError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrUserAlreadyExists):
		return writeError(c, http.StatusConflict, "USER_ALREADY_EXISTS", "A user with this email already exists")
	}
	if logger != nil {
		logger.WithError(err).Error("unexpected service error")
	}
	return writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
