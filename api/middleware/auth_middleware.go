package middleware

import (
	"errors"
	"net/http"
	"strings"

	"perfreview/internal/dto"
	"perfreview/internal/repository"
	"perfreview/internal/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionCheckMode selects how much state backs a verified token. The
// token-only mode exists for test harnesses where session commit visibility
// races against the next request; it is not a production security model.
type SessionCheckMode string

const (
	SessionCheckStrict    SessionCheckMode = "strict"
	SessionCheckTokenOnly SessionCheckMode = "token-only"
)

type AuthMiddleware struct {
	JWT      *utils.JWTManager
	Sessions repository.SessionRepository
	Users    repository.UserRepository
	Mode     SessionCheckMode
}

// RequireAuth is the gate in front of every protected route: signature and
// expiry first, then the server-side session cross-check that makes logout
// and password changes effective before the JWT itself expires.
func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearerToken(c.Request())
		if token == "" {
			return writeAuthError(c, http.StatusUnauthorized, "UNAUTHORIZED", "No authentication token provided")
		}

		claims, err := m.JWT.ParseToken(token)
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				return writeAuthError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", "Authentication token has expired")
			}
			return writeAuthError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return writeAuthError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
		}

		ctx := c.Request().Context()

		if m.Mode == SessionCheckTokenOnly {
			user, err := m.Users.FindByID(ctx, userID)
			if err != nil {
				return err
			}
			if user == nil || !user.IsActive {
				return writeAuthError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authentication token")
			}
			SetAuthContext(c, userID, claims.Email, claims.IsAdmin, token)
			return next(c)
		}

		session, err := m.Sessions.FindByTokenHash(ctx, utils.HashToken(token))
		if err != nil {
			return err
		}
		if session == nil {
			return writeAuthError(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session has expired. Please log in again.")
		}

		user, err := m.Users.FindByID(ctx, session.UserID)
		if err != nil {
			return err
		}
		if user == nil || !user.IsActive {
			return writeAuthError(c, http.StatusForbidden, "ACCOUNT_INACTIVE", "Your account has been deactivated")
		}

		if err := m.Sessions.TouchActivity(ctx, session.ID); err != nil {
			return err
		}

		SetAuthContext(c, userID, claims.Email, claims.IsAdmin, token)
		return next(c)
	}
}

// OptionalAuth attaches identity when a valid bearer token is presented and
// passes through anonymously otherwise. Used by the 2FA verification route,
// whose enable branch needs a logged-in user and whose login branch must not.
func (m AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractBearerToken(c.Request())
		if token == "" {
			return next(c)
		}

		claims, err := m.JWT.ParseToken(token)
		if err != nil {
			return next(c)
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return next(c)
		}

		if m.Mode == SessionCheckStrict {
			session, err := m.Sessions.FindByTokenHash(c.Request().Context(), utils.HashToken(token))
			if err != nil {
				return err
			}
			if session == nil {
				return next(c)
			}
		}

		SetAuthContext(c, userID, claims.Email, claims.IsAdmin, token)
		return next(c)
	}
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, dto.NewErrorResponse(code, message))
}
