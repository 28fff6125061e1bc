package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextUserIDKey  = "auth_user_id"
	contextEmailKey   = "auth_email"
	contextIsAdminKey = "auth_is_admin"
	contextTokenKey   = "auth_token"
)

func SetAuthContext(c echo.Context, userID uuid.UUID, email string, isAdmin bool, token string) {
	c.Set(contextUserIDKey, userID)
	c.Set(contextEmailKey, email)
	c.Set(contextIsAdminKey, isAdmin)
	c.Set(contextTokenKey, token)
}

func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func EmailFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextEmailKey)
	email, ok := value.(string)
	return email, ok
}

func IsAdminFromContext(c echo.Context) bool {
	value := c.Get(contextIsAdminKey)
	isAdmin, ok := value.(bool)
	return ok && isAdmin
}

func TokenFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextTokenKey)
	token, ok := value.(string)
	return token, ok
}
