package routes

import (
	"time"

	"perfreview/api/handler"
	"perfreview/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Users          *handler.UserHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, userHandler *handler.UserHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Users:          userHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	api := r.Echo.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/login", r.Auth.Login, r.LoginRate.Middleware())
	auth.POST("/logout", r.Auth.Logout, r.AuthMiddleware.RequireAuth)
	auth.POST("/verify-2fa", r.Auth.VerifyTwoFactor, r.AuthMiddleware.OptionalAuth)
	auth.POST("/setup-2fa", r.Auth.SetupTwoFactor, r.AuthMiddleware.RequireAuth)
	auth.POST("/disable-2fa", r.Auth.DisableTwoFactor, r.AuthMiddleware.RequireAuth)
	auth.POST("/reset-password", r.Auth.ResetPassword, r.AuthMiddleware.RequireAuth)
	auth.POST("/forgot-password", r.Auth.ForgotPassword, r.LoginRate.Middleware())
	auth.GET("/session", r.Auth.CheckSession, r.AuthMiddleware.RequireAuth)
	auth.GET("/sessions", r.Auth.ListSessions, r.AuthMiddleware.RequireAuth)
	auth.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireAuth)

	users := api.Group("/users", r.AuthMiddleware.RequireAuth, middleware.RequireAdmin)
	users.GET("", r.Users.List)
	users.POST("", r.Users.Create)
	users.DELETE("/:id", r.Users.Deactivate)
}
