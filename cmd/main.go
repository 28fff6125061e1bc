package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"perfreview/api/handler"
	apiMiddleware "perfreview/api/middleware"
	"perfreview/api/routes"
	"perfreview/config"
	"perfreview/internal/repository"
	"perfreview/internal/service"
	"perfreview/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

const sessionSweepInterval = time.Hour

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}

	jwtManager := utils.JWTManager{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		TokenTTL: cfg.TokenTTL,
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	eventRepo := repository.NewAuthEventRepository(db)

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		eventRepo,
		service.BcryptPasswordHasher{Cost: cfg.BcryptCost},
		jwtManager,
		service.NewTOTPEngine(cfg.TOTPIssuer),
		service.RealClock{},
	)

	validate := validator.New()
	authHandler := handler.NewAuthHandler(authService, validate, logger)
	userHandler := handler.NewUserHandler(authService, validate, logger)

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{
		JWT:      &jwtManager,
		Sessions: sessionRepo,
		Users:    userRepo,
		Mode:     cfg.SessionCheckMode,
	}
	if cfg.SessionCheckMode == apiMiddleware.SessionCheckTokenOnly {
		logger.Warn("session cross-check disabled; tokens are validated against user records only")
	}

	router := routes.NewRouter(app, authHandler, userHandler, authMiddleware)
	router.RegisterRoutes()

	// Correctness does not depend on the sweep; lookups already filter by
	// expiry. This only reclaims storage.
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := authService.CleanupExpiredSessions(context.Background())
			if err != nil {
				logger.WithError(err).Error("session sweep failed")
				continue
			}
			if removed > 0 {
				logger.WithField("removed", removed).Info("expired sessions reclaimed")
			}
		}
	}()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
