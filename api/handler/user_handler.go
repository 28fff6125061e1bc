package handler

import (
	"net/http"

	"perfreview/internal/dto"
	"perfreview/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// UserHandler is the admin-only user management surface.
type UserHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Logger   *logrus.Logger
}

func NewUserHandler(svc *service.AuthService, validate *validator.Validate, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		Service:  svc,
		Validate: validate,
		Logger:   logger,
	}
}

func (h *UserHandler) Create(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeInvalidInput(c, "Email, password, first name and last name are required")
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			return writeInvalidInput(c, "Email, password, first name and last name are required")
		}
	}

	user, err := h.Service.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		JobTitle:  req.JobTitle,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, dto.UserResponseFromEntity(user))
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Service.ListUsers(c.Request().Context())
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponsesFromEntities(users))
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeInvalidInput(c, "Invalid user id")
	}
	if err := h.Service.DeactivateUser(c.Request().Context(), userID); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "User deactivated"})
}
