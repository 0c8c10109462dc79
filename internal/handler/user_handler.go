package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "userapi/internal/errors"
	"userapi/internal/model"
	"userapi/internal/service"
)

// UserHandler bundles the user HTTP handlers.
type UserHandler struct {
	svc              service.UserService
	validationStatus int
}

// NewUserHandler creates a handler layer. validationStatus is the status sent
// with validation errors (200 keeps the historical contract).
func NewUserHandler(svc service.UserService, validationStatus int) *UserHandler {
	if validationStatus == 0 {
		validationStatus = http.StatusOK
	}
	return &UserHandler{svc: svc, validationStatus: validationStatus}
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	User *model.User `json:"user"`
}

// UsersEnvelope wraps the user collection.
type UsersEnvelope struct {
	Users []model.User `json:"users"`
}

// ListUsers godoc
// @Summary List users
// @Description All users, newest id first.
// @Tags users
// @Produce json
// @Success 200 {object} UsersEnvelope
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, UsersEnvelope{Users: users})
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserEnvelope
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body service.UserInput true "User payload"
// @Success 201 {object} UserEnvelope
// @Success 200 {object} errors.ValidationResponse "validation failed"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/create [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	payload, err := bindPayload(c)
	if err != nil {
		return h.fail(c, err)
	}
	user, err := h.svc.CreateUser(c.Request().Context(), payload)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, UserEnvelope{User: user})
}

// UpdateUser godoc
// @Summary Replace a user's fields
// @Description Every field is required, including password and its confirmation.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param user body service.UserInput true "User payload"
// @Success 200 {object} UserEnvelope
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/edit/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	payload, err := bindPayload(c)
	if err != nil {
		return h.fail(c, err)
	}
	user, err := h.svc.UpdateUser(c.Request().Context(), id, payload)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// DeleteUser godoc
// @Summary Delete user
// @Description Returns the user as it was before deletion.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserEnvelope
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/delete/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.svc.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// fail writes the error envelope for err. Internal failures are logged with
// the request id and replaced by a generic message.
func (h *UserHandler) fail(c echo.Context, err error) error {
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(h.validationStatus, apperrors.ValidationResponse{Errors: verr.Fields})
	}

	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		c.Logger().Errorf("request_id=%s %s %s: %v",
			c.Response().Header().Get(echo.HeaderXRequestID), c.Request().Method, c.Path(), err)
	}
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}
