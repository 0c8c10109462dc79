package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	apperrors "userapi/internal/errors"
	"userapi/internal/handler"
	"userapi/internal/observability"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
	prom *observability.Prom,
	gatherer prometheus.Gatherer,
) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if prom != nil {
		e.Use(prom.EchoMiddleware())
	}

	e.GET("/healthz", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")

	api.GET("/users", userHandler.ListUsers)
	api.GET("/users/:id", userHandler.GetUser)
	api.POST("/users/create", userHandler.CreateUser)
	api.PUT("/users/edit/:id", userHandler.UpdateUser)
	api.DELETE("/users/delete/:id", userHandler.DeleteUser)
}

// ErrorHandler renders framework errors (unknown route, wrong method, panics
// caught by Recover) in the same {code, errors:{message}} envelope the
// handlers use.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := apperrors.InternalMessage

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if status < http.StatusInternalServerError {
			message = http.StatusText(status)
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		}
	}

	if status >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	resp := apperrors.NewHTTPError(status, message).ToErrorResponse()
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
