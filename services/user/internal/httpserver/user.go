package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/identity"
	"github.com/Skotchmaster/shopfront/pkg/logging"
	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/services/user/internal/service"
	"github.com/Skotchmaster/shopfront/services/user/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrConflict.Error()+": ")
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Unauthorized"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "User not found"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func fail(c echo.Context, handler string, err error) error {
	code, msg := httpError(err)
	l := logging.FromContext(c.Request().Context()).With("handler", handler)
	if code >= http.StatusInternalServerError {
		l.Error(handler+"_failed", "status", code, "error", err)
	} else {
		l.Warn(handler+"_failed", "status", code, "error", err)
	}
	return c.JSON(code, echo.Map{"success": false, "message": msg})
}

func (h *UserHTTP) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return fail(c, "list_users", err)
	}

	views := make([]identity.View, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(views),
		"users":   views,
	})
}

func (h *UserHTTP) Get(c echo.Context) error {
	caller, _ := middleware.UserID(c)
	user, err := h.Svc.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return fail(c, "get_user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user.View(),
	})
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update_user")

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	caller, _ := middleware.UserID(c)
	user, err := h.Svc.Update(ctx, caller, c.Param("id"), req)
	if err != nil {
		return fail(c, "update_user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User updated successfully",
		"user":    user.Summary(),
	})
}

func (h *UserHTTP) Delete(c echo.Context) error {
	caller, _ := middleware.UserID(c)
	if err := h.Svc.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
		return fail(c, "delete_user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User deleted successfully",
	})
}
