package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/logging"
	middleware "github.com/Skotchmaster/shopfront/pkg/middleware/auth"
	"github.com/Skotchmaster/shopfront/services/cart/internal/service"
	"github.com/Skotchmaster/shopfront/services/cart/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "User ID not found"
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, service.ErrItemNotFound):
		return http.StatusNotFound, "Item not found in cart"
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway, "product service unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func fail(c echo.Context, handler string, err error) error {
	code, msg := httpError(err)
	l := logging.FromContext(c.Request().Context()).With("handler", handler)
	if code >= http.StatusInternalServerError {
		l.Error(handler+"_error", "status", code, "error", err)
	} else {
		l.Warn(handler+"_error", "status", code, "error", err)
	}
	return echo.NewHTTPError(code, msg)
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	cart, err := h.Svc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "get_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	userID, _ := middleware.UserID(c)
	cart, err := h.Svc.AddToCart(c.Request().Context(), userID, req)
	if err != nil {
		return fail(c, "add_to_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) UpdateCartItem(c echo.Context) error {
	var req transport.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Warn("update_cart_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	userID, _ := middleware.UserID(c)
	cart, err := h.Svc.UpdateQuantity(c.Request().Context(), userID, c.Param("productId"), req)
	if err != nil {
		return fail(c, "update_cart_item", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	cart, err := h.Svc.RemoveFromCart(c.Request().Context(), userID, c.Param("productId"))
	if err != nil {
		return fail(c, "remove_from_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	cart, err := h.Svc.ClearCart(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "clear_cart", err)
	}
	return c.JSON(http.StatusOK, cart)
}
