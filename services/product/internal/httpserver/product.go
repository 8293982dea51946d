package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/pkg/logging"
	"github.com/Skotchmaster/shopfront/services/product/internal/service"
	"github.com/Skotchmaster/shopfront/services/product/internal/transport"
	"github.com/Skotchmaster/shopfront/services/product/internal/util"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Product not found"
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
	return echo.NewHTTPError(code, msg)
}

func pageParams(c echo.Context) (int, int) {
	return util.ParseIntDefault(c.QueryParam("page"), 1), util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	product, err := h.Svc.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, "get_product", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Svc.GetProducts(c.Request().Context(), page, size)
	if err != nil {
		return fail(c, "get_products", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	page, size := pageParams(c)
	res, err := h.Svc.SearchProducts(c.Request().Context(), c.QueryParam("q"), page, size)
	if err != nil {
		return fail(c, "search_products", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Warn("create_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.CreateProduct(c.Request().Context(), req)
	if err != nil {
		return fail(c, "create_product", err)
	}
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context()).Warn("patch_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return fail(c, "patch_product", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	if err := h.Svc.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, "delete_product", err)
	}
	return c.NoContent(http.StatusNoContent)
}
