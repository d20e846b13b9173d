package customer

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rafael-fxs/locadora-ppm/model"
	customersvc "github.com/rafael-fxs/locadora-ppm/service/customer"
)

type Controller struct {
	Svc customersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/customers
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("customer list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/customers/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	cust, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, customersvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "customer not found"})
		}
		h.Log.Error("customer detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, cust)
}

// POST /v1/customers
func (h *Controller) Create(c echo.Context) error {
	var req model.CreateCustomerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	cust, err := h.Svc.Create(c.Request().Context(), req.Name, req.Address, req.Age)
	if err != nil {
		h.Log.Error("customer create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, cust)
}

// PUT /v1/customers/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req model.UpdateCustomerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	cust, err := h.Svc.Update(c.Request().Context(), id, req.Name, req.Address, req.Age)
	if err != nil {
		if errors.Is(err, customersvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "customer not found"})
		}
		h.Log.Error("customer update", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, cust)
}

// DELETE /v1/customers/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, customersvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "customer not found"})
		}
		h.Log.Error("customer delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
