package rental

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rafael-fxs/locadora-ppm/app/echoServer/jwtx"
	rs "github.com/rafael-fxs/locadora-ppm/service/rental"
)

type Controller struct {
	Svc rs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/rentals/rent
func (h *Controller) Rent(c echo.Context) error {
	var req RentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Svc.Rent(c.Request().Context(), req.CustomerID, req.GameID)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrCustomerNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "customer not found"})
		case rs.ErrGameNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "game not found"})
		case rs.ErrAgeRestricted:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "customer below game age rating"})
		case rs.ErrOutOfStock:
			return c.JSON(http.StatusConflict, echo.Map{"message": "game out of stock"})
		case rs.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "concurrent conflict, retry"})
		default:
			h.Log.Error("rental rent", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	staffID, _ := jwtx.UserIDFromContext(c)
	h.Log.Info("rental created", "staff_id", staffID, "rental_id", out.ID, "customer_id", req.CustomerID, "game_id", req.GameID)
	return c.JSON(http.StatusCreated, out)
}

// POST /v1/rentals/return
func (h *Controller) Return(c echo.Context) error {
	var req ReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	returnDate, err := time.Parse("2006-01-02", req.ReturnDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "return_date must be YYYY-MM-DD"})
	}

	fee, err := h.Svc.Return(c.Request().Context(), req.CustomerID, req.GameID, returnDate)
	if err != nil {
		switch rs.Code(err) {
		case rs.ErrCustomerNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "customer not found"})
		case rs.ErrGameNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "game not found"})
		case rs.ErrRentalNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "no outstanding rental for this customer and game"})
		case rs.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"message": "concurrent conflict, retry"})
		default:
			h.Log.Error("rental return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	staffID, _ := jwtx.UserIDFromContext(c)
	h.Log.Info("rental returned", "staff_id", staffID, "customer_id", req.CustomerID, "game_id", req.GameID, "late_fee", fee)
	return c.JSON(http.StatusOK, echo.Map{"late_fee": fee})
}

// GET /v1/customers/:id/rentals
func (h *Controller) History(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rows, err := h.Svc.History(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("rental history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/rentals/overdue
func (h *Controller) Overdue(c echo.Context) error {
	rows, err := h.Svc.Overdue(c.Request().Context())
	if err != nil {
		h.Log.Error("rental overdue", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
