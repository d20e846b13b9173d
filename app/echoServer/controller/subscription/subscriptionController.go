package subscription

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	subssvc "github.com/rafael-fxs/locadora-ppm/service/subscription"
)

type Controller struct {
	Svc subssvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type RegisterReq struct {
	CustomerID int64  `json:"customer_id" validate:"required,gt=0"`
	Tier       string `json:"tier" validate:"required"`
}

// POST /v1/subscriptions
func (h *Controller) Register(c echo.Context) error {
	var req RegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	sub, err := h.Svc.Register(c.Request().Context(), req.CustomerID, subssvc.Tier(req.Tier))
	if err != nil {
		switch {
		case errors.Is(err, subssvc.ErrInvalidTier):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid subscription tier"})
		case errors.Is(err, subssvc.ErrCustomerNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "customer not found"})
		default:
			h.Log.Error("subscription register", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, sub)
}
