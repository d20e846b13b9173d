package game

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/rafael-fxs/locadora-ppm/app/echoServer/jwtx"
	"github.com/rafael-fxs/locadora-ppm/model"
	gamesvc "github.com/rafael-fxs/locadora-ppm/service/game"
)

type Controller struct {
	Svc gamesvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, err := jwtx.RoleFromContext(c)
	return err == nil && role == "admin"
}

// GET /v1/games
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("game list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/games/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	g, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, gamesvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "game not found"})
		}
		h.Log.Error("game detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, g)
}

// POST /v1/games  (admin)
func (h *Controller) Create(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req CreateGameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	g, err := h.Svc.Create(c.Request().Context(), &model.Game{
		Title:    req.Title,
		Platform: req.Platform,
		MinAge:   req.MinAge,
		Stock:    req.Stock,
		Price:    req.Price,
		Discount: req.Discount,
	})
	if err != nil {
		h.Log.Error("game create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, g)
}

// PUT /v1/games/:id  (admin)
func (h *Controller) Update(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateGameReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	g, err := h.Svc.Update(c.Request().Context(), &model.Game{
		ID:       id,
		Title:    req.Title,
		Platform: req.Platform,
		MinAge:   req.MinAge,
		Stock:    req.Stock,
		Price:    req.Price,
		Discount: req.Discount,
	})
	if err != nil {
		if errors.Is(err, gamesvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "game not found"})
		}
		h.Log.Error("game update", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, g)
}

// DELETE /v1/games/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, gamesvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "game not found"})
		}
		h.Log.Error("game delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
