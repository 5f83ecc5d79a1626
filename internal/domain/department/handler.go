package department

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/departments", h.List)
	api.GET("/departments/:id", h.Get)
	api.GET("/departments/:id/stats", h.GetStats, auth.RequireRole("doctor", "nurse", "staff"))

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/departments", h.Create)
	admin.PUT("/departments/:id", h.Update)
	admin.DELETE("/departments/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	deps, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"departments": Views(deps),
		"total":       len(deps),
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid department id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"department": View(d)})
}

func (h *Handler) Create(c echo.Context) error {
	var d Department
	if err := c.Bind(&d); err != nil {
		return apperr.Validation("invalid request body")
	}
	created, err := h.svc.Create(c.Request().Context(), &d)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":    "Department created successfully",
		"department": View(created),
	})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid department id")
	}
	var upd Department
	if err := c.Bind(&upd); err != nil {
		return apperr.Validation("invalid request body")
	}
	d, err := h.svc.Update(c.Request().Context(), id, &upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":    "Department updated successfully",
		"department": View(d),
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid department id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Department deleted successfully",
	})
}

func (h *Handler) GetStats(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid department id")
	}
	stats, err := h.svc.GetStats(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
