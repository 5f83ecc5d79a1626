package bed

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
	api.GET("/beds", h.List)
	api.GET("/beds/department/:departmentId/grid", h.GetGrid)
	api.GET("/beds/:id", h.Get)

	staff := api.Group("", auth.RequireRole("doctor", "nurse", "staff"))
	staff.POST("/beds", h.Create)
	staff.PUT("/beds/:id/status", h.UpdateStatus)
	staff.PUT("/beds/:id/occupy", h.Occupy)
	staff.PUT("/beds/:id/release", h.Release)
	staff.DELETE("/beds/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		DepartmentName: c.QueryParam("departmentName"),
		Status:         Status(c.QueryParam("status")),
	}
	if dep := c.QueryParam("department"); dep != "" {
		id, err := uuid.Parse(dep)
		if err != nil {
			return apperr.Validation("invalid department id")
		}
		f.DepartmentID = &id
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		return apperr.Validation("invalid bed status filter")
	}

	beds, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"beds":  beds,
		"total": len(beds),
	})
}

func (h *Handler) GetGrid(c echo.Context) error {
	depID, err := uuid.Parse(c.Param("departmentId"))
	if err != nil {
		return apperr.Validation("invalid department id")
	}
	grid, err := h.svc.GetGrid(c.Request().Context(), depID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, grid)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid bed id")
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"bed": b})
}

func (h *Handler) Create(c echo.Context) error {
	var b Bed
	if err := c.Bind(&b); err != nil {
		return apperr.Validation("invalid request body")
	}
	created, err := h.svc.Create(c.Request().Context(), &b)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Bed created successfully",
		"bed":     created,
	})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid bed id")
	}
	var req struct {
		Status Status `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	b, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Bed status updated successfully",
		"bed": map[string]interface{}{
			"id":        b.ID,
			"bedNumber": b.Number,
			"status":    b.Status,
			"notes":     b.Notes,
		},
	})
}

func (h *Handler) Occupy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid bed id")
	}
	var req struct {
		PatientID uuid.UUID `json:"patientId"`
	}
	if err := c.Bind(&req); err != nil || req.PatientID == uuid.Nil {
		return apperr.Validation("patientId is required")
	}
	b, err := h.svc.Occupy(c.Request().Context(), id, req.PatientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Bed occupied successfully",
		"bed":     b,
	})
}

func (h *Handler) Release(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid bed id")
	}
	b, err := h.svc.Release(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Bed released successfully",
		"bed":     b,
	})
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid bed id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Bed deleted successfully",
	})
}
