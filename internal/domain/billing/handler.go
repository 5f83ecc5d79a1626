package billing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/auth"
	"github.com/wardflow/wardflow/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("doctor", "nurse", "staff"))
	staff.GET("/billing", h.List)
	staff.GET("/billing/overdue", h.Overdue)
	staff.GET("/billing/stats/summary", h.GetStats)
	staff.GET("/billing/:id", h.Get)
	staff.POST("/billing/:id/charges/medical", h.AddMedicalCharge)
	staff.POST("/billing/:id/charges/additional", h.AddAdditionalCharge)
	staff.POST("/billing/:id/payments", h.AddPayment)
	staff.PUT("/billing/:id/discounts", h.ApplyDiscounts)
	staff.PUT("/billing/:id/status", h.SetStatus)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.PUT("/billing/:id/mark-paid", h.MarkPaid)
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		PaymentStatus:  PaymentStatus(c.QueryParam("paymentStatus")),
		BillStatus:     BillStatus(c.QueryParam("billStatus")),
		DepartmentName: c.QueryParam("department"),
		Search:         c.QueryParam("search"),
	}
	params := pagination.FromContext(c)

	bills, total, err := h.svc.List(c.Request().Context(), f, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(Views(bills), total, params.Limit, params.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"bill": View(b)})
}

type chargeRequest struct {
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	Category    ChargeCategory `json:"category"`
	Date        time.Time      `json:"date"`
}

func (h *Handler) AddMedicalCharge(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	b, err := h.svc.AddMedicalCharge(c.Request().Context(), id, MedicalCharge{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        req.Date,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Medical charge added successfully",
		"bill":    View(b),
	})
}

func (h *Handler) AddAdditionalCharge(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	b, err := h.svc.AddAdditionalCharge(c.Request().Context(), id, AdditionalCharge{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Additional charge added successfully",
		"bill":    View(b),
	})
}

func (h *Handler) AddPayment(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	var req PaymentInput
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	receivedBy := auth.UserNameFromContext(c.Request().Context())
	b, payment, err := h.svc.AddPayment(c.Request().Context(), id, req, receivedBy)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Payment added successfully",
		"bill": map[string]interface{}{
			"id":            b.ID,
			"billNumber":    b.BillNumber,
			"totalPaid":     b.TotalPaid,
			"balanceAmount": b.BalanceAmount,
			"paymentStatus": b.PaymentStatus,
			"billStatus":    b.BillStatus,
		},
		"payment": payment,
	})
}

func (h *Handler) ApplyDiscounts(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	var req DiscountsInput
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	b, err := h.svc.ApplyDiscounts(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Discounts applied successfully",
		"bill":    View(b),
	})
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	var req struct {
		BillStatus BillStatus `json:"billStatus"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	b, err := h.svc.SetStatus(c.Request().Context(), id, req.BillStatus)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Bill status updated successfully",
		"bill": map[string]interface{}{
			"id":         b.ID,
			"billNumber": b.BillNumber,
			"billStatus": b.BillStatus,
		},
	})
}

func (h *Handler) MarkPaid(c echo.Context) error {
	id, err := h.billID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Bill marked as paid",
		"bill":    View(b),
	})
}

func (h *Handler) Overdue(c echo.Context) error {
	result, err := h.svc.Overdue(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) billID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid bill id")
	}
	return id, nil
}
