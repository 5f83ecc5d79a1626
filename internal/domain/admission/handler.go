package admission

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardflow/wardflow/internal/domain/patient"
	"github.com/wardflow/wardflow/internal/platform/apperr"
	"github.com/wardflow/wardflow/internal/platform/auth"
)

type Handler struct {
	coord *Coordinator
}

func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("doctor", "nurse", "staff"))
	staff.POST("/patients/admit", h.Admit)
	staff.PUT("/patients/:id/discharge", h.Discharge)
}

func (h *Handler) Admit(c echo.Context) error {
	var in AdmitInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}

	admittedBy := auth.UserNameFromContext(c.Request().Context())
	result, err := h.coord.Admit(c.Request().Context(), in, admittedBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Patient admitted successfully",
		"patient": patient.View(result.Patient),
		"billing": map[string]interface{}{
			"id":            result.Bill.ID,
			"billNumber":    result.Bill.BillNumber,
			"totalAmount":   result.Bill.TotalAmount,
			"netAmount":     result.Bill.NetAmount,
			"balanceAmount": result.Bill.BalanceAmount,
		},
	})
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid patient id")
	}
	var in DischargeInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.coord.Discharge(c.Request().Context(), id, in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Patient discharged successfully",
		"patient": map[string]interface{}{
			"id":            result.Patient.ID,
			"patientId":     result.Patient.Code,
			"name":          result.Patient.FullName(),
			"status":        result.Patient.Status,
			"dischargeDate": result.Patient.Admission.DischargeDate,
		},
		"billing": map[string]interface{}{
			"id":            result.Bill.ID,
			"billNumber":    result.Bill.BillNumber,
			"totalAmount":   result.Bill.TotalAmount,
			"netAmount":     result.Bill.NetAmount,
			"balanceAmount": result.Bill.BalanceAmount,
			"status":        result.Bill.BillStatus,
		},
	})
}
