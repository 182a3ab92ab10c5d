package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shiftapp "github.com/pos/backend/internal/application/shift"
	"github.com/pos/backend/internal/domain/shared"
)

// ShiftHandler handles cash drawer session API endpoints
type ShiftHandler struct {
	BaseHandler
	shiftService *shiftapp.ShiftService
}

// NewShiftHandler creates a new ShiftHandler
func NewShiftHandler(shiftService *shiftapp.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: shiftService}
}

// RegisterRoutes registers shift routes
func (h *ShiftHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shifts := rg.Group("/shifts")
	{
		shifts.POST("", h.OpenShift)
		shifts.GET("", h.ListShifts)
		shifts.GET("/open", h.GetOpenShift)
		shifts.GET("/:id", h.GetShift)
		shifts.POST("/:id/movements", h.RecordCashMovement)
		shifts.POST("/:id/close", h.CloseShift)
	}
}

// OpenShift opens a cash drawer session for a cashier at a store
func (h *ShiftHandler) OpenShift(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input shiftapp.OpenShiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	opened, err := h.shiftService.OpenShift(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, opened)
}

// RecordCashMovement records a pay-in, pay-out or drop on an open shift
func (h *ShiftHandler) RecordCashMovement(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shift ID format")
		return
	}

	var input shiftapp.CashMovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.shiftService.RecordCashMovement(c.Request.Context(), tenantID, shiftID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, updated)
}

// CloseShift closes a shift with the counted drawer amount
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shift ID format")
		return
	}

	var input shiftapp.CloseShiftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	closed, err := h.shiftService.CloseShift(c.Request.Context(), tenantID, shiftID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, closed)
}

// GetShift loads one shift with its cash movements
func (h *ShiftHandler) GetShift(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shift ID format")
		return
	}

	found, err := h.shiftService.GetShift(c.Request.Context(), tenantID, shiftID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, found)
}

// GetOpenShift returns the cashier's open shift at a store, 404 when none
func (h *ShiftHandler) GetOpenShift(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	cashierID, err := uuid.Parse(c.Query("cashier_id"))
	if err != nil {
		h.BadRequest(c, "Invalid cashier ID format")
		return
	}
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	open, err := h.shiftService.GetOpenShift(c.Request.Context(), tenantID, cashierID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, open)
}

// ListShifts lists shifts matching the query filters
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	filter := shiftapp.ShiftListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.shiftService.ListShifts(c.Request.Context(), tenantID, shiftFilterToShared(filter))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

func shiftFilterToShared(f shiftapp.ShiftListFilter) shared.Filter {
	filters := make(map[string]interface{})
	if f.StoreID != nil {
		filters["store_id"] = *f.StoreID
	}
	if f.CashierID != nil {
		filters["cashier_id"] = *f.CashierID
	}
	if f.Status != "" {
		filters["status"] = f.Status
	}
	if f.From != nil {
		filters["opened_from"] = *f.From
	}
	if f.To != nil {
		filters["opened_to"] = *f.To
	}

	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		Filters:  filters,
	}
}
