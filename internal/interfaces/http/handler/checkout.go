package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	checkoutapp "github.com/pos/backend/internal/application/checkout"
	"github.com/pos/backend/internal/domain/shared"
)

// CheckoutHandler handles sale, refund and receipt API endpoints
type CheckoutHandler struct {
	BaseHandler
	saleService   *checkoutapp.SaleService
	refundService *checkoutapp.RefundService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(saleService *checkoutapp.SaleService, refundService *checkoutapp.RefundService) *CheckoutHandler {
	return &CheckoutHandler{
		saleService:   saleService,
		refundService: refundService,
	}
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.CreateSale)
		sales.POST("/park", h.ParkSale)
		sales.GET("/parked", h.ListParkedSales)
		sales.POST("/parked/:key/recall", h.RecallSale)
	}

	rg.POST("/refunds", h.ProcessRefund)

	receipts := rg.Group("/receipts")
	{
		receipts.GET("", h.SearchReceipts)
		receipts.GET("/:id", h.GetReceipt)
		receipts.GET("/number/:number", h.GetReceiptByNumber)
		receipts.POST("/:id/void", h.VoidReceipt)
	}
}

// CreateSale finalizes a sale: prices the cart, decides stock, allocates
// the receipt number and records shift totals in one transaction.
func (h *CheckoutHandler) CreateSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input checkoutapp.CreateSaleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.saleService.CreateSale(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, receipt)
}

// ParkSaleRequest wraps a cart with an optional note for parking
type ParkSaleRequest struct {
	Cart checkoutapp.CreateSaleInput `json:"cart" binding:"required"`
	Note string                      `json:"note,omitempty" binding:"max=255"`
}

// ParkSale suspends an unfinished cart for later recall
func (h *CheckoutHandler) ParkSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var req ParkSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	key, err := h.saleService.ParkSale(c.Request.Context(), tenantID, req.Cart, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{"key": key})
}

// ListParkedSales lists suspended carts at one store
func (h *CheckoutHandler) ListParkedSales(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}

	parked, err := h.saleService.ListParkedSales(c.Request.Context(), tenantID, storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, parked)
}

// RecallSale removes a parked cart and returns it for completion
func (h *CheckoutHandler) RecallSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	parked, err := h.saleService.RecallSale(c.Request.Context(), tenantID, c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, parked)
}

// ProcessRefund refunds selected lines of a completed receipt
func (h *CheckoutHandler) ProcessRefund(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input checkoutapp.ProcessRefundInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	refund, err := h.refundService.ProcessRefund(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, refund)
}

// GetReceipt loads one receipt with its lines
func (h *CheckoutHandler) GetReceipt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	receipt, err := h.saleService.GetReceipt(c.Request.Context(), tenantID, receiptID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// GetReceiptByNumber loads one receipt by its printed number
func (h *CheckoutHandler) GetReceiptByNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	receipt, err := h.saleService.GetReceiptByNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// SearchReceipts lists receipts matching the query filters
func (h *CheckoutHandler) SearchReceipts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	filter := checkoutapp.ReceiptListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.saleService.SearchReceipts(c.Request.Context(), tenantID, receiptFilterToShared(filter))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// VoidReceiptRequest carries the mandatory void reason
type VoidReceiptRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}

// VoidReceipt voids a completed receipt and restores its stock
func (h *CheckoutHandler) VoidReceipt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	var req VoidReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.saleService.VoidReceipt(c.Request.Context(), tenantID, receiptID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

func receiptFilterToShared(f checkoutapp.ReceiptListFilter) shared.Filter {
	filters := make(map[string]interface{})
	if f.StoreID != nil {
		filters["store_id"] = *f.StoreID
	}
	if f.CashierID != nil {
		filters["cashier_id"] = *f.CashierID
	}
	if f.ShiftID != nil {
		filters["shift_id"] = *f.ShiftID
	}
	if f.Type != "" {
		filters["type"] = f.Type
	}
	if f.Status != "" {
		filters["status"] = f.Status
	}
	if f.From != nil {
		filters["completed_from"] = *f.From
	}
	if f.To != nil {
		filters["completed_to"] = *f.To
	}

	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		Search:   f.Search,
		Filters:  filters,
	}
}
