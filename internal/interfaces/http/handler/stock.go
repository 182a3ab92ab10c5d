package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	stockapp "github.com/pos/backend/internal/application/stock"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/stock"
)

// StockHandler handles stock ledger and projection API endpoints
type StockHandler struct {
	BaseHandler
	stockService *stockapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *stockapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	st := rg.Group("/stock")
	{
		st.POST("/receipts", h.ReceiveStock)
		st.POST("/transfers", h.TransferStock)
		st.POST("/adjustments", h.AdjustStock)
		st.POST("/counts", h.RecordStockCount)
		st.GET("/items", h.ListStockItems)
		st.GET("/items/:store_id/:product_id", h.GetStockItem)
		st.GET("/movements", h.ListMovements)
		st.GET("/movements/:reference_type/:reference_id", h.GetMovementsByReference)
	}
}

// ReceiveStock records a goods receipt for one product
func (h *StockHandler) ReceiveStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input stockapp.ReceiveStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.stockService.ReceiveStock(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, item)
}

// TransferStock moves quantity between two stores
func (h *StockHandler) TransferStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input stockapp.TransferStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.stockService.TransferStock(c.Request.Context(), tenantID, input); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// AdjustStock corrects the on-hand quantity to a counted value
func (h *StockHandler) AdjustStock(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input stockapp.AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	adjustment, err := h.stockService.AdjustStock(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, adjustment)
}

// RecordStockCount applies a full stock count at one store
func (h *StockHandler) RecordStockCount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	var input stockapp.RecordStockCountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.stockService.RecordStockCount(c.Request.Context(), tenantID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetStockItem loads one stock projection row
func (h *StockHandler) GetStockItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	storeID, err := uuid.Parse(c.Param("store_id"))
	if err != nil {
		h.BadRequest(c, "Invalid store ID format")
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	item, err := h.stockService.GetStockItem(c.Request.Context(), tenantID, storeID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// ListStockItems lists stock projections matching the query filters
func (h *StockHandler) ListStockItems(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	paging := struct {
		Page     int `form:"page" binding:"omitempty,min=1"`
		PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
	}{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&paging); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{Page: paging.Page, PageSize: paging.PageSize, Filters: make(map[string]interface{})}
	if storeID := c.Query("store_id"); storeID != "" {
		id, err := uuid.Parse(storeID)
		if err != nil {
			h.BadRequest(c, "Invalid store ID format")
			return
		}
		filter.Filters["store_id"] = id
	}
	if productID := c.Query("product_id"); productID != "" {
		id, err := uuid.Parse(productID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		filter.Filters["product_id"] = id
	}
	if c.Query("negative_only") == "true" {
		filter.Filters["negative_only"] = true
	}
	if c.Query("out_of_stock") == "true" {
		filter.Filters["out_of_stock"] = true
	}

	result, err := h.stockService.ListStockItems(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListMovements lists ledger entries matching the query filters
func (h *StockHandler) ListMovements(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	filter := stockapp.MovementListFilter{Page: 1, PageSize: 20}
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.stockService.ListMovements(c.Request.Context(), tenantID, movementFilterToShared(filter))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetMovementsByReference lists ledger entries written by one document
func (h *StockHandler) GetMovementsByReference(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant ID not found")
		return
	}

	refType := stock.ReferenceType(c.Param("reference_type"))
	refID, err := uuid.Parse(c.Param("reference_id"))
	if err != nil {
		h.BadRequest(c, "Invalid reference ID format")
		return
	}

	movements, err := h.stockService.GetMovementsByReference(c.Request.Context(), tenantID, refType, refID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, movements)
}

func movementFilterToShared(f stockapp.MovementListFilter) shared.Filter {
	filters := make(map[string]interface{})
	if f.StoreID != nil {
		filters["store_id"] = *f.StoreID
	}
	if f.ProductID != nil {
		filters["product_id"] = *f.ProductID
	}
	if f.ReferenceType != "" {
		filters["reference_type"] = f.ReferenceType
	}
	if f.From != nil {
		filters["moved_from"] = *f.From
	}
	if f.To != nil {
		filters["moved_to"] = *f.To
	}

	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		Filters:  filters,
	}
}
