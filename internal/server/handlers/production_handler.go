package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/production"
)

// ProductionHandler exposes batch processing and the stock ledger over HTTP.
type ProductionHandler struct {
	svc    *production.Service
	logger *zap.Logger
}

// NewProductionHandler constructs the HTTP handler adapter.
func NewProductionHandler(svc *production.Service, logger *zap.Logger) *ProductionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductionHandler{svc: svc, logger: logger}
}

type startBatchRequest struct {
	InputNetto  float64  `json:"input_netto" binding:"required"`
	WeighingIDs []string `json:"weighing_ids"`
}

// StartBatch opens a production batch from weighed-in fruit.
func (h *ProductionHandler) StartBatch(c *gin.Context) {
	var req startBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.svc.StartBatch(c.Request.Context(), req.InputNetto, req.WeighingIDs)
	if err != nil {
		if errors.Is(err, production.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed starting batch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start batch"})
		return
	}

	c.JSON(http.StatusCreated, batch)
}

type recordOutputsRequest struct {
	Outputs []models.BatchOutput `json:"outputs" binding:"required"`
}

// RecordOutputs attaches the measured outputs to a batch.
func (h *ProductionHandler) RecordOutputs(c *gin.Context) {
	var req recordOutputsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.svc.RecordOutputs(c.Request.Context(), c.Param("id"), req.Outputs)
	h.respond(c, batch, err)
}

// CompleteBatch finalizes a batch, derives its rates and books the stock.
func (h *ProductionHandler) CompleteBatch(c *gin.Context) {
	batch, err := h.svc.CompleteBatch(c.Request.Context(), c.Param("id"))
	h.respond(c, batch, err)
}

// GetBatch returns one production batch.
func (h *ProductionHandler) GetBatch(c *gin.Context) {
	batch, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, batch, err)
}

// ListBatches returns batches, optionally filtered by status.
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	batches, err := h.svc.List(c.Request.Context(), models.BatchStatus(c.Query("status")))
	if err != nil {
		h.logger.Error("failed listing batches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list batches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// StockBalance returns the signed ledger balance for one product.
func (h *ProductionHandler) StockBalance(c *gin.Context) {
	productType := models.ProductType(c.Query("product_type"))
	if productType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_type is required"})
		return
	}

	balance, err := h.svc.StockBalance(c.Request.Context(), productType)
	if err != nil {
		if errors.Is(err, production.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed computing stock balance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stock balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_type": productType, "balance": balance})
}

type adjustStockRequest struct {
	ProductType string  `json:"product_type" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	Reason      string  `json:"reason" binding:"required"`
}

// AdjustStock books a manual correction into the ledger.
func (h *ProductionHandler) AdjustStock(c *gin.Context) {
	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	movement, err := h.svc.AdjustStock(c.Request.Context(), models.ProductType(req.ProductType), req.Quantity, req.Reason)
	if err != nil {
		if errors.Is(err, production.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed adjusting stock", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to adjust stock"})
		return
	}

	c.JSON(http.StatusCreated, movement)
}

func (h *ProductionHandler) respond(c *gin.Context, batch *models.ProductionBatch, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, batch)
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "production batch not found"})
	case errors.Is(err, production.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, production.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "batch changed concurrently"})
	default:
		h.logger.Error("production operation failed", zap.Error(err), zap.String("id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "production operation failed"})
	}
}
