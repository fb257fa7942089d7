package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/workflow"
)

// QueueHandler exposes the truck queue over HTTP.
type QueueHandler struct {
	svc    *workflow.Service
	logger *zap.Logger
}

// NewQueueHandler constructs the HTTP handler adapter.
func NewQueueHandler(svc *workflow.Service, logger *zap.Logger) *QueueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueHandler{svc: svc, logger: logger}
}

type createQueueRequest struct {
	TruckID        string     `json:"truck_id" binding:"required"`
	SupplierID     string     `json:"supplier_id" binding:"required"`
	SupplierName   string     `json:"supplier_name" binding:"required"`
	Classification string     `json:"classification" binding:"required"`
	EstimateAt     *time.Time `json:"estimate_at"`
}

// Create registers an arriving truck and hands out its queue number.
func (h *QueueHandler) Create(c *gin.Context) {
	var req createQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.svc.CreateEntry(c.Request.Context(), workflow.CreateInput{
		TruckID:        req.TruckID,
		SupplierID:     req.SupplierID,
		SupplierName:   req.SupplierName,
		Classification: models.Classification(req.Classification),
		EstimateAt:     req.EstimateAt,
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed creating queue entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create queue entry"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// Get returns a single queue entry.
func (h *QueueHandler) Get(c *gin.Context) {
	entry, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "queue entry not found"})
			return
		}
		h.logger.Error("failed fetching queue entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch queue entry"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// List returns queue entries, optionally filtered by status.
func (h *QueueHandler) List(c *gin.Context) {
	status := models.QueueStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}

	entries, err := h.svc.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("failed listing queue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus drives a queue entry through the workflow state machine.
func (h *QueueHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	err := h.svc.Transition(c.Request.Context(), id, models.QueueStatus(req.Status))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, workflow.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrTerminalState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "entry changed concurrently"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "queue entry not found"})
	default:
		h.logger.Error("failed updating queue status", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
	}
}
