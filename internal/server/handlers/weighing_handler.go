package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/weighing"
)

// WeighingHandler exposes the weighbridge flow over HTTP.
type WeighingHandler struct {
	engine *weighing.Engine
	logger *zap.Logger
}

// NewWeighingHandler constructs the HTTP handler adapter.
func NewWeighingHandler(engine *weighing.Engine, logger *zap.Logger) *WeighingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeighingHandler{engine: engine, logger: logger}
}

type createWeighingRequest struct {
	QueueEntryID string `json:"queue_entry_id" binding:"required"`
	ProductType  string `json:"product_type" binding:"required"`
}

// Create opens a weighing record for a queued truck and issues its ticket.
func (h *WeighingHandler) Create(c *gin.Context) {
	var req createWeighingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.engine.Create(c.Request.Context(), req.QueueEntryID, req.ProductType)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, rec)
	case errors.Is(err, weighing.ErrDuplicateTicket):
		c.JSON(http.StatusConflict, gin.H{"error": "queue entry already has a weighing record"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "queue entry not found"})
	default:
		h.logger.Error("failed creating weighing record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create weighing record"})
	}
}

// Get returns a single weighing record.
func (h *WeighingHandler) Get(c *gin.Context) {
	rec, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "weighing record not found"})
			return
		}
		h.logger.Error("failed fetching weighing record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch weighing record"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

type weighInRequest struct {
	Bruto float64 `json:"bruto" binding:"required"`
}

// WeighIn records the loaded truck weight.
func (h *WeighingHandler) WeighIn(c *gin.Context) {
	var req weighInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.engine.WeighIn(c.Request.Context(), c.Param("id"), req.Bruto)
	h.respond(c, rec, err)
}

type weighOutRequest struct {
	// Pointer so an explicit zero tara passes while absence is rejected.
	Tara *float64 `json:"tara" binding:"required"`
}

// WeighOut records the empty truck weight and derives the netto.
func (h *WeighingHandler) WeighOut(c *gin.Context) {
	var req weighOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.engine.WeighOut(c.Request.Context(), c.Param("id"), *req.Tara)
	h.respond(c, rec, err)
}

type updateWeighingRequest struct {
	Bruto     *float64           `json:"bruto"`
	Tara      *float64           `json:"tara"`
	UnitPrice *float64           `json:"unit_price"`
	Splits    map[string]float64 `json:"splits"`
}

// Update applies an operator correction and re-derives the totals.
func (h *WeighingHandler) Update(c *gin.Context) {
	var req updateWeighingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.engine.Update(c.Request.Context(), c.Param("id"), weighing.UpdateInput{
		Bruto:     req.Bruto,
		Tara:      req.Tara,
		UnitPrice: req.UnitPrice,
		Splits:    req.Splits,
	})
	h.respond(c, rec, err)
}

// Complete closes the record and releases the truck from the queue.
func (h *WeighingHandler) Complete(c *gin.Context) {
	rec, err := h.engine.Complete(c.Request.Context(), c.Param("id"))
	h.respond(c, rec, err)
}

func (h *WeighingHandler) respond(c *gin.Context, rec *models.WeighingRecord, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, rec)
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "weighing record not found"})
	case errors.Is(err, weighing.ErrInvalidWeight):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, weighing.ErrInvalidTransition), errors.Is(err, weighing.ErrRecordCompleted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "record changed concurrently"})
	default:
		h.logger.Error("weighing operation failed", zap.Error(err), zap.String("id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "weighing operation failed"})
	}
}
