package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/domain/models"
	"github.com/adiwira09/sawit-mill/internal/pricing"
)

// PriceLister reads stored price entries for a day.
type PriceLister interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.PriceEntry, error)
}

// PriceHandler exposes price entry and online refresh over HTTP.
type PriceHandler struct {
	resolver *pricing.Resolver
	lister   PriceLister
	logger   *zap.Logger
}

// NewPriceHandler constructs the HTTP handler adapter.
func NewPriceHandler(resolver *pricing.Resolver, lister PriceLister, logger *zap.Logger) *PriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceHandler{resolver: resolver, lister: lister, logger: logger}
}

// List returns the price entries effective on a day (default today).
func (h *PriceHandler) List(c *gin.Context) {
	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	entries, err := h.lister.ListByDate(c.Request.Context(), day)
	if err != nil {
		h.logger.Error("failed listing prices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list prices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type createPriceRequest struct {
	EffectiveDate  string  `json:"effective_date" binding:"required"`
	Classification string  `json:"classification" binding:"required"`
	Grade          string  `json:"grade"`
	Price          float64 `json:"price" binding:"required"`
	EnteredBy      string  `json:"entered_by"`
}

// Create stores a manually entered price.
func (h *PriceHandler) Create(c *gin.Context) {
	var req createPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effective_date must be YYYY-MM-DD"})
		return
	}

	entry, err := h.resolver.CreateManual(c.Request.Context(), pricing.ManualPriceInput{
		EffectiveDate:  date,
		Classification: models.Classification(req.Classification),
		Grade:          req.Grade,
		Price:          req.Price,
		EnteredBy:      req.EnteredBy,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, entry)
	case errors.Is(err, pricing.ErrDuplicatePrice):
		c.JSON(http.StatusConflict, gin.H{"error": "price already exists for this date and classification"})
	case errors.Is(err, pricing.ErrInvalidClassification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed creating price entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create price entry"})
	}
}

type updateOnlineRequest struct {
	Source string `json:"source" binding:"required"`
	Region string `json:"region"`
	Force  bool   `json:"force"`
}

// UpdateOnline pulls today's prices from an online source into the store.
func (h *PriceHandler) UpdateOnline(c *gin.Context) {
	var req updateOnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	source := models.PriceSource(req.Source)
	if !source.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown price source"})
		return
	}

	result, err := h.resolver.UpdateFromOnline(c.Request.Context(), source, req.Region, req.Force)
	if err != nil {
		h.logger.Error("online price update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "online price update failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
