package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adiwira09/sawit-mill/internal/server/handlers"
)

// Handlers groups the HTTP adapters the router wires up.
type Handlers struct {
	Queue      *handlers.QueueHandler
	Weighing   *handlers.WeighingHandler
	Price      *handlers.PriceHandler
	Production *handlers.ProductionHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")

	api.POST("/queue", h.Queue.Create)
	api.GET("/queue", h.Queue.List)
	api.GET("/queue/:id", h.Queue.Get)
	api.PATCH("/queue/:id/status", h.Queue.UpdateStatus)

	api.POST("/weighings", h.Weighing.Create)
	api.GET("/weighings/:id", h.Weighing.Get)
	api.POST("/weighings/:id/weigh-in", h.Weighing.WeighIn)
	api.POST("/weighings/:id/weigh-out", h.Weighing.WeighOut)
	api.POST("/weighings/:id/complete", h.Weighing.Complete)
	api.PATCH("/weighings/:id", h.Weighing.Update)

	api.GET("/prices", h.Price.List)
	api.POST("/prices", h.Price.Create)
	api.POST("/prices/update-online", h.Price.UpdateOnline)

	api.POST("/production", h.Production.StartBatch)
	api.GET("/production", h.Production.ListBatches)
	api.GET("/production/:id", h.Production.GetBatch)
	api.POST("/production/:id/outputs", h.Production.RecordOutputs)
	api.POST("/production/:id/complete", h.Production.CompleteBatch)

	api.GET("/stock", h.Production.StockBalance)
	api.POST("/stock/adjust", h.Production.AdjustStock)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
