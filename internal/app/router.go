package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"smartfare/internal/handler"
	"smartfare/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AccountHandler *handler.AccountHandler
	TravelHandler  *handler.TravelHandler
	TripHandler    *handler.TripHandler
	DebitHandler   *handler.DebitHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Account routes.
		accounts := v1.Group("/accounts")
		{
			accounts.POST("/register", deps.AccountHandler.Register)
			accounts.GET("", deps.AccountHandler.GetAll)
			accounts.GET("/:id", deps.AccountHandler.Get)
			accounts.POST("/:id/fingerprint", deps.AccountHandler.EnrollFingerprint)
			accounts.GET("/:id/trips", deps.TripHandler.GetByAccount)
		}

		// Travel lifecycle routes.
		travel := v1.Group("/travel")
		{
			travel.POST("/:accountId/begin", deps.TravelHandler.Begin)
			travel.POST("/:accountId/pickup/verify", deps.TravelHandler.VerifyPickup)
			travel.POST("/:accountId/position", deps.TravelHandler.PublishPosition)
			travel.POST("/:accountId/drop", deps.TravelHandler.End)
			travel.POST("/:accountId/drop/verify", deps.TravelHandler.VerifyDrop)
			travel.POST("/:accountId/cancel", deps.TravelHandler.Cancel)
			travel.GET("/:accountId", deps.TravelHandler.Current)
		}

		// Trip history routes.
		trips := v1.Group("/trips")
		{
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.Get)
		}

		// Wallet debit routes.
		debits := v1.Group("/debits")
		{
			debits.GET("/:id", deps.DebitHandler.Get)
		}
	}

	return router
}
