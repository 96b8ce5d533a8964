// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"zappoint/internal/bookings"
	"zappoint/internal/catalog"
	"zappoint/internal/notifications"
	"zappoint/internal/payments"
	"zappoint/internal/shared/config"
	"zappoint/internal/shared/database"
	"zappoint/internal/slots"
	"zappoint/pkg/cache"
	"zappoint/pkg/logger"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	producer notifications.Producer // nil when Kafka is disabled
	log      *logger.Logger

	catalogService catalog.Service
	bookingService bookings.Service
	slotFeed       *slots.Feed
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.Producer, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
		log:      log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// catalog first: the booking and slot routes depend on its service
		r.setupCatalogRoutes(api)
		r.setupBookingRoutes(api)
		r.setupSlotRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "zappoint-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "zappoint-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupCatalogRoutes configures package catalog routes
func (r *Router) setupCatalogRoutes(rg *gin.RouterGroup) {
	catalogRepo := catalog.NewRepository(r.db.GetPostgreSQL())
	cacheService := cache.NewService(r.db.GetRedisClient())
	r.catalogService = catalog.NewService(catalogRepo, cacheService)

	catalogController := catalog.NewController(r.catalogService, r.config.Engine.HorizonDays)
	catalog.SetupCatalogRoutes(rg, catalogController)
}

// setupBookingRoutes configures booking routes and the slot feed they share.
// The feed's snapshot function is the booking service's own Snapshot, so the
// two are wired together here: service first, then feed, then the feed is
// injected back for invalidation publishing.
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	gateway := payments.NewMockGateway()
	receipts := bookings.NewRedisReceiptStore(r.db.GetRedisClient(), r.config.Redis.ReceiptTTL)

	r.bookingService = bookings.NewService(bookingRepo, r.catalogService, gateway,
		r.producer, receipts, r.log)

	r.slotFeed = slots.NewFeed(r.db.GetRedisClient(), r.bookingService.Snapshot, r.log)
	r.bookingService.SetSlotFeed(r.slotFeed)

	bookingController := bookings.NewController(r.bookingService)
	bookings.SetupBookingRoutes(rg, bookingController)
}

// setupSlotRoutes configures slot availability routes (one-shot and SSE)
func (r *Router) setupSlotRoutes(rg *gin.RouterGroup) {
	slotController := slots.NewController(r.slotFeed, catalogRoomChecker{r.catalogService})
	slots.SetupSlotRoutes(rg, slotController)
}

// catalogRoomChecker adapts the catalog service to the slot controller's
// room-precondition query.
type catalogRoomChecker struct {
	catalog catalog.Service
}

func (c catalogRoomChecker) PackageHasRooms(ctx context.Context, packageID uuid.UUID) (bool, error) {
	pkg, err := c.catalog.GetPackage(ctx, packageID)
	if err != nil {
		return false, err
	}
	return pkg.HasRooms(), nil
}
