package bookings

import (
	"zappoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Guest checkout: creating and looking up a booking needs no account.
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", controller.CreateBooking)                              // POST /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)                              // GET /api/v1/bookings/:id
		bookings.GET("/reference/:reference", controller.GetBookingByReference)  // GET /api/v1/bookings/reference/:reference
	}

	// Cancellation is a staff operation.
	admin := rg.Group("/bookings")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN", "MANAGER"))
	{
		admin.POST("/:id/cancel", controller.CancelBooking) // POST /api/v1/bookings/:id/cancel
	}
}
