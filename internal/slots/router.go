package slots

import (
	"github.com/gin-gonic/gin"
)

// SetupSlotRoutes configures the slot availability routes. Both are public:
// slot state is what the booking portal renders before any authentication.
func SetupSlotRoutes(rg *gin.RouterGroup, controller *Controller) {
	packages := rg.Group("/packages")
	{
		packages.GET("/:id/slots", controller.GetSlots)               // GET /api/v1/packages/:id/slots
		packages.GET("/:id/slots/stream", controller.StreamSlots)     // GET /api/v1/packages/:id/slots/stream
	}
}
