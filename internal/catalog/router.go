package catalog

import (
	"zappoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCatalogRoutes configures all catalog routes. Reads are public (the
// booking portal consumes them unauthenticated); mutations sit behind the
// admin JWT guard.
func SetupCatalogRoutes(rg *gin.RouterGroup, controller *Controller) {
	packages := rg.Group("/packages")
	{
		packages.GET("", controller.ListPackages)                         // GET /api/v1/packages
		packages.GET("/:id", controller.GetPackage)                       // GET /api/v1/packages/:id
		packages.GET("/:id/available-dates", controller.GetEligibleDates) // GET /api/v1/packages/:id/available-dates
	}

	admin := rg.Group("/admin/packages")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN", "MANAGER"))
	{
		admin.POST("", controller.CreatePackage)       // POST   /api/v1/admin/packages
		admin.PUT("/:id", controller.UpdatePackage)    // PUT    /api/v1/admin/packages/:id
		admin.DELETE("/:id", controller.DeletePackage) // DELETE /api/v1/admin/packages/:id
	}
}
