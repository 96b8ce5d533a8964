package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service

	// defaultHorizon bounds available-dates responses when the client does
	// not ask for a specific range. Zero falls back to the engine default.
	defaultHorizon int
}

func NewController(service Service, defaultHorizon int) *Controller {
	return &Controller{service: service, defaultHorizon: defaultHorizon}
}

// GetPackage handles GET /api/v1/packages/:id
func (c *Controller) GetPackage(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package ID"})
		return
	}

	pkg, err := c.service.GetPackage(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get package",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Package retrieved successfully",
		"data":    pkg,
	})
}

// ListPackages handles GET /api/v1/packages
func (c *Controller) ListPackages(ctx *gin.Context) {
	activeOnly := ctx.DefaultQuery("active", "true") != "false"

	pkgs, err := c.service.ListPackages(ctx.Request.Context(), activeOnly)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list packages",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Packages retrieved successfully",
		"data": gin.H{
			"packages": pkgs,
			"count":    len(pkgs),
		},
	})
}

// GetEligibleDates handles GET /api/v1/packages/:id/available-dates
func (c *Controller) GetEligibleDates(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package ID"})
		return
	}

	horizon := c.defaultHorizon
	if raw := ctx.Query("days"); raw != "" {
		horizon, err = strconv.Atoi(raw)
		if err != nil || horizon < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
	}

	dates, err := c.service.EligibleDates(ctx.Request.Context(), id, horizon)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to compute available dates",
			"details": err.Error(),
		})
		return
	}

	// an empty list is a legitimate answer: the package has no bookable dates
	ctx.JSON(http.StatusOK, gin.H{
		"message": "Available dates retrieved successfully",
		"data": gin.H{
			"dates": dates,
			"count": len(dates),
		},
	})
}

// CreatePackage handles POST /api/v1/admin/packages
func (c *Controller) CreatePackage(ctx *gin.Context) {
	var pkg Package
	if err := ctx.ShouldBindJSON(&pkg); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := c.service.CreatePackage(ctx.Request.Context(), &pkg); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create package",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Package created successfully",
		"data":    pkg,
	})
}

// UpdatePackage handles PUT /api/v1/admin/packages/:id
func (c *Controller) UpdatePackage(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package ID"})
		return
	}

	var pkg Package
	if err := ctx.ShouldBindJSON(&pkg); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	pkg.ID = id

	if err := c.service.UpdatePackage(ctx.Request.Context(), &pkg); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to update package",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Package updated successfully",
		"data":    pkg,
	})
}

// DeletePackage handles DELETE /api/v1/admin/packages/:id
func (c *Controller) DeletePackage(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package ID"})
		return
	}

	if err := c.service.DeletePackage(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete package",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Package deleted successfully",
	})
}
