package bookings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	response, err := c.service.Create(ctx.Request.Context(), req)
	if err != nil {
		status, message := createErrorStatus(err)
		ctx.JSON(status, gin.H{
			"error":   message,
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully",
		"data":    response,
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get booking"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking retrieved successfully",
		"data":    booking,
	})
}

// GetBookingByReference handles GET /api/v1/bookings/reference/:reference
func (c *Controller) GetBookingByReference(ctx *gin.Context) {
	reference := ctx.Param("reference")
	if reference == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Reference number is required"})
		return
	}

	booking, err := c.service.GetByReference(ctx.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get booking"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking retrieved successfully",
		"data":    booking,
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	if err := c.service.CancelBooking(ctx.Request.Context(), bookingID); err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to cancel booking",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
	})
}

// createErrorStatus maps creation failures to HTTP statuses. Slot conflicts
// are 409 so clients know to refresh their slot view and retry.
func createErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrPackageUnavailable):
		return http.StatusUnprocessableEntity, "Package is not available for booking"
	case errors.Is(err, ErrRoomRequired):
		return http.StatusUnprocessableEntity, "This package requires a room selection"
	case errors.Is(err, ErrRoomUnknown):
		return http.StatusUnprocessableEntity, "Unknown room for this package"
	case errors.Is(err, ErrDateNotBookable):
		return http.StatusUnprocessableEntity, "Date is not bookable for this package"
	case errors.Is(err, ErrSlotUnavailable):
		return http.StatusConflict, "Requested time slot is no longer available"
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusPaymentRequired, "Payment could not be processed"
	}
	return http.StatusBadRequest, "Failed to create booking"
}
