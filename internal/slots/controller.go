package slots

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoomChecker answers whether a package defines rooms; the catalog provides
// the implementation (wired in the route setup to keep this package free of a
// catalog dependency).
type RoomChecker interface {
	PackageHasRooms(ctx context.Context, packageID uuid.UUID) (bool, error)
}

type Controller struct {
	feed  *Feed
	rooms RoomChecker
}

func NewController(feed *Feed, rooms RoomChecker) *Controller {
	return &Controller{feed: feed, rooms: rooms}
}

// GetSlots handles GET /api/v1/packages/:id/slots?date=YYYY-MM-DD&room_id=...
// One-shot snapshot for clients that do not hold a stream open.
func (c *Controller) GetSlots(ctx *gin.Context) {
	key, ok := c.bindKey(ctx)
	if !ok {
		return
	}

	snap, err := c.feed.Snapshot(ctx.Request.Context(), key)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to compute slot availability"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Slots retrieved successfully",
		"data":    snap,
	})
}

// StreamSlots handles GET /api/v1/packages/:id/slots/stream as server-sent
// events: one snapshot event immediately, then one per booking-state change,
// until the client disconnects.
func (c *Controller) StreamSlots(ctx *gin.Context) {
	key, ok := c.bindKey(ctx)
	if !ok {
		return
	}

	ch, err := c.feed.Subscribe(ctx.Request.Context(), key)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Slot feed is unavailable"})
		return
	}

	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("X-Accel-Buffering", "no")

	ctx.Stream(func(w io.Writer) bool {
		select {
		case snap, open := <-ch:
			if !open {
				return false
			}
			ctx.SSEvent("snapshot", snap)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}

func (c *Controller) bindKey(ctx *gin.Context) (Key, bool) {
	packageID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid package ID"})
		return Key{}, false
	}

	date := ctx.Query("date")
	if _, err := parseDate(date); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return Key{}, false
	}

	key := Key{PackageID: packageID, Date: date}

	hasRooms, err := c.rooms.PackageHasRooms(ctx.Request.Context(), packageID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
		return Key{}, false
	}

	roomParam := ctx.Query("room_id")
	if hasRooms && roomParam == "" {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "This package requires room_id"})
		return Key{}, false
	}
	if roomParam != "" {
		roomID, err := uuid.Parse(roomParam)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
			return Key{}, false
		}
		key.RoomID = roomID
	}

	return key, true
}

func parseDate(date string) (time.Time, error) {
	return time.Parse("2006-01-02", date)
}
