// internal/handlers/events.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/agentmart/agentmart-backend/internal/models"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

// EventHandler reads the durable event journal. The journal is the
// queryable history of everything the engine emitted.
type EventHandler struct {
	db *gorm.DB
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{db: db}
}

// GET /events
func (h *EventHandler) GetEvents(c *gin.Context) {
	query := h.db.Model(&models.EventRecord{}).Order("contract ASC, seq ASC")

	if contract := c.Query("contract"); contract != "" {
		query = query.Where("contract = ?", contract)
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("name = ?", name)
	}
	if since := c.Query("since"); since != "" {
		if at, err := strconv.ParseInt(since, 10, 64); err == nil {
			query = query.Where("at >= ?", at)
		}
	}

	limit := 100
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	var events []models.EventRecord
	if err := query.Limit(limit).Find(&events).Error; err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, events)
}
