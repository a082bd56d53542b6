// internal/handlers/listings.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

type ListingHandler struct {
	marketService *services.MarketService
}

func NewListingHandler(marketService *services.MarketService) *ListingHandler {
	return &ListingHandler{
		marketService: marketService,
	}
}

// POST /listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.marketService.CreateListing(caller, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, listing)
}

// GET /listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	ids := h.marketService.AllListingIDs()
	listings := make([]*contracts.Listing, 0, len(ids))
	for _, id := range ids {
		if l, err := h.marketService.Listing(id); err == nil {
			listings = append(listings, l)
		}
	}
	utils.SuccessResponse(c, listings)
}

// GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	listing, err := h.marketService.Listing(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// GET /listings/:id/price
func (h *ListingHandler) GetListingPrice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	price, err := h.marketService.ListingPrice(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing_id": id, "price": price})
}

// GET /listings/agent/:id
func (h *ListingHandler) GetListingByAgent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	listing, err := h.marketService.ListingByAgent(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// PUT /listings/:id
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.marketService.UpdateListing(caller, id, &req); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing_id": id, "price": req.Price, "expires_at": req.ExpiresAt})
}

// POST /listings/:id/delist
func (h *ListingHandler) DelistListing(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.marketService.DelistListing(caller, id); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing_id": id, "status": contracts.ListingDelisted})
}

// POST /listings/:id/sold
func (h *ListingHandler) MarkSold(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.marketService.MarkListingSold(caller, id); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing_id": id, "status": contracts.ListingSold})
}
