// internal/handlers/market.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

type MarketHandler struct {
	marketService *services.MarketService
}

func NewMarketHandler(marketService *services.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// POST /market/users
func (h *MarketHandler) RegisterUser(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.marketService.RegisterUser(caller, req.Name)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, user)
}

// GET /market/users/me
func (h *MarketHandler) GetUser(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	user, err := h.marketService.User(caller)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// POST /market/agents/:id/purchase
func (h *MarketHandler) Purchase(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	purchase, err := h.marketService.Purchase(caller, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientWalletBalance) {
			utils.ErrorResponse(c, http.StatusPaymentRequired, "INSUFFICIENT_WALLET_BALANCE", err.Error(), nil)
			return
		}
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, purchase)
}

// POST /market/agents/:id/reviews
func (h *MarketHandler) SubmitReview(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	review, err := h.marketService.SubmitReview(caller, id, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, review)
}

// GET /market/purchases
func (h *MarketHandler) GetPurchaseHistory(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"buyer":        caller,
		"purchase_ids": h.marketService.PurchaseHistory(caller),
	})
}

// GET /market/agents/:id/purchased
func (h *MarketHandler) HasPurchased(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	utils.SuccessResponse(c, gin.H{
		"agent_id":  id,
		"purchased": h.marketService.HasPurchased(caller, id),
	})
}

// POST /market/withdraw
func (h *MarketHandler) WithdrawFunds(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	amount, err := h.marketService.WithdrawFunds(caller)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"withdrawn": amount})
}

// GET /market/balance
func (h *MarketHandler) GetDeveloperBalance(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"developer": caller,
		"balance":   h.marketService.DeveloperBalance(caller),
	})
}

// GET /market/stats
func (h *MarketHandler) GetStats(c *gin.Context) {
	utils.SuccessResponse(c, h.marketService.Stats())
}

// GET /market/info
func (h *MarketHandler) GetMarketInfo(c *gin.Context) {
	utils.SuccessResponse(c, h.marketService.MarketInfo())
}

// GET /market/developers/:address/balance
func (h *MarketHandler) GetBalanceOf(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		utils.BadRequestResponse(c, "Address is required", nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"developer": address,
		"balance":   h.marketService.DeveloperBalance(contracts.Address(address)),
	})
}
