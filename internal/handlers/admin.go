// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

// AdminHandler exposes the owner-gated ledger operations. Authorization
// lives in the engine: a caller that is not the owner gets a FORBIDDEN
// fault back regardless of what the HTTP layer believes.
type AdminHandler struct {
	marketService *services.MarketService
}

func NewAdminHandler(marketService *services.MarketService) *AdminHandler {
	return &AdminHandler{
		marketService: marketService,
	}
}

// PUT /admin/fee
func (h *AdminHandler) UpdatePlatformFee(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req struct {
		BasisPoints uint64 `json:"basis_points" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.UpdatePlatformFee(caller, req.BasisPoints); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"fee_basis_points": req.BasisPoints})
}

// POST /admin/withdraw-fees
func (h *AdminHandler) WithdrawPlatformFees(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	amount, err := h.marketService.WithdrawPlatformFees(caller)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"withdrawn": amount})
}

// POST /admin/transfer-ownership
func (h *AdminHandler) TransferOwnership(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req struct {
		NewOwner string `json:"new_owner" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.TransferOwnership(caller, contracts.Address(req.NewOwner)); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"owner": req.NewOwner})
}

// PUT /admin/paused
func (h *AdminHandler) SetPaused(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req struct {
		Paused *bool `json:"paused" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.SetPaused(caller, *req.Paused); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"paused": *req.Paused})
}
