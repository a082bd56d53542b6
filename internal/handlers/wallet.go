// internal/handlers/wallet.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

type WalletHandler struct {
	accountService *services.AccountService
	paymentService *services.PaymentService
}

func NewWalletHandler(accountService *services.AccountService, paymentService *services.PaymentService) *WalletHandler {
	return &WalletHandler{
		accountService: accountService,
		paymentService: paymentService,
	}
}

func accountIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	accountIDStr, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "Authentication required")
		return uuid.Nil, false
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid account ID")
		return uuid.Nil, false
	}

	return accountID, true
}

// GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetProfile(accountID)
	if err != nil {
		utils.NotFoundResponse(c, "Account not found")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"address": account.Address,
		"balance": account.WalletBalance,
	})
}

// POST /wallet/deposits
func (h *WalletHandler) CreateDeposit(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req services.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	intent, err := h.paymentService.CreateDeposit(accountID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, intent)
}

// POST /wallet/deposits/confirm
func (h *WalletHandler) ConfirmDeposit(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	var req services.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	deposit, err := h.paymentService.ConfirmDeposit(accountID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, deposit)
}

// GET /wallet/deposits
func (h *WalletHandler) GetDeposits(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	deposits, err := h.paymentService.ListDeposits(accountID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, deposits)
}
