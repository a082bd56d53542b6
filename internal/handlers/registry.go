// internal/handlers/registry.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

type RegistryHandler struct {
	marketService *services.MarketService
}

func NewRegistryHandler(marketService *services.MarketService) *RegistryHandler {
	return &RegistryHandler{
		marketService: marketService,
	}
}

type roleRequest struct {
	Role    string `json:"role" binding:"required,oneof=ADMIN SELLER"`
	Address string `json:"address" binding:"required"`
}

// POST /registry/roles
func (h *RegistryHandler) GrantRole(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.GrantRole(caller, contracts.Role(req.Role), contracts.Address(req.Address)); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"role": req.Role, "address": req.Address, "granted": true})
}

// DELETE /registry/roles
func (h *RegistryHandler) RevokeRole(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.RevokeRole(caller, contracts.Role(req.Role), contracts.Address(req.Address)); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"role": req.Role, "address": req.Address, "granted": false})
}

// GET /registry/roles/:role/:address
func (h *RegistryHandler) HasRole(c *gin.Context) {
	role := c.Param("role")
	address := c.Param("address")

	utils.SuccessResponse(c, gin.H{
		"role":    role,
		"address": address,
		"granted": h.marketService.HasRole(contracts.Role(role), contracts.Address(address)),
	})
}

// POST /registry/agents
func (h *RegistryHandler) RegisterAgent(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var req services.RegisterAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	agent, err := h.marketService.RegisterCatalogAgent(caller, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, agent)
}

// GET /registry/agents
func (h *RegistryHandler) GetAgents(c *gin.Context) {
	if owner := c.Query("owner"); owner != "" {
		utils.SuccessResponse(c, gin.H{
			"owner":     owner,
			"agent_ids": h.marketService.CatalogAgentsOf(contracts.Address(owner)),
		})
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_ids": h.marketService.CatalogAgentIDs()})
}

// GET /registry/agents/:id
func (h *RegistryHandler) GetAgent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	agent, err := h.marketService.CatalogAgent(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, agent)
}

// POST /registry/agents/:id/deactivate
func (h *RegistryHandler) DeactivateAgent(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.marketService.DeactivateCatalogAgent(caller, id); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_id": id, "active": false})
}

// POST /registry/agents/:id/reactivate
func (h *RegistryHandler) ReactivateAgent(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.marketService.ReactivateCatalogAgent(caller, id); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_id": id, "active": true})
}

// POST /registry/agents/:id/transfer
func (h *RegistryHandler) TransferAgentOwnership(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		NewOwner string `json:"new_owner" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.TransferCatalogAgent(caller, id, contracts.Address(req.NewOwner)); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_id": id, "owner": req.NewOwner})
}
