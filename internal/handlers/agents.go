// internal/handlers/agents.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/services"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

type AgentHandler struct {
	marketService  *services.MarketService
	storageService *services.StorageService
}

func NewAgentHandler(marketService *services.MarketService, storageService *services.StorageService) *AgentHandler {
	return &AgentHandler{
		marketService:  marketService,
		storageService: storageService,
	}
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}

// POST /agents
func (h *AgentHandler) RegisterAgent(c *gin.Context) {
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

	agent, err := h.marketService.RegisterAgent(caller, &req)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.CreatedResponse(c, agent)
}

// GET /agents
func (h *AgentHandler) GetAgents(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		utils.SuccessResponse(c, h.marketService.AgentsByCategory(category))
		return
	}

	if developer := c.Query("developer"); developer != "" {
		utils.SuccessResponse(c, h.marketService.DeveloperAgents(contracts.Address(developer)))
		return
	}

	ids := h.marketService.AllAgentIDs()
	agents := make([]*contracts.Agent, 0, len(ids))
	for _, id := range ids {
		if a, err := h.marketService.Agent(id); err == nil {
			agents = append(agents, a)
		}
	}
	utils.SuccessResponse(c, agents)
}

// GET /agents/top
func (h *AgentHandler) GetTopRatedAgents(c *gin.Context) {
	limit := 10
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limit = l
	}
	utils.SuccessResponse(c, h.marketService.TopRatedAgents(limit))
}

// GET /agents/:id
func (h *AgentHandler) GetAgent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	agent, err := h.marketService.Agent(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, agent)
}

// POST /agents/:id/list
func (h *AgentHandler) ListAgent(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.ListAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if err := h.marketService.ListAgent(caller, id, &req); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_id": id, "listed": true, "price": req.Price})
}

// POST /agents/:id/unlist
func (h *AgentHandler) UnlistAgent(c *gin.Context) {
	caller, ok := utils.GetCallerFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.marketService.UnlistAgent(caller, id); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_id": id, "listed": false})
}

// PUT /agents/:id/price
func (h *AgentHandler) UpdateAgentPrice(c *gin.Context) {
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
		Price uint64 `json:"price" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.marketService.UpdateAgentPrice(caller, id, req.Price); err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"agent_id": id, "price": req.Price})
}

// GET /agents/:id/reviews
func (h *AgentHandler) GetAgentReviews(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.marketService.AgentReviews(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, reviews)
}

// GET /agents/:id/purchases
func (h *AgentHandler) GetAgentPurchases(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	purchases, err := h.marketService.AgentPurchases(id)
	if err != nil {
		utils.FaultResponse(c, err)
		return
	}

	utils.SuccessResponse(c, purchases)
}

// POST /agents/artifacts
func (h *AgentHandler) UploadArtifact(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "File is required", err.Error())
		return
	}
	defer file.Close()

	category := c.DefaultPostForm("category", "models")
	tags := c.PostFormArray("tags")
	options := h.storageService.GetDefaultUploadOptions(category)

	result, err := h.storageService.UploadArtifact(accountID, file, header, tags, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /agents/artifacts
func (h *AgentHandler) ListArtifacts(c *gin.Context) {
	accountID, ok := accountIDFromContext(c)
	if !ok {
		return
	}

	artifacts, err := h.storageService.ArtifactsOf(accountID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, artifacts)
}
