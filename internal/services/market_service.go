// internal/services/market_service.go
package services

import (
	"fmt"
	"sync"

	"github.com/agentmart/agentmart-backend/internal/contracts"
	"github.com/agentmart/agentmart-backend/internal/utils"
)

// MarketService fronts the in-process ledger engine. The engine itself is
// single-threaded, so every call funnels through one mutex; wallet debits
// happen before the engine call and are refunded when the engine rejects.
type MarketService struct {
	mu       sync.Mutex
	market   *contracts.Marketplace
	registry *contracts.Registry
	listings *contracts.ListingBook
	accounts *AccountService
}

type RegisterAgentRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,max=100"`
	Price       uint64 `json:"price"`
	ModelCID    string `json:"model_cid" validate:"required"`
	DocsCID     string `json:"docs_cid,omitempty"`
	Framework   string `json:"framework,omitempty"`
	Resources   string `json:"resources,omitempty"`
}

type ListAgentRequest struct {
	Price uint64 `json:"price" validate:"required,min=1"`
}

type PurchaseRequest struct {
	Value uint64 `json:"value" validate:"required,min=1"`
}

type ReviewRequest struct {
	Rating  uint64 `json:"rating" validate:"required,min=100,max=500"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type CreateListingRequest struct {
	AgentID        uint64 `json:"agent_id" validate:"required,min=1"`
	Price          uint64 `json:"price" validate:"required,min=1"`
	ExpiresAt      int64  `json:"expires_at,omitempty"`
	UsageTermsCID  string `json:"usage_terms_cid" validate:"required"`
	TrialAvailable bool   `json:"trial_available,omitempty"`
	TrialDuration  int64  `json:"trial_duration,omitempty"`
}

type UpdateListingRequest struct {
	Price     uint64 `json:"price" validate:"required,min=1"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

func NewMarketService(market *contracts.Marketplace, registry *contracts.Registry, listings *contracts.ListingBook, accounts *AccountService) *MarketService {
	return &MarketService{
		market:   market,
		registry: registry,
		listings: listings,
		accounts: accounts,
	}
}

func (s *MarketService) RegisterUser(caller contracts.Address, name string) (*contracts.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.RegisterUser(contracts.Call{Caller: caller}, name)
}

func (s *MarketService) RegisterAgent(caller contracts.Address, req *RegisterAgentRequest) (*contracts.Agent, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.RegisterAgent(contracts.Call{Caller: caller}, contracts.RegisterAgentParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ModelCID:    req.ModelCID,
		DocsCID:     req.DocsCID,
		Framework:   req.Framework,
		Resources:   req.Resources,
	})
}

func (s *MarketService) ListAgent(caller contracts.Address, agentID uint64, req *ListAgentRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.ListAgent(contracts.Call{Caller: caller}, agentID, req.Price)
}

func (s *MarketService) UnlistAgent(caller contracts.Address, agentID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.UnlistAgent(contracts.Call{Caller: caller}, agentID)
}

func (s *MarketService) UpdateAgentPrice(caller contracts.Address, agentID, price uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.UpdateAgentPrice(contracts.Call{Caller: caller}, agentID, price)
}

// Purchase moves req.Value from the caller's wallet into the engine and
// runs the purchase. A rejected purchase refunds the wallet debit; excess
// value above the agent price comes back through the transfer port.
func (s *MarketService) Purchase(caller contracts.Address, agentID uint64, req *PurchaseRequest) (*contracts.Purchase, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.accounts.Debit(caller, req.Value); err != nil {
		return nil, err
	}

	s.mu.Lock()
	purchase, err := s.market.PurchaseAgent(contracts.Call{Caller: caller, Value: req.Value}, agentID)
	s.mu.Unlock()

	if err != nil {
		if creditErr := s.accounts.Credit(caller, req.Value); creditErr != nil {
			return nil, fmt.Errorf("purchase rejected and refund failed: %v: %w", creditErr, err)
		}
		return nil, err
	}

	return purchase, nil
}

func (s *MarketService) SubmitReview(caller contracts.Address, agentID uint64, req *ReviewRequest) (*contracts.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.SubmitReview(contracts.Call{Caller: caller}, agentID, req.Rating, req.Comment)
}

func (s *MarketService) WithdrawFunds(caller contracts.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.WithdrawFunds(contracts.Call{Caller: caller})
}

func (s *MarketService) WithdrawPlatformFees(caller contracts.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.WithdrawPlatformFees(contracts.Call{Caller: caller})
}

func (s *MarketService) UpdatePlatformFee(caller contracts.Address, bps uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.UpdatePlatformFee(contracts.Call{Caller: caller}, bps)
}

func (s *MarketService) TransferOwnership(caller, newOwner contracts.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.TransferOwnership(contracts.Call{Caller: caller}, newOwner)
}

func (s *MarketService) SetPaused(caller contracts.Address, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.SetPaused(contracts.Call{Caller: caller}, paused)
}

func (s *MarketService) Agent(id uint64) (*contracts.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.Agent(id)
}

func (s *MarketService) User(addr contracts.Address) (*contracts.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.User(addr)
}

func (s *MarketService) AllAgentIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.AllAgentIDs()
}

func (s *MarketService) AgentsByCategory(category string) []*contracts.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.AgentsByCategory(category)
}

func (s *MarketService) DeveloperAgents(dev contracts.Address) []*contracts.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.DeveloperAgents(dev)
}

func (s *MarketService) TopRatedAgents(limit int) []*contracts.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.TopRatedAgents(limit)
}

func (s *MarketService) AgentReviews(agentID uint64) ([]*contracts.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.AgentReviews(agentID)
}

func (s *MarketService) AgentPurchases(agentID uint64) ([]*contracts.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.AgentPurchases(agentID)
}

func (s *MarketService) PurchaseHistory(buyer contracts.Address) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.PurchaseHistory(buyer)
}

func (s *MarketService) HasPurchased(buyer contracts.Address, agentID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.HasPurchased(buyer, agentID)
}

func (s *MarketService) DeveloperBalance(dev contracts.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.DeveloperBalance(dev)
}

func (s *MarketService) Stats() contracts.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market.MarketplaceStats()
}

func (s *MarketService) MarketInfo() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]interface{}{
		"owner":            s.market.Owner(),
		"fee_basis_points": s.market.FeeBasisPoints(),
		"paused":           s.market.Paused(),
		"contract_balance": s.market.ContractBalance(),
	}
}

// Registry operations.

func (s *MarketService) GrantRole(caller contracts.Address, role contracts.Role, addr contracts.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.GrantRole(contracts.Call{Caller: caller}, role, addr)
}

func (s *MarketService) RevokeRole(caller contracts.Address, role contracts.Role, addr contracts.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.RevokeRole(contracts.Call{Caller: caller}, role, addr)
}

func (s *MarketService) HasRole(role contracts.Role, addr contracts.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.HasRole(role, addr)
}

func (s *MarketService) RegisterCatalogAgent(caller contracts.Address, req *RegisterAgentRequest) (*contracts.RegistryAgent, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.RegisterAgent(contracts.Call{Caller: caller}, req.Name, req.Description, req.Category, req.ModelCID)
}

func (s *MarketService) DeactivateCatalogAgent(caller contracts.Address, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.DeactivateAgent(contracts.Call{Caller: caller}, id)
}

func (s *MarketService) ReactivateCatalogAgent(caller contracts.Address, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ReactivateAgent(contracts.Call{Caller: caller}, id)
}

func (s *MarketService) TransferCatalogAgent(caller contracts.Address, id uint64, newOwner contracts.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.TransferAgentOwnership(contracts.Call{Caller: caller}, id, newOwner)
}

func (s *MarketService) CatalogAgent(id uint64) (*contracts.RegistryAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Agent(id)
}

func (s *MarketService) CatalogAgentIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.AllAgentIDs()
}

func (s *MarketService) CatalogAgentsOf(addr contracts.Address) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.AgentsOf(addr)
}

// Listing operations.

func (s *MarketService) CreateListing(caller contracts.Address, req *CreateListingRequest) (*contracts.Listing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.CreateListing(contracts.Call{Caller: caller}, contracts.CreateListingParams{
		AgentID:        req.AgentID,
		Price:          req.Price,
		ExpiresAt:      req.ExpiresAt,
		UsageTermsCID:  req.UsageTermsCID,
		TrialAvailable: req.TrialAvailable,
		TrialDuration:  req.TrialDuration,
	})
}

func (s *MarketService) UpdateListing(caller contracts.Address, id uint64, req *UpdateListingRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.UpdateListing(contracts.Call{Caller: caller}, id, req.Price, req.ExpiresAt)
}

func (s *MarketService) DelistListing(caller contracts.Address, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.DelistListing(contracts.Call{Caller: caller}, id)
}

func (s *MarketService) MarkListingSold(caller contracts.Address, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.MarkSold(contracts.Call{Caller: caller}, id)
}

func (s *MarketService) Listing(id uint64) (*contracts.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.Listing(id)
}

func (s *MarketService) AllListingIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.AllListingIDs()
}

func (s *MarketService) ListingByAgent(agentID uint64) (*contracts.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.ListingByAgent(agentID)
}

func (s *MarketService) ListingPrice(id uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings.ListingPrice(id)
}
