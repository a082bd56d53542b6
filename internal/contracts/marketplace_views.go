// internal/contracts/marketplace_views.go
package contracts

import "sort"

// Read-only queries over the marketplace arena. All of these are linear
// scans over the primary tables; result ordering is registration order for
// filters and descending rating (registration-order stable) for the
// top-rated view.

// Owner returns the current contract owner.
func (m *Marketplace) Owner() Address { return m.owner }

// FeeBasisPoints returns the current platform fee.
func (m *Marketplace) FeeBasisPoints() uint64 { return m.feeBps }

// Paused reports the stored pause switch.
func (m *Marketplace) Paused() bool { return m.paused }

// ContractBalance returns the funds currently held in contract custody.
func (m *Marketplace) ContractBalance() uint64 { return m.balance }

// AgentExists reports whether id falls in the allocated id range.
func (m *Marketplace) AgentExists(id uint64) bool {
	return id >= 1 && id <= m.nextAgentID
}

// Agent returns the agent with the given id.
func (m *Marketplace) Agent(id uint64) (*Agent, error) {
	if !m.AgentExists(id) {
		return nil, reject("getAgent", CodeNotFound, "agent does not exist")
	}
	return m.agents[id], nil
}

// User returns the user record for an address, if registered.
func (m *Marketplace) User(addr Address) (*User, error) {
	u, ok := m.users[addr]
	if !ok || !u.Registered {
		return nil, reject("getUser", CodeNotFound, "user is not registered")
	}
	return u, nil
}

// AllAgentIDs returns every allocated agent id in registration order.
func (m *Marketplace) AllAgentIDs() []uint64 {
	out := make([]uint64, len(m.agentIDs))
	copy(out, m.agentIDs)
	return out
}

// AgentsByCategory returns agents in the given category, in registration
// order.
func (m *Marketplace) AgentsByCategory(category string) []*Agent {
	var out []*Agent
	for _, id := range m.agentIDs {
		if a := m.agents[id]; a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// DeveloperAgents returns the agents registered by a developer, in
// registration order.
func (m *Marketplace) DeveloperAgents(dev Address) []*Agent {
	var out []*Agent
	for _, id := range m.agentIDs {
		if a := m.agents[id]; a.Developer == dev {
			out = append(out, a)
		}
	}
	return out
}

// TopRatedAgents returns up to limit agents ordered by descending average
// rating; agents with equal ratings keep registration order. limit <= 0
// returns the full set.
func (m *Marketplace) TopRatedAgents(limit int) []*Agent {
	out := make([]*Agent, 0, len(m.agentIDs))
	for _, id := range m.agentIDs {
		out = append(out, m.agents[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageRating > out[j].AverageRating
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// HasPurchased reports whether buyer has at least one purchase of the
// agent.
func (m *Marketplace) HasPurchased(buyer Address, agentID uint64) bool {
	for _, p := range m.purchases[agentID] {
		if p.Buyer == buyer {
			return true
		}
	}
	return false
}

// AgentPurchases returns the purchase sequence for an agent, in purchase
// order.
func (m *Marketplace) AgentPurchases(agentID uint64) ([]*Purchase, error) {
	if !m.AgentExists(agentID) {
		return nil, reject("getAgentPurchases", CodeNotFound, "agent does not exist")
	}
	out := make([]*Purchase, len(m.purchases[agentID]))
	copy(out, m.purchases[agentID])
	return out, nil
}

// AgentReviews returns the review sequence for an agent, in submission
// order.
func (m *Marketplace) AgentReviews(agentID uint64) ([]*Review, error) {
	if !m.AgentExists(agentID) {
		return nil, reject("getAgentReviews", CodeNotFound, "agent does not exist")
	}
	out := make([]*Review, len(m.reviews[agentID]))
	copy(out, m.reviews[agentID])
	return out, nil
}

// PurchaseHistory returns the agent ids a buyer has purchased, in purchase
// order.
func (m *Marketplace) PurchaseHistory(buyer Address) []uint64 {
	out := make([]uint64, len(m.history[buyer]))
	copy(out, m.history[buyer])
	return out
}

// DeveloperBalance returns the withdrawable balance accrued to a
// developer.
func (m *Marketplace) DeveloperBalance(dev Address) uint64 {
	return m.balances[dev]
}

// Stats is the marketplace-wide aggregate view.
// Stats is the aggregate marketplace view. VolumeTraded shares the uint64
// custody ceiling of the contract balance.
type Stats struct {
	TotalAgents    uint64 `json:"total_agents"`
	ListedAgents   uint64 `json:"listed_agents"`
	TotalUsers     uint64 `json:"total_users"`
	TotalPurchases uint64 `json:"total_purchases"`
	TotalReviews   uint64 `json:"total_reviews"`
	VolumeTraded   uint64 `json:"volume_traded"`
	FeeBasisPoints uint64 `json:"fee_basis_points"`
}

// MarketplaceStats recomputes the aggregate view by scanning the primary
// tables.
func (m *Marketplace) MarketplaceStats() Stats {
	s := Stats{
		TotalAgents:    uint64(len(m.agentIDs)),
		TotalUsers:     uint64(len(m.users)),
		FeeBasisPoints: m.feeBps,
	}
	for _, id := range m.agentIDs {
		if m.agents[id].Listed {
			s.ListedAgents++
		}
		s.TotalReviews += uint64(len(m.reviews[id]))
		for _, p := range m.purchases[id] {
			s.TotalPurchases++
			s.VolumeTraded += p.PricePaid
		}
	}
	return s
}
