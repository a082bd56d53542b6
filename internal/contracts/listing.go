// internal/contracts/listing.go
package contracts

// ListingStatus is the stored lifecycle state of a listing. Sold and
// Delisted are terminal. Expiry is not a status: it is derived at read
// time from the clock.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingSold     ListingStatus = "sold"
	ListingDelisted ListingStatus = "delisted"
)

// Listing is one sale offer in the decomposed variant. ExpiresAt of 0
// means the listing never expires.
type Listing struct {
	ID             uint64        `json:"id"`
	AgentID        uint64        `json:"agent_id"`
	Seller         Address       `json:"seller"`
	Price          uint64        `json:"price"`
	Status         ListingStatus `json:"status"`
	ListedAt       int64         `json:"listed_at"`
	ExpiresAt      int64         `json:"expires_at"`
	UsageTermsCID  string        `json:"usage_terms_cid"`
	TrialAvailable bool          `json:"trial_available"`
	TrialDuration  int64         `json:"trial_duration"`
}

// RegistryView is the narrow read-only capability ListingBook holds on the
// registry. It is a lookup surface only: the book can never create, mutate
// or delete registry entries.
type RegistryView interface {
	AgentExists(id uint64) bool
	AgentOwner(id uint64) (Address, bool)
	IsAgentActive(id uint64) bool
	IsAdmin(addr Address) bool
}

// ListingBook owns the listing lifecycle for the decomposed variant. At
// most one listing per agent is active at a time, tracked by a reverse
// index that terminal transitions clear to 0.
type ListingBook struct {
	registry RegistryView

	listings map[uint64]*Listing
	ids      []uint64
	byAgent  map[uint64]uint64 // agent id -> active listing id, 0 when none
	nextID   uint64

	clock Clock
	em    emitter
}

// NewListingBook deploys a listing book over a registry view.
func NewListingBook(registry RegistryView, clock Clock, sink EventSink) *ListingBook {
	return &ListingBook{
		registry: registry,
		listings: make(map[uint64]*Listing),
		byAgent:  make(map[uint64]uint64),
		clock:    clock,
		em:       emitter{contract: "listings", clock: clock, sink: sink},
	}
}

// CreateListingParams carries the sale terms for a new listing.
type CreateListingParams struct {
	AgentID        uint64
	Price          uint64
	ExpiresAt      int64 // 0 = never expires, otherwise must be in the future
	UsageTermsCID  string
	TrialAvailable bool
	TrialDuration  int64
}

// CreateListing opens a sale offer for an agent the caller owns.
func (b *ListingBook) CreateListing(call Call, p CreateListingParams) (*Listing, error) {
	const op = "createListing"
	if !b.registry.AgentExists(p.AgentID) {
		return nil, reject(op, CodeNotFound, "agent does not exist")
	}
	if !b.registry.IsAgentActive(p.AgentID) {
		return nil, reject(op, CodeConflict, "agent is not active")
	}
	if owner, _ := b.registry.AgentOwner(p.AgentID); owner != call.Caller {
		return nil, reject(op, CodeForbidden, "caller does not own this agent")
	}
	if b.activeListingID(p.AgentID) != 0 {
		return nil, reject(op, CodeConflict, "agent already has an active listing")
	}
	if p.Price == 0 {
		return nil, reject(op, CodeInvalidInput, "price must be greater than zero")
	}
	if p.UsageTermsCID == "" {
		return nil, reject(op, CodeInvalidInput, "usage terms CID is required")
	}
	now := b.clock.Now()
	if p.ExpiresAt != 0 && p.ExpiresAt <= now {
		return nil, reject(op, CodeInvalidInput, "expiration must be in the future")
	}
	b.nextID++
	l := &Listing{
		ID:             b.nextID,
		AgentID:        p.AgentID,
		Seller:         call.Caller,
		Price:          p.Price,
		Status:         ListingActive,
		ListedAt:       now,
		ExpiresAt:      p.ExpiresAt,
		UsageTermsCID:  p.UsageTermsCID,
		TrialAvailable: p.TrialAvailable,
		TrialDuration:  p.TrialDuration,
	}
	b.listings[l.ID] = l
	b.ids = append(b.ids, l.ID)
	b.byAgent[p.AgentID] = l.ID
	b.em.emit(EventListingCreated, map[string]interface{}{
		"listing_id": l.ID,
		"agent_id":   p.AgentID,
		"seller":     call.Caller,
		"price":      p.Price,
	})
	return l, nil
}

// UpdateListing changes price and expiration of an active listing. Seller
// only.
func (b *ListingBook) UpdateListing(call Call, id, price uint64, expiresAt int64) error {
	const op = "updateListing"
	l, err := b.requireListing(op, id)
	if err != nil {
		return err
	}
	if l.Seller != call.Caller {
		return reject(op, CodeForbidden, "caller is not the seller")
	}
	if l.Status != ListingActive {
		return reject(op, CodeConflict, "listing is not active")
	}
	if price == 0 {
		return reject(op, CodeInvalidInput, "price must be greater than zero")
	}
	if expiresAt != 0 && expiresAt <= b.clock.Now() {
		return reject(op, CodeInvalidInput, "expiration must be in the future")
	}
	l.Price = price
	l.ExpiresAt = expiresAt
	b.em.emit(EventListingUpdated, map[string]interface{}{
		"listing_id": id,
		"price":      price,
	})
	return nil
}

// DelistListing withdraws a listing. Seller or admin. Delisted is
// terminal: the same listing id can never become active again.
func (b *ListingBook) DelistListing(call Call, id uint64) error {
	const op = "delistListing"
	l, err := b.requireListing(op, id)
	if err != nil {
		return err
	}
	if l.Seller != call.Caller && !b.registry.IsAdmin(call.Caller) {
		return reject(op, CodeForbidden, "caller may not delist this listing")
	}
	if l.Status != ListingActive {
		return reject(op, CodeConflict, "listing is not active")
	}
	l.Status = ListingDelisted
	b.byAgent[l.AgentID] = 0
	b.em.emit(EventListingDelisted, map[string]interface{}{
		"listing_id": id,
		"agent_id":   l.AgentID,
	})
	return nil
}

// MarkSold records an off-book settlement of a listing. Admin only.
func (b *ListingBook) MarkSold(call Call, id uint64) error {
	const op = "markSold"
	l, err := b.requireListing(op, id)
	if err != nil {
		return err
	}
	if !b.registry.IsAdmin(call.Caller) {
		return reject(op, CodeForbidden, "only an admin may mark a listing sold")
	}
	if l.Status != ListingActive {
		return reject(op, CodeConflict, "listing is not active")
	}
	l.Status = ListingSold
	b.byAgent[l.AgentID] = 0
	b.em.emit(EventListingSold, map[string]interface{}{
		"listing_id": id,
		"agent_id":   l.AgentID,
	})
	return nil
}

func (b *ListingBook) requireListing(op string, id uint64) (*Listing, error) {
	if id == 0 || id > b.nextID {
		return nil, reject(op, CodeNotFound, "listing does not exist")
	}
	return b.listings[id], nil
}

// expired reports whether the listing's expiration has elapsed.
func (b *ListingBook) expired(l *Listing) bool {
	return l.ExpiresAt != 0 && b.clock.Now() >= l.ExpiresAt
}

// activeListingID resolves the reverse index lazily: a stored id whose
// listing has expired reads as 0 even though the status still says active.
func (b *ListingBook) activeListingID(agentID uint64) uint64 {
	id := b.byAgent[agentID]
	if id == 0 {
		return 0
	}
	l := b.listings[id]
	if l.Status != ListingActive || b.expired(l) {
		return 0
	}
	return id
}

// Queries.

// Listing returns the stored listing record, expired or not.
func (b *ListingBook) Listing(id uint64) (*Listing, error) {
	return b.requireListing("getListing", id)
}

// AllListingIDs returns every allocated listing id in creation order.
func (b *ListingBook) AllListingIDs() []uint64 {
	out := make([]uint64, len(b.ids))
	copy(out, b.ids)
	return out
}

// IsListingActive reports whether the listing is active and unexpired.
func (b *ListingBook) IsListingActive(id uint64) bool {
	if id == 0 || id > b.nextID {
		return false
	}
	l := b.listings[id]
	return l.Status == ListingActive && !b.expired(l)
}

// ActiveListingID returns the active listing id for an agent, or 0 when
// the agent has none (including listings that lapsed by expiry).
func (b *ListingBook) ActiveListingID(agentID uint64) uint64 {
	return b.activeListingID(agentID)
}

// ListingByAgent returns the agent's active listing.
func (b *ListingBook) ListingByAgent(agentID uint64) (*Listing, error) {
	id := b.activeListingID(agentID)
	if id == 0 {
		return nil, reject("getListingByAgent", CodeNotFound, "agent has no active listing")
	}
	return b.listings[id], nil
}

// ListingPrice returns the price of an active listing. A lapsed listing
// answers Expired.
func (b *ListingBook) ListingPrice(id uint64) (uint64, error) {
	const op = "getListingPrice"
	l, err := b.requireListing(op, id)
	if err != nil {
		return 0, err
	}
	if b.expired(l) {
		return 0, reject(op, CodeExpired, "listing has expired")
	}
	if l.Status != ListingActive {
		return 0, reject(op, CodeConflict, "listing is not active")
	}
	return l.Price, nil
}
