// internal/contracts/marketplace.go
package contracts

// MaxFeeBasisPoints caps the platform fee at 10%.
const MaxFeeBasisPoints uint64 = 1000

// RatingScale bounds, rating units scaled x100 (100 = 1.00 stars).
const (
	MinRating uint64 = 100
	MaxRating uint64 = 500
)

// User is a registered marketplace identity. Only registered identities may
// own agents, purchase, or review.
type User struct {
	Address      Address `json:"address"`
	Name         string  `json:"name"`
	RegisteredAt int64   `json:"registered_at"`
	Registered   bool    `json:"registered"`
}

// Agent is a registered AI-model listing unit. Ids are assigned from a
// monotonic counter starting at 1 and are never reused.
type Agent struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Developer     Address `json:"developer"`
	Price         uint64  `json:"price"`
	ModelCID      string  `json:"model_cid"`
	DocsCID       string  `json:"docs_cid"`
	Framework     string  `json:"framework"`
	Resources     string  `json:"resources"`
	Listed        bool    `json:"listed"`
	RegisteredAt  int64   `json:"registered_at"`
	AverageRating uint64  `json:"average_rating"`
	ReviewCount   uint64  `json:"review_count"`
}

// Purchase is one completed sale of an agent. ID is the position in the
// agent's purchase sequence and is stable for the lifetime of the system.
type Purchase struct {
	ID        uint64  `json:"id"`
	AgentID   uint64  `json:"agent_id"`
	Buyer     Address `json:"buyer"`
	Seller    Address `json:"seller"`
	PricePaid uint64  `json:"price_paid"`
	At        int64   `json:"at"`
	Reviewed  bool    `json:"reviewed"`
}

// Review is one accepted rating for an agent. IDs count up per agent,
// independent of any global sequence.
type Review struct {
	ID       uint64  `json:"id"`
	AgentID  uint64  `json:"agent_id"`
	Reviewer Address `json:"reviewer"`
	Rating   uint64  `json:"rating"`
	Comment  string  `json:"comment"`
	At       int64   `json:"at"`
}

// Marketplace is the monolithic core: agent registry, listings, purchases,
// reviews, and fund custody in one contract. All state lives in this value;
// operations mutate it atomically and emit an event on success.
type Marketplace struct {
	owner   Address
	feeBps  uint64
	paused  bool
	balance uint64 // funds held in contract custody; uint64 caps custody at ~1.8e19 smallest units
	locked  bool   // reentrancy latch for fund-moving operations

	users       map[Address]*User
	agents      map[uint64]*Agent
	agentIDs    []uint64
	nextAgentID uint64

	purchases map[uint64][]*Purchase // agent id -> purchase sequence
	reviews   map[uint64][]*Review   // agent id -> review sequence
	history   map[Address][]uint64   // buyer -> purchased agent ids, in order

	balances   map[Address]uint64 // developer -> accrued net proceeds
	developers []Address          // every address ever credited, in order

	clock Clock
	out   Transferer
	em    emitter
}

// NewMarketplace deploys a marketplace owned by owner, with the given fee
// in basis points (capped at MaxFeeBasisPoints).
func NewMarketplace(owner Address, feeBps uint64, clock Clock, sink EventSink, out Transferer) *Marketplace {
	if feeBps > MaxFeeBasisPoints {
		feeBps = MaxFeeBasisPoints
	}
	if out == nil {
		out = NopTransferer{}
	}
	return &Marketplace{
		owner:     owner,
		feeBps:    feeBps,
		users:     make(map[Address]*User),
		agents:    make(map[uint64]*Agent),
		purchases: make(map[uint64][]*Purchase),
		reviews:   make(map[uint64][]*Review),
		history:   make(map[Address][]uint64),
		balances:  make(map[Address]uint64),
		clock:     clock,
		out:       out,
		em:        emitter{contract: "marketplace", clock: clock, sink: sink},
	}
}

// reentrancy latch, shared by every fund-moving entry point. Release is
// deferred by the caller so every exit path unlocks.
func (m *Marketplace) lock(op string) error {
	if m.locked {
		return reject(op, CodeReentrantCall, "reentrant call")
	}
	m.locked = true
	return nil
}

func (m *Marketplace) unlock() { m.locked = false }

// guards

func (m *Marketplace) requireUser(op string, addr Address) (*User, error) {
	u, ok := m.users[addr]
	if !ok || !u.Registered {
		return nil, reject(op, CodeUnauthorized, "caller is not a registered user")
	}
	return u, nil
}

func (m *Marketplace) requireAgent(op string, id uint64) (*Agent, error) {
	if id == 0 || id > m.nextAgentID {
		return nil, reject(op, CodeNotFound, "agent does not exist")
	}
	return m.agents[id], nil
}

func (m *Marketplace) requireOwner(op string, caller Address) error {
	if caller != m.owner {
		return reject(op, CodeForbidden, "caller is not the contract owner")
	}
	return nil
}

// RegisterUser registers the caller under the given display name. An
// identity registers at most once.
func (m *Marketplace) RegisterUser(call Call, name string) (*User, error) {
	const op = "registerUser"
	if u, ok := m.users[call.Caller]; ok && u.Registered {
		return nil, reject(op, CodeConflict, "identity already registered")
	}
	if name == "" {
		return nil, reject(op, CodeInvalidInput, "name must not be empty")
	}
	u := &User{
		Address:      call.Caller,
		Name:         name,
		RegisteredAt: m.clock.Now(),
		Registered:   true,
	}
	m.users[call.Caller] = u
	m.em.emit(EventUserRegistered, map[string]interface{}{
		"user": call.Caller,
		"name": name,
	})
	return u, nil
}

// RegisterAgentParams carries the descriptive fields for a new agent.
type RegisterAgentParams struct {
	Name        string
	Description string
	Category    string
	Price       uint64
	ModelCID    string
	DocsCID     string
	Framework   string
	Resources   string
}

// RegisterAgent allocates the next agent id for the caller. The agent
// starts unlisted.
func (m *Marketplace) RegisterAgent(call Call, p RegisterAgentParams) (*Agent, error) {
	const op = "registerAgent"
	if _, err := m.requireUser(op, call.Caller); err != nil {
		return nil, err
	}
	if p.Name == "" || p.Description == "" || p.Category == "" || p.ModelCID == "" {
		return nil, reject(op, CodeInvalidInput, "name, description, category and model CID are required")
	}
	m.nextAgentID++
	a := &Agent{
		ID:           m.nextAgentID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Developer:    call.Caller,
		Price:        p.Price,
		ModelCID:     p.ModelCID,
		DocsCID:      p.DocsCID,
		Framework:    p.Framework,
		Resources:    p.Resources,
		RegisteredAt: m.clock.Now(),
	}
	m.agents[a.ID] = a
	m.agentIDs = append(m.agentIDs, a.ID)
	m.em.emit(EventAgentRegistered, map[string]interface{}{
		"agent_id":  a.ID,
		"developer": call.Caller,
		"name":      a.Name,
		"category":  a.Category,
	})
	return a, nil
}

// ListAgent puts an agent up for sale at the given price.
func (m *Marketplace) ListAgent(call Call, agentID, price uint64) error {
	const op = "listAgent"
	a, err := m.requireAgent(op, agentID)
	if err != nil {
		return err
	}
	if a.Developer != call.Caller {
		return reject(op, CodeForbidden, "caller does not own this agent")
	}
	if a.Listed {
		return reject(op, CodeConflict, "agent is already listed")
	}
	if price == 0 {
		return reject(op, CodeInvalidInput, "price must be greater than zero")
	}
	a.Listed = true
	a.Price = price
	m.em.emit(EventAgentListed, map[string]interface{}{
		"agent_id": agentID,
		"price":    price,
	})
	return nil
}

// UnlistAgent takes an agent off sale.
func (m *Marketplace) UnlistAgent(call Call, agentID uint64) error {
	const op = "unlistAgent"
	a, err := m.requireAgent(op, agentID)
	if err != nil {
		return err
	}
	if a.Developer != call.Caller {
		return reject(op, CodeForbidden, "caller does not own this agent")
	}
	if !a.Listed {
		return reject(op, CodeConflict, "agent is not listed")
	}
	a.Listed = false
	m.em.emit(EventAgentUnlisted, map[string]interface{}{
		"agent_id": agentID,
	})
	return nil
}

// UpdateAgentPrice changes the sale price of an agent the caller owns.
func (m *Marketplace) UpdateAgentPrice(call Call, agentID, price uint64) error {
	const op = "updateAgentPrice"
	a, err := m.requireAgent(op, agentID)
	if err != nil {
		return err
	}
	if a.Developer != call.Caller {
		return reject(op, CodeForbidden, "caller does not own this agent")
	}
	if price == 0 {
		return reject(op, CodeInvalidInput, "price must be greater than zero")
	}
	a.Price = price
	m.em.emit(EventPriceUpdated, map[string]interface{}{
		"agent_id": agentID,
		"price":    price,
	})
	return nil
}

// PurchaseAgent buys a listed agent with the funds attached to the call.
// The platform fee stays in contract custody, the remainder accrues to the
// developer's balance, and any excess over the price is refunded to the
// caller before the operation returns.
func (m *Marketplace) PurchaseAgent(call Call, agentID uint64) (*Purchase, error) {
	const op = "purchaseAgent"
	if err := m.lock(op); err != nil {
		return nil, err
	}
	defer m.unlock()

	a, err := m.requireAgent(op, agentID)
	if err != nil {
		return nil, err
	}
	if !a.Listed {
		return nil, reject(op, CodeConflict, "agent is not listed for sale")
	}
	if _, err := m.requireUser(op, call.Caller); err != nil {
		return nil, err
	}
	if call.Value < a.Price {
		return nil, reject(op, CodeInsufficientFunds, "attached funds are below the listed price")
	}

	m.balance += call.Value
	fee := m.feeOn(a.Price)
	net := a.Price - fee
	m.credit(a.Developer, net)

	p := &Purchase{
		ID:        uint64(len(m.purchases[agentID])),
		AgentID:   agentID,
		Buyer:     call.Caller,
		Seller:    a.Developer,
		PricePaid: a.Price,
		At:        m.clock.Now(),
	}
	m.purchases[agentID] = append(m.purchases[agentID], p)
	m.history[call.Caller] = append(m.history[call.Caller], agentID)
	m.em.emit(EventAgentPurchased, map[string]interface{}{
		"agent_id": agentID,
		"buyer":    call.Caller,
		"seller":   a.Developer,
		"price":    a.Price,
	})

	// Refund the excess last: all effects above are final before any
	// externally-controlled code can run.
	if excess := call.Value - a.Price; excess > 0 {
		m.balance -= excess
		m.out.Transfer(call.Caller, excess)
	}
	return p, nil
}

// feeOn computes floor(price * feeBps / 10000) exactly. Splitting the
// price at the 10000 boundary keeps every intermediate product inside
// uint64 even for prices near the top of the range, where the naive
// price*feeBps product wraps.
func (m *Marketplace) feeOn(price uint64) uint64 {
	return price/10000*m.feeBps + price%10000*m.feeBps/10000
}

func (m *Marketplace) credit(dev Address, amount uint64) {
	if _, seen := m.balances[dev]; !seen {
		m.developers = append(m.developers, dev)
	}
	m.balances[dev] += amount
}

// SubmitReview records a rating for an agent the caller purchased and has
// not reviewed yet. Ratings are scaled x100 and the running average is an
// integer streaming mean; truncation is permanent.
func (m *Marketplace) SubmitReview(call Call, agentID, rating uint64, comment string) (*Review, error) {
	const op = "submitReview"
	a, err := m.requireAgent(op, agentID)
	if err != nil {
		return nil, err
	}
	if _, err := m.requireUser(op, call.Caller); err != nil {
		return nil, err
	}
	if rating < MinRating || rating > MaxRating {
		return nil, reject(op, CodeInvalidInput, "rating must be between 100 and 500")
	}

	var purchase *Purchase
	for _, p := range m.purchases[agentID] {
		if p.Buyer == call.Caller && !p.Reviewed {
			purchase = p
			break
		}
	}
	if purchase == nil {
		return nil, reject(op, CodeForbidden, "no unreviewed purchase of this agent by the caller")
	}
	purchase.Reviewed = true

	r := &Review{
		ID:       uint64(len(m.reviews[agentID])) + 1,
		AgentID:  agentID,
		Reviewer: call.Caller,
		Rating:   rating,
		Comment:  comment,
		At:       m.clock.Now(),
	}
	m.reviews[agentID] = append(m.reviews[agentID], r)

	a.AverageRating = (a.AverageRating*a.ReviewCount + rating) / (a.ReviewCount + 1)
	a.ReviewCount++

	m.em.emit(EventReviewSubmitted, map[string]interface{}{
		"agent_id": agentID,
		"reviewer": call.Caller,
		"rating":   rating,
	})
	return r, nil
}

// WithdrawFunds pays out the caller's accrued balance. The balance is
// zeroed before the outbound transfer so a reentrant call observes zero.
func (m *Marketplace) WithdrawFunds(call Call) (uint64, error) {
	const op = "withdrawFunds"
	if err := m.lock(op); err != nil {
		return 0, err
	}
	defer m.unlock()

	amount := m.balances[call.Caller]
	if amount == 0 {
		return 0, reject(op, CodeNothingToWithdraw, "no funds to withdraw")
	}
	m.balances[call.Caller] = 0
	m.balance -= amount
	m.em.emit(EventFundsWithdrawn, map[string]interface{}{
		"developer": call.Caller,
		"amount":    amount,
	})
	m.out.Transfer(call.Caller, amount)
	return amount, nil
}

// WithdrawPlatformFees pays the owner the residual of contract custody not
// owed to developers. The residual is recomputed from scratch on every
// call; any value reaching custody outside PurchaseAgent is counted as
// fees by this formula.
func (m *Marketplace) WithdrawPlatformFees(call Call) (uint64, error) {
	const op = "withdrawPlatformFees"
	if err := m.lock(op); err != nil {
		return 0, err
	}
	defer m.unlock()

	if err := m.requireOwner(op, call.Caller); err != nil {
		return 0, err
	}
	var owed uint64
	for _, dev := range m.developers {
		owed += m.balances[dev]
	}
	residual := m.balance - owed
	if residual == 0 {
		return 0, reject(op, CodeNothingToWithdraw, "no fees to withdraw")
	}
	m.balance -= residual
	m.out.Transfer(m.owner, residual)
	return residual, nil
}

// UpdatePlatformFee sets the fee taken from each sale, in basis points.
func (m *Marketplace) UpdatePlatformFee(call Call, bps uint64) error {
	const op = "updatePlatformFee"
	if err := m.requireOwner(op, call.Caller); err != nil {
		return err
	}
	if bps > MaxFeeBasisPoints {
		return reject(op, CodeInvalidInput, "fee exceeds the 1000 bps cap")
	}
	m.feeBps = bps
	return nil
}

// TransferOwnership hands the contract to a new owner.
func (m *Marketplace) TransferOwnership(call Call, newOwner Address) error {
	const op = "transferOwnership"
	if err := m.requireOwner(op, call.Caller); err != nil {
		return err
	}
	if newOwner == ZeroAddress {
		return reject(op, CodeInvalidInput, "new owner must not be the null identity")
	}
	m.owner = newOwner
	return nil
}

// SetPaused toggles the pause switch. The switch is stored but no mutating
// operation consults it yet; TestSetPausedDoesNotGateMutations pins that.
func (m *Marketplace) SetPaused(call Call, paused bool) error {
	const op = "setPaused"
	if err := m.requireOwner(op, call.Caller); err != nil {
		return err
	}
	m.paused = paused
	return nil
}
