// internal/contracts/registry.go
package contracts

// Role is a granted capability, independent of entity ownership. An
// identity may hold any number of roles.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleSeller Role = "SELLER"
)

// RegistryAgent is the decomposed registry's agent record: identity,
// metadata and ownership only. Listing, purchase and fund logic live
// elsewhere.
type RegistryAgent struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	ModelCID     string  `json:"model_cid"`
	Owner        Address `json:"owner"`
	Active       bool    `json:"active"`
	RegisteredAt int64   `json:"registered_at"`
}

// Registry owns agent identity, metadata and ownership for the decomposed
// variant. The deploying identity holds both roles plus the power to grant
// or revoke any role.
type Registry struct {
	deployer Address
	roles    map[Role]map[Address]bool

	agents   map[uint64]*RegistryAgent
	agentIDs []uint64
	byOwner  map[Address][]uint64
	nextID   uint64

	clock Clock
	em    emitter
}

// NewRegistry deploys a registry. The deployer receives ADMIN and SELLER.
func NewRegistry(deployer Address, clock Clock, sink EventSink) *Registry {
	r := &Registry{
		deployer: deployer,
		roles: map[Role]map[Address]bool{
			RoleAdmin:  {deployer: true},
			RoleSeller: {deployer: true},
		},
		agents:  make(map[uint64]*RegistryAgent),
		byOwner: make(map[Address][]uint64),
		clock:   clock,
		em:      emitter{contract: "registry", clock: clock, sink: sink},
	}
	return r
}

// HasRole reports whether addr holds the role.
func (r *Registry) HasRole(role Role, addr Address) bool {
	return r.roles[role][addr]
}

// IsAdmin reports whether addr holds ADMIN.
func (r *Registry) IsAdmin(addr Address) bool { return r.HasRole(RoleAdmin, addr) }

// GrantRole grants a role. The deployer may grant anything; admins may
// grant SELLER.
func (r *Registry) GrantRole(call Call, role Role, addr Address) error {
	const op = "grantRole"
	if err := r.requireRoleAuthority(op, call.Caller, role); err != nil {
		return err
	}
	if addr == ZeroAddress {
		return reject(op, CodeInvalidInput, "grantee must not be the null identity")
	}
	if r.roles[role] == nil {
		return reject(op, CodeInvalidInput, "unknown role")
	}
	if r.roles[role][addr] {
		return reject(op, CodeConflict, "role already granted")
	}
	r.roles[role][addr] = true
	r.em.emit(EventRoleGranted, map[string]interface{}{
		"role":    string(role),
		"account": addr,
	})
	return nil
}

// RevokeRole removes a role grant.
func (r *Registry) RevokeRole(call Call, role Role, addr Address) error {
	const op = "revokeRole"
	if err := r.requireRoleAuthority(op, call.Caller, role); err != nil {
		return err
	}
	if !r.roles[role][addr] {
		return reject(op, CodeConflict, "role not granted")
	}
	delete(r.roles[role], addr)
	r.em.emit(EventRoleRevoked, map[string]interface{}{
		"role":    string(role),
		"account": addr,
	})
	return nil
}

func (r *Registry) requireRoleAuthority(op string, caller Address, role Role) error {
	if caller == r.deployer {
		return nil
	}
	if role == RoleSeller && r.IsAdmin(caller) {
		return nil
	}
	return reject(op, CodeForbidden, "caller may not administer this role")
}

// RegisterAgent creates an agent owned by the caller. Requires SELLER.
func (r *Registry) RegisterAgent(call Call, name, description, category, modelCID string) (*RegistryAgent, error) {
	const op = "registerAgent"
	if !r.HasRole(RoleSeller, call.Caller) {
		return nil, reject(op, CodeUnauthorized, "caller does not hold the SELLER role")
	}
	if name == "" || description == "" || category == "" || modelCID == "" {
		return nil, reject(op, CodeInvalidInput, "name, description, category and model CID are required")
	}
	r.nextID++
	a := &RegistryAgent{
		ID:           r.nextID,
		Name:         name,
		Description:  description,
		Category:     category,
		ModelCID:     modelCID,
		Owner:        call.Caller,
		Active:       true,
		RegisteredAt: r.clock.Now(),
	}
	r.agents[a.ID] = a
	r.agentIDs = append(r.agentIDs, a.ID)
	r.byOwner[call.Caller] = append(r.byOwner[call.Caller], a.ID)
	r.em.emit(EventAgentRegistered, map[string]interface{}{
		"agent_id": a.ID,
		"owner":    call.Caller,
		"name":     name,
	})
	return a, nil
}

// DeactivateAgent marks an agent inactive. The agent's owner or any admin
// may deactivate.
func (r *Registry) DeactivateAgent(call Call, id uint64) error {
	const op = "deactivateAgent"
	a, err := r.requireAgent(op, id)
	if err != nil {
		return err
	}
	if a.Owner != call.Caller && !r.IsAdmin(call.Caller) {
		return reject(op, CodeForbidden, "caller may not deactivate this agent")
	}
	if !a.Active {
		return reject(op, CodeConflict, "agent is already inactive")
	}
	a.Active = false
	r.em.emit(EventAgentDeactivated, map[string]interface{}{"agent_id": id})
	return nil
}

// ReactivateAgent marks an agent active again. Owner only.
func (r *Registry) ReactivateAgent(call Call, id uint64) error {
	const op = "reactivateAgent"
	a, err := r.requireAgent(op, id)
	if err != nil {
		return err
	}
	if a.Owner != call.Caller {
		return reject(op, CodeForbidden, "only the agent owner may reactivate")
	}
	if a.Active {
		return reject(op, CodeConflict, "agent is already active")
	}
	a.Active = true
	r.em.emit(EventAgentReactivated, map[string]interface{}{"agent_id": id})
	return nil
}

// TransferAgentOwnership moves an agent to a new owner. The agent's owner
// or an admin may transfer. The previous owner's remaining agent ids keep
// their relative order.
func (r *Registry) TransferAgentOwnership(call Call, id uint64, newOwner Address) error {
	const op = "transferAgentOwnership"
	a, err := r.requireAgent(op, id)
	if err != nil {
		return err
	}
	if a.Owner != call.Caller && !r.IsAdmin(call.Caller) {
		return reject(op, CodeForbidden, "caller may not transfer this agent")
	}
	if newOwner == ZeroAddress {
		return reject(op, CodeInvalidInput, "new owner must not be the null identity")
	}
	prev := a.Owner
	if newOwner == prev {
		return reject(op, CodeConflict, "agent already owned by this identity")
	}
	r.byOwner[prev] = removeID(r.byOwner[prev], id)
	r.byOwner[newOwner] = append(r.byOwner[newOwner], id)
	a.Owner = newOwner
	r.em.emit(EventOwnershipTransferred, map[string]interface{}{
		"agent_id": id,
		"from":     prev,
		"to":       newOwner,
	})
	return nil
}

// removeID drops the first occurrence of id, preserving the order of the
// remaining entries.
func removeID(ids []uint64, id uint64) []uint64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (r *Registry) requireAgent(op string, id uint64) (*RegistryAgent, error) {
	if id == 0 || id > r.nextID {
		return nil, reject(op, CodeNotFound, "agent does not exist")
	}
	return r.agents[id], nil
}

// Queries. These form the narrow read-only surface ListingBook consumes.

// AgentExists reports whether id falls in the allocated id range.
func (r *Registry) AgentExists(id uint64) bool { return id >= 1 && id <= r.nextID }

// AgentOwner returns the current owner of an agent.
func (r *Registry) AgentOwner(id uint64) (Address, bool) {
	if !r.AgentExists(id) {
		return ZeroAddress, false
	}
	return r.agents[id].Owner, true
}

// IsAgentActive reports whether the agent exists and is active.
func (r *Registry) IsAgentActive(id uint64) bool {
	return r.AgentExists(id) && r.agents[id].Active
}

// Agent returns the agent record.
func (r *Registry) Agent(id uint64) (*RegistryAgent, error) {
	return r.requireAgent("getAgent", id)
}

// AllAgentIDs returns every allocated id in registration order.
func (r *Registry) AllAgentIDs() []uint64 {
	out := make([]uint64, len(r.agentIDs))
	copy(out, r.agentIDs)
	return out
}

// AgentsOf returns the ids owned by addr, in acquisition order.
func (r *Registry) AgentsOf(addr Address) []uint64 {
	out := make([]uint64, len(r.byOwner[addr]))
	copy(out, r.byOwner[addr])
	return out
}
