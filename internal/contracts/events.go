// internal/contracts/events.go
package contracts

// Domain event names. Events are the only durable audit trail the engine
// produces.
const (
	EventUserRegistered  = "UserRegistered"
	EventAgentRegistered = "AgentRegistered"
	EventAgentListed     = "AgentListed"
	EventAgentUnlisted   = "AgentUnlisted"
	EventAgentPurchased  = "AgentPurchased"
	EventReviewSubmitted = "ReviewSubmitted"
	EventPriceUpdated    = "PriceUpdated"
	EventFundsWithdrawn  = "FundsWithdrawn"

	EventRoleGranted          = "RoleGranted"
	EventRoleRevoked          = "RoleRevoked"
	EventAgentDeactivated     = "AgentDeactivated"
	EventAgentReactivated     = "AgentReactivated"
	EventOwnershipTransferred = "OwnershipTransferred"

	EventListingCreated  = "ListingCreated"
	EventListingUpdated  = "ListingUpdated"
	EventListingSold     = "ListingSold"
	EventListingDelisted = "ListingDelisted"
)

// Event is one appended audit record.
type Event struct {
	Seq      uint64                 `json:"seq"`
	Contract string                 `json:"contract"`
	Name     string                 `json:"name"`
	At       int64                  `json:"at"`
	Fields   map[string]interface{} `json:"fields,omitempty"`
}

// EventSink receives every emitted event, in emission order.
type EventSink interface {
	Emit(Event)
}

// MemorySink keeps emitted events in memory, in order.
type MemorySink struct {
	Events []Event
}

func (s *MemorySink) Emit(e Event) { s.Events = append(s.Events, e) }

// ByName returns the emitted events carrying the given name.
func (s *MemorySink) ByName(name string) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// FanoutSink forwards each event to every wrapped sink.
type FanoutSink []EventSink

func (f FanoutSink) Emit(e Event) {
	for _, s := range f {
		s.Emit(e)
	}
}

// emitter numbers and timestamps events for one contract instance.
type emitter struct {
	contract string
	seq      uint64
	clock    Clock
	sink     EventSink
}

func (em *emitter) emit(name string, fields map[string]interface{}) {
	if em.sink == nil {
		return
	}
	em.seq++
	em.sink.Emit(Event{
		Seq:      em.seq,
		Contract: em.contract,
		Name:     name,
		At:       em.clock.Now(),
		Fields:   fields,
	})
}
