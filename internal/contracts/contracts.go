// internal/contracts/contracts.go
//
// Package contracts implements the on-ledger state machines behind the
// agent marketplace: the monolithic Marketplace core plus the decomposed
// Registry / ListingBook pair. Every operation runs to completion against
// an explicit state arena owned by its contract value; the host is expected
// to serialize calls, so there is no locking here beyond the reentrancy
// latch on fund-moving operations.
package contracts

import "time"

// Address identifies a caller as supplied by the host identity oracle.
// The zero value is the null identity and is never a valid caller.
type Address string

// ZeroAddress is the null identity.
const ZeroAddress Address = ""

// Call carries the identity-oracle output for one invocation plus any
// funds attached to it, denominated in the smallest native unit.
type Call struct {
	Caller Address
	Value  uint64
}

// Clock supplies the external monotonic timestamp source.
type Clock interface {
	Now() int64
}

// SystemClock reads the host wall clock in unix seconds.
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// Transferer releases funds from contract custody to a recipient. The host
// wallet ledger cannot reject a credit, so Transfer does not fail; it may
// however run externally-controlled code that calls back into a contract
// before the outer operation returns, which the reentrancy latch rejects.
type Transferer interface {
	Transfer(to Address, amount uint64)
}

// NopTransferer discards outbound transfers. Useful when a deployment only
// needs the bookkeeping side of the engine.
type NopTransferer struct{}

func (NopTransferer) Transfer(Address, uint64) {}
