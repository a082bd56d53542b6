// internal/contracts/contracts_test.go
package contracts

// Shared test doubles: a hand-cranked clock, a transfer recorder, and a
// transferer that calls back into the marketplace mid-transfer.

type manualClock struct {
	now int64
}

func (c *manualClock) Now() int64        { return c.now }
func (c *manualClock) Advance(sec int64) { c.now += sec }

type payout struct {
	To     Address
	Amount uint64
}

type recordingTransferer struct {
	Payouts []payout
}

func (t *recordingTransferer) Transfer(to Address, amount uint64) {
	t.Payouts = append(t.Payouts, payout{To: to, Amount: amount})
}

func (t *recordingTransferer) total(to Address) uint64 {
	var sum uint64
	for _, p := range t.Payouts {
		if p.To == to {
			sum += p.Amount
		}
	}
	return sum
}

// reentrantTransferer runs an attack callback the first time funds leave
// the contract, recording what the nested invocation returned.
type reentrantTransferer struct {
	attack    func() error
	attacked  bool
	nestedErr error
}

func (t *reentrantTransferer) Transfer(to Address, amount uint64) {
	if t.attacked || t.attack == nil {
		return
	}
	t.attacked = true
	t.nestedErr = t.attack()
}
