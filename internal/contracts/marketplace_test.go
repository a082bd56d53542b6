// internal/contracts/marketplace_test.go
package contracts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mktOwner   = Address("0xf00d")
	alice      = Address("0xa11ce")
	bob        = Address("0xb0b")
	carol      = Address("0xca401")
	defaultFee = uint64(250)
)

func newTestMarketplace(t *testing.T) (*Marketplace, *manualClock, *MemorySink, *recordingTransferer) {
	t.Helper()
	clock := &manualClock{now: 1_700_000_000}
	sink := &MemorySink{}
	out := &recordingTransferer{}
	return NewMarketplace(mktOwner, defaultFee, clock, sink, out), clock, sink, out
}

func registerAgentFor(t *testing.T, m *Marketplace, dev Address, category string, price uint64) *Agent {
	t.Helper()
	if _, err := m.User(dev); err != nil {
		_, err := m.RegisterUser(Call{Caller: dev}, "dev "+string(dev))
		require.NoError(t, err)
	}
	a, err := m.RegisterAgent(Call{Caller: dev}, RegisterAgentParams{
		Name:        "agent",
		Description: "does things",
		Category:    category,
		Price:       price,
		ModelCID:    "bafymodel",
		DocsCID:     "bafydocs",
		Framework:   "pytorch",
		Resources:   "1 gpu",
	})
	require.NoError(t, err)
	return a
}

func listAgentFor(t *testing.T, m *Marketplace, dev Address, category string, price uint64) *Agent {
	t.Helper()
	a := registerAgentFor(t, m, dev, category, price)
	require.NoError(t, m.ListAgent(Call{Caller: dev}, a.ID, price))
	return a
}

func TestRegisterUser(t *testing.T) {
	m, _, sink, _ := newTestMarketplace(t)

	u, err := m.RegisterUser(Call{Caller: alice}, "Alice")
	require.NoError(t, err)
	assert.Equal(t, alice, u.Address)
	assert.True(t, u.Registered)
	assert.Len(t, sink.ByName(EventUserRegistered), 1)

	_, err = m.RegisterUser(Call{Caller: alice}, "Alice again")
	assert.True(t, IsCode(err, CodeConflict))

	_, err = m.RegisterUser(Call{Caller: bob}, "")
	assert.True(t, IsCode(err, CodeInvalidInput))
}

func TestRegisterAgentAssignsContiguousIDs(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	_, err := m.RegisterUser(Call{Caller: alice}, "Alice")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		a, err := m.RegisterAgent(Call{Caller: alice}, RegisterAgentParams{
			Name:        fmt.Sprintf("agent %d", i),
			Description: "d",
			Category:    "nlp",
			ModelCID:    "bafy",
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), a.ID)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, m.AllAgentIDs())
}

func TestRegisterAgentGuards(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)

	_, err := m.RegisterAgent(Call{Caller: alice}, RegisterAgentParams{
		Name: "a", Description: "d", Category: "c", ModelCID: "cid",
	})
	assert.True(t, IsCode(err, CodeUnauthorized))

	_, err = m.RegisterUser(Call{Caller: alice}, "Alice")
	require.NoError(t, err)

	for _, p := range []RegisterAgentParams{
		{Description: "d", Category: "c", ModelCID: "cid"},
		{Name: "a", Category: "c", ModelCID: "cid"},
		{Name: "a", Description: "d", ModelCID: "cid"},
		{Name: "a", Description: "d", Category: "c"},
	} {
		_, err := m.RegisterAgent(Call{Caller: alice}, p)
		assert.True(t, IsCode(err, CodeInvalidInput))
	}
}

func TestListingLifecycle(t *testing.T) {
	m, _, sink, _ := newTestMarketplace(t)
	a := registerAgentFor(t, m, alice, "nlp", 100)

	assert.True(t, IsCode(m.ListAgent(Call{Caller: bob}, a.ID, 100), CodeForbidden))
	assert.True(t, IsCode(m.ListAgent(Call{Caller: alice}, a.ID, 0), CodeInvalidInput))
	assert.True(t, IsCode(m.ListAgent(Call{Caller: alice}, 99, 100), CodeNotFound))

	require.NoError(t, m.ListAgent(Call{Caller: alice}, a.ID, 150))
	assert.True(t, a.Listed)
	assert.Equal(t, uint64(150), a.Price)
	assert.True(t, IsCode(m.ListAgent(Call{Caller: alice}, a.ID, 150), CodeConflict))

	require.NoError(t, m.UnlistAgent(Call{Caller: alice}, a.ID))
	assert.False(t, a.Listed)
	assert.True(t, IsCode(m.UnlistAgent(Call{Caller: alice}, a.ID), CodeConflict))
	assert.Len(t, sink.ByName(EventAgentListed), 1)
	assert.Len(t, sink.ByName(EventAgentUnlisted), 1)
}

func TestUpdateAgentPrice(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a := registerAgentFor(t, m, alice, "nlp", 100)

	assert.True(t, IsCode(m.UpdateAgentPrice(Call{Caller: bob}, a.ID, 5), CodeForbidden))
	assert.True(t, IsCode(m.UpdateAgentPrice(Call{Caller: alice}, a.ID, 0), CodeInvalidInput))
	require.NoError(t, m.UpdateAgentPrice(Call{Caller: alice}, a.ID, 777))
	assert.Equal(t, uint64(777), a.Price)
}

func TestPurchaseUnlistedAlwaysFails(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a := registerAgentFor(t, m, alice, "nlp", 100)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)

	// Even absurdly overfunded calls are rejected on listing state.
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 1_000_000}, a.ID)
	assert.True(t, IsCode(err, CodeConflict))
}

func TestPurchaseGuards(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a := listAgentFor(t, m, alice, "nlp", 100)

	_, err := m.PurchaseAgent(Call{Caller: bob, Value: 100}, a.ID)
	assert.True(t, IsCode(err, CodeUnauthorized))

	_, err = m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)

	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 99}, a.ID)
	assert.True(t, IsCode(err, CodeInsufficientFunds))

	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 100}, 42)
	assert.True(t, IsCode(err, CodeNotFound))
}

func TestPurchaseSplitsFeeAndRecordsHistory(t *testing.T) {
	m, _, sink, _ := newTestMarketplace(t)
	const price = uint64(1_000_000_000_000_000_000) // 1e18, fee 250 bps
	a := listAgentFor(t, m, alice, "nlp", price)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)

	p, err := m.PurchaseAgent(Call{Caller: bob, Value: price}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.ID)
	assert.Equal(t, alice, p.Seller)
	assert.Equal(t, price, p.PricePaid)

	assert.Equal(t, uint64(975_000_000_000_000_000), m.DeveloperBalance(alice))
	assert.Equal(t, price, m.ContractBalance())
	assert.Equal(t, []uint64{a.ID}, m.PurchaseHistory(bob))
	assert.True(t, m.HasPurchased(bob, a.ID))
	assert.False(t, m.HasPurchased(carol, a.ID))
	assert.Len(t, sink.ByName(EventAgentPurchased), 1)
}

func TestPurchaseFeeExactNearUint64Ceiling(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	// The naive price*feeBps product wraps above ~7.4e16; this price also
	// carries a sub-10000 remainder so both halves of the split matter.
	const price = uint64(10_000_000_000_000_009_999)
	a := listAgentFor(t, m, alice, "nlp", price)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)

	_, err = m.PurchaseAgent(Call{Caller: bob, Value: price}, a.ID)
	require.NoError(t, err)

	// floor(price * 250 / 10000) = 250_000_000_000_000_249
	assert.Equal(t, uint64(9_750_000_000_000_009_750), m.DeveloperBalance(alice))
	assert.Equal(t, price, m.ContractBalance())
}

func TestPurchaseRefundsExcess(t *testing.T) {
	m, _, _, out := newTestMarketplace(t)
	a := listAgentFor(t, m, alice, "nlp", 100)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)

	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 130}, a.ID)
	require.NoError(t, err)

	// Net cost to the buyer is exactly the price.
	assert.Equal(t, uint64(30), out.total(bob))
	assert.Equal(t, uint64(100), m.ContractBalance())
}

func TestSubmitReviewGuards(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a := listAgentFor(t, m, alice, "nlp", 100)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)
	_, err = m.RegisterUser(Call{Caller: carol}, "Carol")
	require.NoError(t, err)
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 100}, a.ID)
	require.NoError(t, err)

	// Non-purchaser.
	_, err = m.SubmitReview(Call{Caller: carol}, a.ID, 300, "never bought it")
	assert.True(t, IsCode(err, CodeForbidden))

	// Rating bounds are inclusive.
	_, err = m.SubmitReview(Call{Caller: bob}, a.ID, 99, "")
	assert.True(t, IsCode(err, CodeInvalidInput))
	_, err = m.SubmitReview(Call{Caller: bob}, a.ID, 501, "")
	assert.True(t, IsCode(err, CodeInvalidInput))

	r, err := m.SubmitReview(Call{Caller: bob}, a.ID, 100, "rough edges")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.ID)

	// One review per purchase.
	_, err = m.SubmitReview(Call{Caller: bob}, a.ID, 500, "changed my mind")
	assert.True(t, IsCode(err, CodeForbidden))

	// A second purchase unlocks a second review, and 500 is accepted.
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 100}, a.ID)
	require.NoError(t, err)
	_, err = m.SubmitReview(Call{Caller: bob}, a.ID, 500, "much better now")
	require.NoError(t, err)
}

func TestStreamingAverage(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a := listAgentFor(t, m, alice, "nlp", 100)
	for _, buyer := range []Address{bob, carol} {
		_, err := m.RegisterUser(Call{Caller: buyer}, "buyer")
		require.NoError(t, err)
		_, err = m.PurchaseAgent(Call{Caller: buyer, Value: 100}, a.ID)
		require.NoError(t, err)
	}

	_, err := m.SubmitReview(Call{Caller: bob}, a.ID, 400, "solid")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), a.AverageRating)

	_, err = m.SubmitReview(Call{Caller: carol}, a.ID, 500, "great")
	require.NoError(t, err)
	assert.Equal(t, uint64(450), a.AverageRating)
	assert.Equal(t, uint64(2), a.ReviewCount)
}

func TestWithdrawFunds(t *testing.T) {
	m, _, _, out := newTestMarketplace(t)
	a := listAgentFor(t, m, alice, "nlp", 10_000)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 10_000}, a.ID)
	require.NoError(t, err)

	amount, err := m.WithdrawFunds(Call{Caller: alice})
	require.NoError(t, err)
	assert.Equal(t, uint64(9_750), amount)
	assert.Equal(t, uint64(9_750), out.total(alice))
	assert.Equal(t, uint64(0), m.DeveloperBalance(alice))

	// Immediately repeating the withdrawal finds nothing.
	_, err = m.WithdrawFunds(Call{Caller: alice})
	assert.True(t, IsCode(err, CodeNothingToWithdraw))
	assert.Equal(t, uint64(0), m.DeveloperBalance(alice))
}

func TestWithdrawPlatformFees(t *testing.T) {
	m, _, _, out := newTestMarketplace(t)
	a := listAgentFor(t, m, alice, "nlp", 10_000)
	_, err := m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 10_000}, a.ID)
	require.NoError(t, err)

	_, err = m.WithdrawPlatformFees(Call{Caller: alice})
	assert.True(t, IsCode(err, CodeForbidden))

	residual, err := m.WithdrawPlatformFees(Call{Caller: mktOwner})
	require.NoError(t, err)
	assert.Equal(t, uint64(250), residual)
	assert.Equal(t, uint64(250), out.total(mktOwner))

	_, err = m.WithdrawPlatformFees(Call{Caller: mktOwner})
	assert.True(t, IsCode(err, CodeNothingToWithdraw))

	// Developer money is untouched by the fee sweep.
	assert.Equal(t, uint64(9_750), m.DeveloperBalance(alice))
}

func TestWithdrawReentrancyRejected(t *testing.T) {
	clock := &manualClock{now: 1_700_000_000}
	attacker := &reentrantTransferer{}
	m := NewMarketplace(mktOwner, defaultFee, clock, &MemorySink{}, attacker)
	attacker.attack = func() error {
		_, err := m.WithdrawFunds(Call{Caller: alice})
		return err
	}

	_, err := m.RegisterUser(Call{Caller: alice}, "Alice")
	require.NoError(t, err)
	a, err := m.RegisterAgent(Call{Caller: alice}, RegisterAgentParams{
		Name: "a", Description: "d", Category: "c", ModelCID: "cid",
	})
	require.NoError(t, err)
	require.NoError(t, m.ListAgent(Call{Caller: alice}, a.ID, 10_000))
	_, err = m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 10_000}, a.ID)
	require.NoError(t, err)

	_, err = m.WithdrawFunds(Call{Caller: alice})
	require.NoError(t, err)
	require.True(t, attacker.attacked)
	assert.True(t, IsCode(attacker.nestedErr, CodeReentrantCall))
	assert.Equal(t, uint64(0), m.DeveloperBalance(alice))
}

func TestPurchaseRefundReentrancyRejected(t *testing.T) {
	clock := &manualClock{now: 1_700_000_000}
	attacker := &reentrantTransferer{}
	m := NewMarketplace(mktOwner, defaultFee, clock, &MemorySink{}, attacker)

	_, err := m.RegisterUser(Call{Caller: alice}, "Alice")
	require.NoError(t, err)
	a, err := m.RegisterAgent(Call{Caller: alice}, RegisterAgentParams{
		Name: "a", Description: "d", Category: "c", ModelCID: "cid",
	})
	require.NoError(t, err)
	require.NoError(t, m.ListAgent(Call{Caller: alice}, a.ID, 100))
	_, err = m.RegisterUser(Call{Caller: bob}, "Bob")
	require.NoError(t, err)

	// The refund of the overpayment tries to re-enter purchaseAgent.
	attacker.attack = func() error {
		_, err := m.PurchaseAgent(Call{Caller: bob, Value: 100}, a.ID)
		return err
	}
	_, err = m.PurchaseAgent(Call{Caller: bob, Value: 150}, a.ID)
	require.NoError(t, err)
	require.True(t, attacker.attacked)
	assert.True(t, IsCode(attacker.nestedErr, CodeReentrantCall))

	// Only the outer purchase landed.
	purchases, err := m.AgentPurchases(a.ID)
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
}

func TestAdminOperations(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)

	assert.True(t, IsCode(m.UpdatePlatformFee(Call{Caller: alice}, 100), CodeForbidden))
	assert.True(t, IsCode(m.UpdatePlatformFee(Call{Caller: mktOwner}, 1001), CodeInvalidInput))
	require.NoError(t, m.UpdatePlatformFee(Call{Caller: mktOwner}, 1000))
	assert.Equal(t, uint64(1000), m.FeeBasisPoints())

	assert.True(t, IsCode(m.TransferOwnership(Call{Caller: mktOwner}, ZeroAddress), CodeInvalidInput))
	require.NoError(t, m.TransferOwnership(Call{Caller: mktOwner}, alice))
	assert.Equal(t, alice, m.Owner())
	assert.True(t, IsCode(m.UpdatePlatformFee(Call{Caller: mktOwner}, 100), CodeForbidden))
}

func TestSetPausedDoesNotGateMutations(t *testing.T) {
	// The pause switch is stored but deliberately not consulted by any
	// mutating operation. This test pins that behavior; if enforcement is
	// ever added it must fail loudly here first.
	m, _, _, _ := newTestMarketplace(t)
	require.NoError(t, m.SetPaused(Call{Caller: mktOwner}, true))
	assert.True(t, m.Paused())

	_, err := m.RegisterUser(Call{Caller: alice}, "Alice")
	assert.NoError(t, err)
	a := registerAgentFor(t, m, bob, "nlp", 10)
	assert.NoError(t, m.ListAgent(Call{Caller: bob}, a.ID, 10))
}

func TestQueries(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a1 := registerAgentFor(t, m, alice, "nlp", 10)
	a2 := registerAgentFor(t, m, alice, "vision", 20)
	a3 := registerAgentFor(t, m, bob, "nlp", 30)

	nlp := m.AgentsByCategory("nlp")
	require.Len(t, nlp, 2)
	assert.Equal(t, a1.ID, nlp[0].ID)
	assert.Equal(t, a3.ID, nlp[1].ID)

	mine := m.DeveloperAgents(alice)
	require.Len(t, mine, 2)
	assert.Equal(t, []uint64{a1.ID, a2.ID}, []uint64{mine[0].ID, mine[1].ID})

	stats := m.MarketplaceStats()
	assert.Equal(t, uint64(3), stats.TotalAgents)
	assert.Equal(t, uint64(2), stats.TotalUsers)
}

func TestTopRatedAgentsStableOrder(t *testing.T) {
	m, _, _, _ := newTestMarketplace(t)
	a1 := listAgentFor(t, m, alice, "nlp", 10)
	a2 := listAgentFor(t, m, bob, "nlp", 10)
	a3 := listAgentFor(t, m, carol, "nlp", 10)

	buyer := Address("0xbuy")
	_, err := m.RegisterUser(Call{Caller: buyer}, "Buyer")
	require.NoError(t, err)
	for agentID, rating := range map[uint64]uint64{a1.ID: 300, a2.ID: 500, a3.ID: 300} {
		_, err = m.PurchaseAgent(Call{Caller: buyer, Value: 10}, agentID)
		require.NoError(t, err)
		_, err = m.SubmitReview(Call{Caller: buyer}, agentID, rating, "")
		require.NoError(t, err)
	}

	top := m.TopRatedAgents(0)
	require.Len(t, top, 3)
	assert.Equal(t, a2.ID, top[0].ID)
	// Equal ratings keep registration order.
	assert.Equal(t, a1.ID, top[1].ID)
	assert.Equal(t, a3.ID, top[2].ID)

	assert.Len(t, m.TopRatedAgents(1), 1)
}
