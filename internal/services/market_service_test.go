// internal/services/market_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmart/agentmart-backend/internal/contracts"
)

type fixedClock struct{ now int64 }

func (c fixedClock) Now() int64 { return c.now }

const (
	svcOwner = contracts.Address("0xmarket-owner")
	svcDev   = contracts.Address("0xdeveloper")
)

func newTestMarketService() *MarketService {
	clock := fixedClock{now: 1_700_000_000}
	sink := &contracts.MemorySink{}

	market := contracts.NewMarketplace(svcOwner, 250, clock, sink, contracts.NopTransferer{})
	registry := contracts.NewRegistry(svcOwner, clock, sink)
	listings := contracts.NewListingBook(registry, clock, sink)

	// Wallet-backed paths are exercised elsewhere; nil keeps these tests
	// off the database.
	return NewMarketService(market, registry, listings, nil)
}

func TestRegisterAgentValidation(t *testing.T) {
	svc := newTestMarketService()

	_, err := svc.RegisterAgent(svcDev, &RegisterAgentRequest{
		Name: "incomplete",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestAgentLifecycleThroughService(t *testing.T) {
	svc := newTestMarketService()

	_, err := svc.RegisterUser(svcDev, "dev")
	require.NoError(t, err)

	agent, err := svc.RegisterAgent(svcDev, &RegisterAgentRequest{
		Name:        "summarizer",
		Description: "Summarizes documents",
		Category:    "nlp",
		Price:       1000,
		ModelCID:    "bafymodel",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), agent.ID)

	require.NoError(t, svc.ListAgent(svcDev, agent.ID, &ListAgentRequest{Price: 1500}))

	got, err := svc.Agent(agent.ID)
	require.NoError(t, err)
	assert.True(t, got.Listed)
	assert.Equal(t, uint64(1500), got.Price)

	require.NoError(t, svc.UnlistAgent(svcDev, agent.ID))
	got, err = svc.Agent(agent.ID)
	require.NoError(t, err)
	assert.False(t, got.Listed)
}

func TestEngineFaultPassesThrough(t *testing.T) {
	svc := newTestMarketService()

	_, err := svc.RegisterAgent(svcDev, &RegisterAgentRequest{
		Name:        "orphan",
		Description: "No user registered first",
		Category:    "misc",
		ModelCID:    "bafyorphan",
	})
	require.Error(t, err)
	assert.True(t, contracts.IsCode(err, contracts.CodeUnauthorized))
}

func TestListingFlowThroughService(t *testing.T) {
	svc := newTestMarketService()

	require.NoError(t, svc.GrantRole(svcOwner, contracts.RoleSeller, svcDev))

	agent, err := svc.RegisterCatalogAgent(svcDev, &RegisterAgentRequest{
		Name:        "classifier",
		Description: "Classifies images",
		Category:    "vision",
		ModelCID:    "bafyvision",
	})
	require.NoError(t, err)

	listing, err := svc.CreateListing(svcDev, &CreateListingRequest{
		AgentID:       agent.ID,
		Price:         5000,
		UsageTermsCID: "bafyterms",
	})
	require.NoError(t, err)
	assert.Equal(t, contracts.ListingActive, listing.Status)

	price, err := svc.ListingPrice(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), price)

	require.NoError(t, svc.DelistListing(svcDev, listing.ID))
	assert.NotEmpty(t, svc.AllListingIDs())

	got, err := svc.Listing(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.ListingDelisted, got.Status)
}
