// internal/contracts/listing_test.go
package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListingBook(t *testing.T) (*ListingBook, *Registry, *manualClock) {
	t.Helper()
	clock := &manualClock{now: 1_700_000_000}
	reg := NewRegistry(deployer, clock, &MemorySink{})
	require.NoError(t, reg.GrantRole(Call{Caller: deployer}, RoleSeller, alice))
	book := NewListingBook(reg, clock, &MemorySink{})
	return book, reg, clock
}

func makeListing(t *testing.T, book *ListingBook, reg *Registry, expiresAt int64) (*Listing, *RegistryAgent) {
	t.Helper()
	a := registryAgent(t, reg, alice)
	l, err := book.CreateListing(Call{Caller: alice}, CreateListingParams{
		AgentID:       a.ID,
		Price:         500,
		ExpiresAt:     expiresAt,
		UsageTermsCID: "bafyterms",
	})
	require.NoError(t, err)
	return l, a
}

func TestCreateListingGuards(t *testing.T) {
	book, reg, _ := newTestListingBook(t)
	a := registryAgent(t, reg, alice)

	_, err := book.CreateListing(Call{Caller: alice}, CreateListingParams{AgentID: 99, Price: 1, UsageTermsCID: "c"})
	assert.True(t, IsCode(err, CodeNotFound))

	_, err = book.CreateListing(Call{Caller: bob}, CreateListingParams{AgentID: a.ID, Price: 1, UsageTermsCID: "c"})
	assert.True(t, IsCode(err, CodeForbidden))

	_, err = book.CreateListing(Call{Caller: alice}, CreateListingParams{AgentID: a.ID, Price: 0, UsageTermsCID: "c"})
	assert.True(t, IsCode(err, CodeInvalidInput))

	_, err = book.CreateListing(Call{Caller: alice}, CreateListingParams{AgentID: a.ID, Price: 1})
	assert.True(t, IsCode(err, CodeInvalidInput))

	_, err = book.CreateListing(Call{Caller: alice}, CreateListingParams{
		AgentID: a.ID, Price: 1, UsageTermsCID: "c", ExpiresAt: 1, // long past
	})
	assert.True(t, IsCode(err, CodeInvalidInput))

	require.NoError(t, reg.DeactivateAgent(Call{Caller: alice}, a.ID))
	_, err = book.CreateListing(Call{Caller: alice}, CreateListingParams{AgentID: a.ID, Price: 1, UsageTermsCID: "c"})
	assert.True(t, IsCode(err, CodeConflict))
}

func TestOneActiveListingPerAgent(t *testing.T) {
	book, reg, _ := newTestListingBook(t)
	l, a := makeListing(t, book, reg, 0)

	_, err := book.CreateListing(Call{Caller: alice}, CreateListingParams{
		AgentID: a.ID, Price: 900, UsageTermsCID: "bafyterms",
	})
	assert.True(t, IsCode(err, CodeConflict))

	// After delisting, a fresh listing may be created; the old id stays
	// terminal.
	require.NoError(t, book.DelistListing(Call{Caller: alice}, l.ID))
	assert.Equal(t, uint64(0), book.ActiveListingID(a.ID))

	l2, err := book.CreateListing(Call{Caller: alice}, CreateListingParams{
		AgentID: a.ID, Price: 900, UsageTermsCID: "bafyterms",
	})
	require.NoError(t, err)
	assert.Equal(t, l.ID+1, l2.ID)
	assert.Equal(t, l2.ID, book.ActiveListingID(a.ID))
}

func TestTerminalTransitions(t *testing.T) {
	book, reg, _ := newTestListingBook(t)
	l, _ := makeListing(t, book, reg, 0)

	// Only admins settle listings as sold.
	assert.True(t, IsCode(book.MarkSold(Call{Caller: alice}, l.ID), CodeForbidden))
	require.NoError(t, book.MarkSold(Call{Caller: deployer}, l.ID))
	assert.Equal(t, ListingSold, l.Status)

	// Terminal states do not revert.
	assert.True(t, IsCode(book.DelistListing(Call{Caller: alice}, l.ID), CodeConflict))
	assert.True(t, IsCode(book.MarkSold(Call{Caller: deployer}, l.ID), CodeConflict))
	assert.True(t, IsCode(book.UpdateListing(Call{Caller: alice}, l.ID, 5, 0), CodeConflict))

	l2, _ := makeListing(t, book, reg, 0)
	// Admins may delist on the seller's behalf; strangers may not.
	assert.True(t, IsCode(book.DelistListing(Call{Caller: bob}, l2.ID), CodeForbidden))
	require.NoError(t, book.DelistListing(Call{Caller: deployer}, l2.ID))
}

func TestUpdateListing(t *testing.T) {
	book, reg, clock := newTestListingBook(t)
	l, _ := makeListing(t, book, reg, 0)

	assert.True(t, IsCode(book.UpdateListing(Call{Caller: bob}, l.ID, 5, 0), CodeForbidden))
	assert.True(t, IsCode(book.UpdateListing(Call{Caller: alice}, l.ID, 0, 0), CodeInvalidInput))
	assert.True(t, IsCode(book.UpdateListing(Call{Caller: alice}, l.ID, 5, clock.Now()-1), CodeInvalidInput))

	require.NoError(t, book.UpdateListing(Call{Caller: alice}, l.ID, 750, clock.Now()+3600))
	assert.Equal(t, uint64(750), l.Price)
}

func TestLazyExpiry(t *testing.T) {
	book, reg, clock := newTestListingBook(t)
	l, a := makeListing(t, book, reg, clock.Now()+86400)

	assert.True(t, book.IsListingActive(l.ID))
	assert.Equal(t, l.ID, book.ActiveListingID(a.ID))
	price, err := book.ListingPrice(l.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), price)

	// No state-changing call happens here; the clock alone flips every
	// read-side answer.
	clock.Advance(86400)

	assert.False(t, book.IsListingActive(l.ID))
	assert.Equal(t, uint64(0), book.ActiveListingID(a.ID))
	_, err = book.ListingByAgent(a.ID)
	assert.True(t, IsCode(err, CodeNotFound))
	_, err = book.ListingPrice(l.ID)
	assert.True(t, IsCode(err, CodeExpired))

	// The stored status still reads active; expiry is derived.
	stored, err := book.Listing(l.ID)
	require.NoError(t, err)
	assert.Equal(t, ListingActive, stored.Status)
}

func TestNeverExpires(t *testing.T) {
	book, reg, clock := newTestListingBook(t)
	l, _ := makeListing(t, book, reg, 0)

	clock.Advance(10 * 365 * 86400)
	assert.True(t, book.IsListingActive(l.ID))
}
