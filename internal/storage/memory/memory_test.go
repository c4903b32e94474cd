package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
	"github.com/rebornapp/reborn-golang/internal/storage"
)

func seedPricedItems(s *Store) {
	s.SeedItem(models.Item{ID: "a", Title: "Cheap chair", Price: 5, State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "b", Title: "Fair chair", Price: 50, State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "c", Title: "Pricey chair", Price: 150, State: models.ItemStateAvailable})
}

func TestListExcludesSold(t *testing.T) {
	s := NewStore()
	s.SeedItem(models.Item{ID: "a", State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "b", State: models.ItemStateReserved})
	s.SeedItem(models.Item{ID: "c", State: models.ItemStateSold})

	items, err := s.Items().List(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
}

func TestSearchPriceRange(t *testing.T) {
	s := NewStore()
	seedPricedItems(s)

	min, max := 10.0, 100.0
	plan, err := search.Compile([]search.Directive{{Column: "price", Min: &min, Max: &max}})
	require.NoError(t, err)

	items, err := s.Items().Search(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}

func TestSearchTitleContainsIsCaseInsensitive(t *testing.T) {
	s := NewStore()
	seedPricedItems(s)
	s.SeedItem(models.Item{ID: "d", Title: "Wooden table", Price: 30, State: models.ItemStateAvailable})

	plan, err := search.Compile([]search.Directive{{Column: "title", Value: "CHAIR"}})
	require.NoError(t, err)

	items, err := s.Items().Search(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestSearchNeverReturnsSold(t *testing.T) {
	s := NewStore()
	s.SeedItem(models.Item{ID: "a", Category: "books", State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "b", Category: "books", State: models.ItemStateSold})

	plan, err := search.Compile([]search.Directive{{Column: "category", Value: "books"}})
	require.NoError(t, err)

	items, err := s.Items().Search(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
}

func TestSearchMultiKeyOrdering(t *testing.T) {
	s := NewStore()
	s.SeedItem(models.Item{ID: "a", Category: "books", Price: 20, State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "b", Category: "art", Price: 20, State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "c", Category: "art", Price: 10, State: models.ItemStateAvailable})

	plan, err := search.Compile([]search.Directive{
		{OrderBy: "price", Order: "desc"},
		{OrderBy: "category"},
	})
	require.NoError(t, err)

	items, err := s.Items().Search(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, "c", items[2].ID)
}

func TestCreateAndMarkSold(t *testing.T) {
	s := NewStore()
	s.SeedItem(models.Item{ID: "item-1", State: models.ItemStateAvailable})

	err := s.Transactions().CreateAndMarkSold(context.Background(), &models.Transaction{ID: "t-1", ItemID: "item-1"})
	require.NoError(t, err)

	assert.Equal(t, models.ItemStateSold, s.Item("item-1").State)

	err = s.Transactions().CreateAndMarkSold(context.Background(), &models.Transaction{ID: "t-2", ItemID: "item-1"})
	assert.ErrorIs(t, err, storage.ErrItemSold)
	assert.Equal(t, 1, s.TransactionCount("item-1"))
}

func TestCreateAndMarkSoldMissingItem(t *testing.T) {
	s := NewStore()
	err := s.Transactions().CreateAndMarkSold(context.Background(), &models.Transaction{ID: "t-1", ItemID: "nope"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteUnsoldItemsSparesTransactedOnes(t *testing.T) {
	s := NewStore()
	s.SeedUser(models.User{ID: 1})
	s.SeedItem(models.Item{ID: "kept", UserID: 1, State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "gone", UserID: 1, State: models.ItemStateAvailable})
	s.SeedItem(models.Item{ID: "other", UserID: 2, State: models.ItemStateAvailable})
	require.NoError(t, s.Transactions().CreateAndMarkSold(context.Background(), &models.Transaction{ID: "t-1", ItemID: "kept"}))

	require.NoError(t, s.Users().DeleteUnsoldItems(context.Background(), 1))

	assert.NotNil(t, s.Item("kept"))
	assert.Nil(t, s.Item("gone"))
	assert.NotNil(t, s.Item("other"))
}

func TestUserListExcludesDeactivated(t *testing.T) {
	s := NewStore()
	s.SeedUser(models.User{ID: 1})
	s.SeedUser(models.User{ID: 2, IsDeleted: true})

	users, err := s.Users().List(context.Background())
	require.NoError(t, err)

	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ID)

	// Deactivated users stay resolvable by id.
	user, err := s.Users().Get(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, user.IsDeleted)
}
