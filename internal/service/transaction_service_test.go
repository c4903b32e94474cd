package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/storage/memory"
)

func newTransactionService(store *memory.Store) *TransactionService {
	return NewTransactionService(store.Transactions(), store.Items(), store.Users(), zap.NewNop())
}

func seedSale(store *memory.Store) (models.User, models.User, models.Item) {
	seller := store.SeedUser(models.User{Name: "Seller"})
	buyer := store.SeedUser(models.User{Name: "Buyer"})
	item := store.SeedItem(models.Item{ID: "item-1", UserID: seller.ID, Price: 45, State: models.ItemStateAvailable})
	return seller, buyer, item
}

func saleFields(item models.Item, buyer, seller models.User) TransactionFields {
	return TransactionFields{
		ItemID:          item.ID,
		BuyerID:         buyer.ID,
		SellerID:        seller.ID,
		Price:           item.Price,
		TransactionDate: "2026-08-15",
	}
}

func TestSellMarksItemSold(t *testing.T) {
	store := memory.NewStore()
	seller, buyer, item := seedSale(store)
	svc := newTransactionService(store)

	tx, err := svc.Sell(context.Background(), saleFields(item, buyer, seller))
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, item.ID, tx.ItemID)
	assert.Equal(t, models.ItemStateSold, store.Item(item.ID).State)
}

func TestSellAlreadySold(t *testing.T) {
	store := memory.NewStore()
	seller, buyer, item := seedSale(store)
	svc := newTransactionService(store)

	_, err := svc.Sell(context.Background(), saleFields(item, buyer, seller))
	require.NoError(t, err)

	_, err = svc.Sell(context.Background(), saleFields(item, buyer, seller))
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "Item is already sold", ae.Message)
	assert.Equal(t, 1, store.TransactionCount(item.ID))
}

func TestSellConcurrentSingleWinner(t *testing.T) {
	store := memory.NewStore()
	seller, buyer, item := seedSale(store)
	svc := newTransactionService(store)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Sell(context.Background(), saleFields(item, buyer, seller))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, apperr.KindConflict, ae.Kind)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.TransactionCount(item.ID))
	assert.Equal(t, models.ItemStateSold, store.Item(item.ID).State)
}

func TestSellMissingItem(t *testing.T) {
	store := memory.NewStore()
	seller, buyer, item := seedSale(store)
	svc := newTransactionService(store)

	fields := saleFields(item, buyer, seller)
	fields.ItemID = "missing"

	_, err := svc.Sell(context.Background(), fields)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, "Item not found", ae.Message)
}

func TestSellMissingBuyer(t *testing.T) {
	store := memory.NewStore()
	seller, buyer, item := seedSale(store)
	svc := newTransactionService(store)

	fields := saleFields(item, buyer, seller)
	fields.BuyerID = 99

	_, err := svc.Sell(context.Background(), fields)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, "User not found", ae.Message)
	assert.Equal(t, models.ItemStateAvailable, store.Item(item.ID).State)
}

func TestTransactionGetNotFound(t *testing.T) {
	store := memory.NewStore()
	svc := newTransactionService(store)

	_, err := svc.Get(context.Background(), "missing")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, "Transaction not found", ae.Message)
}
