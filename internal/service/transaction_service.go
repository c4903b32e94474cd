package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/storage"
)

// TransactionFields are the validated inputs of a sale.
type TransactionFields struct {
	ItemID          string
	BuyerID         int64
	SellerID        int64
	Price           float64
	TransactionDate string
}

type TransactionService struct {
	transactions storage.TransactionStore
	items        storage.ItemStore
	users        storage.UserStore
	logger       *zap.Logger
}

func NewTransactionService(transactions storage.TransactionStore, items storage.ItemStore, users storage.UserStore, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		items:        items,
		users:        users,
		logger:       logger,
	}
}

func (s *TransactionService) List(ctx context.Context) ([]models.Transaction, error) {
	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve transactions", err)
	}
	return transactions, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := s.transactions.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Transaction not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve transaction", err)
	}
	return t, nil
}

// Sell records the sale of an item. The transaction insert and the state
// flip to sold commit atomically; a concurrent sale of the same item loses
// either on the row lock or on the unique item_id constraint and surfaces
// as the same Conflict.
func (s *TransactionService) Sell(ctx context.Context, fields TransactionFields) (*models.Transaction, error) {
	item, err := s.items.Get(ctx, fields.ItemID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Item not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve item", err)
	}

	for _, userID := range []int64{fields.BuyerID, fields.SellerID} {
		if _, err := s.users.Get(ctx, userID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.NotFound("User not found")
			}
			return nil, apperr.Internal("Failed to load user", err)
		}
	}

	if item.State == models.ItemStateSold {
		return nil, apperr.Conflict("Item is already sold")
	}

	now := time.Now()
	t := &models.Transaction{
		ID:              uuid.NewString(),
		ItemID:          fields.ItemID,
		BuyerID:         fields.BuyerID,
		SellerID:        fields.SellerID,
		Price:           fields.Price,
		TransactionDate: fields.TransactionDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.transactions.CreateAndMarkSold(ctx, t); err != nil {
		if errors.Is(err, storage.ErrItemSold) {
			return nil, apperr.Conflict("Item is already sold")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("Item not found")
		}
		return nil, apperr.Internal("Failed to create transaction", err)
	}

	s.logger.Info("item sold",
		zap.String("transaction_id", t.ID),
		zap.String("item_id", t.ItemID),
		zap.Int64("buyer_id", t.BuyerID),
		zap.Int64("seller_id", t.SellerID))
	return t, nil
}
