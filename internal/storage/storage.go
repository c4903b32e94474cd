// Package storage defines the store interfaces the services depend on and
// their MySQL implementations. Entities are plain structs; all querying
// lives here.
package storage

import (
	"context"
	"errors"

	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrItemSold is returned when a sale is attempted on an item that is
	// already sold, whether observed under lock or rejected by the unique
	// item_id constraint at commit time.
	ErrItemSold = errors.New("item is already sold")
)

type ItemStore interface {
	// List returns listable items only (state available or reserved).
	List(ctx context.Context) ([]models.Item, error)
	Get(ctx context.Context, id string) (*models.Item, error)
	// Search executes a compiled plan. The plan's base predicate already
	// excludes sold items.
	Search(ctx context.Context, plan *search.Plan) ([]models.Item, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	UpdateImages(ctx context.Context, id string, images []string) error
	Delete(ctx context.Context, id string) error
}

type UserStore interface {
	// List returns active users only.
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// MarkDeleted flips the soft-delete flag. The row survives.
	MarkDeleted(ctx context.Context, id int64) error
	// DeleteUnsoldItems removes the user's items that are not referenced by
	// any transaction. Sold items and their history survive.
	DeleteUnsoldItems(ctx context.Context, userID int64) error
}

type TransactionStore interface {
	List(ctx context.Context) ([]models.Transaction, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
	HasForItem(ctx context.Context, itemID string) (bool, error)
	// CreateAndMarkSold inserts the transaction and flips the item to sold
	// in one storage transaction. Returns ErrItemSold when the item is
	// already sold, ErrNotFound when it is gone.
	CreateAndMarkSold(ctx context.Context, t *models.Transaction) error
}
