package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rebornapp/reborn-golang/internal/models"
)

const transactionColumns = "`id`, `item_id`, `buyer_id`, `seller_id`, `price`, `transaction_date`, `created_at`, `updated_at`"

// mysqlDuplicateEntry is the server error number for a unique-key violation.
const mysqlDuplicateEntry = 1062

// TransactionRepository is the MySQL-backed TransactionStore.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) List(ctx context.Context) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+transactionColumns+" FROM transactions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransactionRepository) HasForItem(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM transactions WHERE item_id = ?)", itemID).Scan(&exists)
	return exists, err
}

// CreateAndMarkSold runs the sale under a serializable transaction: lock the
// item row, re-check its state, insert the transaction, flip the state.
// A concurrent sale either blocks on the row lock and then observes sold, or
// hits the unique item_id key at commit; both surface as ErrItemSold.
func (r *TransactionRepository) CreateAndMarkSold(ctx context.Context, t *models.Transaction) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var state models.ItemState
	err = tx.QueryRowContext(ctx, "SELECT `state` FROM items WHERE id = ? FOR UPDATE", t.ItemID).Scan(&state)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if state == models.ItemStateSold {
		return ErrItemSold
	}

	insert := `
		INSERT INTO transactions
		(id, item_id, buyer_id, seller_id, price, transaction_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insert,
		t.ID, t.ItemID, t.BuyerID, t.SellerID, t.Price,
		t.TransactionDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrItemSold
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE items SET `state` = ?, updated_at = ? WHERE id = ?", models.ItemStateSold, time.Now(), t.ItemID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		if isDuplicateEntry(err) {
			return ErrItemSold
		}
		return err
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var transactionDate time.Time
	err := row.Scan(
		&t.ID, &t.ItemID, &t.BuyerID, &t.SellerID, &t.Price,
		&transactionDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.TransactionDate = transactionDate.Format("2006-01-02")
	return &t, nil
}
