package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
)

const itemColumns = "`id`, `userId`, `title`, `description`, `price`, `category`, `location`, `state`, `condition`, `publishDate`, `images`, `created_at`, `updated_at`"

// ItemRepository is the MySQL-backed ItemStore.
type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) List(ctx context.Context) ([]models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE `state` IN (?, ?)"
	rows, err := r.db.QueryContext(ctx, query, models.ItemStateAvailable, models.ItemStateReserved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *ItemRepository) Get(ctx context.Context, id string) (*models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE `id` = ?"
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Search renders the compiled plan into SQL. Column names come from the
// whitelist the compiler enforced, so only values travel as placeholders.
func (r *ItemRepository) Search(ctx context.Context, plan *search.Plan) ([]models.Item, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + itemColumns + " FROM items WHERE 1=1")

	var args []any
	for _, p := range plan.Predicates {
		switch p.Op {
		case search.OpContains:
			sb.WriteString(fmt.Sprintf(" AND `%s` LIKE ?", p.Column))
			args = append(args, "%"+p.Value.(string)+"%")
		default:
			sb.WriteString(fmt.Sprintf(" AND `%s` %s ?", p.Column, p.Op))
			args = append(args, p.Value)
		}
	}

	if len(plan.Orders) > 0 {
		var keys []string
		for _, o := range plan.Orders {
			direction := "ASC"
			if o.Desc {
				direction = "DESC"
			}
			keys = append(keys, fmt.Sprintf("`%s` %s", o.Column, direction))
		}
		sb.WriteString(" ORDER BY " + strings.Join(keys, ", "))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	imagesJSON, err := json.Marshal(item.Images)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO items
		(id, userId, title, description, price, category, location, state, ` + "`condition`" + `, publishDate, images, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.Title, item.Description, item.Price,
		item.Category, nullable(item.Location), item.State, item.Condition,
		item.PublishDate, string(imagesJSON), item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	imagesJSON, err := json.Marshal(item.Images)
	if err != nil {
		return err
	}
	query := `
		UPDATE items
		SET userId = ?, title = ?, description = ?, price = ?, category = ?,
			location = ?, state = ?, ` + "`condition`" + ` = ?, publishDate = ?,
			images = ?, updated_at = ?
		WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query,
		item.UserID, item.Title, item.Description, item.Price, item.Category,
		nullable(item.Location), item.State, item.Condition, item.PublishDate,
		string(imagesJSON), time.Now(), item.ID,
	)
	return err
}

func (r *ItemRepository) UpdateImages(ctx context.Context, id string, images []string) error {
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE items SET images = ?, updated_at = ? WHERE id = ?", string(imagesJSON), time.Now(), id)
	return err
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var location sql.NullString
	var publishDate time.Time
	var imagesJSON sql.NullString

	err := row.Scan(
		&item.ID, &item.UserID, &item.Title, &item.Description, &item.Price,
		&item.Category, &location, &item.State, &item.Condition,
		&publishDate, &imagesJSON, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Location = location.String
	item.PublishDate = publishDate.Format("2006-01-02")
	item.Images = []string{}
	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &item.Images); err != nil {
			return nil, err
		}
	}
	if item.Images == nil {
		item.Images = []string{}
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]models.Item, error) {
	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
