package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/rebornapp/reborn-golang/internal/models"
)

const userColumns = "`id`, `name`, `lastName`, `email`, `phone`, `showPhone`, `profileDescription`, `city`, `state`, `country`, `address`, `zipCode`, `isAdmin`, `isDeleted`, `created_at`, `updated_at`"

// UserRepository is the MySQL-backed UserStore.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE isDeleted = FALSE"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users
		(name, lastName, email, phone, showPhone, profileDescription, city, state, country, address, zipCode, isAdmin, isDeleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, FALSE, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.LastName, user.Email, user.Phone, user.ShowPhone,
		user.ProfileDescription, user.City, user.State, user.Country,
		user.Address, user.ZipCode, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	user.ID, err = result.LastInsertId()
	return err
}

// Update touches the fillable fields only. id, isAdmin and isDeleted are
// guarded from generic updates.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = ?, lastName = ?, email = ?, phone = ?, showPhone = ?,
			profileDescription = ?, city = ?, state = ?, country = ?,
			address = ?, zipCode = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.LastName, user.Email, user.Phone, user.ShowPhone,
		user.ProfileDescription, user.City, user.State, user.Country,
		user.Address, user.ZipCode, time.Now(), user.ID,
	)
	return err
}

func (r *UserRepository) MarkDeleted(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET isDeleted = TRUE, updated_at = ? WHERE id = ?", time.Now(), id)
	return err
}

// DeleteUnsoldItems removes the user's items that no transaction
// references. A single DELETE keeps it atomic on the storage side; the
// service wraps it with the bounded retry.
func (r *UserRepository) DeleteUnsoldItems(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM items
		WHERE userId = ?
		  AND id NOT IN (SELECT item_id FROM transactions)`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var lastName, phone, profileDescription, city, state, country, address, zipCode sql.NullString

	err := row.Scan(
		&user.ID, &user.Name, &lastName, &user.Email, &phone, &user.ShowPhone,
		&profileDescription, &city, &state, &country, &address, &zipCode,
		&user.IsAdmin, &user.IsDeleted, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.LastName = lastName.String
	user.Phone = phone.String
	user.ProfileDescription = profileDescription.String
	user.City = city.String
	user.State = state.String
	user.Country = country.String
	user.Address = address.String
	user.ZipCode = zipCode.String
	return &user, nil
}
