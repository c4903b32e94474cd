package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/storage"
)

// UserFields are the fillable profile fields a create or generic update may
// touch. The id, admin and soft-delete flags are guarded.
type UserFields struct {
	Name               string
	LastName           string
	Email              string
	Phone              string
	ShowPhone          bool
	ProfileDescription string
	City               string
	State              string
	Country            string
	Address            string
	ZipCode            string
}

type UserService struct {
	users  storage.UserStore
	logger *zap.Logger

	cascadeRetries int
	cascadeBackoff time.Duration
}

func NewUserService(users storage.UserStore, cascadeRetries int, cascadeBackoff time.Duration, logger *zap.Logger) *UserService {
	if cascadeRetries < 1 {
		cascadeRetries = 1
	}
	return &UserService{
		users:          users,
		logger:         logger,
		cascadeRetries: cascadeRetries,
		cascadeBackoff: cascadeBackoff,
	}
}

// List returns active users only. Deactivated users stay queryable by id so
// their transaction history keeps resolving.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, fields UserFields) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		Name:               fields.Name,
		LastName:           fields.LastName,
		Email:              fields.Email,
		Phone:              fields.Phone,
		ShowPhone:          fields.ShowPhone,
		ProfileDescription: fields.ProfileDescription,
		City:               fields.City,
		State:              fields.State,
		Country:            fields.Country,
		Address:            fields.Address,
		ZipCode:            fields.ZipCode,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Internal("Failed to create user", err)
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, fields UserFields) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve user", err)
	}

	user.Name = fields.Name
	user.LastName = fields.LastName
	user.Email = fields.Email
	user.Phone = fields.Phone
	user.ShowPhone = fields.ShowPhone
	user.ProfileDescription = fields.ProfileDescription
	user.City = fields.City
	user.State = fields.State
	user.Country = fields.Country
	user.Address = fields.Address
	user.ZipCode = fields.ZipCode

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Internal("Failed to update user", err)
	}
	return user, nil
}

// Deactivate soft-deletes the user, then cascades deletion to their unsold
// items. The flag flip commits first and is the durable source of truth for
// active status; the cascade retries a bounded number of times before
// surfacing an error.
func (s *UserService) Deactivate(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve user", err)
	}

	if err := s.users.MarkDeleted(ctx, id); err != nil {
		return nil, apperr.Internal("Failed to delete user", err)
	}
	user.IsDeleted = true

	var cascadeErr error
	for attempt := 1; attempt <= s.cascadeRetries; attempt++ {
		cascadeErr = s.users.DeleteUnsoldItems(ctx, id)
		if cascadeErr == nil {
			break
		}
		s.logger.Warn("unsold-item cascade failed",
			zap.Int64("user_id", id),
			zap.Int("attempt", attempt),
			zap.Error(cascadeErr))
		if attempt < s.cascadeRetries {
			time.Sleep(s.cascadeBackoff)
		}
	}
	if cascadeErr != nil {
		// The user stays deactivated regardless; only the cascade failed.
		return nil, apperr.Internal("Failed to delete user items", cascadeErr)
	}

	s.logger.Info("user deactivated", zap.Int64("user_id", id))
	return user, nil
}
