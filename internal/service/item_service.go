// Package service holds the marketplace business rules. Services read and
// write through the storage interfaces and return apperr errors; HTTP
// mapping happens at the handler boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/assets"
	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
	"github.com/rebornapp/reborn-golang/internal/storage"
)

// ItemFields are the validated mutable fields of an item, as accepted by
// create and update.
type ItemFields struct {
	UserID      int64
	Title       string
	Description string
	Price       float64
	Category    string
	Location    string
	State       models.ItemState
	Condition   int
	PublishDate string
	// Images carries pre-hosted URLs from JSON bodies. Multipart uploads
	// arrive as ImageFile instead.
	Images []string
}

// ImageFile is one image from a multipart request, to be pushed to the
// asset host.
type ImageFile struct {
	Name string
	Data []byte
}

type ItemService struct {
	items        storage.ItemStore
	users        storage.UserStore
	transactions storage.TransactionStore
	uploads      assets.Uploader
	logger       *zap.Logger
}

func NewItemService(items storage.ItemStore, users storage.UserStore, transactions storage.TransactionStore, uploads assets.Uploader, logger *zap.Logger) *ItemService {
	return &ItemService{
		items:        items,
		users:        users,
		transactions: transactions,
		uploads:      uploads,
		logger:       logger,
	}
}

// List returns listable items only; sold items never appear.
func (s *ItemService) List(ctx context.Context) ([]models.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve items", err)
	}
	return items, nil
}

func (s *ItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.items.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Item not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve item", err)
	}
	return item, nil
}

// Search compiles the directives fail-closed and executes the plan. An
// invalid directive fails the whole request; no query runs.
func (s *ItemService) Search(ctx context.Context, directives []search.Directive) ([]models.Item, error) {
	plan, err := search.Compile(directives)
	if err != nil {
		s.logger.Warn("search rejected", zap.Error(err))
		return nil, apperr.Conflict(err.Error())
	}

	items, err := s.items.Search(ctx, plan)
	if err != nil {
		return nil, apperr.Internal("Failed to search items", err)
	}
	return items, nil
}

// Create validates the owner, derives the location default, persists the
// item, then pushes images to the asset host. An upload failure deletes the
// just-created item so no orphaned record survives.
func (s *ItemService) Create(ctx context.Context, fields ItemFields, files []ImageFile) (*models.Item, error) {
	owner, err := s.users.Get(ctx, fields.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load item owner", err)
	}

	state := fields.State
	if state == "" {
		state = models.ItemStateAvailable
	}
	// Items never enter the world sold; a sale is the only path there.
	if state == models.ItemStateSold {
		return nil, apperr.Validation(map[string][]string{
			"state": {"Must be one of: available reserved"},
		})
	}

	location := fields.Location
	if location == "" {
		location = fmt.Sprintf("%s, %s", owner.City, owner.State)
	}

	images := fields.Images
	if images == nil {
		images = []string{}
	}

	now := time.Now()
	item := &models.Item{
		ID:          uuid.NewString(),
		UserID:      fields.UserID,
		Title:       fields.Title,
		Description: fields.Description,
		Price:       fields.Price,
		Category:    fields.Category,
		Location:    location,
		State:       state,
		Condition:   fields.Condition,
		PublishDate: fields.PublishDate,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperr.Internal("Failed to create item", err)
	}

	if len(files) > 0 {
		urls, err := s.uploadImages(ctx, item, files)
		if err != nil {
			// Compensating delete: the upload failed after the row was
			// created, so the row must go too.
			if delErr := s.items.Delete(ctx, item.ID); delErr != nil {
				s.logger.Error("compensating delete failed", zap.String("item_id", item.ID), zap.Error(delErr))
			}
			return nil, apperr.Internal("Failed to upload image", err)
		}
		if err := s.items.UpdateImages(ctx, item.ID, urls); err != nil {
			return nil, apperr.Internal("Failed to save image URLs", err)
		}
		item.Images = urls
	}

	s.logger.Info("item created", zap.String("item_id", item.ID), zap.Int64("user_id", item.UserID))
	return item, nil
}

// Update replaces the whitelisted fields of a non-sold item.
func (s *ItemService) Update(ctx context.Context, id string, fields ItemFields, files []ImageFile) (*models.Item, error) {
	item, err := s.items.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Item not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve item", err)
	}

	if !item.CanBeUpdated() {
		return nil, apperr.Conflict("Sold items cannot be updated")
	}

	owner, err := s.users.Get(ctx, fields.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load item owner", err)
	}

	location := fields.Location
	if location == "" {
		location = item.Location
	}
	if location == "" {
		location = fmt.Sprintf("%s, %s", owner.City, owner.State)
	}

	item.UserID = fields.UserID
	item.Title = fields.Title
	item.Description = fields.Description
	item.Price = fields.Price
	item.Category = fields.Category
	item.Location = location
	item.Condition = fields.Condition
	item.PublishDate = fields.PublishDate
	if fields.State != "" {
		item.State = fields.State
	}
	if fields.Images != nil {
		item.Images = fields.Images
	}

	if len(files) > 0 {
		urls, err := s.uploadImages(ctx, item, files)
		if err != nil {
			return nil, apperr.Internal("Failed to upload image", err)
		}
		item.Images = urls
	}

	if err := s.items.Update(ctx, item); err != nil {
		return nil, apperr.Internal("Failed to update item", err)
	}

	s.logger.Info("item updated", zap.String("item_id", item.ID))
	return item, nil
}

// Delete removes an item and returns the removed record. Sold or transacted
// items cannot be deleted.
func (s *ItemService) Delete(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.items.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Item not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve item", err)
	}

	if item.State == models.ItemStateSold {
		return nil, apperr.Conflict("Cannot delete sold items")
	}
	transacted, err := s.transactions.HasForItem(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Failed to check item transactions", err)
	}
	if transacted {
		return nil, apperr.Conflict("Cannot delete sold items")
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return nil, apperr.Internal("Failed to delete item", err)
	}

	s.logger.Info("item deleted", zap.String("item_id", id))
	return item, nil
}

func (s *ItemService) uploadImages(ctx context.Context, item *models.Item, files []ImageFile) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.uploads.Upload(ctx, item.ID, item.Title, f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
