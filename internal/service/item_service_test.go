package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rebornapp/reborn-golang/internal/apperr"
	"github.com/rebornapp/reborn-golang/internal/models"
	"github.com/rebornapp/reborn-golang/internal/search"
	"github.com/rebornapp/reborn-golang/internal/storage/memory"
)

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	uploaded int
	fail     bool
}

func (f *fakeUploader) Upload(ctx context.Context, itemID, title, fileName string, data []byte) (string, error) {
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.uploaded++
	return fmt.Sprintf("http://assets.local/items/%s/%s", itemID, fileName), nil
}

func newItemService(store *memory.Store, uploads *fakeUploader) *ItemService {
	return NewItemService(store.Items(), store.Users(), store.Transactions(), uploads, zap.NewNop())
}

func seedOwner(store *memory.Store) models.User {
	return store.SeedUser(models.User{Name: "Ana", City: "Valencia", State: "Valencia"})
}

func validItemFields(userID int64) ItemFields {
	return ItemFields{
		UserID:      userID,
		Title:       "Wooden chair",
		Description: "Solid oak, barely used",
		Price:       45,
		Category:    "furniture",
		Condition:   2,
		PublishDate: "2026-08-01",
	}
}

func TestItemCreateDefaults(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	svc := newItemService(store, &fakeUploader{})

	item, err := svc.Create(context.Background(), validItemFields(owner.ID), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, models.ItemStateAvailable, item.State)
	assert.Equal(t, "Valencia, Valencia", item.Location)
	require.NotNil(t, item.Images)
	assert.Empty(t, item.Images)
}

func TestItemCreateKeepsExplicitLocation(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	svc := newItemService(store, &fakeUploader{})

	fields := validItemFields(owner.ID)
	fields.Location = "Madrid, Madrid"
	fields.State = models.ItemStateReserved

	item, err := svc.Create(context.Background(), fields, nil)
	require.NoError(t, err)

	assert.Equal(t, "Madrid, Madrid", item.Location)
	assert.Equal(t, models.ItemStateReserved, item.State)
}

func TestItemCreateUnknownOwner(t *testing.T) {
	store := memory.NewStore()
	svc := newItemService(store, &fakeUploader{})

	_, err := svc.Create(context.Background(), validItemFields(99), nil)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, "User not found", ae.Message)
}

func TestItemCreateUploadsImages(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	uploads := &fakeUploader{}
	svc := newItemService(store, uploads)

	item, err := svc.Create(context.Background(), validItemFields(owner.ID), []ImageFile{
		{Name: "front.jpg", Data: []byte("xx")},
		{Name: "back.png", Data: []byte("yy")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, uploads.uploaded)
	require.Len(t, item.Images, 2)
	assert.Equal(t, item.Images, store.Item(item.ID).Images)
}

func TestItemCreateUploadFailureDeletesRecord(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	svc := newItemService(store, &fakeUploader{fail: true})

	_, err := svc.Create(context.Background(), validItemFields(owner.ID), []ImageFile{
		{Name: "front.jpg", Data: []byte("xx")},
	})
	require.Error(t, err)

	// No orphaned record survives the failed upload.
	items, listErr := store.Items().List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, items)
}

func TestItemCreateRejectsSoldState(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	svc := newItemService(store, &fakeUploader{})

	fields := validItemFields(owner.ID)
	fields.State = models.ItemStateSold

	_, err := svc.Create(context.Background(), fields, nil)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "state")

	items, listErr := store.Items().List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, items)
}

func TestItemUpdateUnknownOwner(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	store.SeedItem(models.Item{ID: "item-1", UserID: owner.ID, State: models.ItemStateAvailable, Location: "Valencia, Valencia"})
	svc := newItemService(store, &fakeUploader{})

	fields := validItemFields(99)
	fields.Location = "Madrid, Madrid"

	_, err := svc.Update(context.Background(), "item-1", fields, nil)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, "User not found", ae.Message)

	// The item keeps its real owner.
	assert.Equal(t, owner.ID, store.Item("item-1").UserID)
}

func TestItemUpdateSoldIsRejected(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	store.SeedItem(models.Item{ID: "sold-1", UserID: owner.ID, State: models.ItemStateSold, Location: "x"})
	svc := newItemService(store, &fakeUploader{})

	_, err := svc.Update(context.Background(), "sold-1", validItemFields(owner.ID), nil)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "Sold items cannot be updated", ae.Message)
}

func TestItemUpdateMayMarkSold(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	store.SeedItem(models.Item{ID: "item-1", UserID: owner.ID, State: models.ItemStateAvailable, Location: "x"})
	svc := newItemService(store, &fakeUploader{})

	fields := validItemFields(owner.ID)
	fields.State = models.ItemStateSold

	item, err := svc.Update(context.Background(), "item-1", fields, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStateSold, item.State)

	// Immutable from here on.
	_, err = svc.Update(context.Background(), "item-1", validItemFields(owner.ID), nil)
	require.Error(t, err)
}

func TestItemUpdateNotFound(t *testing.T) {
	store := memory.NewStore()
	owner := seedOwner(store)
	svc := newItemService(store, &fakeUploader{})

	_, err := svc.Update(context.Background(), "missing", validItemFields(owner.ID), nil)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestItemDeleteSoldIsRejected(t *testing.T) {
	store := memory.NewStore()
	store.SeedItem(models.Item{ID: "sold-1", State: models.ItemStateSold})
	svc := newItemService(store, &fakeUploader{})

	_, err := svc.Delete(context.Background(), "sold-1")

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "Cannot delete sold items", ae.Message)
}

func TestItemDeleteTransactedIsRejected(t *testing.T) {
	store := memory.NewStore()
	store.SeedItem(models.Item{ID: "item-1", State: models.ItemStateAvailable})
	require.NoError(t, store.Transactions().CreateAndMarkSold(context.Background(), &models.Transaction{ID: "t-1", ItemID: "item-1"}))
	// Force the item back to available; the transaction record alone must
	// still block deletion.
	item := store.Item("item-1")
	item.State = models.ItemStateAvailable
	require.NoError(t, store.Items().Update(context.Background(), item))

	svc := newItemService(store, &fakeUploader{})

	_, err := svc.Delete(context.Background(), "item-1")

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
}

func TestItemDeleteReturnsRemovedRecord(t *testing.T) {
	store := memory.NewStore()
	store.SeedItem(models.Item{ID: "item-1", Title: "Lamp", State: models.ItemStateAvailable})
	svc := newItemService(store, &fakeUploader{})

	item, err := svc.Delete(context.Background(), "item-1")
	require.NoError(t, err)

	assert.Equal(t, "Lamp", item.Title)
	assert.Nil(t, store.Item("item-1"))
}

func TestItemSearchInvalidDirective(t *testing.T) {
	store := memory.NewStore()
	svc := newItemService(store, &fakeUploader{})

	_, err := svc.Search(context.Background(), []search.Directive{{Column: "password", Value: "x"}})

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "Column 'password' is not searchable", ae.Message)
}

func TestItemSearchRuns(t *testing.T) {
	store := memory.NewStore()
	store.SeedItem(models.Item{ID: "a", Category: "books", Price: 10, State: models.ItemStateAvailable})
	store.SeedItem(models.Item{ID: "b", Category: "art", Price: 20, State: models.ItemStateAvailable})
	svc := newItemService(store, &fakeUploader{})

	items, err := svc.Search(context.Background(), []search.Directive{{Column: "category", Value: "books"}})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
}
