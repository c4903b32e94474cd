// Package assets talks to the external image host. Uploads never run inside
// a storage transaction; the item service compensates by deleting the item
// row if an upload fails after creation.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Uploader stores one image for an item and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, itemID, title, fileName string, data []byte) (string, error)
}

// MinIOStore keeps item images in a MinIO bucket, one folder per item.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewMinIOStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *zap.Logger) (*MinIOStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: %w", bucket, err)
		}
	}

	logger.Info("asset store ready", zap.String("endpoint", endpoint), zap.String("bucket", bucket))
	return &MinIOStore{client: client, bucket: bucket, logger: logger}, nil
}

// Upload writes the image under items/{itemId}/{title-slug}-{uuid}{ext} so
// everything for one item lives in one folder.
func (s *MinIOStore) Upload(ctx context.Context, itemID, title, fileName string, data []byte) (string, error) {
	ext := filepath.Ext(fileName)
	objectKey := fmt.Sprintf("items/%s/%s-%s%s", itemID, slug.Make(title), uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Error("image upload failed", zap.String("item_id", itemID), zap.String("key", objectKey), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey), nil
}
