package supabase

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"employee-poll-backend/internal/models"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient stores nominee images in a Supabase Storage bucket.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(c *Client, bucket string) *StorageClient {
	return &StorageClient{
		client:  c.Supabase.Storage,
		bucket:  bucket,
		baseURL: c.baseURL,
	}
}

// Save uploads data to nominees/<filename> and returns its public URL.
func (s *StorageClient) Save(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	storagePath := "nominees/" + filename

	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to upload file: %w", models.ErrStorage, err)
	}

	return s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) Delete(ctx context.Context, publicURL string) error {
	storagePath := strings.TrimPrefix(publicURL, s.GetPublicURL(""))
	if storagePath == "" || storagePath == publicURL {
		return fmt.Errorf("%w: %q is not an object of bucket %s", models.ErrValidation, publicURL, s.bucket)
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{storagePath}); err != nil {
		return fmt.Errorf("%w: failed to delete file: %w", models.ErrStorage, err)
	}
	return nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}
