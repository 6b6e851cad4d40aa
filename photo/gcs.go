package photo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore keeps photos as objects under photos/<key>.jpg in a Cloud
// Storage bucket, normally the project's Firebase Storage bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
}

func NewGCSStore(bucket *storage.BucketHandle) *GCSStore {
	return &GCSStore{bucket: bucket}
}

func (s *GCSStore) object(key string) (*storage.ObjectHandle, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return s.bucket.Object("photos/" + key + ".jpg"), nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "image/jpeg"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload to storage: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload to storage: %w", err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.object(key)
	if err != nil {
		return nil, err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to download from storage: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage object: %w", err)
	}
	return data, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	obj, err := s.object(key)
	if err != nil {
		return err
	}

	if err := obj.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("failed to delete from storage: %w", err)
	}
	return nil
}
