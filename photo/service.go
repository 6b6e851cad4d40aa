package photo

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"
)

// StoredPhoto is the result of saving a photo to the photo store.
type StoredPhoto struct {
	URL        string `json:"url"`
	StorageKey string `json:"storageKey"`
}

var (
	segmentPattern    = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	storageKeyPattern = regexp.MustCompile(`^photo_([A-Za-z0-9-]+)_([A-Za-z0-9-]+)_(\d+)$`)
)

// Service compresses uploads and keeps stored copies.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SavePhotoURL compresses one upload into a data URL.
func (s *Service) SavePhotoURL(r io.Reader) (string, error) {
	return CompressToDataURL(r)
}

// SaveMultiplePhotoURLs compresses uploads one at a time, in order. The
// first failure fails the whole batch.
func (s *Service) SaveMultiplePhotoURLs(files []io.Reader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for i, f := range files {
		url, err := s.SavePhotoURL(f)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", i+1, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// StorageKey builds photo_<reportId>_<type>_<unixMillis>.
func StorageKey(reportID, photoType string, at time.Time) (string, error) {
	if !segmentPattern.MatchString(reportID) || !segmentPattern.MatchString(photoType) {
		return "", fmt.Errorf("%w: report id and photo type may only contain letters, digits and dashes", ErrInvalidKey)
	}
	return fmt.Sprintf("photo_%s_%s_%d", reportID, photoType, at.UnixMilli()), nil
}

// ParseStorageKey returns the report id and photo type a key was built from.
func ParseStorageKey(key string) (reportID, photoType string, err error) {
	m := storageKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q is not a report photo key", ErrInvalidKey, key)
	}
	return m[1], m[2], nil
}

// SaveToStorage compresses the upload and stores it under a fresh key.
func (s *Service) SaveToStorage(ctx context.Context, r io.Reader, reportID, photoType string) (*StoredPhoto, error) {
	key, err := StorageKey(reportID, photoType, s.now())
	if err != nil {
		return nil, err
	}

	data, err := Compress(r)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, key, data); err != nil {
		return nil, err
	}
	return &StoredPhoto{URL: DataURL(data), StorageKey: key}, nil
}

// Get returns the stored photo as a data URL.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return DataURL(data), nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}
