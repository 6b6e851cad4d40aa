package photo

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveMultiplePhotoURLs_KeepsOrder(t *testing.T) {
	svc := NewService(NewMemoryStore())

	urls, err := svc.SaveMultiplePhotoURLs([]io.Reader{
		bytes.NewReader(pngImage(t, 1000, 500)),
		bytes.NewReader(pngImage(t, 100, 300)),
	})
	require.NoError(t, err)
	require.Len(t, urls, 2)

	w, _ := decodedSize(t, urls[0])
	assert.Equal(t, 800, w)
	w, _ = decodedSize(t, urls[1])
	assert.Equal(t, 100, w)
}

func TestSaveMultiplePhotoURLs_FirstFailureFailsBatch(t *testing.T) {
	svc := NewService(NewMemoryStore())

	urls, err := svc.SaveMultiplePhotoURLs([]io.Reader{
		bytes.NewReader(pngImage(t, 10, 10)),
		strings.NewReader("broken"),
		bytes.NewReader(pngImage(t, 10, 10)),
	})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "photo 2")
	assert.Nil(t, urls)
}

func TestSaveToStorage(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	svc.now = func() time.Time { return time.UnixMilli(1714555800123) }

	stored, err := svc.SaveToStorage(ctx, bytes.NewReader(pngImage(t, 50, 40)), "DGS-00120240501", "before")
	require.NoError(t, err)
	assert.Equal(t, "photo_DGS-00120240501_before_1714555800123", stored.StorageKey)
	assert.True(t, strings.HasPrefix(stored.URL, dataURLPrefix))

	got, err := svc.Get(ctx, stored.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, stored.URL, got)

	require.NoError(t, svc.Delete(ctx, stored.StorageKey))
	_, err = svc.Get(ctx, stored.StorageKey)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, stored.StorageKey), ErrPhotoNotFound)
}

func TestSaveToStorage_RejectsUnsafeSegments(t *testing.T) {
	svc := NewService(NewMemoryStore())

	_, err := svc.SaveToStorage(context.Background(), bytes.NewReader(pngImage(t, 5, 5)), "../etc", "before")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "photo_r1_after_1", []byte{1, 2, 3}))
	data, err := store.Get(ctx, "photo_r1_after_1")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	require.NoError(t, store.Delete(ctx, "photo_r1_after_1"))
	_, err = store.Get(ctx, "photo_r1_after_1")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "photo_r1_after_1"), ErrPhotoNotFound)

	assert.ErrorIs(t, store.Put(ctx, "../../escape", []byte{1}), ErrInvalidKey)
}

func TestParseStorageKey(t *testing.T) {
	reportID, photoType, err := ParseStorageKey("photo_DGS-00120240501_before_1714555800123")
	require.NoError(t, err)
	assert.Equal(t, "DGS-00120240501", reportID)
	assert.Equal(t, "before", photoType)

	for _, key := range []string{"DGS-001", "photo_DGS-001_before", "photo__before_1", "photo_a_b_c"} {
		_, _, err := ParseStorageKey(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
