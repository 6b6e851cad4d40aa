package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"vendtrack/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("AUTH_PROVIDER", "local")
	t.Setenv("PHOTO_BACKEND", "memory")
	return config.Load()
}

func TestBuild_MemoryBackends(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(t))
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Auth)
	assert.NotNil(t, app.Reports)
	assert.NotNil(t, app.Photos)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuild_LocalPhotoDir(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Photos.Backend = "local"
	cfg.Photos.Dir = t.TempDir()

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, app.Close())
}

func TestBuild_UnknownBackends(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Photos.Backend = "ftp"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig(t)
	cfg.Auth.Provider = "ldap"
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)
}
