package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageUploadAndDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := NewLocalStorage(fs, "http://localhost:8080/media/")
	storage.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }

	url, err := storage.Upload(context.Background(), "issues/photos", "Pipe.JPG", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/media/issues/photos/20240301103000-"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	name := strings.TrimPrefix(url, "http://localhost:8080/media/")
	content, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(content))

	require.NoError(t, storage.Delete(context.Background(), url))
	exists, err := afero.Exists(fs, name)
	require.NoError(t, err)
	assert.False(t, exists)

	// a second delete is a no-op
	assert.NoError(t, storage.Delete(context.Background(), url))
}

func TestLocalStorageRejectsForeignURL(t *testing.T) {
	storage := NewLocalStorage(afero.NewMemMapFs(), "http://localhost:8080/media")

	assert.Error(t, storage.Delete(context.Background(), "https://elsewhere.example/file.jpg"))
	assert.Error(t, storage.Delete(context.Background(), "http://localhost:8080/media/../secret"))
}
