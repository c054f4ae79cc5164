package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type brokenReader struct {
	sent bool
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("client disconnected")
	}
	r.sent = true
	return copy(p, "partial-jpeg"), nil
}

func TestGCSStorageUploadAbortsOnReadError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"obj","bucket":"media"}`))
	}))
	defer srv.Close()

	storage, err := newGCSStorage(context.Background(), "media", "",
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	defer storage.Close()

	_, err = storage.Upload(context.Background(), "issues/photos", "pipe.jpg", "image/jpeg", &brokenReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client disconnected")

	assert.Never(t, func() bool { return requests.Load() > 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestGCSStorageDeleteRejectsForeignURL(t *testing.T) {
	storage, err := newGCSStorage(context.Background(), "media", "https://cdn.test/media",
		option.WithEndpoint("http://127.0.0.1:0/storage/v1/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	defer storage.Close()

	err = storage.Delete(context.Background(), "https://elsewhere.test/issues/a.jpg")
	assert.Error(t, err)
}
