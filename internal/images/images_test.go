package images

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superversivesf/saga-importer/internal/database"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90wS\xde")

type memStore struct {
	images map[string][]byte
	saves  int
}

func newMemStore() *memStore { return &memStore{images: map[string][]byte{}} }

func (m *memStore) GetImage(_ context.Context, id string) (*database.Image, error) {
	data, ok := m.images[id]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", id, database.ErrNotFound)
	}
	return &database.Image{ID: id, Data: data}, nil
}

func (m *memStore) SaveImage(_ context.Context, img *database.Image) error {
	m.saves++
	m.images[img.ID] = img.Data
	return nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cover.png", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "saga-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>not an image</body></html>"))
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t)
	d := NewDownloader(srv.Client(), "saga-test")

	data, err := d.Fetch(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestFetch_Rejects(t *testing.T) {
	srv := newServer(t)

	_, err := NewDownloader(srv.Client(), "saga-test").Fetch(context.Background(), srv.URL+"/page.html")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = NewDownloader(srv.Client(), "saga-test").Fetch(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)

	_, err = NewDownloader(srv.Client(), "saga-test", WithMaxBytes(8)).Fetch(context.Background(), srv.URL+"/cover.png")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestStore(t *testing.T) {
	srv := newServer(t)
	d := NewDownloader(srv.Client(), "saga-test")
	store := newMemStore()
	ctx := context.Background()

	saved, err := d.Store(ctx, store, "book-1", srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, pngBytes, store.images["book-1"])

	// already stored images are not downloaded again
	saved, err = d.Store(ctx, store, "book-1", srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, 1, store.saves)

	saved, err = d.Store(ctx, store, "book-2", "")
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestStore_DownloadFailureSavesNothing(t *testing.T) {
	srv := newServer(t)
	store := newMemStore()

	_, err := NewDownloader(srv.Client(), "saga-test").Store(context.Background(), store, "a-1", srv.URL+"/page.html")
	assert.Error(t, err)
	assert.Empty(t, store.images)
}
