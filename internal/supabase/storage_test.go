package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"employee-poll-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	urlPath := path.Clean(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case (r.Method == http.MethodPost || r.Method == http.MethodPut) && strings.HasPrefix(urlPath, "/storage/v1/object/nominee-images/"):
		key := strings.TrimPrefix(urlPath, "/storage/v1/object/nominee-images/")
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		json.NewEncoder(w).Encode(map[string]string{"Key": "nominee-images/" + key})
	case r.Method == http.MethodDelete && urlPath == "/storage/v1/object/nominee-images":
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		b.removed = append(b.removed, body.Prefixes...)
		w.Write([]byte("[]"))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"statusCode":"404","error":"not found","message":"not found"}`))
	}
}

func newTestStorage(t *testing.T) (*StorageClient, *fakeBucket) {
	bucket := &fakeBucket{objects: make(map[string][]byte)}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL+"/", "service-key")
	require.NoError(t, err)
	return NewStorageClient(client, "nominee-images"), bucket
}

func TestStorageClient_Save(t *testing.T) {
	s, bucket := newTestStorage(t)

	url, err := s.Save(context.Background(), "nominee-1-000000001.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/storage/v1/object/public/nominee-images/nominees/nominee-1-000000001.png"))
	assert.Equal(t, []byte("png"), bucket.objects["nominees/nominee-1-000000001.png"])
}

func TestStorageClient_Delete(t *testing.T) {
	s, bucket := newTestStorage(t)

	url := s.GetPublicURL("nominees/a.jpg")
	require.NoError(t, s.Delete(context.Background(), url))
	assert.Equal(t, []string{"nominees/a.jpg"}, bucket.removed)

	err := s.Delete(context.Background(), "https://elsewhere.example/a.jpg")
	assert.ErrorIs(t, err, models.ErrValidation)
}
