package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jotnotes/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	closed  bool
}

func (m *memoryBackend) EnsureBucket(context.Context) error { return nil }

func (m *memoryBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return "memory" }

func (m *memoryBackend) Close() error {
	m.closed = true
	return nil
}

func TestStorage_Delegates(t *testing.T) {
	backend := &memoryBackend{objects: map[string][]byte{}}
	s := NewStorage(backend)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.json", strings.NewReader("{}"), 2, "application/json"))
	r, err := s.Get(ctx, "a/b.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	require.NoError(t, s.Delete(ctx, "a/b.json"))
	_, err = s.Get(ctx, "a/b.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.Equal(t, "memory", s.Bucket())
	require.NoError(t, s.Close())
	assert.True(t, backend.closed)
}

func TestNew_Selection(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.ErrorContains(t, err, "unsupported storage backend")

	_, err = New(context.Background(), config.StorageConfig{Backend: "minio"})
	assert.ErrorContains(t, err, "minio endpoint is required")

	_, err = New(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.ErrorContains(t, err, "s3 bucket is required")
}

func TestNewMinioClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinioConfig
		want string
	}{
		{name: "endpoint", cfg: config.MinioConfig{}, want: "endpoint"},
		{name: "keys", cfg: config.MinioConfig{Endpoint: "localhost:9000"}, want: "access key"},
		{name: "bucket", cfg: config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, want: "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinioClient(tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	client, err := NewMinioClient(config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "notes", client.Bucket())
}

func TestS3Client_GetMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
	}))
	defer srv.Close()

	client, err := NewS3Client(context.Background(), config.S3Config{
		Bucket:       "notes",
		Region:       "us-east-1",
		BaseEndpoint: srv.URL,
		AccessKey:    "test",
		SecretKey:    "test",
	})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "exports/1/missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
