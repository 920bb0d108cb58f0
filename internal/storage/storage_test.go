package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/battery-scm/backend-go/internal/config"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.PutObject(ctx, "runs/b.json", []byte(`{"b":1}`), "application/json"))
	require.NoError(t, s.PutObject(ctx, "runs/a.json", []byte(`{}`), "application/json"))
	require.NoError(t, s.PutObject(ctx, "other/c.json", []byte(`{}`), "application/json"))

	objects, err := s.ListObjects(ctx, "runs/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "runs/a.json", objects[0].Key)
	assert.Equal(t, int64(7), objects[1].Size)

	data, err := s.GetObject(ctx, "runs/b.json")
	require.NoError(t, err)
	assert.Equal(t, `{"b":1}`, string(data))

	data[0] = 'x'
	again, _ := s.GetObject(ctx, "runs/b.json")
	assert.Equal(t, byte('{'), again[0])

	_, err = s.GetObject(ctx, "runs/missing.json")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestNewMinioClient_Validation(t *testing.T) {
	valid := config.ArchiveConfig{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "mrp-runs"}

	_, err := NewMinioClient(valid)
	require.NoError(t, err)

	for name, mutate := range map[string]func(*config.ArchiveConfig){
		"no endpoint": func(c *config.ArchiveConfig) { c.Endpoint = "" },
		"no secret":   func(c *config.ArchiveConfig) { c.SecretKey = "" },
		"no bucket":   func(c *config.ArchiveConfig) { c.Bucket = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			_, err := NewMinioClient(cfg)
			assert.Error(t, err)
		})
	}
}

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://s3.example.com", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000/", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}
