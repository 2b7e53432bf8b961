package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/types"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBucket struct {
	objects      map[string]string
	contentTypes map[string]string
	err          error
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{
		objects:      make(map[string]string),
		contentTypes: make(map[string]string),
	}
}

func (m *memoryBucket) EnsureBucket(context.Context) error { return nil }

func (m *memoryBucket) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.objects[key] = string(data)
	m.contentTypes[key] = contentType
	return nil
}

func (m *memoryBucket) Bucket() string { return "eduwrite" }

func testRecord() types.UsageRecord {
	return types.UsageRecord{
		ID:          12,
		UserID:      3,
		Topic:       "Photosynthesis",
		ContentType: "Summary",
		Level:       "Beginner",
		Response:    "Plants turn light into sugar.",
		CreatedAt:   time.Date(2026, 5, 6, 8, 30, 0, 0, time.UTC),
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "usage/3/12.md", ObjectKey(testRecord()))
}

func TestRenderMarkdown(t *testing.T) {
	want := "# Photosynthesis\n\n" +
		"- User: 3\n" +
		"- Content type: Summary\n" +
		"- Level: Beginner\n" +
		"- Created: 2026-05-06T08:30:00Z\n" +
		"\n" +
		"Plants turn light into sugar.\n"
	assert.Equal(t, want, string(RenderMarkdown(testRecord())))
}

func TestArchive(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	bucket := newMemoryBucket()
	archiver := NewArchiver(bucket, logger)

	key, err := archiver.Archive(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, "usage/3/12.md", key)
	assert.Contains(t, bucket.objects[key], "Plants turn light into sugar.")
	assert.Equal(t, markdownContentType, bucket.contentTypes[key])
}

func TestArchivePutError(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	bucket := newMemoryBucket()
	bucket.err = errors.New("bucket gone")

	_, err := NewArchiver(bucket, logger).Archive(context.Background(), testRecord())
	assert.ErrorIs(t, err, bucket.err)
}

func TestNewBackendValidation(t *testing.T) {
	_, err := NewBackend(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.EqualError(t, err, `unknown storage backend "s3"`)

	_, err = NewBackend(context.Background(), config.StorageConfig{Backend: "minio"})
	assert.EqualError(t, err, "minio endpoint is required")

	_, err = NewBackend(context.Background(), config.StorageConfig{
		Backend: "minio",
		Minio:   config.MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"},
	})
	assert.EqualError(t, err, "minio bucket is required")

	_, err = NewBackend(context.Background(), config.StorageConfig{Backend: "gcs"})
	assert.EqualError(t, err, "gcs bucket is required")
}

func TestNewMinioClient(t *testing.T) {
	client, err := NewMinioClient(config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "eduwrite",
	})
	require.NoError(t, err)
	assert.Equal(t, "eduwrite", client.Bucket())
}
