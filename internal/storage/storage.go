package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/internal/metrics"
	"github.com/eduwrite/apiserver/types"
	"github.com/sirupsen/logrus"
)

const markdownContentType = "text/markdown; charset=utf-8"

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// NewBackend constructs the object store selected by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Archiver writes usage records to object storage as Markdown documents.
type Archiver struct {
	backend ObjectStorage
	logger  logrus.FieldLogger
}

func NewArchiver(backend ObjectStorage, logger logrus.FieldLogger) *Archiver {
	return &Archiver{
		backend: backend,
		logger:  logger,
	}
}

// EnsureBucket ensures the configured bucket exists.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}

// Archive uploads record and returns its object key. Re-archiving a record
// overwrites the same key.
func (a *Archiver) Archive(ctx context.Context, record types.UsageRecord) (string, error) {
	key := ObjectKey(record)
	body := RenderMarkdown(record)

	if err := a.backend.Put(ctx, key, bytes.NewReader(body), int64(len(body)), markdownContentType); err != nil {
		metrics.RecordUsageArchived("failed")
		return "", fmt.Errorf("put %s/%s: %w", a.backend.Bucket(), key, err)
	}

	metrics.RecordUsageArchived("ok")
	a.logger.WithFields(logrus.Fields{
		"bucket":   a.backend.Bucket(),
		"key":      key,
		"usage_id": record.ID,
	}).Info("usage record archived")
	return key, nil
}

// ObjectKey returns usage/<user_id>/<record_id>.md.
func ObjectKey(record types.UsageRecord) string {
	return fmt.Sprintf("usage/%d/%d.md", record.UserID, record.ID)
}

func RenderMarkdown(record types.UsageRecord) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(record.Topic))
	fmt.Fprintf(&b, "- User: %d\n", record.UserID)
	if record.ContentType != "" {
		fmt.Fprintf(&b, "- Content type: %s\n", record.ContentType)
	}
	if record.Level != "" {
		fmt.Fprintf(&b, "- Level: %s\n", record.Level)
	}
	if !record.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Created: %s\n", record.CreatedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")
	b.WriteString(record.Response)
	if !strings.HasSuffix(record.Response, "\n") {
		b.WriteString("\n")
	}
	return []byte(b.String())
}
