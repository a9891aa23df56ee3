package deadletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// Archive keeps messages that could not be delivered.
type Archive interface {
	Store(ctx context.Context, topic string, msg message.Message, cause error) error
}

// objectStore is the part of *minio.Client the archive uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Entry is the JSON document written for every archived message.
type Entry struct {
	Topic    string       `json:"topic"`
	Cause    string       `json:"cause"`
	FailedAt time.Time    `json:"failed_at"`
	Message  message.Wire `json:"message"`
}

// MinioArchive writes undeliverable messages to a MinIO/S3 bucket, one object per
// message, named <prefix>/<topic>/<yyyy>/<mm>/<dd>/<uuid>.json.
type MinioArchive struct {
	cfg    Config
	client objectStore

	now   func() time.Time
	newID func() string

	logger   Logger
	observer observability.Observer
}

// NewMinioArchive connects to MinIO. The bucket is not touched until EnsureBucket or
// the first Store.
func NewMinioArchive(cfg Config) (*MinioArchive, error) {
	if cfg.Connection.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint cannot be empty")
	}

	client, err := minio.New(cfg.Connection.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Connection.AccessKeyID, cfg.Connection.SecretAccessKey, ""),
		Secure: cfg.Connection.UseSSL,
		Region: cfg.Connection.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newMinioArchive(cfg, client), nil
}

func newMinioArchive(cfg Config, client objectStore) *MinioArchive {
	return &MinioArchive{
		cfg:    cfg.withDefaults(),
		client: client,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithLogger attaches a logger to the archive.
func (a *MinioArchive) WithLogger(logger Logger) *MinioArchive {
	a.logger = logger
	return a
}

// WithObserver attaches an observer to the archive.
func (a *MinioArchive) WithObserver(observer observability.Observer) *MinioArchive {
	a.observer = observer
	return a
}

// Bucket returns the archive bucket.
func (a *MinioArchive) Bucket() string { return a.cfg.Bucket }

// EnsureBucket creates the bucket when it does not exist yet.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	start := time.Now()

	exists, err := a.client.BucketExists(ctx, a.cfg.Bucket)
	if err != nil {
		a.observeOperation("ensure_bucket", "", time.Since(start), err, 0)
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if exists {
		return nil
	}

	err = a.client.MakeBucket(ctx, a.cfg.Bucket, minio.MakeBucketOptions{Region: a.cfg.Connection.Region})
	if err != nil && minio.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou" {
		err = nil
	}
	a.observeOperation("ensure_bucket", "", time.Since(start), err, 0)
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	a.logInfo(ctx, "Created dead-letter bucket", map[string]interface{}{
		"bucket": a.cfg.Bucket,
	})
	return nil
}

// Store writes msg and the delivery failure that sent it here.
func (a *MinioArchive) Store(ctx context.Context, topic string, msg message.Message, cause error) error {
	start := time.Now()
	failedAt := a.now().UTC()

	entry := Entry{
		Topic:    topic,
		FailedAt: failedAt,
		Message:  msg.Wire(),
	}
	if cause != nil {
		entry.Cause = cause.Error()
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode dead-letter entry: %w", err)
	}

	key := ObjectKey(a.cfg.Prefix, topic, failedAt, a.newID())
	_, err = a.client.PutObject(ctx, a.cfg.Bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"topic": topic,
			"type":  msg.Type(),
			"event": msg.Event(),
		},
	})
	a.observeOperation("put", key, time.Since(start), err, int64(len(body)))
	if err != nil {
		return fmt.Errorf("failed to archive message to %s/%s: %w", a.cfg.Bucket, key, err)
	}

	a.logInfo(ctx, "Archived undelivered message", map[string]interface{}{
		"bucket": a.cfg.Bucket,
		"key":    key,
		"topic":  topic,
	})
	return nil
}

// ObjectKey returns the object name of an entry archived at t.
func ObjectKey(prefix, topic string, t time.Time, id string) string {
	return path.Join(prefix, topic, t.Format("2006/01/02"), id+".json")
}

func (a *MinioArchive) observeOperation(operation, objectKey string, duration time.Duration, err error, size int64) {
	if a.observer == nil {
		return
	}
	a.observer.ObserveOperation(observability.OperationContext{
		Component:   "minio",
		Operation:   operation,
		Resource:    a.cfg.Bucket,
		SubResource: objectKey,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}

func (a *MinioArchive) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}
