package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
)

// PresignTTL is how long a download link stays valid.
const PresignTTL = time.Hour

var (
	// ErrTooLarge is returned for uploads above the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned for content outside the allowed types.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("empty file")
)

// allowed maps accepted content types to the extension stored in keys.
var allowed = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Detect checks size and sniffed content type of data.
func Detect(data []byte, maxBytes int64) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return "", "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), maxBytes)
	}
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok := allowed[m.String()]; ok {
			return m.String(), ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// Key builds the object key of a new upload.
func Key(entity, id, ext string) string {
	return path.Join(entity, id, uuid.NewString()+ext)
}

// Store is the object storage backend.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Uploader validates and stores files attached to records.
type Uploader struct {
	store    Store
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

// NewUploader wires an uploader. A nil store disables uploads.
func NewUploader(store Store, maxBytes int64, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{store: store, maxBytes: maxBytes, logger: logger, now: time.Now}
}

// Enabled reports whether a backend is configured.
func (u *Uploader) Enabled() bool { return u != nil && u.store != nil }

// MaxBytes is the accepted upload size.
func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload validates data and stores it under entity/id.
func (u *Uploader) Upload(ctx context.Context, entity, id, name string, data []byte) (models.Fichier, error) {
	if !u.Enabled() {
		return models.Fichier{}, errors.New("file storage is not configured")
	}
	contentType, ext, err := Detect(data, u.maxBytes)
	if err != nil {
		return models.Fichier{}, err
	}
	key := Key(entity, id, ext)
	if err := u.store.Put(ctx, key, data, contentType); err != nil {
		return models.Fichier{}, err
	}
	u.logger.Info("file stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return models.Fichier{
		Key:       key,
		Nom:       cleanName(name, ext),
		MimeType:  contentType,
		Taille:    int64(len(data)),
		DateAjout: u.now(),
	}, nil
}

// URL returns a temporary download link for key.
func (u *Uploader) URL(ctx context.Context, key string) (string, error) {
	if !u.Enabled() {
		return "", errors.New("file storage is not configured")
	}
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" {
		return "", models.NotFoundf("fichier introuvable")
	}
	return u.store.PresignedURL(ctx, key)
}

// Discard removes a stored object, logging failures.
func (u *Uploader) Discard(ctx context.Context, key string) {
	if !u.Enabled() {
		return
	}
	if err := u.store.Delete(ctx, key); err != nil {
		u.logger.Warn("failed to remove orphan file", zap.String("key", key), zap.Error(err))
	}
}

func cleanName(name, ext string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "fichier" + ext
	}
	return name
}

// MinioStore keeps objects in a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to endpoint and creates bucket when missing.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (m *MinioStore) PresignedURL(ctx context.Context, key string) (string, error) {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", models.NotFoundf("fichier introuvable")
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, PresignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
