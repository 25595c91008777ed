package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned by Open for a missing object.
var ErrObjectNotFound = errors.New("object not found")

// StorageService stores uploaded documents and generated receipts.
type StorageService interface {
	Put(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error
	// PresignedURL returns a temporary download URL, or "" when the backend
	// serves objects itself through Open.
	PresignedURL(ctx context.Context, objectName string) (string, error)
	Open(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
	EnsureBucketExists(ctx context.Context) error
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// SanitizeUploadName replaces every character outside [a-zA-Z0-9.-_] with
// an underscore.
func SanitizeUploadName(name string) string {
	return unsafeNameChars.ReplaceAllString(filepath.Base(name), "_")
}

// UploadObjectName is the stored name of an uploaded file:
// <unix millis>-<sanitized name>.
func UploadObjectName(name string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeUploadName(name))
}

type minioStorage struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
	logger     *zap.Logger
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string, presignTTL time.Duration, logger *zap.Logger) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client, bucket: bucket, presignTTL: presignTTL, logger: logger}, nil
}

func (m *minioStorage) Put(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectName, err)
	}
	m.logger.Debug("Stored object", zap.String("bucket", m.bucket), zap.String("object", objectName))
	return nil
}

func (m *minioStorage) PresignedURL(ctx context.Context, objectName string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, m.presignTTL, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStorage) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (m *minioStorage) Delete(ctx context.Context, objectName string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
}

func (m *minioStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		m.logger.Info("Creating bucket", zap.String("bucket", m.bucket))
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// diskStorage keeps objects as flat files under dir.
type diskStorage struct {
	dir    string
	logger *zap.Logger
}

func NewDiskStorage(dir string, logger *zap.Logger) StorageService {
	return &diskStorage{dir: dir, logger: logger}
}

func (d *diskStorage) path(objectName string) string {
	return filepath.Join(d.dir, filepath.Base(objectName))
}

func (d *diskStorage) Put(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	f, err := os.Create(d.path(objectName))
	if err != nil {
		return fmt.Errorf("create %s: %w", objectName, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("write %s: %w", objectName, err)
	}
	return nil
}

func (d *diskStorage) PresignedURL(ctx context.Context, objectName string) (string, error) {
	return "", nil
}

func (d *diskStorage) Open(ctx context.Context, objectName string) (io.ReadCloser, error) {
	f, err := os.Open(d.path(objectName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return f, nil
}

func (d *diskStorage) Delete(ctx context.Context, objectName string) error {
	err := os.Remove(d.path(objectName))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (d *diskStorage) EnsureBucketExists(ctx context.Context) error {
	return os.MkdirAll(d.dir, 0o755)
}
