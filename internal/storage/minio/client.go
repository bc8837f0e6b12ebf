package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"filestorage/internal/storage"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	UsePathStyle    bool
	CreateBucket    bool
}

// Client реализует storage.Storage поверх MinIO
type Client struct {
	client *minio.Client
	bucket string
}

var _ storage.Storage = (*Client)(nil)

// NewClient создает клиента MinIO. При CreateBucket отсутствующий бакет создается.
func NewClient(ctx context.Context, conf *Config) (*Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if conf.Endpoint == "" || conf.Bucket == "" {
		return nil, fmt.Errorf("missing required configuration: endpoint and bucket are required")
	}

	endpoint, secure := splitEndpoint(conf.Endpoint, conf.UseSSL)
	options := &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKeyID, conf.SecretAccessKey, ""),
		Secure: secure,
		Region: conf.Region,
	}
	if conf.UsePathStyle {
		options.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	c := &Client{client: client, bucket: conf.Bucket}

	exists, err := client.BucketExists(ctx, conf.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: check bucket %s: %w", conf.Bucket, err)
	}
	if !exists {
		if !conf.CreateBucket {
			return nil, fmt.Errorf("minio: bucket %s does not exist", conf.Bucket)
		}
		if err := client.MakeBucket(ctx, conf.Bucket, minio.MakeBucketOptions{Region: conf.Region}); err != nil {
			return nil, fmt.Errorf("minio: create bucket %s: %w", conf.Bucket, err)
		}
		slog.Info("bucket created", "bucket", conf.Bucket)
	}

	return c, nil
}

// Ping проверяет доступность бакета
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket %s: %w", c.bucket, err)
	}
	if !ok {
		return fmt.Errorf("minio: bucket %s does not exist", c.bucket)
	}
	return nil
}

func (c *Client) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("minio: put object: %w", err)
	}
	return nil
}

func (c *Client) GetObject(ctx context.Context, key string) (storage.Object, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("minio: get object: %w", err)
	}

	// GetObject ленивый: ошибки отсутствия объекта появляются только после Stat.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
		}
		return nil, fmt.Errorf("minio: stat object: %w", err)
	}

	return storage.NewObject(obj, info.Size, info.ContentType), nil
}

func (c *Client) DeleteObject(ctx context.Context, key string) error {
	err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("minio: remove object: %w", err)
	}
	return nil
}

func (c *Client) PresignGetObject(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("minio: presign object: %w", err)
	}
	return u.String(), nil
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	}
	return endpoint, useSSL
}

func isNotFound(err error) bool {
	errResp := minio.ErrorResponse{}
	if errors.As(err, &errResp) {
		return errResp.StatusCode == http.StatusNotFound || errResp.Code == "NoSuchKey"
	}
	return false
}
