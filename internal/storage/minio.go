package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/schoolhub/apiserver/config"
)

const awsS3Endpoint = "s3.amazonaws.com"

// MinioBackend talks to AWS S3 or any S3-compatible endpoint through the
// MinIO SDK.
type MinioBackend struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioBackend constructs an S3 backend from config. Without an endpoint
// URL it targets AWS. Without static keys it falls back to the AWS
// environment, shared credentials file and instance role, in that order.
func NewMinioBackend(cfg config.StorageConfig) (*MinioBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}
	region := NormalizeRegion(cfg.Region)

	host := awsS3Endpoint
	secure := true
	lookup := minio.BucketLookupDNS
	if endpoint := strings.TrimSpace(cfg.EndpointURL); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse storage endpoint: %w", err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("storage endpoint %q must include scheme and host", endpoint)
		}
		host = u.Host
		secure = u.Scheme == "https"
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        newCredentials(cfg),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, err
	}

	return &MinioBackend{
		client: client,
		bucket: cfg.Bucket,
		region: region,
	}, nil
}

func newCredentials(cfg config.StorageConfig) *credentials.Credentials {
	if strings.TrimSpace(cfg.AccessKey) != "" && strings.TrimSpace(cfg.SecretKey) != "" {
		return credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{},
		&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
	})
}

// EnsureBucket ensures the configured bucket exists.
func (m *MinioBackend) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
}

// Put uploads an object, replacing any existing object at key.
func (m *MinioBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get stats the object first so a missing key surfaces before any body is read.
func (m *MinioBackend) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	return obj, info.ContentType, nil
}

func (m *MinioBackend) PresignGet(ctx context.Context, key string, ttl time.Duration, params url.Values) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Bucket returns the configured bucket name.
func (m *MinioBackend) Bucket() string {
	return m.bucket
}

func isMinioNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
