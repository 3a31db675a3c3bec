package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/schoolhub/apiserver/config"
)

const (
	// ChunkSize is the read size used when streaming an object.
	ChunkSize = 8 << 10

	DefaultContentType = "application/octet-stream"
	DefaultPresignTTL  = 900 * time.Second
	DefaultRegion      = "us-east-1"
)

// ErrObjectNotFound is returned by backends when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

var regionPattern = regexp.MustCompile(`^[a-z]{2}-[a-z]+-\d$`)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns the object body and its declared content type, or
	// ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration, params url.Values) (string, error)
	Bucket() string
}

// Gateway wraps an ObjectStorage backend with key derivation and canonical
// object URLs.
type Gateway struct {
	backend    ObjectStorage
	bucket     string
	region     string
	endpoint   *url.URL
	presignTTL time.Duration
}

// NewGateway constructs a Gateway over backend. A non-empty EndpointURL
// selects path-style object URLs; otherwise AWS virtual-hosted URLs are used.
func NewGateway(backend ObjectStorage, cfg config.StorageConfig) (*Gateway, error) {
	g := &Gateway{
		backend:    backend,
		bucket:     backend.Bucket(),
		region:     NormalizeRegion(cfg.Region),
		presignTTL: cfg.PresignTTL,
	}
	if g.presignTTL <= 0 {
		g.presignTTL = DefaultPresignTTL
	}
	if endpoint := strings.TrimSpace(cfg.EndpointURL); endpoint != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse storage endpoint: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("storage endpoint %q must include scheme and host", endpoint)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
		u.RawQuery = ""
		u.Fragment = ""
		g.endpoint = u
	}
	return g, nil
}

// DeriveKey returns the storage key for a student's document.
// Names are trimmed but otherwise kept verbatim, so equal names overwrite.
func DeriveKey(studentID int, documentName string) string {
	return "students/" + strconv.Itoa(studentID) + "/" + strings.TrimSpace(documentName)
}

// NormalizeRegion returns region when it looks like an AWS region and
// DefaultRegion otherwise.
func NormalizeRegion(region string) string {
	region = strings.TrimSpace(region)
	if regionPattern.MatchString(region) {
		return region
	}
	return DefaultRegion
}

// KeyFromURL parses an object URL and returns its path with a leading
// "{bucket}/" removed when present.
func KeyFromURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if bucket != "" {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	return key, nil
}

func (g *Gateway) Bucket() string {
	return g.bucket
}

func (g *Gateway) Region() string {
	return g.region
}

// ObjectURL returns the canonical URL stored alongside an uploaded object.
func (g *Gateway) ObjectURL(key string) string {
	if g.endpoint != nil {
		u := *g.endpoint
		u.Path = g.endpoint.Path + "/" + g.bucket + "/" + key
		return u.String()
	}
	u := url.URL{
		Scheme: "https",
		Host:   g.virtualHost(),
		Path:   "/" + key,
	}
	return u.String()
}

// KeyFromURL inverts ObjectURL for this gateway's configuration.
func (g *Gateway) KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}
	switch {
	case g.endpoint != nil && u.Host == g.endpoint.Host:
		p := strings.TrimPrefix(u.Path, g.endpoint.Path)
		return strings.TrimPrefix(strings.TrimPrefix(p, "/"), g.bucket+"/"), nil
	case g.endpoint == nil && u.Host == g.virtualHost():
		return strings.TrimPrefix(u.Path, "/"), nil
	}
	return KeyFromURL(rawURL, g.bucket)
}

func (g *Gateway) EnsureBucket(ctx context.Context) error {
	return g.backend.EnsureBucket(ctx)
}

// Upload stores r under key and returns the object URL.
func (g *Gateway) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if strings.TrimSpace(contentType) == "" {
		contentType = DefaultContentType
	}
	if err := g.backend.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return g.ObjectURL(key), nil
}

// PresignDownload returns a time-limited GET URL. A zero ttl uses the
// configured default. filename adds an inline content-disposition hint.
func (g *Gateway) PresignDownload(ctx context.Context, key string, ttl time.Duration, filename, contentType string) (string, error) {
	if ttl <= 0 {
		ttl = g.presignTTL
	}
	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", ContentDisposition("inline", filename))
	}
	if contentType != "" {
		params.Set("response-content-type", contentType)
	}
	return g.backend.PresignGet(ctx, key, ttl, params)
}

// Open fetches an object for streaming.
func (g *Gateway) Open(ctx context.Context, key string) (*Object, error) {
	body, contentType, err := g.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = DefaultContentType
	}
	return &Object{Body: body, ContentType: contentType}, nil
}

func (g *Gateway) virtualHost() string {
	return g.bucket + ".s3." + g.region + ".amazonaws.com"
}

var filenameEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ContentDisposition renders a Content-Disposition value with a quoted
// filename. Names outside printable ASCII use the RFC 2231 filename* form.
func ContentDisposition(disposition, filename string) string {
	for _, r := range filename {
		if r < 0x20 || r > 0x7e {
			if v := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); v != "" {
				return v
			}
			return disposition
		}
	}
	return disposition + `; filename="` + filenameEscaper.Replace(filename) + `"`
}
