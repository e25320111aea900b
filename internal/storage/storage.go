// Package storage wraps the S3-compatible object store holding booking
// proposal documents and profile avatars.
package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/carrelhq/carrel/internal/config"
)

// ObjectStore is the subset of object operations the handlers need. The
// minio client satisfies it through clientWrapper; tests substitute an
// in-memory implementation.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string) error
}

// Store binds an ObjectStore to the configured bucket names.
type Store struct {
	client         ObjectStore
	proposalBucket string
	avatarBucket   string
}

// New creates a minio-backed Store from configuration. Returns nil with no
// error when no endpoint is configured; callers treat a nil Store as
// "uploads disabled".
func New(cfg config.ObjectStoreConfig) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return NewWithClient(&clientWrapper{client}, cfg.ProposalBucket, cfg.AvatarBucket), nil
}

// NewWithClient builds a Store around any ObjectStore implementation.
func NewWithClient(client ObjectStore, proposalBucket, avatarBucket string) *Store {
	return &Store{
		client:         client,
		proposalBucket: proposalBucket,
		avatarBucket:   avatarBucket,
	}
}

// ProposalKey builds the object key for a booking's proposal document.
func ProposalKey(bookingID int64, filename string) string {
	return fmt.Sprintf("proposals/%d/%s", bookingID, sanitizeFilename(filename))
}

// AvatarKey builds the object key for a user's avatar image.
func AvatarKey(userID int64, filename string) string {
	ext := path.Ext(sanitizeFilename(filename))
	return fmt.Sprintf("avatars/%d%s", userID, ext)
}

func (s *Store) PutProposal(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	return s.client.PutObject(ctx, s.proposalBucket, key, reader, size, contentType)
}

func (s *Store) GetProposal(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, s.proposalBucket, key)
}

func (s *Store) RemoveProposal(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.proposalBucket, key)
}

func (s *Store) PutAvatar(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	return s.client.PutObject(ctx, s.avatarBucket, key, reader, size, contentType)
}

func (s *Store) GetAvatar(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, s.avatarBucket, key)
}

func (s *Store) RemoveAvatar(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.avatarBucket, key)
}

// sanitizeFilename strips any path components and characters that would make
// an object key ambiguous.
func sanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	filename = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, filename)
	if filename == "" || filename == "." {
		return "file"
	}
	return filename
}

type clientWrapper struct {
	client *minio.Client
}

func (c *clientWrapper) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (c *clientWrapper) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat forces the first request so missing keys fail here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (c *clientWrapper) RemoveObject(ctx context.Context, bucket, key string) error {
	return c.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}
