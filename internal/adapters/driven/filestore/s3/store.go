// Package s3 provides a driven.FileStore backed by an S3 compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/custodia-labs/ragline/internal/core/domain"
	"github.com/custodia-labs/ragline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.FileStore = (*Store)(nil)

// Config addresses the bucket.
type Config struct {
	Bucket string
	Region string

	// Endpoint targets an S3 compatible server such as MinIO.
	Endpoint string

	// Prefix is prepended to every object key.
	Prefix string

	// AccessKeyID and SecretAccessKey select static credentials. When
	// empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// PublicURL replaces the bucket address in returned URLs, e.g. a CDN.
	PublicURL string

	UsePathStyle bool
}

// Store writes uploads as objects.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	base   string
}

// New creates a Store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, domain.NewConfigurationError("storage.s3.bucket", "is required for the s3 file store")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		base:   baseURL(cfg),
	}, nil
}

// baseURL is the address objects are reachable at, without the key.
func baseURL(cfg Config) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		ep := strings.TrimRight(cfg.Endpoint, "/")
		if cfg.UsePathStyle {
			return ep + "/" + cfg.Bucket
		}
		if u, err := url.Parse(ep); err == nil && u.Host != "" {
			u.Host = cfg.Bucket + "." + u.Host
			return u.String()
		}
		return ep + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Save uploads the content. Non-seekable readers are buffered because
// request signing needs the payload length.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", domain.NewValidationError("filename", fmt.Sprintf("invalid file name %q", name))
	}

	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		body = bytes.NewReader(data)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   body,
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", name, err)
	}
	return s.URL(name), nil
}

// Open downloads the object.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return out.Body, nil
}

// URL returns the object's public address.
func (s *Store) URL(name string) string {
	return s.base + "/" + (&url.URL{Path: s.key(name)}).EscapedPath()
}
