package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"image-gateway/internal/shared/storage/object"
)

// Options configures the S3 store.
type Options struct {
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for LocalStack.
	Endpoint string
	// PublicBaseURL, when set, replaces the virtual-hosted bucket URL in PublicURL.
	PublicBaseURL string
	UsePathStyle  bool
}

// Store implements ObjectStore using Amazon S3. Logical bucket names map 1:1 to S3 buckets.
type Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	region     string
	publicBase string
}

// New loads the default AWS credential chain and builds an S3-backed store.
func New(ctx context.Context, opts Options) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewFromConfig(cfg, opts), nil
}

// NewFromConfig builds a store from an already-resolved AWS config.
func NewFromConfig(cfg aws.Config, opts Options) *Store {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	region := opts.Region
	if region == "" {
		region = cfg.Region
	}
	return &Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		region:     region,
		publicBase: strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/"),
	}
}

// Put uploads the reader to bucket/key. Without Upsert the write is conditional
// on the key not existing.
func (s *Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, opts object.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := putInput(bucket, key, r, size, opts)
	if _, err := s.client.PutObject(ctx, input); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("s3 put object bucket=%s key=%s: %w", bucket, key, object.ErrObjectExists)
		}
		return fmt.Errorf("s3 put object bucket=%s key=%s: %w", bucket, key, err)
	}
	return nil
}

// PublicURL returns the permanent URL of bucket/key.
func (s *Store) PublicURL(bucket, key string) string {
	if s.publicBase != "" {
		return object.JoinURL(s.publicBase, bucket, key)
	}
	region := s.region
	if region == "" {
		region = "us-east-1"
	}
	return object.JoinURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region), "", key)
}

// SignedURL presigns a GET for bucket/key valid for ttl.
func (s *Store) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign get bucket=%s key=%s: %w", bucket, key, err)
	}
	return out.URL, nil
}

// Remove deletes bucket/key. S3 reports success for missing keys.
func (s *Store) Remove(ctx context.Context, bucket, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", bucket, key, err)
	}
	return nil
}

func putInput(bucket, key string, r io.Reader, size int64, opts object.PutOptions) *s3.PutObjectInput {
	input := &s3.PutObjectInput{
		Bucket:               aws.String(bucket),
		Key:                  aws.String(key),
		Body:                 r,
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if !opts.Upsert {
		input.IfNoneMatch = aws.String("*")
	}
	return input
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}

var _ object.ObjectStore = (*Store)(nil)
