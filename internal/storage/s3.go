package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/upliftingvibes/backend/internal/config"
)

// SignedUpload is a pre-authorized, time-limited upload grant for a single
// storage key. Token is populated only when the backing store requires an
// out-of-band authorization token; S3 encodes everything in the URL.
type SignedUpload struct {
	URL   string
	Token string
}

// S3Storage issues presigned upload URLs and stats uploaded objects against
// an S3-compatible service.
type S3Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	ttl       time.Duration
}

// NewS3Storage configures a client targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		ttl:       ttl,
	}, nil
}

// SignUpload presigns a PUT for the exact key and content type. The URL is
// valid only for the configured TTL and only for that object.
func (s *S3Storage) SignUpload(ctx context.Context, key, contentType string) (SignedUpload, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return SignedUpload{}, fmt.Errorf("s3 storage: empty key")
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return SignedUpload{}, fmt.Errorf("s3 storage presign %s: %w", key, err)
	}

	return SignedUpload{URL: req.URL}, nil
}

// StatObject returns the size of an uploaded object, or an error if the
// object does not exist yet.
func (s *S3Storage) StatObject(ctx context.Context, key string) (int64, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return 0, fmt.Errorf("s3 storage: empty key")
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("s3 storage stat %s: %w", key, err)
	}

	return aws.ToInt64(out.ContentLength), nil
}
