package audiostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/snarg/callengine/internal/config"
)

// S3Store stores audio files in an S3-compatible object store, returning
// presigned GET URLs.
type S3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	prefix        string
	presignExpiry time.Duration
	log           zerolog.Logger
}

// NewS3Store creates an S3 audio store from config.
func NewS3Store(cfg *config.Config, log zerolog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.S3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	presignClient := s3.NewPresignClient(client)

	return &S3Store{
		client:        client,
		presignClient: presignClient,
		bucket:        cfg.S3Bucket,
		prefix:        cfg.S3Prefix,
		presignExpiry: 24 * time.Hour,
		log:           log.With().Str("component", "s3-audiostore").Logger(),
	}, nil
}

// HeadBucket checks that the bucket exists and credentials are valid.
func (s *S3Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	return err
}

func (s *S3Store) put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", err
	}
	return s.presign(ctx, objKey)
}

func (s *S3Store) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.put(ctx, key, data, contentType)
}

func (s *S3Store) SaveCached(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.put(ctx, path.Join(cacheDirName, key), data, contentType)
}

func (s *S3Store) CachedURL(ctx context.Context, key string) (string, error) {
	objKey := s.objectKey(path.Join(cacheDirName, key))
	if !s.exists(ctx, objKey) {
		return "", nil
	}
	return s.presign(ctx, objKey)
}

func (s *S3Store) presign(ctx context.Context, objKey string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &objKey,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignExpiry
	})
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) bool {
	return s.exists(ctx, s.objectKey(key))
}

func (s *S3Store) exists(ctx context.Context, objKey string) bool {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &objKey})
	return err == nil
}

func (s *S3Store) Type() string { return "s3" }

// Stats is not cheaply computable against S3 without a full bucket listing;
// returns zero values. The pruner does not run against S3 storage (see
// NewPruner), so nothing here lists or purges objects.
func (s *S3Store) Stats() Stats { return Stats{} }

func (s *S3Store) objectKey(key string) string {
	if s.prefix != "" {
		return s.prefix + "/audio/" + key
	}
	return "audio/" + key
}
