package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures NewS3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional (MinIO, LocalStack)
	// PathStyle forces path-style addressing, needed by most S3 clones.
	PathStyle bool
	Prefix    string
	// Static credentials; empty uses the default AWS credential chain.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3Store keeps documents in a bucket under Prefix.
type S3Store struct {
	API    S3API
	Bucket string
	Prefix string
}

// NewS3Store loads AWS configuration and builds the client.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("docstore: S3 bucket is required")
	}
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
		optFns = append(optFns, config.WithCredentialsProvider(creds))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("docstore: load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return &S3Store{API: s3.NewFromConfig(awsCfg, s3Opts...), Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil
}

// Put uploads body under Prefix+key.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("docstore: invalid key %q", key)
	}
	_, err := s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Prefix + key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("docstore: put %s: %w", key, err)
	}
	return nil
}

// Get downloads the object at Prefix+key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, string, error) {
	if !validKey(key) {
		return nil, "", ErrNotFound
	}
	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("docstore: get %s: %w", key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("docstore: read %s: %w", key, err)
	}
	return b, aws.ToString(out.ContentType), nil
}
