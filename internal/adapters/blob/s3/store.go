package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"procurement-hub/internal/ports/blob"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Store implementa blob.Store sobre S3 o un compatible (MinIO).
type Store struct {
	client *s3.Client
	bucket string
}

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // opcional (MinIO / LocalStack)
	AccessKeyID     string // opcional; si no, default credential chain
	SecretAccessKey string
	PathStyle       bool
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// NewWithClient permite inyectar un cliente ya armado (tests).
func NewWithClient(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Driver() blob.Driver { return blob.DriverS3 }

func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	// el SDK necesita un body con Seek para firmar; leemos a memoria (los artefactos son chicos)
	data, err := io.ReadAll(r)
	if err != nil {
		return blob.Info{}, err
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(string(data)),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		in.Metadata = opts.Metadata
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return blob.Info{}, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return blob.Info{Key: key, Size: int64(len(data)), ContentType: opts.ContentType, LastModified: time.Now().UTC()}, nil
}

func (s *Store) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return blob.Info{}, nil, blob.ErrNotFound
		}
		return blob.Info{}, nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	info := blob.Info{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}
	return info, out.Body, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
