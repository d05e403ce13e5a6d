package fal

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Storage uploads assets (audio, images) and returns a public URL. The FAL
// backend is the default; an S3 bucket can be used instead when renders
// should reference owned storage.
type Storage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
	UploadFile(ctx context.Context, path string) (string, error)
}

// falStorage satisfies Storage with the FAL CDN.
type falStorage struct {
	client *Client
}

// NewFALStorage returns FAL-CDN backed storage.
func NewFALStorage(client *Client) Storage {
	return &falStorage{client: client}
}

func (s *falStorage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	return s.client.UploadBytes(ctx, fileName, data)
}

func (s *falStorage) UploadFile(ctx context.Context, path string) (string, error) {
	return s.client.UploadFile(ctx, path)
}

// S3Storage uploads assets to an S3 bucket with public-read object URLs.
type S3Storage struct {
	uploader *manager.Uploader
	bucket   string
	region   string
	prefix   string
}

// S3Config configures S3-backed asset storage.
type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

// NewS3Storage creates S3-backed storage using the ambient AWS credential
// chain.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires a bucket")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		prefix:   strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	key := fmt.Sprintf("%s-%s", uuid.NewString(), fileName)
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

func (s *S3Storage) UploadFile(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filePath, err)
	}
	return s.Upload(ctx, filepath.Base(filePath), data)
}
