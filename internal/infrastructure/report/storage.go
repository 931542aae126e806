package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Storage persists report objects by key.
type Storage interface {
	Store(ctx context.Context, key string, reader io.Reader) error
}

type LocalStorage struct {
	basePath string
	logger   *zap.Logger
}

func NewLocalStorage(basePath string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		logger:   logger,
	}, nil
}

func (s *LocalStorage) Store(ctx context.Context, key string, reader io.Reader) error {
	p := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("report stored", zap.String("path", p))
	return nil
}

// PutObjectAPI is the part of the S3 client used for archiving.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Storage struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Storage loads the default AWS credential chain for region.
func NewS3Storage(ctx context.Context, bucket, prefix, region string, logger *zap.Logger) (*S3Storage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3StorageWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func NewS3StorageWithClient(client PutObjectAPI, bucket, prefix string, logger *zap.Logger) *S3Storage {
	return &S3Storage{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (s *S3Storage) Store(ctx context.Context, key string, reader io.Reader) error {
	fullKey := s.getFullKey(key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fullKey),
		Body:        reader,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Debug("report uploaded", zap.String("bucket", s.bucket), zap.String("key", fullKey))
	return nil
}

func (s *S3Storage) getFullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Archiver writes batch reports to storage.
type Archiver struct {
	storage Storage
	logger  *zap.Logger
}

func NewArchiver(storage Storage, logger *zap.Logger) *Archiver {
	return &Archiver{storage: storage, logger: logger.Named("report")}
}

// Archive stores r as indented JSON and returns its key.
func (a *Archiver) Archive(ctx context.Context, r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	key := r.Key()
	if err := a.storage.Store(ctx, key, bytes.NewReader(data)); err != nil {
		return "", err
	}

	a.logger.Info("decision report archived",
		zap.String("key", key),
		zap.Int("decisions", r.Total()),
		zap.Int("grabbed", len(r.Grabbed)),
	)
	return key, nil
}
