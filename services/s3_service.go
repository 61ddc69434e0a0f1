package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appConfig "github.com/otd-mx/ordenes-api/config"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// S3API is the subset of the S3 client used for workbook storage
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// PresignedURLProvider is implemented by storages that can hand out direct download links.
// A link is only worth handing out once WorkbookExists reports true.
type PresignedURLProvider interface {
	WorkbookExists(ctx context.Context) (bool, error)
	GetPresignedURL(ctx context.Context) (string, error)
}

// S3WorkbookStorage keeps the workbook as a single S3 object
type S3WorkbookStorage struct {
	client  S3API
	presign *s3.PresignClient
	bucket  string
	key     string
}

// NewS3WorkbookStorage builds an S3 client from the application configuration
func NewS3WorkbookStorage(ctx context.Context, cfg *appConfig.Config) (*S3WorkbookStorage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	// Fall back to the default credential chain (instance role, shared profile) when no static keys are set
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)
	return &S3WorkbookStorage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.AWSS3Bucket,
		key:     cfg.AWSS3Key,
	}, nil
}

// NewS3WorkbookStorageWithClient wires an existing client, mainly for tests
func NewS3WorkbookStorageWithClient(client S3API, bucket, key string) *S3WorkbookStorage {
	return &S3WorkbookStorage{client: client, bucket: bucket, key: key}
}

func (s *S3WorkbookStorage) Describe() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// ReadWorkbook downloads the workbook object
func (s *S3WorkbookStorage) ReadWorkbook(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrWorkbookNotFound
		}
		return nil, fmt.Errorf("failed to download workbook from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook from S3: %w", err)
	}
	return data, nil
}

// WriteWorkbook uploads the workbook, replacing the previous object
func (s *S3WorkbookStorage) WriteWorkbook(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload workbook to S3: %w", err)
	}
	return nil
}

// WorkbookExists checks for the workbook object without downloading it
func (s *S3WorkbookStorage) WorkbookExists(ctx context.Context) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check workbook in S3: %w", err)
}

// GetPresignedURL generates a download URL for the workbook.
// The URL expires after 15 minutes
func (s *S3WorkbookStorage) GetPresignedURL(ctx context.Context) (string, error) {
	if s.presign == nil {
		return "", errors.New("presigning is not configured")
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = 15 * time.Minute
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return request.URL, nil
}
