package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/ridwanfathin/tour-quote-service/internal/domain"
)

// VersionArchiver uploads version snapshots to S3-compatible storage
type VersionArchiver struct {
	s3Client s3iface.S3API
	bucket   string
	endpoint string
}

// Config holds configuration for the archiver
type Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewVersionArchiver creates an archiver for Supabase storage's S3 endpoint
func NewVersionArchiver(config *Config) (*VersionArchiver, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}

	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(config.Region),
		Endpoint:         aws.String(strings.TrimSuffix(config.Endpoint, "/") + "/storage/v1/s3"),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return NewVersionArchiverWithClient(s3.New(sess), config.Bucket, config.Endpoint), nil
}

// NewVersionArchiverWithClient wires an existing S3 client
func NewVersionArchiverWithClient(client s3iface.S3API, bucket, endpoint string) *VersionArchiver {
	return &VersionArchiver{
		s3Client: client,
		bucket:   bucket,
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
}

// VersionKey is the object key of a version snapshot
func VersionKey(quoteID string, record domain.VersionRecord) string {
	return fmt.Sprintf("quotes/%s/versions/v%03d-%s.json", quoteID, record.Version, record.ID)
}

// Archive uploads the record as JSON and returns its object URL
func (a *VersionArchiver) Archive(ctx context.Context, quoteID string, record domain.VersionRecord) (string, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode version: %w", err)
	}

	key := VersionKey(quoteID, record)
	_, err = a.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata: map[string]*string{
			"Quote-Id":       aws.String(quoteID),
			"Version-Number": aws.String(fmt.Sprint(record.Version)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	// Format: https://{project-ref}.storage.supabase.co/storage/v1/object/{bucket}/{key}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", a.endpoint, a.bucket, key), nil
}
