// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

package metadata

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Store fetches the baseline snapshot document for the read path.
type Store interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// S3Store reads the snapshot object from an S3 bucket.
type S3Store struct {
	client *s3.S3
	bucket string
	key    string
}

// NewS3Store creates an S3-backed snapshot store.
// AWS credentials are resolved from the environment or IAM role; the region
// falls back to AWS_REGION when empty.
func NewS3Store(region, bucket, key string) (*S3Store, error) {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3Store{
		client: s3.New(sess),
		bucket: bucket,
		key:    key,
	}, nil
}

// Fetch downloads and returns the snapshot object body.
func (s *S3Store) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return data, nil
}

// FileStore reads the snapshot from the local filesystem. This is a stand-in
// for the S3 store, kept for local testing/development purposes.
type FileStore struct {
	path string
}

// NewFileStore creates a filesystem-backed snapshot store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Fetch returns the snapshot file contents.
func (s *FileStore) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}
	return data, nil
}
