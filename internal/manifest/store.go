package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the part of the S3 API the manifest store needs.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store reads and writes the manifest object of one backup prefix.
type Store struct {
	client S3Client
	bucket string
	key    string
}

// NewStore returns a Store for the manifest at Key(prefix) in bucket.
func NewStore(client S3Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, key: Key(prefix)}
}

// Key returns the object key the store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// Load fetches the manifest. A missing object yields an empty manifest so the
// first backup to a prefix starts clean; every other failure is returned.
func (s *Store) Load(ctx context.Context) (*Manifest, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if IsNotFound(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("downloading manifest %s: %w", s.key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", s.key, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", s.key, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest %s has unsupported version %d", s.key, m.Version)
	}
	if m.Files == nil {
		m.Files = make(map[string]FileEntry)
	}

	return &m, nil
}

// Save stamps UpdatedAt and writes m as indented JSON.
func (s *Store) Save(ctx context.Context, m *Manifest) error {
	m.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("uploading manifest %s: %w", s.key, err)
	}

	return nil
}

// IsNotFound reports whether err means the object does not exist.
// S3-compatible providers may return a generic API error instead of the
// modeled NoSuchKey or NotFound types, so the error code is checked too.
func IsNotFound(err error) bool {
	var (
		noSuchKey *types.NoSuchKey
		notFound  *types.NotFound
		apiErr    smithy.APIError
	)
	switch {
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return true
	case errors.As(err, &apiErr):
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
