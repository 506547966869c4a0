package backup

import (
	"context"
	"fmt"

	"github.com/13rac1/ccconfig/internal/manifest"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// headObjectAPI defines the minimal S3 client interface needed for checking file existence.
type headObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// ShouldUpload checks if a file should be uploaded by comparing with remote.
// Returns true if file should be uploaded (missing or different size).
// Returns false if the remote object has the same size.
func ShouldUpload(ctx context.Context, client headObjectAPI, bucket, key string, localSize int64) (bool, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		if manifest.IsNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("head object %s: %w", key, err)
	}

	if head.ContentLength == nil {
		return true, nil
	}

	return *head.ContentLength != localSize, nil
}
