package backup

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ListHosts returns the hosts that have backups under bucket/prefix.
// Each immediate child prefix is treated as a host.
func ListHosts(ctx context.Context, client s3.ListObjectsV2APIClient, bucket, prefix string) ([]string, error) {
	// Ensure prefix ends with / for consistent prefix matching
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	hostPrefixes, err := listChildPrefixes(ctx, client, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list host prefixes: %w", err)
	}

	var hosts []string
	for _, p := range hostPrefixes {
		if name := extractHostName(p, prefix); name != "" {
			hosts = append(hosts, name)
		}
	}

	// Sort by name for deterministic output
	sort.Strings(hosts)

	return hosts, nil
}

// listChildPrefixes returns all immediate child prefixes under bucket/prefix.
// Uses pagination to handle large buckets.
func listChildPrefixes(ctx context.Context, client s3.ListObjectsV2APIClient, bucket, prefix string) ([]string, error) {
	var prefixes []string

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			if cp.Prefix != nil {
				prefixes = append(prefixes, *cp.Prefix)
			}
		}
	}

	return prefixes, nil
}

// extractHostName extracts the host name from an S3 prefix.
// Given basePrefix="claude-config/" and hostPrefix="claude-config/laptop/",
// returns "laptop".
func extractHostName(hostPrefix, basePrefix string) string {
	name := strings.TrimPrefix(hostPrefix, basePrefix)
	name = strings.Trim(name, "/")
	if name == "" {
		return ""
	}
	return path.Base(name)
}
