package objectclient

import (
	"fmt"

	"github.com/vitalia-labs/vitalia/internal/core"
)

var _ core.ObjectClient = (*S3Client)(nil)

// objectURL builds the virtual-hosted-style URL for an uploaded object.
func objectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
