package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrSizeMismatch = errors.New("size mismatch")

// HeadObjectAPI is the part of the S3 client the verifier needs.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Verifier checks uploaded objects against their local size.
type Verifier struct {
	client HeadObjectAPI
	bucket string
}

func New(client HeadObjectAPI, bucket string) *Verifier {
	return &Verifier{client: client, bucket: bucket}
}

// Verify checks that key exists and holds expectedSize bytes.
func (v *Verifier) Verify(ctx context.Context, key string, expectedSize int64) error {
	out, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &v.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to head object %s: %w", key, err)
	}
	if out.ContentLength == nil {
		return fmt.Errorf("%w: no content length for %s", ErrSizeMismatch, key)
	}
	if *out.ContentLength != expectedSize {
		return fmt.Errorf("%w: expected %d bytes, got %d bytes", ErrSizeMismatch, expectedSize, *out.ContentLength)
	}
	return nil
}
