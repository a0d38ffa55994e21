package uploader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// MetadataHeader is the catalogue header, written once per object.
var MetadataHeader = []string{"Path", "File", "Date"}

// appendMetadata adds one catalogue row per result to the object at key,
// creating it when it does not exist yet.
func (u *Uploader) appendMetadata(ctx context.Context, key string, results []Result, runDate time.Time) error {
	existing, err := u.download(ctx, key)
	if err != nil {
		MetricUploadFailures.WithLabelValues(kindMetadata).Inc()
		return err
	}
	if existing == nil {
		u.log.Info("Metadata file not found, creating it", "bucket", u.cfg.Bucket, "key", key)
	}

	body, err := MetadataRows(existing, results, runDate)
	if err != nil {
		return err
	}
	if err := u.put(ctx, key, body, "text/csv", runDate); err != nil {
		MetricUploadFailures.WithLabelValues(kindMetadata).Inc()
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	MetricObjectsUploaded.WithLabelValues(kindMetadata).Inc()
	u.log.Info("Wrote metadata records", "bucket", u.cfg.Bucket, "key", key, "rows", len(results))
	return nil
}

// MetadataRows appends a Path,File,Date row per result to existing. The
// header is only written when existing is empty.
func MetadataRows(existing []byte, results []Result, runDate time.Time) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}

	w := csv.NewWriter(&buf)
	if len(existing) == 0 {
		if err := w.Write(MetadataHeader); err != nil {
			return nil, fmt.Errorf("failed to write metadata header: %w", err)
		}
	}
	date := runDate.Format(runDateLayout)
	for _, r := range results {
		if err := w.Write([]string{r.Object.Dir, r.Object.Name, date}); err != nil {
			return nil, fmt.Errorf("failed to write metadata row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// download returns the object body, or nil when the key does not exist.
func (u *Uploader) download(ctx context.Context, key string) ([]byte, error) {
	out, err := u.cfg.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}
