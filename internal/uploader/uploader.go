// Package uploader copies local report folders into an S3 bucket and keeps
// a monthly catalogue of what was uploaded.
package uploader

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/retention-tools/internal/config"
	"github.com/malbeclabs/retention-tools/internal/objectkey"
	"github.com/malbeclabs/retention-tools/internal/retry"
	"github.com/malbeclabs/retention-tools/internal/verification"
)

const (
	MetadataRunID   = "run-id"
	MetadataRunDate = "run-date"

	runDateLayout = "2006-01-02"
)

var ErrNoPaths = errors.New("no paths to upload")

type Config struct {
	Client   S3API
	Bucket   string
	Region   string
	Endpoint string

	Layout   objectkey.Layout
	Metadata bool
	Encrypt  bool
	Verify   bool

	Concurrency int
	Retry       retry.Config
	Clock       clockwork.Clock
	// RunID tags every object of a run. Generated when empty.
	RunID string
}

func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.New("client is required")
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Concurrency <= 0 {
		c.Concurrency = config.DefaultConcurrency
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = retry.DefaultConfig()
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	return nil
}

// ConfigFrom maps the file/env/flag configuration onto an uploader config.
func ConfigFrom(cfg *config.Config, client S3API) Config {
	return Config{
		Client:   client,
		Bucket:   cfg.AWS.Bucket,
		Region:   cfg.AWS.Region,
		Endpoint: cfg.Endpoint(),
		Layout: objectkey.Layout{
			TargetFolder:      cfg.Upload.TargetFolder,
			UseDatePaths:      cfg.Upload.UseDatePaths,
			NoLocalFileParent: cfg.Upload.NoLocalFileParent,
			NoMainLocalFolder: cfg.Upload.NoMainLocalFolder,
			Sanitize:          cfg.Upload.SanitizeKeys,
		},
		Metadata:    cfg.Upload.Metadata,
		Encrypt:     cfg.Upload.EnableEncryption,
		Verify:      cfg.Upload.VerifyUpload,
		Concurrency: cfg.Upload.Concurrency,
	}
}

type Uploader struct {
	log      *slog.Logger
	cfg      Config
	verifier *verification.Verifier
	pool     pond.ResultPool[Result]
}

func New(log *slog.Logger, cfg Config) (*Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	return &Uploader{
		log:      log,
		cfg:      cfg,
		verifier: verification.New(cfg.Client, cfg.Bucket),
		pool:     pond.NewResultPool[Result](cfg.Concurrency),
	}, nil
}

// Close waits for in-flight uploads and releases the worker pool.
func (u *Uploader) Close() {
	u.pool.StopAndWait()
}

func (u *Uploader) RunID() string {
	return u.cfg.RunID
}

// Result describes one uploaded file.
type Result struct {
	LocalPath string
	Object    objectkey.Object
	Size      int64
	URL       string
}

// Summary is the outcome of a Run.
type Summary struct {
	RunID       string
	RunDate     time.Time
	Results     []Result
	MetadataKey string
}

// Run uploads every file under paths. Results are in walk order. When
// metadata is enabled the monthly catalogue is updated after all uploads
// succeed.
func (u *Uploader) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := Collect(paths)
	if err != nil {
		return nil, err
	}

	runDate := u.cfg.Clock.Now()
	summary := &Summary{RunID: u.cfg.RunID, RunDate: runDate}
	if len(files) == 0 {
		u.log.Warn("No files found to upload", "paths", paths)
		return summary, nil
	}
	u.log.Info("Uploading files", "count", len(files), "bucket", u.cfg.Bucket, "runID", u.cfg.RunID)

	objects := make([]objectkey.Object, len(files))
	for i, file := range files {
		if objects[i], err = u.cfg.Layout.Object(file, runDate); err != nil {
			return nil, err
		}
	}

	group := u.pool.NewGroupContext(ctx)
	for i, file := range files {
		obj := objects[i]
		group.SubmitErr(func() (Result, error) {
			return u.UploadFile(ctx, file, obj, runDate)
		})
	}
	results, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to upload files: %w", err)
	}
	summary.Results = results

	if u.cfg.Metadata {
		key := objectkey.MetadataKey(u.cfg.Layout.TargetFolder, runDate)
		if err := u.appendMetadata(ctx, key, results, runDate); err != nil {
			return nil, err
		}
		summary.MetadataKey = key
	}
	return summary, nil
}

// UploadFile writes one local file to obj and verifies it when enabled.
func (u *Uploader) UploadFile(ctx context.Context, localPath string, obj objectkey.Object, runDate time.Time) (Result, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		MetricUploadFailures.WithLabelValues(kindFile).Inc()
		return Result{}, fmt.Errorf("failed to read file %s: %w", localPath, err)
	}

	key := obj.Key()
	u.log.Debug("Uploading file", "path", localPath, "key", key, "bytes", len(data))
	if err := u.put(ctx, key, data, "", runDate); err != nil {
		MetricUploadFailures.WithLabelValues(kindFile).Inc()
		return Result{}, err
	}

	if u.cfg.Verify {
		if err := u.verifier.Verify(ctx, key, int64(len(data))); err != nil {
			MetricUploadFailures.WithLabelValues(kindFile).Inc()
			return Result{}, fmt.Errorf("upload verification failed: %w", err)
		}
	}

	MetricObjectsUploaded.WithLabelValues(kindFile).Inc()
	MetricBytesUploaded.Add(float64(len(data)))
	url := u.objectURL(key)
	u.log.Info("Uploaded file", "path", localPath, "url", url)
	return Result{LocalPath: localPath, Object: obj, Size: int64(len(data)), URL: url}, nil
}

func (u *Uploader) put(ctx context.Context, key string, data []byte, contentType string, runDate time.Time) error {
	contentMD5 := computeMD5(data)
	_, err := retry.Do(ctx, u.log, u.cfg.Retry, func() (*s3.PutObjectOutput, error) {
		input := &s3.PutObjectInput{
			Bucket:     aws.String(u.cfg.Bucket),
			Key:        aws.String(key),
			Body:       bytes.NewReader(data),
			ContentMD5: aws.String(contentMD5),
			Metadata: map[string]string{
				MetadataRunID:   u.cfg.RunID,
				MetadataRunDate: runDate.Format(runDateLayout),
			},
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
		}
		if u.cfg.Encrypt {
			input.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
		out, err := u.cfg.Client.PutObject(ctx, input)
		if err != nil && isPermanent(err) {
			return nil, retry.Permanent(err)
		}
		return out, err
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// isPermanent reports whether err is a client error that retrying cannot
// fix, such as AccessDenied, NoSuchBucket or BadDigest.
func isPermanent(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "RequestTimeout", "SlowDown":
			return false
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code >= 400 && code < 500 &&
			code != http.StatusRequestTimeout && code != http.StatusTooManyRequests
	}
	return apiErr != nil && apiErr.ErrorFault() == smithy.FaultClient
}

// objectURL is the address of key on AWS or on the custom endpoint.
func (u *Uploader) objectURL(key string) string {
	if u.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.cfg.Endpoint, u.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}

// Collect expands paths into the regular files they hold, walking
// directories recursively in lexical order.
func Collect(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	return files, nil
}

func computeMD5(data []byte) string {
	hash := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(hash[:])
}
