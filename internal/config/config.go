package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "S3_UPLOADER_"

const DefaultConcurrency = 4

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete uploader configuration.
type Config struct {
	AWS    AWSConfig    `toml:"aws"`
	Upload UploadConfig `toml:"upload"`
}

// AWSConfig holds the bucket location and optional static credentials. When
// both keys are empty the default AWS credential chain is used.
type AWSConfig struct {
	Region          string  `toml:"region"`
	Bucket          string  `toml:"bucket"`
	AccessKeyID     string  `toml:"access_key_id"`
	SecretAccessKey string  `toml:"secret_access_key"`
	EndpointURL     *string `toml:"endpoint_url,omitempty"`
}

// UploadConfig controls how local paths become object keys and how objects
// are written.
type UploadConfig struct {
	TargetFolder      string `toml:"target_folder"`
	UseDatePaths      bool   `toml:"use_date_paths"`
	NoLocalFileParent bool   `toml:"no_local_file_parent"`
	NoMainLocalFolder bool   `toml:"no_main_local_folder"`
	Metadata          bool   `toml:"metadata"`
	SanitizeKeys      bool   `toml:"sanitize_keys"`
	EnableEncryption  bool   `toml:"enable_encryption"`
	VerifyUpload      bool   `toml:"verify_upload"`
	Concurrency       int    `toml:"concurrency"`
}

func DefaultConfig() *Config {
	return &Config{
		Upload: UploadConfig{
			EnableEncryption: true,
			VerifyUpload:     true,
			Concurrency:      DefaultConcurrency,
		},
	}
}

// Load reads configuration from an optional TOML file and then applies
// S3_UPLOADER_* environment variables on top of it.
// Priority: CLI flags > environment > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	str("AWS_REGION", &c.AWS.Region)
	str("AWS_BUCKET", &c.AWS.Bucket)
	str("AWS_ACCESS_KEY_ID", &c.AWS.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &c.AWS.SecretAccessKey)
	if v, ok := lookup(EnvPrefix + "AWS_ENDPOINT_URL"); ok && v != "" {
		c.AWS.EndpointURL = &v
	}

	str("UPLOAD_TARGET_FOLDER", &c.Upload.TargetFolder)
	flag("UPLOAD_USE_DATE_PATHS", &c.Upload.UseDatePaths)
	flag("UPLOAD_NO_LOCAL_FILE_PARENT", &c.Upload.NoLocalFileParent)
	flag("UPLOAD_NO_MAIN_LOCAL_FOLDER", &c.Upload.NoMainLocalFolder)
	flag("UPLOAD_METADATA", &c.Upload.Metadata)
	flag("UPLOAD_SANITIZE_KEYS", &c.Upload.SanitizeKeys)
	flag("UPLOAD_ENABLE_ENCRYPTION", &c.Upload.EnableEncryption)
	flag("UPLOAD_VERIFY_UPLOAD", &c.Upload.VerifyUpload)
	if v, ok := lookup(EnvPrefix + "UPLOAD_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse %sUPLOAD_CONCURRENCY: %w", EnvPrefix, err)
		}
		c.Upload.Concurrency = n
	}
	return nil
}

// Overrides carries values set explicitly on the command line. Nil fields
// leave the loaded value untouched.
type Overrides struct {
	Bucket            *string
	Region            *string
	EndpointURL       *string
	TargetFolder      *string
	UseDatePaths      *bool
	NoLocalFileParent *bool
	NoMainLocalFolder *bool
	Metadata          *bool
	Concurrency       *int
}

func (c *Config) ApplyOverrides(o Overrides) {
	if o.Bucket != nil && *o.Bucket != "" {
		c.AWS.Bucket = *o.Bucket
	}
	if o.Region != nil && *o.Region != "" {
		c.AWS.Region = *o.Region
	}
	if o.EndpointURL != nil && *o.EndpointURL != "" {
		c.AWS.EndpointURL = o.EndpointURL
	}
	if o.TargetFolder != nil {
		c.Upload.TargetFolder = *o.TargetFolder
	}
	if o.UseDatePaths != nil {
		c.Upload.UseDatePaths = *o.UseDatePaths
	}
	if o.NoLocalFileParent != nil {
		c.Upload.NoLocalFileParent = *o.NoLocalFileParent
	}
	if o.NoMainLocalFolder != nil {
		c.Upload.NoMainLocalFolder = *o.NoMainLocalFolder
	}
	if o.Metadata != nil {
		c.Upload.Metadata = *o.Metadata
	}
	if o.Concurrency != nil {
		c.Upload.Concurrency = *o.Concurrency
	}
}

// Validate rejects incomplete configuration and fills defaults.
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("%w: AWS region cannot be empty", ErrInvalidConfig)
	}
	if c.AWS.Bucket == "" {
		return fmt.Errorf("%w: AWS bucket cannot be empty", ErrInvalidConfig)
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return fmt.Errorf("%w: access_key_id and secret_access_key must be set together", ErrInvalidConfig)
	}
	if c.Upload.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Upload.Concurrency)
	}
	if c.Upload.Concurrency == 0 {
		c.Upload.Concurrency = DefaultConcurrency
	}
	return nil
}

// StaticCredentials reports whether keys were configured explicitly.
func (c *Config) StaticCredentials() bool {
	return c.AWS.AccessKeyID != ""
}

// Endpoint returns the custom endpoint URL, or "" for AWS.
func (c *Config) Endpoint() string {
	if c.AWS.EndpointURL == nil {
		return ""
	}
	return *c.AWS.EndpointURL
}
