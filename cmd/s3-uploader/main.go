package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/retention-tools/internal/config"
	"github.com/malbeclabs/retention-tools/internal/uploader"
)

const defaultConfigPath = "/etc/retention-tools/s3_uploader.toml"

var (
	configPath        = flag.String("config", defaultConfigPath, "Path to configuration file")
	bucket            = flag.String("bucket", "", "S3 bucket name (overrides config file)")
	region            = flag.String("region", "", "AWS region (overrides config file)")
	endpoint          = flag.String("endpoint-url", "", "Custom S3 endpoint, e.g. MinIO (overrides config file)")
	targetFolder      = flag.String("target-folder", "", "Folder in the bucket the files are uploaded under")
	useDatePaths      = flag.Bool("use-date-paths", false, "Upload under year=Y/month=M/day=D of the run date")
	noLocalFileParent = flag.Bool("no-local-file-parent", false, "Drop each file's parent folder: grand_parent/parent/child.txt becomes grand_parent/child.txt")
	noMainLocalFolder = flag.Bool("no-main-local-folder", false, "Drop the top-level local folder: main/a/b/file.txt becomes a/b/file.txt")
	metadata          = flag.Bool("metadata", false, "Append uploaded paths to the monthly metadata-{year}-{month}.csv catalogue")
	concurrency       = flag.Int("concurrency", 0, "Number of concurrent uploads (overrides config file)")
	paths             = flag.StringSlice("paths-to-upload", nil, "Local files or folders to upload (required)")
	metricsTextfile   = flag.String("metrics-textfile", "", "Write upload metrics to this node-exporter textfile")
	verbose           = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion       = flag.Bool("version", false, "Print version information and exit")

	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s, commit: %s, date: %s\n", version, commit, date)
		os.Exit(0)
	}

	_ = godotenv.Load()

	log := newLogger(*verbose)
	if err := run(log); err != nil {
		log.Error("Upload failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// Positional arguments are accepted as paths too.
	toUpload := append(*paths, flag.Args()...)
	if len(toUpload) == 0 {
		flag.Usage()
		return uploader.ErrNoPaths
	}

	uploader.MetricBuildInfo.WithLabelValues(version, commit, date).Set(1)

	// A missing default config file is fine: environment variables suffice.
	cfgPath := *configPath
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) && !flag.CommandLine.Changed("config") {
		cfgPath = ""
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(overrides())
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Info("Configuration loaded", "bucket", cfg.AWS.Bucket, "region", cfg.AWS.Region, "targetFolder", cfg.Upload.TargetFolder)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := uploader.NewS3Client(ctx, log, cfg)
	if err != nil {
		return err
	}
	up, err := uploader.New(log, uploader.ConfigFrom(cfg, client))
	if err != nil {
		return err
	}
	defer up.Close()
	log.Info("Starting upload run", "runID", up.RunID(), "paths", len(toUpload))

	summary, runErr := up.Run(ctx, toUpload)

	if *metricsTextfile != "" {
		if err := uploader.WriteTextfile(*metricsTextfile); err != nil {
			log.Warn("Failed to write metrics textfile", "path", *metricsTextfile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	log.Info("Upload complete", "files", len(summary.Results), "runID", summary.RunID, "metadata", summary.MetadataKey)
	return nil
}

// overrides collects only the flags set on the command line.
func overrides() config.Overrides {
	var o config.Overrides
	set := flag.CommandLine.Changed
	if set("bucket") {
		o.Bucket = bucket
	}
	if set("region") {
		o.Region = region
	}
	if set("endpoint-url") {
		o.EndpointURL = endpoint
	}
	if set("target-folder") {
		o.TargetFolder = targetFolder
	}
	if set("use-date-paths") {
		o.UseDatePaths = useDatePaths
	}
	if set("no-local-file-parent") {
		o.NoLocalFileParent = noLocalFileParent
	}
	if set("no-main-local-folder") {
		o.NoMainLocalFolder = noMainLocalFolder
	}
	if set("metadata") {
		o.Metadata = metadata
	}
	if set("concurrency") {
		o.Concurrency = concurrency
	}
	return o
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
