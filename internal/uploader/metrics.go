package uploader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricLabelVersion = "version"
	MetricLabelCommit  = "commit"
	MetricLabelDate    = "date"
	MetricLabelKind    = "kind"

	kindFile     = "file"
	kindMetadata = "metadata"
)

var (
	MetricBuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retention_tools_s3_uploader_build_info",
			Help: "Build information of the S3 uploader",
		},
		[]string{MetricLabelVersion, MetricLabelCommit, MetricLabelDate},
	)

	MetricObjectsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_tools_s3_uploader_objects_uploaded_total",
			Help: "Number of objects written to the bucket",
		},
		[]string{MetricLabelKind},
	)

	MetricBytesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_tools_s3_uploader_bytes_uploaded_total",
			Help: "Number of bytes written to the bucket",
		},
	)

	MetricUploadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_tools_s3_uploader_upload_failures_total",
			Help: "Number of objects that could not be written",
		},
		[]string{MetricLabelKind},
	)
)

// WriteTextfile dumps the default registry in the node-exporter textfile
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
