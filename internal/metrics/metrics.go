package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Chapter download metrics
var (
	ChaptersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chapter_downloads_total",
			Help: "Total number of chapter downloads by final status.",
		},
		[]string{"status"},
	)

	MirrorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_requests_total",
			Help: "Total number of chapter requests sent to a mirror, by outcome.",
		},
		[]string{"mirror", "outcome"},
	)

	DownloadedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "downloaded_bytes_total",
			Help: "Total number of audio bytes written to disk.",
		},
	)

	ChapterDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chapter_download_duration_seconds",
			Help:    "Wall-clock time spent downloading a chapter, pauses included.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	PageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_fetches_total",
			Help: "Total number of book page fetches by status.",
		},
		[]string{"status"},
	)
)

// Mirror request outcomes
const (
	OutcomeOK          = "ok"
	OutcomeUnreachable = "unreachable"
	OutcomeHTTPError   = "http_error"
	OutcomeInvalidURL  = "invalid_url"
)

func init() {
	prometheus.MustRegister(
		ChaptersTotal,
		MirrorRequestsTotal,
		DownloadedBytesTotal,
		ChapterDurationSeconds,
		PageFetchesTotal,
	)
}
