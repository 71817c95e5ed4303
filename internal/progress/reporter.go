// Package progress renders chapter download progress as structured log lines.
package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zigwangles/tokydownloader/internal/models"
)

// Options configures the progress reporter.
type Options struct {
	// Logger receives the progress lines.
	Logger zerolog.Logger

	// Interval is the minimum time between two progress lines of a chapter.
	// Default: 500ms
	Interval time.Duration

	// PauseKey is shown in pause notices.
	// Default: "p"
	PauseKey string
}

// Reporter logs chapter progress, throttled to one line per Interval
type Reporter struct {
	opts Options

	mu       sync.Mutex
	lastLine time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Interval <= 0 {
		opts.Interval = 500 * time.Millisecond
	}
	if opts.PauseKey == "" {
		opts.PauseKey = "p"
	}
	return &Reporter{opts: opts}
}

// ChapterStarted logs the mirror and size of a chapter that begins streaming.
func (r *Reporter) ChapterStarted(chapter models.Chapter, mirror string, total int64) {
	r.mu.Lock()
	r.lastLine = time.Time{}
	r.mu.Unlock()

	size := "unknown"
	if total > 0 {
		size = formatBytes(total)
	}
	r.opts.Logger.Info().
		Str("chapter", chapter.Name).
		Str("mirror", mirror).
		Str("size", size).
		Msg("Streaming chapter")
}

// ChapterProgress logs a progress line unless one was logged less than
// Interval ago. The final chunk of a sized download is always logged.
func (r *Reporter) ChapterProgress(p models.DownloadProgress) {
	complete := p.KnownSize() && p.Downloaded >= p.Total

	r.mu.Lock()
	now := time.Now()
	if !complete && !r.lastLine.IsZero() && now.Sub(r.lastLine) < r.opts.Interval {
		r.mu.Unlock()
		return
	}
	r.lastLine = now
	r.mu.Unlock()

	event := r.opts.Logger.Info().
		Str("chapter", p.Chapter).
		Str("downloaded", formatBytes(p.Downloaded)).
		Str("speed", formatBytes(int64(p.Throughput()))+"/s")

	if p.KnownSize() {
		eta := "calculating..."
		if d := p.ETA(); d > 0 || complete {
			eta = formatDuration(d)
		}
		event = event.
			Str("total", formatBytes(p.Total)).
			Str("percent", fmt.Sprintf("%.1f%%", p.Percent())).
			Str("eta", eta)
	}
	event.Msg("Progress")
}

// ChapterFinished logs completed chapters. Failures are logged by the
// downloader itself.
func (r *Reporter) ChapterFinished(result models.ChapterResult) {
	if !result.Succeeded() {
		return
	}

	r.opts.Logger.Info().
		Str("chapter", result.Chapter.Name).
		Str("path", result.Path).
		Str("size", formatBytes(result.Bytes)).
		Str("duration", formatDuration(result.Duration)).
		Str("speed", formatBytes(int64(result.Throughput()))+"/s").
		Msg("Chapter complete")
}

// PauseChanged logs the paused or resumed notice.
func (r *Reporter) PauseChanged(running bool) {
	if running {
		r.opts.Logger.Info().Msg("Downloads resumed.")
		return
	}
	r.opts.Logger.Info().Msgf("Downloads paused. Press '%s' to resume.", r.opts.PauseKey)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
