package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zigwangles/tokydownloader/internal/apperrors"
	"github.com/zigwangles/tokydownloader/internal/config"
	"github.com/zigwangles/tokydownloader/internal/metrics"
	"github.com/zigwangles/tokydownloader/internal/models"
)

// maxErrorBody bounds how much of a non-200 response body is kept for the failure log
const maxErrorBody = 4096

// errInvalidRequest marks mirror URLs that could not be turned into a request
var errInvalidRequest = errors.New("invalid mirror request")

// MirrorOptions configures a MirrorDownloader. Zero values fall back to defaults.
type MirrorOptions struct {
	Mirrors      []string      // Base URLs tried in order, the remote path is appended to each
	ChunkSize    int           // Bytes per read, 1024 when zero
	Extension    string        // Output file extension, ".mp3" when empty
	ReadTimeout  time.Duration // Maximum time a single read may block, disabled when zero
	PollInterval time.Duration // Pause gate polling interval, 100ms when zero
	Gate         PauseGate     // Always running when nil
	Observer     ProgressObserver
}

// MirrorDownloader streams chapters from the first mirror that answers 200
type MirrorDownloader struct {
	httpClient *http.Client
	opts       MirrorOptions
}

// NewMirrorDownloader creates a downloader using httpClient for every mirror request.
func NewMirrorDownloader(httpClient *http.Client, opts MirrorOptions) *MirrorDownloader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if len(opts.Mirrors) == 0 {
		opts.Mirrors = append([]string(nil), config.DefaultMirrors...)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1024
	}
	if opts.Extension == "" {
		opts.Extension = ".mp3"
	} else if !strings.HasPrefix(opts.Extension, ".") {
		opts.Extension = "." + opts.Extension
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	return &MirrorDownloader{httpClient: httpClient, opts: opts}
}

// ChapterPath returns the destination file of chapter inside dir.
func (d *MirrorDownloader) ChapterPath(chapter models.Chapter, dir string) string {
	return filepath.Join(dir, SanitizeFilename(chapter.Name)+d.opts.Extension)
}

// DownloadChapter tries every mirror in order and streams the first 200
// response into the chapter file. A failed chapter returns a
// *apperrors.ChapterDownloadFailed along with its result.
func (d *MirrorDownloader) DownloadChapter(ctx context.Context, chapter models.Chapter, dir string) (*models.ChapterResult, error) {
	logger := config.GetLogger()
	start := time.Now()

	result := &models.ChapterResult{
		Chapter: chapter,
		Status:  models.ChapterStatusPending,
		Path:    d.ChapterPath(chapter, dir),
	}

	if err := reserveFile(result.Path); err != nil {
		return d.finish(result, start, &apperrors.ChapterDownloadFailed{Chapter: chapter.Name, Err: err})
	}

	logger.Info().Str("chapter", chapter.Name).Str("path", result.Path).Msg("Downloading chapter")

	var (
		lastStatus int
		lastBody   string
		lastErr    error
	)

	for _, mirror := range d.opts.Mirrors {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		result.Status = models.ChapterStatusTryingMirror
		url := mirror + escapeStrayPercent(chapter.RemotePath)

		resp, cancel, err := d.get(ctx, url)
		if errors.Is(err, errInvalidRequest) {
			metrics.MirrorRequestsTotal.WithLabelValues(mirror, metrics.OutcomeInvalidURL).Inc()
			lastErr = err
			logger.Error().Err(err).Str("chapter", chapter.Name).Str("mirror", mirror).Msg("Invalid chapter URL, trying next mirror")
			continue
		}
		if err != nil {
			metrics.MirrorRequestsTotal.WithLabelValues(mirror, metrics.OutcomeUnreachable).Inc()
			lastErr = &apperrors.MirrorUnreachable{Mirror: mirror, Err: err}
			logger.Warn().Err(err).Str("chapter", chapter.Name).Str("mirror", mirror).Msg("Mirror unreachable, trying next")
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			_ = resp.Body.Close()
			cancel()

			metrics.MirrorRequestsTotal.WithLabelValues(mirror, metrics.OutcomeHTTPError).Inc()
			lastStatus = resp.StatusCode
			lastBody = string(body)
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			logger.Warn().Str("chapter", chapter.Name).Str("mirror", mirror).Int("status", resp.StatusCode).Msg("Mirror refused chapter, trying next")
			continue
		}

		metrics.MirrorRequestsTotal.WithLabelValues(mirror, metrics.OutcomeOK).Inc()
		result.Status = models.ChapterStatusStreaming
		result.Mirror = mirror

		written, err := d.stream(ctx, chapter, mirror, resp, result.Path)
		cancel()
		result.Bytes = written
		if err != nil {
			return d.finish(result, start, &apperrors.ChapterDownloadFailed{Chapter: chapter.Name, Err: err})
		}

		result.Status = models.ChapterStatusDone
		return d.finish(result, start, nil)
	}

	logger.Error().
		Str("chapter", chapter.Name).
		Int("last_status", lastStatus).
		Str("last_body", lastBody).
		Msg("[FAILED] No mirror could deliver chapter")

	return d.finish(result, start, &apperrors.ChapterDownloadFailed{
		Chapter:    chapter.Name,
		LastStatus: lastStatus,
		LastBody:   lastBody,
		Err:        lastErr,
	})
}

// get issues the mirror request. The returned cancel func releases the
// request context and must be called once the body is no longer needed.
func (d *MirrorDownloader) get(ctx context.Context, url string) (*http.Response, context.CancelFunc, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	req.Header.Set("User-Agent", config.GetUserAgent())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	resp.Body = newIdleTimeoutBody(resp.Body, d.opts.ReadTimeout, cancel)
	return resp, cancel, nil
}

// escapeStrayPercent encodes '%' signs that do not start a valid escape so
// remote paths such as "Book 100%/01.mp3" still parse as URLs. Valid escapes
// are left for the server to decode.
func escapeStrayPercent(path string) string {
	if !strings.Contains(path, "%") {
		return path
	}

	var sb strings.Builder
	sb.Grow(len(path) + 4)
	for i := 0; i < len(path); i++ {
		if path[i] == '%' && !(i+2 < len(path) && isHex(path[i+1]) && isHex(path[i+2])) {
			sb.WriteString("%25")
			continue
		}
		sb.WriteByte(path[i])
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// stream copies the response body into path chunk by chunk, waiting on the
// pause gate between each read and the matching write.
func (d *MirrorDownloader) stream(ctx context.Context, chapter models.Chapter, mirror string, resp *http.Response, path string) (int64, error) {
	defer resp.Body.Close()

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	progress := models.DownloadProgress{
		Chapter:   chapter.Name,
		Mirror:    mirror,
		Total:     total,
		StartedAt: time.Now(),
	}
	d.opts.Observer.ChapterStarted(chapter, mirror, total)

	buf := make([]byte, d.opts.ChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if err := d.waitWhilePaused(ctx); err != nil {
				return progress.Downloaded, err
			}
			if _, err := file.Write(buf[:n]); err != nil {
				return progress.Downloaded, fmt.Errorf("failed to write %s: %w", path, err)
			}
			progress.Downloaded += int64(n)
			progress.Elapsed = time.Since(progress.StartedAt)
			metrics.DownloadedBytesTotal.Add(float64(n))
			d.opts.Observer.ChapterProgress(progress)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return progress.Downloaded, fmt.Errorf("failed to read from %s: %w", mirror, readErr)
		}
	}

	if err := file.Close(); err != nil {
		return progress.Downloaded, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return progress.Downloaded, nil
}

// waitWhilePaused blocks until the gate reports running or ctx ends.
func (d *MirrorDownloader) waitWhilePaused(ctx context.Context) error {
	if d.opts.Gate == nil || d.opts.Gate.IsRunning() {
		return ctx.Err()
	}

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()
	for !d.opts.Gate.IsRunning() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (d *MirrorDownloader) finish(result *models.ChapterResult, start time.Time, err error) (*models.ChapterResult, error) {
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = models.ChapterStatusFailed
		result.Err = err
	}

	metrics.ChaptersTotal.WithLabelValues(result.Status.String()).Inc()
	if err == nil {
		metrics.ChapterDurationSeconds.Observe(result.Duration.Seconds())
	}
	d.opts.Observer.ChapterFinished(*result)

	return result, err
}

// reserveFile creates path if it does not exist yet, leaving existing content alone.
func reserveFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}
