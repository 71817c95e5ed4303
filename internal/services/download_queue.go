package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/zigwangles/tokydownloader/internal/config"
	"github.com/zigwangles/tokydownloader/internal/models"
)

// Order is the policy used to pick the next chapter from the queue
type Order int

const (
	// OrderReverse takes chapters from the end of the page order
	OrderReverse Order = iota
	// OrderForward takes chapters in page order
	OrderForward
)

func (o Order) String() string {
	switch o {
	case OrderForward:
		return "forward"
	default:
		return "reverse"
	}
}

// ParseOrder parses "reverse" or "forward", case insensitive. Empty means reverse.
func ParseOrder(raw string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "reverse":
		return OrderReverse, nil
	case "forward":
		return OrderForward, nil
	default:
		return OrderReverse, fmt.Errorf("invalid order %q (expected reverse or forward)", raw)
	}
}

// Summary holds the outcome of a queue run
type Summary struct {
	Succeeded []models.ChapterResult
	Failed    []models.ChapterResult
}

// Total returns the number of chapters that were attempted.
func (s Summary) Total() int {
	return len(s.Succeeded) + len(s.Failed)
}

// DownloadQueue drains a chapter list one chapter at a time
type DownloadQueue struct {
	downloader ChapterDownloader
	dir        string
	order      Order
}

// NewDownloadQueue creates a queue writing chapters into dir.
func NewDownloadQueue(downloader ChapterDownloader, dir string, order Order) *DownloadQueue {
	return &DownloadQueue{downloader: downloader, dir: dir, order: order}
}

// Run downloads every chapter sequentially. Failed chapters are logged and
// skipped, only ctx cancellation stops the run early.
func (q *DownloadQueue) Run(ctx context.Context, chapters []models.Chapter) Summary {
	logger := config.GetLogger()

	pending := append([]models.Chapter(nil), chapters...)
	var summary Summary

	logger.Info().Int("chapters", len(pending)).Str("order", q.order.String()).Str("dir", q.dir).Msg("Starting download queue")

	for len(pending) > 0 {
		if ctx.Err() != nil {
			logger.Warn().Int("remaining", len(pending)).Msg("Download queue cancelled")
			break
		}

		var chapter models.Chapter
		chapter, pending = q.next(pending)

		result, err := q.downloader.DownloadChapter(ctx, chapter, q.dir)
		if result == nil {
			result = &models.ChapterResult{Chapter: chapter, Status: models.ChapterStatusFailed, Err: err}
		}

		if err != nil {
			if result.Err == nil {
				result.Err = err
			}
			result.Status = models.ChapterStatusFailed
			logger.Warn().Err(err).Str("chapter", chapter.Name).Msg("Skipping failed chapter")
			summary.Failed = append(summary.Failed, *result)
			continue
		}

		logger.Info().
			Str("chapter", chapter.Name).
			Int64("bytes", result.Bytes).
			Str("speed_kbps", fmt.Sprintf("%.2f", result.Throughput()/1024)).
			Msgf("Download speed: %.2f KB/s", result.Throughput()/1024)
		summary.Succeeded = append(summary.Succeeded, *result)
	}

	return summary
}

func (q *DownloadQueue) next(pending []models.Chapter) (models.Chapter, []models.Chapter) {
	if q.order == OrderForward {
		return pending[0], pending[1:]
	}
	last := len(pending) - 1
	return pending[last], pending[:last]
}
