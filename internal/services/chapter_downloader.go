package services

import (
	"context"

	"github.com/zigwangles/tokydownloader/internal/models"
)

// ChapterDownloader downloads a single chapter into dir
type ChapterDownloader interface {
	// DownloadChapter returns the chapter result. A non-nil error means the
	// chapter failed; the result is still populated with what is known.
	DownloadChapter(ctx context.Context, chapter models.Chapter, dir string) (*models.ChapterResult, error)
}

// PauseGate is consulted between chunks; downloads wait while it reports false
type PauseGate interface {
	IsRunning() bool
}

// ProgressObserver receives chapter lifecycle and progress events.
// Calls happen on the download goroutine and must not block.
type ProgressObserver interface {
	ChapterStarted(chapter models.Chapter, mirror string, total int64)
	ChapterProgress(progress models.DownloadProgress)
	ChapterFinished(result models.ChapterResult)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) ChapterStarted(models.Chapter, string, int64) {}
func (NopObserver) ChapterProgress(models.DownloadProgress)      {}
func (NopObserver) ChapterFinished(models.ChapterResult)         {}

// MultiObserver fans events out to several observers in order
type MultiObserver []ProgressObserver

func (m MultiObserver) ChapterStarted(chapter models.Chapter, mirror string, total int64) {
	for _, o := range m {
		o.ChapterStarted(chapter, mirror, total)
	}
}

func (m MultiObserver) ChapterProgress(progress models.DownloadProgress) {
	for _, o := range m {
		o.ChapterProgress(progress)
	}
}

func (m MultiObserver) ChapterFinished(result models.ChapterResult) {
	for _, o := range m {
		o.ChapterFinished(result)
	}
}
